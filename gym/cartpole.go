package gym

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/rand"
)

const (
	cartGravity        = 9.8
	cartMass           = 1.0
	poleMass           = 0.1
	poleHalfLength     = 0.5
	cartTotalMass      = cartMass + poleMass
	poleMassLength     = poleMass * poleHalfLength
	cartForce          = 10.0
	cartTau            = 0.02
	cartXThreshold     = 2.4
	cartThetaThreshold = 12.0 * math.Pi / 180.0
)

// CartPole balances a pole on a cart by pushing the cart left or right.
// Observation is (x, xDot, theta, thetaDot), actions are {left, right},
// reward is 1 per step until the pole falls or the cart leaves the track.
type CartPole struct {
	x        float64
	xDot     float64
	theta    float64
	thetaDot float64
	rng      *rand.Rand
}

var _ Environment = &CartPole{}
var _ Renderer = &CartPole{}

func NewCartPole(rng *rand.Rand) *CartPole {
	env := &CartPole{rng: rng}
	env.Reset()
	return env
}

func (c *CartPole) Reset() []float64 {
	c.x = c.rng.Float64()*0.1 - 0.05
	c.xDot = c.rng.Float64()*0.1 - 0.05
	c.theta = c.rng.Float64()*0.1 - 0.05
	c.thetaDot = c.rng.Float64()*0.1 - 0.05
	return c.observation()
}

func (c *CartPole) Step(a Action) ([]float64, float64, bool) {
	force := cartForce
	if a.Index == 0 {
		force = -cartForce
	}

	cosTheta := math.Cos(c.theta)
	sinTheta := math.Sin(c.theta)

	temp := (force + poleMassLength*c.thetaDot*c.thetaDot*sinTheta) / cartTotalMass
	thetaAcc := (cartGravity*sinTheta - cosTheta*temp) /
		(poleHalfLength * (4.0/3.0 - poleMass*cosTheta*cosTheta/cartTotalMass))
	xAcc := temp - poleMassLength*thetaAcc*cosTheta/cartTotalMass

	c.x += cartTau * c.xDot
	c.xDot += cartTau * xAcc
	c.theta += cartTau * c.thetaDot
	c.thetaDot += cartTau * thetaAcc

	done := c.x < -cartXThreshold || c.x > cartXThreshold ||
		c.theta < -cartThetaThreshold || c.theta > cartThetaThreshold
	return c.observation(), 1.0, done
}

func (c *CartPole) observation() []float64 {
	return []float64{c.x, c.xDot, c.theta, c.thetaDot}
}

func (c *CartPole) ObservationSpace() Space {
	return BoxSpace(
		[]float64{-cartXThreshold * 2, math.Inf(-1), -cartThetaThreshold * 2, math.Inf(-1)},
		[]float64{cartXThreshold * 2, math.Inf(1), cartThetaThreshold * 2, math.Inf(1)},
	)
}

func (c *CartPole) ActionSpace() Space {
	return DiscreteSpace(2)
}

func (c *CartPole) Render() string {
	width := 41
	pos := int((c.x + cartXThreshold) / (2 * cartXThreshold) * float64(width-1))
	if pos < 0 {
		pos = 0
	}
	if pos >= width {
		pos = width - 1
	}
	track := []byte(strings.Repeat("-", width))
	track[pos] = '#'
	return fmt.Sprintf("[%s] theta=%+.3f", string(track), c.theta)
}

func init() {
	Register(Spec{
		Name:          "CartPole-v0",
		TimestepLimit: 200,
		New:           func(rng *rand.Rand) Environment { return NewCartPole(rng) },
	})
	Register(Spec{
		Name:          "CartPole-v1",
		TimestepLimit: 500,
		New:           func(rng *rand.Rand) Environment { return NewCartPole(rng) },
	})
}

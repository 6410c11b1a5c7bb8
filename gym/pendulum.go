package gym

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

const (
	pendulumMaxSpeed  = 8.0
	pendulumMaxTorque = 2.0
	pendulumDt        = 0.05
	pendulumGravity   = 10.0
	pendulumMass      = 1.0
	pendulumLength    = 1.0
)

// Pendulum swings up and balances an inverted pendulum with a continuous
// torque. Observation is (cos theta, sin theta, thetaDot), the action is a
// single torque in [-2, 2]. The episode never terminates on its own, reward
// is the negated cost of being away from upright.
type Pendulum struct {
	theta    float64
	thetaDot float64
	rng      *rand.Rand
}

var _ Environment = &Pendulum{}
var _ Renderer = &Pendulum{}

func NewPendulum(rng *rand.Rand) *Pendulum {
	env := &Pendulum{rng: rng}
	env.Reset()
	return env
}

func (p *Pendulum) Reset() []float64 {
	p.theta = p.rng.Float64()*2*math.Pi - math.Pi
	p.thetaDot = p.rng.Float64()*2 - 1
	return p.observation()
}

func (p *Pendulum) Step(a Action) ([]float64, float64, bool) {
	torque := p.ActionSpace().Clip(a.Values)[0]

	angle := angleNormalize(p.theta)
	cost := angle*angle + 0.1*p.thetaDot*p.thetaDot + 0.001*torque*torque

	p.thetaDot += (3*pendulumGravity/(2*pendulumLength)*math.Sin(p.theta) +
		3/(pendulumMass*pendulumLength*pendulumLength)*torque) * pendulumDt
	if p.thetaDot < -pendulumMaxSpeed {
		p.thetaDot = -pendulumMaxSpeed
	}
	if p.thetaDot > pendulumMaxSpeed {
		p.thetaDot = pendulumMaxSpeed
	}
	p.theta += p.thetaDot * pendulumDt

	return p.observation(), -cost, false
}

func angleNormalize(theta float64) float64 {
	return math.Mod(theta+math.Pi, 2*math.Pi) - math.Pi
}

func (p *Pendulum) observation() []float64 {
	return []float64{math.Cos(p.theta), math.Sin(p.theta), p.thetaDot}
}

func (p *Pendulum) ObservationSpace() Space {
	return BoxSpace(
		[]float64{-1, -1, -pendulumMaxSpeed},
		[]float64{1, 1, pendulumMaxSpeed},
	)
}

func (p *Pendulum) ActionSpace() Space {
	return BoxSpace([]float64{-pendulumMaxTorque}, []float64{pendulumMaxTorque})
}

func (p *Pendulum) Render() string {
	return fmt.Sprintf("theta=%+.3f thetaDot=%+.3f", angleNormalize(p.theta), p.thetaDot)
}

func init() {
	Register(Spec{
		Name:          "Pendulum-v0",
		TimestepLimit: 200,
		New:           func(rng *rand.Rand) Environment { return NewPendulum(rng) },
	})
}

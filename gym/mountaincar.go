package gym

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

const (
	carMinPosition  = -1.2
	carMaxPosition  = 0.6
	carMaxSpeed     = 0.07
	carGoalPosition = 0.5
	carForce        = 0.001
	carGravity      = 0.0025
)

// MountainCar drives an underpowered car up a hill. Observation is
// (position, velocity), actions are {push left, no push, push right},
// reward is -1 per step until the goal is reached.
type MountainCar struct {
	position float64
	velocity float64
	rng      *rand.Rand
}

var _ Environment = &MountainCar{}
var _ Renderer = &MountainCar{}

func NewMountainCar(rng *rand.Rand) *MountainCar {
	env := &MountainCar{rng: rng}
	env.Reset()
	return env
}

func (m *MountainCar) Reset() []float64 {
	m.position = m.rng.Float64()*0.2 - 0.6
	m.velocity = 0
	return m.observation()
}

func (m *MountainCar) Step(a Action) ([]float64, float64, bool) {
	m.velocity += float64(a.Index-1)*carForce - math.Cos(3*m.position)*carGravity
	if m.velocity < -carMaxSpeed {
		m.velocity = -carMaxSpeed
	}
	if m.velocity > carMaxSpeed {
		m.velocity = carMaxSpeed
	}
	m.position += m.velocity
	if m.position < carMinPosition {
		m.position = carMinPosition
		if m.velocity < 0 {
			m.velocity = 0
		}
	}
	if m.position > carMaxPosition {
		m.position = carMaxPosition
	}
	done := m.position >= carGoalPosition
	return m.observation(), -1.0, done
}

func (m *MountainCar) observation() []float64 {
	return []float64{m.position, m.velocity}
}

func (m *MountainCar) ObservationSpace() Space {
	return BoxSpace(
		[]float64{carMinPosition, -carMaxSpeed},
		[]float64{carMaxPosition, carMaxSpeed},
	)
}

func (m *MountainCar) ActionSpace() Space {
	return DiscreteSpace(3)
}

func (m *MountainCar) Render() string {
	return fmt.Sprintf("pos=%+.3f vel=%+.4f", m.position, m.velocity)
}

func init() {
	Register(Spec{
		Name:          "MountainCar-v0",
		TimestepLimit: 200,
		New:           func(rng *rand.Rand) Environment { return NewMountainCar(rng) },
	})
}

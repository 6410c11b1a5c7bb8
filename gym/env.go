package gym

import (
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
)

// Environment of a control task. Observations are dense feature vectors.
type Environment interface {
	// Reset starts a new episode and returns the first observation
	Reset() []float64
	// Step applies an action, returns the next observation, the reward
	// and whether the episode terminated
	Step(Action) ([]float64, float64, bool)
	ObservationSpace() Space
	ActionSpace() Space
}

// Renderer is implemented by environments that can draw themselves
type Renderer interface {
	Render() string
}

// Spec registers an environment constructor under a name together with
// the episode length cap the training and evaluation loops should enforce.
type Spec struct {
	Name          string
	TimestepLimit int
	New           func(rng *rand.Rand) Environment
}

var registry = map[string]Spec{}

func Register(spec Spec) {
	registry[spec.Name] = spec
}

// Make constructs a fresh environment for a registered name.
func Make(name string, rng *rand.Rand) (Environment, Spec, error) {
	spec, ok := registry[name]
	if !ok {
		return nil, Spec{}, fmt.Errorf("unknown environment: %q (known: %v)", name, knownEnvs())
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Uint64()))
	}
	return spec.New(rng), spec, nil
}

func knownEnvs() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

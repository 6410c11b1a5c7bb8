package replay

import (
	"errors"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// PriorityFunc scores an episode; higher scores are sampled more often.
type PriorityFunc func(Episode) float64

// maxReturnExponent caps the exponent fed to math.Exp so that long rewarding
// episodes cannot overflow the priority weights.
const maxReturnExponent = 30.0

// ExpReturnPriority weights an episode by the exponential of its total
// return, with the exponent clamped to a safe range.
func ExpReturnPriority(ep Episode) float64 {
	exponent := ep.Return()
	if exponent > maxReturnExponent {
		exponent = maxReturnExponent
	}
	if exponent < -maxReturnExponent {
		exponent = -maxReturnExponent
	}
	return math.Exp(exponent)
}

// PrioritizedEpisodicBuffer samples episodes proportionally to a priority
// score, mixed with a fixed ratio of uniform draws.
type PrioritizedEpisodicBuffer struct {
	capacity     int
	uniformRatio float64
	priorityFunc PriorityFunc

	episodes    []Episode
	priorities  []float64
	transitions int
	rng         *rand.Rand
}

var _ Buffer = &PrioritizedEpisodicBuffer{}

func NewPrioritizedEpisodicBuffer(capacity int, uniformRatio float64, priorityFunc PriorityFunc, rng *rand.Rand) (*PrioritizedEpisodicBuffer, error) {
	if capacity <= 0 {
		return nil, errors.New("replay buffer capacity must be positive")
	}
	if uniformRatio < 0 || uniformRatio > 1 {
		return nil, errors.New("uniform ratio must be in [0, 1]")
	}
	if priorityFunc == nil {
		priorityFunc = ExpReturnPriority
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Uint64()))
	}
	return &PrioritizedEpisodicBuffer{
		capacity:     capacity,
		uniformRatio: uniformRatio,
		priorityFunc: priorityFunc,
		episodes:     make([]Episode, 0),
		priorities:   make([]float64, 0),
		rng:          rng,
	}, nil
}

func (b *PrioritizedEpisodicBuffer) Append(ep Episode) {
	if len(ep) == 0 {
		return
	}
	b.episodes = append(b.episodes, ep)
	b.priorities = append(b.priorities, b.priorityFunc(ep))
	b.transitions += len(ep)
	for b.transitions > b.capacity && len(b.episodes) > 1 {
		b.transitions -= len(b.episodes[0])
		b.episodes = b.episodes[1:]
		b.priorities = b.priorities[1:]
	}
}

func (b *PrioritizedEpisodicBuffer) SampleEpisodes(n int) []Episode {
	if len(b.episodes) == 0 {
		return nil
	}
	sampled := make([]Episode, n)
	weighted := sampleuv.NewWeighted(b.priorities, b.rng)
	for i := range sampled {
		if b.rng.Float64() < b.uniformRatio {
			sampled[i] = b.episodes[b.rng.Intn(len(b.episodes))]
			continue
		}
		j, ok := weighted.Take()
		if !ok {
			// all weights consumed, fall back to uniform
			j = b.rng.Intn(len(b.episodes))
		} else {
			weighted.Reweight(j, b.priorities[j])
		}
		sampled[i] = b.episodes[j]
	}
	return sampled
}

func (b *PrioritizedEpisodicBuffer) Transitions() int {
	return b.transitions
}

func (b *PrioritizedEpisodicBuffer) Episodes() int {
	return len(b.episodes)
}

func (b *PrioritizedEpisodicBuffer) Capacity() int {
	return b.capacity
}

// UniformRatio returns the fraction of draws taken uniformly instead of by
// priority.
func (b *PrioritizedEpisodicBuffer) UniformRatio() float64 {
	return b.uniformRatio
}

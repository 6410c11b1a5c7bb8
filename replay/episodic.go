package replay

import (
	"errors"

	"golang.org/x/exp/rand"

	"github.com/zeu5/pcl-gym/gym"
)

// Transition is one environment step as stored in the replay buffer.
type Transition struct {
	Obs     []float64
	Action  gym.Action
	Reward  float64
	NextObs []float64
	Done    bool
}

// Episode is a complete sequence of transitions from reset to termination.
type Episode []Transition

// Return sums the rewards of the episode.
func (e Episode) Return() float64 {
	total := float64(0)
	for _, t := range e {
		total += t.Reward
	}
	return total
}

// Buffer is a bounded store of episodes sampled for off-policy updates.
// Capacity is measured in transitions; eviction drops whole oldest episodes.
type Buffer interface {
	Append(Episode)
	// SampleEpisodes draws n episodes, without replacement when the buffer
	// holds at least n
	SampleEpisodes(n int) []Episode
	Transitions() int
	Episodes() int
	Capacity() int
}

// EpisodicBuffer samples stored episodes uniformly.
type EpisodicBuffer struct {
	capacity    int
	episodes    []Episode
	transitions int
	rng         *rand.Rand
}

var _ Buffer = &EpisodicBuffer{}

func NewEpisodicBuffer(capacity int, rng *rand.Rand) (*EpisodicBuffer, error) {
	if capacity <= 0 {
		return nil, errors.New("replay buffer capacity must be positive")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Uint64()))
	}
	return &EpisodicBuffer{
		capacity: capacity,
		episodes: make([]Episode, 0),
		rng:      rng,
	}, nil
}

func (b *EpisodicBuffer) Append(ep Episode) {
	if len(ep) == 0 {
		return
	}
	b.episodes = append(b.episodes, ep)
	b.transitions += len(ep)
	b.evict()
}

// evict drops oldest episodes until the transition count fits the capacity
func (b *EpisodicBuffer) evict() {
	for b.transitions > b.capacity && len(b.episodes) > 1 {
		b.transitions -= len(b.episodes[0])
		b.episodes = b.episodes[1:]
	}
}

func (b *EpisodicBuffer) SampleEpisodes(n int) []Episode {
	if len(b.episodes) == 0 {
		return nil
	}
	sampled := make([]Episode, n)
	if n <= len(b.episodes) {
		for i, j := range b.rng.Perm(len(b.episodes))[:n] {
			sampled[i] = b.episodes[j]
		}
		return sampled
	}
	for i := range sampled {
		sampled[i] = b.episodes[b.rng.Intn(len(b.episodes))]
	}
	return sampled
}

func (b *EpisodicBuffer) Transitions() int {
	return b.transitions
}

func (b *EpisodicBuffer) Episodes() int {
	return len(b.episodes)
}

func (b *EpisodicBuffer) Capacity() int {
	return b.capacity
}

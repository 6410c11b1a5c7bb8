package replay

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/zeu5/pcl-gym/gym"
)

func makeEpisode(length int, reward float64) Episode {
	ep := make(Episode, length)
	for i := range ep {
		ep[i] = Transition{
			Obs:     []float64{float64(i)},
			Action:  gym.DiscreteAction(0),
			Reward:  reward,
			NextObs: []float64{float64(i + 1)},
			Done:    i == length-1,
		}
	}
	return ep
}

func TestEpisodicBufferCapacity(t *testing.T) {
	if _, err := NewEpisodicBuffer(0, nil); err == nil {
		t.Errorf("zero capacity should be rejected")
	}

	b, err := NewEpisodicBuffer(25, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		b.Append(makeEpisode(10, 1))
	}
	if b.Transitions() > 25 {
		t.Errorf("buffer holds %d transitions, capacity is 25", b.Transitions())
	}
	if b.Episodes() != 2 {
		t.Errorf("expected 2 episodes to remain, got %d", b.Episodes())
	}
}

func TestEpisodicBufferSampling(t *testing.T) {
	b, _ := NewEpisodicBuffer(100, rand.New(rand.NewSource(2)))
	b.Append(makeEpisode(3, 1))
	b.Append(makeEpisode(4, 1))

	sampled := b.SampleEpisodes(2)
	if len(sampled) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(sampled))
	}
	// without replacement when enough episodes are stored
	if len(sampled[0]) == len(sampled[1]) {
		t.Errorf("expected two distinct episodes")
	}

	if got := b.SampleEpisodes(5); len(got) != 5 {
		t.Errorf("sampling more than stored should draw with replacement, got %d", len(got))
	}
}

func TestExpReturnPriorityClamped(t *testing.T) {
	huge := makeEpisode(10, 1000)
	if p := ExpReturnPriority(huge); math.IsInf(p, 1) {
		t.Errorf("priority overflowed for a large return")
	}
	tiny := makeEpisode(10, -1000)
	if p := ExpReturnPriority(tiny); p == 0 {
		t.Errorf("priority underflowed for a very negative return")
	}
}

func TestPrioritizedBufferPrefersHighReturns(t *testing.T) {
	b, err := NewPrioritizedEpisodicBuffer(1000, 0.1, ExpReturnPriority, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if b.UniformRatio() != 0.1 {
		t.Errorf("uniform ratio not preserved: %f", b.UniformRatio())
	}

	// returns 5*2=10 vs 5*(-2)=-10: the high-return episode dominates
	b.Append(makeEpisode(5, 2))
	b.Append(makeEpisode(5, -2))

	high := 0
	const draws = 1000
	for i := 0; i < draws; i++ {
		sampled := b.SampleEpisodes(1)
		if sampled[0].Return() > 0 {
			high++
		}
	}
	if high < draws*8/10 {
		t.Errorf("high-return episode sampled only %d/%d times", high, draws)
	}
}

func TestPrioritizedBufferEviction(t *testing.T) {
	b, _ := NewPrioritizedEpisodicBuffer(12, 0.1, nil, rand.New(rand.NewSource(4)))
	for i := 0; i < 4; i++ {
		b.Append(makeEpisode(5, 1))
	}
	if b.Transitions() > 12 {
		t.Errorf("buffer holds %d transitions, capacity is 12", b.Transitions())
	}
}

func TestEpisodeReturn(t *testing.T) {
	ep := makeEpisode(4, 0.5)
	if ep.Return() != 2 {
		t.Errorf("expected return 2, got %f", ep.Return())
	}
}

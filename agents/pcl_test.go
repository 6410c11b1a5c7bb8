package agents

import (
	"testing"

	"golang.org/x/exp/rand"

	"github.com/zeu5/pcl-gym/gym"
	"github.com/zeu5/pcl-gym/optimizers"
	"github.com/zeu5/pcl-gym/policies"
	"github.com/zeu5/pcl-gym/replay"
)

func newTestAgent(seed uint64) *PCL {
	rng := rand.New(rand.NewSource(seed))
	model := NewPCLSeparateModel(
		policies.NewFCSoftmaxPolicy(2, 2, 8, 1, rng),
		policies.NewFCVFunction(2, 8, 1, rng),
	)
	buffer, _ := replay.NewEpisodicBuffer(1000, rng)
	return NewPCL(model, optimizers.NewAdam(1e-2), buffer, PCLConfig{
		Gamma:                0.99,
		Tau:                  1e-2,
		RolloutLen:           2,
		NTimesReplay:         0,
		ReplayStartSize:      1 << 30,
		Batchsize:            1,
		BackpropFutureValues: true,
	})
}

func fixedEpisode() replay.Episode {
	return replay.Episode{
		{Obs: []float64{0.1, 0.2}, Action: gym.DiscreteAction(0), Reward: 1, NextObs: []float64{0.2, 0.1}},
		{Obs: []float64{0.2, 0.1}, Action: gym.DiscreteAction(1), Reward: 1, NextObs: []float64{0.3, 0.0}},
		{Obs: []float64{0.3, 0.0}, Action: gym.DiscreteAction(0), Reward: 1, NextObs: []float64{0.4, 0.1}, Done: true},
	}
}

func feedEpisode(agent *PCL, ep replay.Episode) {
	for _, tr := range ep {
		agent.Observe(tr)
	}
}

func snapshot(agent *PCL) [][]float64 {
	params := agent.Model.Params()
	values := make([][]float64, len(params))
	for i, p := range params {
		values[i] = p.Flatten()
	}
	return values
}

func TestUpdateChangesParameters(t *testing.T) {
	agent := newTestAgent(1)
	before := snapshot(agent)
	feedEpisode(agent, fixedEpisode())

	changed := false
	for i, values := range snapshot(agent) {
		for j, v := range values {
			if v != before[i][j] {
				changed = true
			}
		}
	}
	if !changed {
		t.Errorf("an episode update left all parameters unchanged")
	}
	stats := agent.Stats()
	if stats.Episodes != 1 || stats.Steps != 3 {
		t.Errorf("unexpected counters: %+v", stats)
	}
	if stats.BufferEpisodes != 1 {
		t.Errorf("finished episode did not reach the replay buffer")
	}
}

func TestConsistencyLossDecreases(t *testing.T) {
	agent := newTestAgent(2)
	ep := fixedEpisode()

	feedEpisode(agent, ep)
	first := agent.Stats().LastLoss
	min := first
	for i := 0; i < 80; i++ {
		feedEpisode(agent, ep)
		if loss := agent.Stats().LastLoss; loss < min {
			min = loss
		}
	}
	if min >= first {
		t.Errorf("loss never decreased from %f over repeated updates", first)
	}
}

func TestStopEpisodeTrainsOnPartialEpisode(t *testing.T) {
	agent := newTestAgent(3)
	ep := fixedEpisode()
	agent.Observe(ep[0])
	agent.Observe(ep[1])
	agent.StopEpisode()

	stats := agent.Stats()
	if stats.Episodes != 1 {
		t.Errorf("cut-off episode was not counted, stats: %+v", stats)
	}
	if stats.BufferTransitions != 2 {
		t.Errorf("expected 2 buffered transitions, got %d", stats.BufferTransitions)
	}
}

func TestDisabledOnlineUpdate(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	model := NewPCLSeparateModel(
		policies.NewFCSoftmaxPolicy(2, 2, 8, 1, rng),
		policies.NewFCVFunction(2, 8, 1, rng),
	)
	buffer, _ := replay.NewEpisodicBuffer(1000, rng)
	agent := NewPCL(model, optimizers.NewAdam(1e-2), buffer, PCLConfig{
		Gamma:               0.99,
		Tau:                 1e-2,
		RolloutLen:          2,
		ReplayStartSize:     1 << 30,
		Batchsize:           1,
		DisableOnlineUpdate: true,
	})

	before := snapshot(agent)
	feedEpisode(agent, fixedEpisode())
	for i, values := range snapshot(agent) {
		for j, v := range values {
			if v != before[i][j] {
				t.Fatalf("parameters changed although online updates are disabled")
			}
		}
	}
	if agent.Stats().BufferEpisodes != 1 {
		t.Errorf("episode should still be buffered for replay")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()

	agent := newTestAgent(5)
	feedEpisode(agent, fixedEpisode())
	if err := agent.Save(dir); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	restored := newTestAgent(6)
	if err := restored.Load(dir); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	want := snapshot(agent)
	for i, values := range snapshot(restored) {
		for j, v := range values {
			if v != want[i][j] {
				t.Fatalf("param %d entry %d differs after restore", i, j)
			}
		}
	}
	if restored.Stats().Episodes != agent.Stats().Episodes {
		t.Errorf("episode counter not restored")
	}
}

func TestLoadMissingCheckpoint(t *testing.T) {
	agent := newTestAgent(7)
	if err := agent.Load(t.TempDir()); err == nil {
		t.Errorf("expected an error for a missing checkpoint")
	}
}

func TestWorkerCopySharesModelAndCounters(t *testing.T) {
	agent := newTestAgent(8)
	worker := agent.WorkerCopy()

	if worker.Model != agent.Model {
		t.Errorf("worker copy should share the model")
	}
	feedEpisode(worker, fixedEpisode())
	if agent.Stats().Episodes != 1 {
		t.Errorf("episode trained by the worker is invisible to the root agent")
	}
}

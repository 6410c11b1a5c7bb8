package agents

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sync"

	"github.com/zeu5/pcl-gym/gym"
	"github.com/zeu5/pcl-gym/optimizers"
	"github.com/zeu5/pcl-gym/replay"
	"github.com/zeu5/pcl-gym/util"
)

// PCLConfig carries the hyperparameters of the PCL agent.
type PCLConfig struct {
	Gamma           float64 // discount factor
	Tau             float64 // entropy temperature
	RolloutLen      int     // consistency window length
	NTimesReplay    int     // replay updates per finished episode
	ReplayStartSize int     // transitions required before replay updates
	Batchsize       int     // episodes per replay update
	TMax            int     // online update period mid-episode, 0 for episode end only

	DisableOnlineUpdate  bool
	BackpropFutureValues bool
}

// PCL trains a policy and a value function by minimizing the squared path
// inconsistency of rollout windows: the discounted sum of rewards minus the
// entropy-regularized log probabilities must match the value difference
// between the window's endpoints.
//
// In asynchronous mode several workers share the model, the optimizer and
// the replay buffer through WorkerCopy; a single RWMutex serializes updates
// against concurrent action sampling.
type PCL struct {
	Model  *PCLSeparateModel
	opt    optimizers.Optimizer
	buffer replay.Buffer
	config PCLConfig

	mu *sync.RWMutex
	// counters are shared across worker copies, guarded by mu
	counters *pclCounters

	// worker-local accumulation state
	currentEpisode replay.Episode
	sinceUpdate    int
}

type pclCounters struct {
	steps    int
	episodes int
	lastLoss float64
}

func NewPCL(model *PCLSeparateModel, opt optimizers.Optimizer, buffer replay.Buffer, config PCLConfig) *PCL {
	opt.Setup(model.Params())
	return &PCL{
		Model:    model,
		opt:      opt,
		buffer:   buffer,
		config:   config,
		mu:       &sync.RWMutex{},
		counters: &pclCounters{},
	}
}

// WorkerCopy returns an agent that shares the model, optimizer, replay
// buffer and lock, with its own episode accumulation state.
func (a *PCL) WorkerCopy() *PCL {
	return &PCL{
		Model:    a.Model,
		opt:      a.opt,
		buffer:   a.buffer,
		config:   a.config,
		mu:       a.mu,
		counters: a.counters,
	}
}

// Act samples an action from the current policy without training.
func (a *PCL) Act(obs []float64) gym.Action {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.Model.Pi.Sample(obs)
}

// Observe records a transition taken with the last sampled action and
// triggers updates at episode boundaries (and every TMax steps when set).
func (a *PCL) Observe(t replay.Transition) {
	a.currentEpisode = append(a.currentEpisode, t)
	a.sinceUpdate++

	if t.Done {
		a.finishEpisode()
		return
	}
	if a.config.TMax > 0 && a.sinceUpdate >= a.config.TMax {
		a.onlineUpdate(a.tailSegment(a.config.TMax))
		a.sinceUpdate = 0
	}
}

// StopEpisode finishes an episode cut off by a step limit. The collected
// transitions still train the agent and enter the replay buffer.
func (a *PCL) StopEpisode() {
	if len(a.currentEpisode) == 0 {
		return
	}
	a.finishEpisode()
}

func (a *PCL) tailSegment(n int) replay.Episode {
	if len(a.currentEpisode) <= n {
		return a.currentEpisode
	}
	return a.currentEpisode[len(a.currentEpisode)-n:]
}

func (a *PCL) finishEpisode() {
	episode := a.currentEpisode
	a.currentEpisode = nil
	a.sinceUpdate = 0

	a.mu.Lock()
	defer a.mu.Unlock()

	a.counters.steps += len(episode)
	a.counters.episodes++

	if !a.config.DisableOnlineUpdate {
		a.updateLocked([]replay.Episode{episode})
	}
	a.buffer.Append(episode)
	if a.buffer.Transitions() >= a.config.ReplayStartSize {
		for i := 0; i < a.config.NTimesReplay; i++ {
			a.updateLocked(a.buffer.SampleEpisodes(a.config.Batchsize))
		}
	}
}

func (a *PCL) onlineUpdate(segment replay.Episode) {
	if a.config.DisableOnlineUpdate || len(segment) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.updateLocked([]replay.Episode{segment})
}

// updateLocked accumulates path-consistency gradients over every rollout
// window of the given episodes and applies one optimizer step. Callers hold
// the write lock.
func (a *PCL) updateLocked(episodes []replay.Episode) {
	numWindows := 0
	for _, ep := range episodes {
		numWindows += len(ep)
	}
	if numWindows == 0 {
		return
	}

	totalLoss := float64(0)
	scale := 1 / float64(numWindows)
	for _, ep := range episodes {
		totalLoss += a.accumulateEpisode(ep, scale)
	}
	a.counters.lastLoss = totalLoss * scale
	a.opt.Step()
}

func (a *PCL) accumulateEpisode(ep replay.Episode, scale float64) float64 {
	gamma := a.config.Gamma
	tau := a.config.Tau
	totalLoss := float64(0)

	for i := 0; i < len(ep); i++ {
		d := a.config.RolloutLen
		if d <= 0 || i+d > len(ep) {
			d = len(ep) - i
		}

		// path consistency of the window [i, i+d)
		consistency := -a.Model.V.Value(ep[i].Obs)
		logProbs := make([]float64, d)
		discount := 1.0
		for j := 0; j < d; j++ {
			tr := ep[i+j]
			logProbs[j] = a.Model.Pi.LogProb(tr.Obs, tr.Action)
			consistency += discount * (tr.Reward - tau*logProbs[j])
			discount *= gamma
		}
		last := ep[i+d-1]
		terminal := last.Done
		if !terminal {
			consistency += discount * a.Model.V.Value(last.NextObs)
		}
		totalLoss += consistency * consistency / 2

		// gradient of the squared consistency
		coeff := consistency * scale
		a.Model.V.AccumulateGrad(ep[i].Obs, -coeff)
		if !terminal && a.config.BackpropFutureValues {
			a.Model.V.AccumulateGrad(last.NextObs, coeff*discount)
		}
		stepDiscount := 1.0
		for j := 0; j < d; j++ {
			tr := ep[i+j]
			a.Model.Pi.AccumulateGrad(tr.Obs, tr.Action, -coeff*tau*stepDiscount)
			stepDiscount *= gamma
		}
	}
	return totalLoss
}

// Stats reports counters for progress lines and the status endpoint.
type Stats struct {
	Steps             int     `json:"steps"`
	Episodes          int     `json:"episodes"`
	LastLoss          float64 `json:"last_loss"`
	BufferTransitions int     `json:"buffer_transitions"`
	BufferEpisodes    int     `json:"buffer_episodes"`
}

func (a *PCL) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Stats{
		Steps:             a.counters.steps,
		Episodes:          a.counters.episodes,
		LastLoss:          a.counters.lastLoss,
		BufferTransitions: a.buffer.Transitions(),
		BufferEpisodes:    a.buffer.Episodes(),
	}
}

const checkpointFile = "agent.json"

type checkpoint struct {
	Params    [][]float64      `json:"params"`
	Optimizer optimizers.State `json:"optimizer"`
	Steps     int              `json:"steps"`
	Episodes  int              `json:"episodes"`
}

// Save writes the model parameters and optimizer state as JSON into dir.
func (a *PCL) Save(dir string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if err := util.EnsureDir(dir); err != nil {
		return err
	}
	params := a.Model.Params()
	ckpt := checkpoint{
		Params:    make([][]float64, len(params)),
		Optimizer: a.opt.State(),
		Steps:     a.counters.steps,
		Episodes:  a.counters.episodes,
	}
	for i, p := range params {
		ckpt.Params[i] = p.Flatten()
	}
	bs, err := json.Marshal(ckpt)
	if err != nil {
		return err
	}
	return os.WriteFile(path.Join(dir, checkpointFile), bs, 0644)
}

// Load restores the model parameters and optimizer state saved by Save.
func (a *PCL) Load(dir string) error {
	bs, err := os.ReadFile(path.Join(dir, checkpointFile))
	if err != nil {
		return err
	}
	var ckpt checkpoint
	if err := json.Unmarshal(bs, &ckpt); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	params := a.Model.Params()
	if len(ckpt.Params) != len(params) {
		return fmt.Errorf("checkpoint has %d parameter tensors, model has %d", len(ckpt.Params), len(params))
	}
	for i, p := range params {
		p.Load(ckpt.Params[i])
	}
	if err := a.opt.LoadState(ckpt.Optimizer); err != nil {
		return err
	}
	a.counters.steps = ckpt.Steps
	a.counters.episodes = ckpt.Episodes
	return nil
}

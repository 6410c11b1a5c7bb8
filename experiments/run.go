package experiments

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"runtime/pprof"
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"github.com/zeu5/pcl-gym/agents"
	"github.com/zeu5/pcl-gym/gym"
	"github.com/zeu5/pcl-gym/optimizers"
	"github.com/zeu5/pcl-gym/policies"
	"github.com/zeu5/pcl-gym/replay"
)

const (
	discountFactor     = 0.99
	replayCapacity     = 5 * 1000
	replayUniformRatio = 0.1
	rmspropAlpha       = 0.99
)

// Run wires the configuration into an agent and dispatches to exactly one
// of the three drivers: demo evaluation, asynchronous training or
// single-process training.
func Run(ctx context.Context, config Config) error {
	var seed uint64
	if config.Seed >= 0 {
		seed = uint64(config.Seed)
	} else {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewSource(seed))

	outdir, err := PrepareOutputDir(config)
	if err != nil {
		return err
	}
	log.Printf("output directory: %s", outdir)

	if config.GPU >= 0 {
		log.Printf("gpu %d requested but no gpu backend is available, running on cpu", config.GPU)
	}

	sampleEnv, spec, err := gym.Make(config.Env, rng)
	if err != nil {
		return err
	}
	obsSpace := sampleEnv.ObservationSpace()
	actionSpace := sampleEnv.ActionSpace()

	// the model and the buffer keep their rng for sampling long after this
	// wiring, so each gets a private source instead of sharing the root rng
	model, err := BuildModel(obsSpace, actionSpace, config.NHiddenChannels, config.NHiddenLayers,
		rand.New(rand.NewSource(rng.Uint64())))
	if err != nil {
		return err
	}
	opt := SelectOptimizer(config.TrainAsync, config.LR)
	buffer, err := SelectReplayBuffer(config.PrioritizedReplay, rand.New(rand.NewSource(rng.Uint64())))
	if err != nil {
		return err
	}

	agent := agents.NewPCL(model, opt, buffer, agents.PCLConfig{
		Gamma:                discountFactor,
		Tau:                  config.Tau,
		RolloutLen:           config.RolloutLen,
		NTimesReplay:         config.NTimesReplay,
		ReplayStartSize:      config.ReplayStartSize,
		Batchsize:            config.Batchsize,
		TMax:                 config.TMax,
		DisableOnlineUpdate:  config.DisableOnlineUpdate,
		BackpropFutureValues: config.BackpropFutureValues,
	})
	if config.Load != "" {
		if err := agent.Load(config.Load); err != nil {
			return fmt.Errorf("loading agent from %s: %w", config.Load, err)
		}
		log.Printf("restored agent from %s", config.Load)
	}

	if config.Profile {
		profileFile, err := os.Create(path.Join(outdir, "cpu.pprof"))
		if err != nil {
			return err
		}
		defer profileFile.Close()
		if err := pprof.StartCPUProfile(profileFile); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	// async workers construct their environments concurrently, so env seeds
	// come from a dedicated source behind a lock
	envRng := rand.New(rand.NewSource(rng.Uint64()))
	var envSeedMu sync.Mutex
	makeEnv := func(processIdx int, test bool) (gym.Environment, error) {
		envSeedMu.Lock()
		seed := envRng.Uint64()
		envSeedMu.Unlock()
		return MakeEnv(config, outdir, processIdx, test, rand.New(rand.NewSource(seed)))
	}

	if config.StatusAddr != "" {
		server := NewStatusServer(config.StatusAddr, agent)
		server.Start()
		defer server.Stop()
	}

	if config.Demo {
		env, err := makeEnv(0, true)
		if err != nil {
			return err
		}
		mean, median, stdev := EvalPerformance(env, agent, config.EvalNRuns, spec.TimestepLimit)
		fmt.Printf("n_runs: %d mean: %f median: %f stdev: %f\n", config.EvalNRuns, mean, median, stdev)
		return nil
	}

	opts := TrainOptions{
		Steps:         config.Steps,
		EvalFrequency: config.EvalFrequency,
		EvalNRuns:     config.EvalNRuns,
		MaxEpisodeLen: spec.TimestepLimit,
		Outdir:        outdir,
	}
	if config.TrainAsync {
		return TrainAgentAsync(ctx, agent, makeEnv, config.Processes, opts)
	}
	env, err := makeEnv(0, false)
	if err != nil {
		return err
	}
	evalEnv, err := makeEnv(0, true)
	if err != nil {
		return err
	}
	return TrainAgentWithEvaluation(ctx, agent, env, evalEnv, opts)
}

// MakeEnv constructs an environment for one process. Worker 0 optionally
// records episodes and renders; reward scaling applies to training
// environments only.
func MakeEnv(config Config, outdir string, processIdx int, test bool, rng *rand.Rand) (gym.Environment, error) {
	env, _, err := gym.Make(config.Env, rng)
	if err != nil {
		return nil, err
	}
	if config.Monitor && processIdx == 0 {
		env = gym.Monitored(env, outdir)
	}
	if !test {
		env = gym.ScaleRewards(env, config.RewardScaleFactor)
	}
	if config.Render && processIdx == 0 && !test {
		env = gym.Rendered(env)
	}
	return env, nil
}

// BuildModel constructs the policy matching the action space kind, paired
// with a state-value function. Continuous action spaces get a Gaussian
// policy with the mean bounded to the action range, discrete ones a softmax
// policy with one output per action.
func BuildModel(obsSpace, actionSpace gym.Space, width, depth int, rng *rand.Rand) (*agents.PCLSeparateModel, error) {
	var pi policies.Policy
	switch actionSpace.Kind {
	case gym.Box:
		pi = policies.NewFCGaussianPolicy(obsSpace.Dim(), actionSpace.Dim(), width, depth,
			actionSpace.Low, actionSpace.High, rng)
	case gym.Discrete:
		pi = policies.NewFCSoftmaxPolicy(obsSpace.Dim(), actionSpace.N, width, depth, rng)
	default:
		return nil, fmt.Errorf("unsupported action space kind: %v", actionSpace.Kind)
	}
	v := policies.NewFCVFunction(obsSpace.Dim(), width, depth, rng)
	return agents.NewPCLSeparateModel(pi, v), nil
}

// SelectOptimizer picks the lock-free RMSprop variant for asynchronous
// training and Adam otherwise.
func SelectOptimizer(trainAsync bool, lr float64) optimizers.Optimizer {
	if trainAsync {
		return optimizers.NewRMSpropAsync(lr, rmspropAlpha)
	}
	return optimizers.NewAdam(lr)
}

// SelectReplayBuffer picks the prioritized episodic buffer or the uniform
// one, both capacity bounded.
func SelectReplayBuffer(prioritized bool, rng *rand.Rand) (replay.Buffer, error) {
	if prioritized {
		return replay.NewPrioritizedEpisodicBuffer(replayCapacity, replayUniformRatio, replay.ExpReturnPriority, rng)
	}
	return replay.NewEpisodicBuffer(replayCapacity, rng)
}

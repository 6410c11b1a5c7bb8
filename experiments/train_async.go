package experiments

import (
	"context"
	"fmt"
	"math"
	"path"
	"sync"
	"sync/atomic"

	"github.com/zeu5/pcl-gym/agents"
	"github.com/zeu5/pcl-gym/gym"
	"github.com/zeu5/pcl-gym/replay"
)

// MakeEnvFunc constructs the environment for one worker; test selects the
// evaluation variant without reward scaling.
type MakeEnvFunc func(processIdx int, test bool) (gym.Environment, error)

// TrainAgentAsync fans training out over a pool of workers sharing the
// model, optimizer and replay buffer through worker copies of the agent.
// A global atomic step counter is the only termination condition; worker 0
// additionally evaluates every EvalFrequency steps and checkpoints the best
// agent. Worker status lines are rendered live in the terminal.
func TrainAgentAsync(ctx context.Context, agent *agents.PCL, makeEnv MakeEnvFunc, processes int, opts TrainOptions) error {
	recorder := NewScoreRecorder(opts.Outdir)
	var globalSteps atomic.Int64

	statuses := make([]*workerStatus, processes)
	for i := range statuses {
		statuses[i] = newWorkerStatus(i)
	}
	printer := newWorkerPrinter(ctx, statuses)
	printer.Start()
	defer printer.Stop()

	errs := make(chan error, processes)
	var wg sync.WaitGroup
	for i := 0; i < processes; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := runWorker(ctx, idx, agent, makeEnv, &globalSteps, statuses[idx], recorder, opts); err != nil {
				errs <- fmt.Errorf("worker %d: %w", idx, err)
			}
		}(i)
	}
	wg.Wait()
	printer.Stop()

	select {
	case err := <-errs:
		return err
	default:
	}

	if err := agent.Save(path.Join(opts.Outdir, "final")); err != nil {
		return err
	}
	return recorder.Plot()
}

func runWorker(ctx context.Context, idx int, shared *agents.PCL, makeEnv MakeEnvFunc, globalSteps *atomic.Int64, status *workerStatus, recorder *ScoreRecorder, opts TrainOptions) error {
	env, err := makeEnv(idx, false)
	if err != nil {
		return err
	}
	agent := shared.WorkerCopy()

	var evalEnv gym.Environment
	nextEval := opts.EvalFrequency
	bestMean := math.Inf(-1)
	if idx == 0 {
		if evalEnv, err = makeEnv(idx, true); err != nil {
			return err
		}
	}

	episodes := 0
	for ctx.Err() == nil && globalSteps.Load() < int64(opts.Steps) {
		episodeReturn, err := runTrainingEpisode(ctx, agent, env, globalSteps, opts)
		if err != nil {
			return err
		}
		episodes++
		status.Set(fmt.Sprintf("worker %d: steps %d, episodes %d, last return %.2f",
			idx, globalSteps.Load(), episodes, episodeReturn))

		if idx == 0 {
			for globalSteps.Load() >= int64(nextEval) {
				mean, median, stdev := EvalPerformance(evalEnv, agent, opts.EvalNRuns, opts.MaxEpisodeLen)
				recorder.Record(nextEval, mean, median, stdev)
				if mean > bestMean {
					bestMean = mean
					if err := agent.Save(path.Join(opts.Outdir, "best")); err != nil {
						return err
					}
				}
				nextEval += opts.EvalFrequency
			}
		}
	}
	return nil
}

func runTrainingEpisode(ctx context.Context, agent *agents.PCL, env gym.Environment, globalSteps *atomic.Int64, opts TrainOptions) (float64, error) {
	obs := env.Reset()
	episodeReturn := float64(0)
	for episodeSteps := 0; ; episodeSteps++ {
		if ctx.Err() != nil || globalSteps.Load() >= int64(opts.Steps) {
			agent.StopEpisode()
			return episodeReturn, nil
		}

		action := agent.Act(obs)
		next, reward, done := env.Step(action)
		globalSteps.Add(1)
		episodeReturn += reward
		agent.Observe(replay.Transition{
			Obs:     obs,
			Action:  action,
			Reward:  reward,
			NextObs: next,
			Done:    done,
		})
		if done {
			return episodeReturn, nil
		}
		if opts.MaxEpisodeLen > 0 && episodeSteps+1 >= opts.MaxEpisodeLen {
			agent.StopEpisode()
			return episodeReturn, nil
		}
		obs = next
	}
}

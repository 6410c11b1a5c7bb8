package experiments

import (
	"context"
	"fmt"
	"math"
	"path"

	"github.com/zeu5/pcl-gym/agents"
	"github.com/zeu5/pcl-gym/gym"
	"github.com/zeu5/pcl-gym/replay"
)

// TrainOptions configures a training driver.
type TrainOptions struct {
	Steps         int
	EvalFrequency int
	EvalNRuns     int
	MaxEpisodeLen int
	Outdir        string
}

// TrainAgentWithEvaluation runs the single-process training loop: rollout
// collection alternating with an evaluation every EvalFrequency steps. The
// best agent by evaluation mean is checkpointed under <outdir>/best, the
// final one under <outdir>/final.
func TrainAgentWithEvaluation(ctx context.Context, agent *agents.PCL, env, evalEnv gym.Environment, opts TrainOptions) error {
	recorder := NewScoreRecorder(opts.Outdir)
	bestMean := math.Inf(-1)

	obs := env.Reset()
	episodeSteps := 0
	nextEval := opts.EvalFrequency

	for t := 0; t < opts.Steps; t++ {
		if ctx.Err() != nil {
			break
		}

		action := agent.Act(obs)
		next, reward, done := env.Step(action)
		agent.Observe(replay.Transition{
			Obs:     obs,
			Action:  action,
			Reward:  reward,
			NextObs: next,
			Done:    done,
		})
		episodeSteps++

		if done || (opts.MaxEpisodeLen > 0 && episodeSteps >= opts.MaxEpisodeLen) {
			if !done {
				agent.StopEpisode()
			}
			obs = env.Reset()
			episodeSteps = 0
		} else {
			obs = next
		}

		if t+1 >= nextEval {
			mean, median, stdev := EvalPerformance(evalEnv, agent, opts.EvalNRuns, opts.MaxEpisodeLen)
			stats := agent.Stats()
			fmt.Printf("steps: %d episodes: %d eval mean: %f median: %f stdev: %f\n",
				t+1, stats.Episodes, mean, median, stdev)
			recorder.Record(t+1, mean, median, stdev)
			if mean > bestMean {
				bestMean = mean
				if err := agent.Save(path.Join(opts.Outdir, "best")); err != nil {
					return err
				}
			}
			nextEval += opts.EvalFrequency
		}
	}

	if err := agent.Save(path.Join(opts.Outdir, "final")); err != nil {
		return err
	}
	return recorder.Plot()
}

package experiments

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/zeu5/pcl-gym/agents"
	"github.com/zeu5/pcl-gym/gym"
)

// EvalPerformance runs nRuns evaluation episodes with the current policy and
// returns the mean, median and standard deviation of the episode returns.
// No training happens during evaluation.
func EvalPerformance(env gym.Environment, agent *agents.PCL, nRuns, maxEpisodeLen int) (mean, median, stdev float64) {
	returns := make([]float64, nRuns)
	for i := 0; i < nRuns; i++ {
		returns[i] = runEvalEpisode(env, agent, maxEpisodeLen)
	}

	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	mean = stat.Mean(returns, nil)
	median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	stdev = stat.StdDev(returns, nil)
	return mean, median, stdev
}

func runEvalEpisode(env gym.Environment, agent *agents.PCL, maxEpisodeLen int) float64 {
	obs := env.Reset()
	total := float64(0)
	for t := 0; maxEpisodeLen <= 0 || t < maxEpisodeLen; t++ {
		action := agent.Act(obs)
		next, reward, done := env.Step(action)
		total += reward
		if done {
			break
		}
		obs = next
	}
	return total
}

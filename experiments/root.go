package experiments

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Config is the immutable record of all command line flags. It is filled in
// once by the flag parser and only read afterwards.
type Config struct {
	Env               string
	Processes         int
	GPU               int
	Seed              int64
	Outdir            string
	Batchsize         int
	RolloutLen        int
	NHiddenChannels   int
	NHiddenLayers     int
	NTimesReplay      int
	ReplayStartSize   int
	TMax              int
	Tau               float64
	Profile           bool
	Steps             int
	EvalFrequency     int
	EvalNRuns         int
	RewardScaleFactor float64
	Render            bool
	LR                float64
	Demo              bool
	Load              string
	Monitor           bool
	TrainAsync        bool
	PrioritizedReplay bool

	DisableOnlineUpdate  bool
	BackpropFutureValues bool

	StatusAddr string
}

var config Config

// GetRootCommand builds the command line interface of the trainer.
func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "pcl-gym",
		Short: "Train a PCL agent on a gym control environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return Run(ctx, config)
		},
	}
	flags := rootCommand.Flags()
	flags.StringVar(&config.Env, "env", "CartPole-v0", "Environment to train on")
	flags.IntVar(&config.Processes, "processes", 8, "Number of async training workers")
	flags.IntVar(&config.GPU, "gpu", 0, "GPU device index, negative to disable")
	flags.Int64Var(&config.Seed, "seed", -1, "Random seed, negative for a fresh seed")
	flags.StringVar(&config.Outdir, "outdir", "", "Output directory, timestamped under results/ when empty")
	flags.IntVar(&config.Batchsize, "batchsize", 10, "Episodes per replay update")
	flags.IntVar(&config.RolloutLen, "rollout-len", 10, "Length of the consistency rollout window")
	flags.IntVar(&config.NHiddenChannels, "n-hidden-channels", 100, "Width of the hidden layers")
	flags.IntVar(&config.NHiddenLayers, "n-hidden-layers", 2, "Number of hidden layers")
	flags.IntVar(&config.NTimesReplay, "n-times-replay", 1, "Replay updates per finished episode")
	flags.IntVar(&config.ReplayStartSize, "replay-start-size", 10000, "Transitions required before replay updates start")
	flags.IntVar(&config.TMax, "t-max", 0, "Online update period mid-episode, 0 for episode end only")
	flags.Float64Var(&config.Tau, "tau", 1e-2, "Entropy temperature")
	flags.BoolVar(&config.Profile, "profile", false, "Write a CPU profile to the output directory")
	flags.IntVar(&config.Steps, "steps", 8*10000000, "Total environment step budget")
	flags.IntVar(&config.EvalFrequency, "eval-frequency", 100000, "Steps between evaluations")
	flags.IntVar(&config.EvalNRuns, "eval-n-runs", 10, "Episodes per evaluation")
	flags.Float64Var(&config.RewardScaleFactor, "reward-scale-factor", 1e-2, "Factor applied to rewards observed during training")
	flags.BoolVar(&config.Render, "render", false, "Render the training environment of worker 0")
	flags.Float64Var(&config.LR, "lr", 7e-4, "Learning rate")
	flags.BoolVar(&config.Demo, "demo", false, "Evaluate only, without any training")
	flags.StringVar(&config.Load, "load", "", "Directory with a saved agent to restore before running")
	flags.BoolVar(&config.Monitor, "monitor", false, "Record episode statistics of worker 0 to the output directory")
	flags.BoolVar(&config.TrainAsync, "train-async", false, "Train with asynchronous workers instead of a single process")
	flags.BoolVar(&config.PrioritizedReplay, "prioritized-replay", false, "Sample replay episodes weighted by exponentiated return")
	flags.BoolVar(&config.DisableOnlineUpdate, "disable-online-update", false, "Skip the on-policy update at episode end")
	flags.BoolVar(&config.BackpropFutureValues, "backprop-future-values", true, "Propagate gradients through end-of-window values")
	flags.StringVar(&config.StatusAddr, "status-addr", "", "Address for the HTTP status endpoint, disabled when empty")
	return rootCommand
}

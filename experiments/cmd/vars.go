package cmd

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zeu5/reinforce-cartpole/experiments/common"
)

var (
	flags  *common.Flags  = common.DefaultFlags()
	logger zerolog.Logger = zerolog.Nop()
	v      *viper.Viper   = viper.New()
)

// AddFlags registers the persistent flags on cmd. Every flag can also be set
// through a REINFORCE_ prefixed environment variable, e.g.
// REINFORCE_MAX_STEPS=200. Explicit flags win over the environment.
func AddFlags(cmd *cobra.Command) {
	flags = common.DefaultFlags()
	logger = zerolog.Nop()
	v = viper.New()

	cmd.PersistentFlags().String("save-path", flags.SavePath, "Path to save results")
	cmd.PersistentFlags().Int("num-runs", flags.NumRuns, "Number of runs")
	cmd.PersistentFlags().Int("episodes", flags.Episodes, "Number of training episodes per run")
	cmd.PersistentFlags().Int("max-steps", flags.MaxSteps, "Maximum number of steps in an episode")
	cmd.PersistentFlags().Float64("discount", flags.Discount, "Discount factor for returns")
	cmd.PersistentFlags().Int("validation-interval", flags.ValidationInterval, "Training episodes between validations, 0 disables validation")
	cmd.PersistentFlags().Int("validation-episodes", flags.ValidationEpisodes, "Greedy episodes per validation")

	cmd.PersistentFlags().Int("hidden", flags.Hidden, "Hidden units of the policy network, 0 for a linear policy")
	cmd.PersistentFlags().String("optimizer", flags.Optimizer, "Optimizer (adam or sgd)")
	cmd.PersistentFlags().Float64("learning-rate", flags.LearningRate, "Learning rate")
	cmd.PersistentFlags().Float64("init-scale", flags.InitScale, "Scale of the initial policy weights")

	cmd.PersistentFlags().Int64("seed", flags.Seed, "Random seed")
	cmd.PersistentFlags().Bool("baseline", flags.Baseline, "Also train the uniform random baseline")
	cmd.PersistentFlags().Bool("debug", flags.Debug, "Dump the rollouts of the last episodes")
	cmd.PersistentFlags().String("log-level", flags.LogLevel, "Log level")

	v.SetEnvPrefix("REINFORCE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	cobra.CheckErr(v.BindPFlags(cmd.PersistentFlags()))
}

// UpdateFlags copies the resolved flag values into flags.
func UpdateFlags() {
	flags.SavePath = v.GetString("save-path")
	flags.NumRuns = v.GetInt("num-runs")
	flags.Episodes = v.GetInt("episodes")
	flags.MaxSteps = v.GetInt("max-steps")
	flags.Discount = v.GetFloat64("discount")
	flags.ValidationInterval = v.GetInt("validation-interval")
	flags.ValidationEpisodes = v.GetInt("validation-episodes")

	flags.Hidden = v.GetInt("hidden")
	flags.Optimizer = v.GetString("optimizer")
	flags.LearningRate = v.GetFloat64("learning-rate")
	flags.InitScale = v.GetFloat64("init-scale")

	flags.Seed = v.GetInt64("seed")
	flags.Baseline = v.GetBool("baseline")
	flags.Debug = v.GetBool("debug")
	flags.LogLevel = v.GetString("log-level")
}

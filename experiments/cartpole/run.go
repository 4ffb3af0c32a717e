package cartpole

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zeu5/reinforce-cartpole/analysis"
	"github.com/zeu5/reinforce-cartpole/core"
	cartpoleenv "github.com/zeu5/reinforce-cartpole/envs/cartpole"
	"github.com/zeu5/reinforce-cartpole/experiments/common"
	"github.com/zeu5/reinforce-cartpole/policies"
)

const (
	ReinforceExperiment = "REINFORCE"
	RandomExperiment    = "Random"
)

// PrepareComparison sets up the REINFORCE experiment, and the uniform random
// baseline when requested, on their own cart-pole instances.
func PrepareComparison(flags *common.Flags, logger zerolog.Logger) (*core.Comparison, error) {
	cmp := core.NewComparison()
	cmp.Logger = logger
	savePath := flags.OutputPath()

	if flags.Debug {
		threshold := flags.Episodes - 10
		if threshold < 0 {
			threshold = 0
		}
		debug := analysis.NewPrintDebugAnalyzerConstructor(savePath, threshold)
		debug.Logger = logger
		cmp.AddAnalysis("Debug", debug, analysis.NewNoOpComparatorConstructor())
	}
	rewards := analysis.NewRewardComparatorConstructor(savePath)
	rewards.Logger = logger
	cmp.AddAnalysis("Rewards", &analysis.RewardAnalyzerConstructor{}, rewards)
	validation := analysis.NewValidationComparatorConstructor(savePath)
	validation.Logger = logger
	cmp.AddAnalysis("Validation", &analysis.ValidationAnalyzerConstructor{}, validation)

	env := cartpoleenv.NewEnv(cartpoleenv.Config{
		MaxSteps: flags.MaxSteps,
		Seed:     flags.Seed,
	})
	policy, err := policies.NewSoftmaxPolicy(policies.SoftmaxPolicyConfig{
		Inputs:       cartpoleenv.NumObservations,
		Actions:      cartpoleenv.NumActions,
		Hidden:       flags.Hidden,
		Optimizer:    flags.Optimizer,
		LearningRate: flags.LearningRate,
		InitScale:    flags.InitScale,
		Seed:         flags.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("creating policy: %w", err)
	}
	cmp.AddExperiment(&core.Experiment{
		Name:        ReinforceExperiment,
		Environment: env,
		Policy:      policy,
	})

	if flags.Baseline {
		baseEnv := cartpoleenv.NewEnv(cartpoleenv.Config{
			MaxSteps: flags.MaxSteps,
			Seed:     flags.Seed,
		})
		cmp.AddExperiment(&core.Experiment{
			Name:        RandomExperiment,
			Environment: baseEnv,
			Policy:      policies.NewRandomPolicy(baseEnv.ActionSpace()),
		})
	}
	return cmp, nil
}

package core

import (
	"context"
	"fmt"
	"io"

	"github.com/gosuri/uilive"
	"github.com/rs/zerolog"
	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"github.com/zeu5/reinforce-cartpole/returns"
)

type experimentRunContext struct {
	run       int
	ctx       context.Context
	analyzers map[string]Analyzer

	writer io.Writer
	logger zerolog.Logger
	rand   erand.Source

	*RunConfig
}

func (c *experimentRunContext) interrupted() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

type EpisodeStats struct {
	Episode int     `json:"episode"`
	Steps   int     `json:"steps"`
	Reward  float64 `json:"reward"`
	Loss    float64 `json:"loss"`
}

type ValidationStats struct {
	// Episode is the number of training episodes completed before validation.
	Episode    int       `json:"episode"`
	Rewards    []float64 `json:"rewards"`
	MeanReward float64   `json:"mean_reward"`
}

type ExperimentResult struct {
	CompletedEpisodes int
	TotalTimeSteps    int
	Episodes          []EpisodeStats
	Validations       []ValidationStats

	// Interrupted is set when the context was cancelled before all episodes
	// ran. Everything collected up to that point is kept.
	Interrupted bool

	Error    error
	Datasets map[string]DataSet
}

func (r *ExperimentResult) IsError() bool {
	return r.Error != nil
}

// MeanReward is the mean training reward over the last n episodes.
func (r *ExperimentResult) MeanReward(n int) float64 {
	if len(r.Episodes) == 0 {
		return 0
	}
	if n <= 0 || n > len(r.Episodes) {
		n = len(r.Episodes)
	}
	rewards := make([]float64, 0, n)
	for _, e := range r.Episodes[len(r.Episodes)-n:] {
		rewards = append(rewards, e.Reward)
	}
	return stat.Mean(rewards, nil)
}

// Train runs the REINFORCE training loop on the experiment without analyzers
// or progress output. The policy is not reset first.
func (e *Experiment) Train(ctx context.Context, cfg *RunConfig) (*ExperimentResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	result := e.run(&experimentRunContext{
		ctx:       ctx,
		analyzers: make(map[string]Analyzer),
		writer:    io.Discard,
		logger:    zerolog.Nop(),
		rand:      erand.NewSource(uint64(cfg.Seed)),
		RunConfig: cfg,
	})
	return result, result.Error
}

func (e *Experiment) run(ctx *experimentRunContext) *ExperimentResult {
	result := &ExperimentResult{
		Episodes:    make([]EpisodeStats, 0, ctx.Episodes),
		Validations: make([]ValidationStats, 0),
		Datasets:    make(map[string]DataSet),
	}
	logger := ctx.logger.With().Str("experiment", e.Name).Int("run", ctx.run).Logger()
	logger.Info().Int("episodes", ctx.Episodes).Int("horizon", ctx.Horizon).Msg("training started")

EpisodeLoop:
	for episode := 0; episode < ctx.Episodes; episode++ {
		if ctx.interrupted() {
			result.Interrupted = true
			break EpisodeLoop
		}

		eCtx := NewEpisodeContext(ctx.ctx)
		eCtx.Run = ctx.run
		eCtx.Episode = episode
		eCtx.Horizon = ctx.Horizon
		eCtx.StartTimeStep = result.TotalTimeSteps
		eCtx.Mode = Stochastic

		if err := e.trainEpisode(ctx, eCtx); err != nil {
			result.Error = fmt.Errorf("episode %d: %w", episode, err)
			break EpisodeLoop
		}
		stats := EpisodeStats{
			Episode: episode,
			Steps:   eCtx.Trace.Len(),
			Reward:  eCtx.Trace.TotalReward(),
			Loss:    eCtx.Loss,
		}
		result.Episodes = append(result.Episodes, stats)
		result.CompletedEpisodes++
		result.TotalTimeSteps += stats.Steps

		for _, a := range ctx.analyzers {
			a.Analyze(eCtx, eCtx.Trace)
		}

		if ctx.ValidationInterval > 0 && (episode+1)%ctx.ValidationInterval == 0 {
			v, interrupted, err := e.validate(ctx, episode+1)
			if err != nil {
				result.Error = fmt.Errorf("validation after episode %d: %w", episode+1, err)
				break EpisodeLoop
			}
			if len(v.Rewards) > 0 {
				result.Validations = append(result.Validations, v)
				logger.Info().Int("episode", v.Episode).Float64("mean_reward", v.MeanReward).Msg("validation")
			}
			if interrupted {
				result.Interrupted = true
				break EpisodeLoop
			}
		}
		e.printProgress(ctx, stats, result)
	}

	for name, a := range ctx.analyzers {
		result.Datasets[name] = a.DataSet()
	}

	switch {
	case result.Error != nil:
		logger.Error().Err(result.Error).Int("completed", result.CompletedEpisodes).Msg("training aborted")
	case result.Interrupted:
		logger.Warn().Int("completed", result.CompletedEpisodes).Msg("training interrupted")
	default:
		logger.Info().Int("completed", result.CompletedEpisodes).Float64("mean_reward", result.MeanReward(10)).Msg("training finished")
	}
	return result
}

// trainEpisode collects one stochastic rollout and applies a single
// policy-gradient update computed from it.
func (e *Experiment) trainEpisode(ctx *experimentRunContext, eCtx *EpisodeContext) error {
	if err := e.rollout(ctx, eCtx); err != nil {
		return err
	}
	trace := eCtx.Trace
	states := trace.States()
	actions := trace.Actions()
	g := returns.Discounted(trace.Rewards(), ctx.Discount)

	probs, err := e.Policy.Predict(states)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	loss, weights, err := SurrogateLoss(probs, actions, g)
	if err != nil {
		return fmt.Errorf("loss: %w", err)
	}
	grad, err := e.Policy.Gradient(states, actions, weights)
	if err != nil {
		return fmt.Errorf("gradient: %w", err)
	}
	if err := e.Policy.Step(grad); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	eCtx.Loss = loss
	return nil
}

func (e *Experiment) rollout(ctx *experimentRunContext, eCtx *EpisodeContext) error {
	state, err := e.Environment.Reset()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	for step := 0; step < eCtx.Horizon; step++ {
		probs, err := e.Policy.Predict([]State{state})
		if err != nil {
			return fmt.Errorf("predict: %w", err)
		}
		if len(probs) != 1 {
			return fmt.Errorf("%w: %d distributions for one state", ErrShapeMismatch, len(probs))
		}
		action, err := SelectAction(probs[0], eCtx.Mode, ctx.rand)
		if err != nil {
			return err
		}
		sCtx := &StepContext{Step: step, EpisodeContext: eCtx}
		nextState, reward, done, err := e.Environment.Step(action, sCtx)
		if err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		eCtx.Trace.AddStep(&Step{
			State:     state.Copy(),
			Action:    action,
			Reward:    reward,
			NextState: nextState.Copy(),
			Done:      done,
		})
		state = nextState
		if done {
			break
		}
	}
	return nil
}

// validate runs the greedy policy for the configured number of episodes. It
// reports whether it stopped early because the context was cancelled.
func (e *Experiment) validate(ctx *experimentRunContext, episode int) (ValidationStats, bool, error) {
	v := ValidationStats{
		Episode: episode,
		Rewards: make([]float64, 0, ctx.ValidationEpisodes),
	}
	interrupted := false
	for i := 0; i < ctx.ValidationEpisodes; i++ {
		if ctx.interrupted() {
			interrupted = true
			break
		}
		eCtx := NewEpisodeContext(ctx.ctx)
		eCtx.Run = ctx.run
		eCtx.Episode = episode
		eCtx.Horizon = ctx.Horizon
		eCtx.Mode = Greedy
		if err := e.rollout(ctx, eCtx); err != nil {
			return v, false, err
		}
		v.Rewards = append(v.Rewards, eCtx.Trace.TotalReward())
		for _, a := range ctx.analyzers {
			a.Analyze(eCtx, eCtx.Trace)
		}
	}
	if len(v.Rewards) > 0 {
		v.MeanReward = stat.Mean(v.Rewards, nil)
	}
	return v, interrupted, nil
}

func (e *Experiment) printProgress(ctx *experimentRunContext, stats EpisodeStats, result *ExperimentResult) {
	validation := "-"
	if n := len(result.Validations); n > 0 {
		validation = fmt.Sprintf("%.1f", result.Validations[n-1].MeanReward)
	}
	fmt.Fprintf(
		ctx.writer,
		"Experiment: %s, Run %d, Episode %d/%d, Timesteps: %d, Reward: %.1f, Loss: %.4f, Validation: %s\n",
		e.Name, ctx.run, stats.Episode+1, ctx.Episodes, result.TotalTimeSteps, stats.Reward, stats.Loss, validation,
	)
	if f, ok := ctx.writer.(interface{ Flush() error }); ok {
		f.Flush()
	}
}

// Run trains every experiment for the given number of runs. Each run starts
// from a freshly reset policy. Comparators see the datasets of every run,
// including a run cut short by cancellation. A failing experiment aborts the
// comparison and its error is returned with the results gathered so far.
func (c *Comparison) Run(ctx context.Context, runs int, rConfig *RunConfig) ([]map[string]*ExperimentResult, error) {
	if err := rConfig.Validate(); err != nil {
		return nil, err
	}
	writer := uilive.New()
	if c.Out != nil {
		writer.Out = c.Out
	}

	all := make([]map[string]*ExperimentResult, 0, runs)
	for run := 0; run < runs; run++ {
		select {
		case <-ctx.Done():
			return all, nil
		default:
		}

		results := make(map[string]*ExperimentResult)
		experimentNames := make([]string, 0, len(c.Experiments))
		interrupted := false

		for _, e := range c.Experiments {
			e.Policy.Reset()
			rCtx := &experimentRunContext{
				run:       run,
				ctx:       ctx,
				analyzers: make(map[string]Analyzer),
				writer:    writer,
				logger:    c.Logger,
				rand:      erand.NewSource(uint64(rConfig.Seed) + uint64(run)),
				RunConfig: rConfig,
			}
			for name, aC := range c.Analyzers {
				rCtx.analyzers[name] = aC.NewAnalyzer(e.Name, run)
			}

			result := e.run(rCtx)
			results[e.Name] = result
			experimentNames = append(experimentNames, e.Name)
			if result.IsError() {
				all = append(all, results)
				return all, fmt.Errorf("experiment %s, run %d: %w", e.Name, run, result.Error)
			}
			if result.Interrupted {
				interrupted = true
				break
			}
		}

		// Gather datasets to run comparisons
		for name, cC := range c.Comparators {
			datasets := make([]DataSet, 0, len(experimentNames))
			for _, exp := range experimentNames {
				datasets = append(datasets, results[exp].Datasets[name])
			}
			cC.NewComparator(run).Compare(experimentNames, datasets)
		}
		all = append(all, results)
		if interrupted {
			break
		}
	}
	return all, nil
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zeu5/reinforce-cartpole/core"
	"github.com/zeu5/reinforce-cartpole/experiments/cartpole"
	"github.com/zeu5/reinforce-cartpole/util"
)

type runSummary struct {
	Run               int                   `json:"run"`
	Experiment        string                `json:"experiment"`
	CompletedEpisodes int                   `json:"completed_episodes"`
	TotalTimeSteps    int                   `json:"total_time_steps"`
	MeanReward        float64               `json:"mean_reward_last_10"`
	LastValidation    *core.ValidationStats `json:"last_validation,omitempty"`
	Interrupted       bool                  `json:"interrupted"`
	Error             string                `json:"error,omitempty"`
}

func TrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a softmax policy on cart-pole with REINFORCE",
		RunE: func(cmd *cobra.Command, args []string) error {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			doneCh := make(chan struct{})

			ctx, cancel := context.WithCancel(context.Background())
			go func() {
				select {
				case s := <-sigCh:
					logger.Warn().Str("signal", s.String()).Msg("stopping after the current episode")
				case <-doneCh:
				}
				cancel()
			}()
			defer close(doneCh)

			cmp, err := cartpole.PrepareComparison(flags, logger)
			if err != nil {
				return err
			}
			cmp.Out = cmd.OutOrStdout()

			results, runErr := cmp.Run(ctx, flags.NumRuns, flags.RunConfig())
			summaries := summarize(cmp, results)
			printSummary(cmd.OutOrStdout(), summaries)
			if err := util.SaveJson(path.Join(flags.OutputPath(), "summary.json"), summaries); err != nil {
				logger.Error().Err(err).Msg("failed to save summary")
			}
			return runErr
		},
	}

	return cmd
}

func summarize(cmp *core.Comparison, results []map[string]*core.ExperimentResult) []runSummary {
	out := make([]runSummary, 0)
	for run, runResults := range results {
		for _, e := range cmp.Experiments {
			res, ok := runResults[e.Name]
			if !ok {
				continue
			}
			s := runSummary{
				Run:               run,
				Experiment:        e.Name,
				CompletedEpisodes: res.CompletedEpisodes,
				TotalTimeSteps:    res.TotalTimeSteps,
				MeanReward:        res.MeanReward(10),
				Interrupted:       res.Interrupted,
			}
			if n := len(res.Validations); n > 0 {
				last := res.Validations[n-1]
				s.LastValidation = &last
			}
			if res.IsError() {
				s.Error = res.Error.Error()
			}
			out = append(out, s)
		}
	}
	return out
}

func printSummary(w io.Writer, summaries []runSummary) {
	for _, s := range summaries {
		status := "finished"
		switch {
		case s.Error != "":
			status = "failed: " + s.Error
		case s.Interrupted:
			status = "interrupted"
		}
		fmt.Fprintf(w, "run %d %s: %d episodes, %d steps, mean reward (last 10) %.2f",
			s.Run, s.Experiment, s.CompletedEpisodes, s.TotalTimeSteps, s.MeanReward)
		if s.LastValidation != nil {
			fmt.Fprintf(w, ", validation after %d episodes %.2f", s.LastValidation.Episode, s.LastValidation.MeanReward)
		}
		fmt.Fprintf(w, ", %s\n", status)
	}
}

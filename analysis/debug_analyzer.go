package analysis

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zeu5/reinforce-cartpole/core"
)

type PrintDebugAnalyzer struct {
	// savePath is the directory the rollouts are written to
	savePath string
	exp      string
	// only rollouts from this training episode onwards are written
	thresholdEpisode int

	Logger zerolog.Logger
}

var _ core.Analyzer = &PrintDebugAnalyzer{}

func NewPrintDebugAnalyzer(savePath string, threshold int) *PrintDebugAnalyzer {
	return &PrintDebugAnalyzer{
		savePath:         path.Join(savePath, "traces"),
		thresholdEpisode: threshold,
		Logger:           zerolog.Nop(),
	}
}

func (a *PrintDebugAnalyzer) Analyze(ctx *core.EpisodeContext, trace *core.Trace) {
	if ctx.Episode < a.thresholdEpisode {
		return
	}
	buf := new(bytes.Buffer)
	buf.WriteString(fmt.Sprintf("Mode: %s\nSteps: %d\nReward: %.2f\nLoss: %.6f\n\n", ctx.Mode, trace.Len(), trace.TotalReward(), ctx.Loss))
	for i := 0; i < trace.Len(); i++ {
		buf.WriteString(fmt.Sprintf("Step %d\n%s\n", i, stepToString(trace.Step(i))))
	}

	fileName := fmt.Sprintf("%d_%s_trace_%d.txt", ctx.Run, ctx.Mode, ctx.Episode)
	if a.exp != "" {
		fileName = fmt.Sprintf("%d_%s_%s_trace_%d.txt", ctx.Run, a.exp, ctx.Mode, ctx.Episode)
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if ctx.Mode == core.Greedy {
		// all greedy rollouts of one validation phase share a file
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	filePath := path.Join(a.savePath, fileName)
	if err := a.write(filePath, flags, buf.Bytes()); err != nil {
		a.Logger.Error().Err(err).Str("path", filePath).Msg("failed to write trace")
	}
}

func (a *PrintDebugAnalyzer) write(filePath string, flags int, data []byte) error {
	if err := os.MkdirAll(a.savePath, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func stepToString(step *core.Step) string {
	return fmt.Sprintf(
		"State: %s\nAction: %d\nReward: %.2f\nNext State: %s\nDone: %t\n",
		stateToString(step.State),
		step.Action,
		step.Reward,
		stateToString(step.NextState),
		step.Done,
	)
}

func stateToString(state core.State) string {
	parts := make([]string, len(state))
	for i, v := range state {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (a *PrintDebugAnalyzer) DataSet() core.DataSet {
	return nil
}

func (a *PrintDebugAnalyzer) Reset() {}

type PrintDebugAnalyzerConstructor struct {
	SavePath         string
	ThresholdEpisode int
	Logger           zerolog.Logger
}

var _ core.AnalyzerConstructor = &PrintDebugAnalyzerConstructor{}

func NewPrintDebugAnalyzerConstructor(savePath string, thresholdEpisode int) *PrintDebugAnalyzerConstructor {
	return &PrintDebugAnalyzerConstructor{
		SavePath:         savePath,
		ThresholdEpisode: thresholdEpisode,
		Logger:           zerolog.Nop(),
	}
}

func (c *PrintDebugAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewPrintDebugAnalyzer(c.SavePath, c.ThresholdEpisode)
	a.exp = exp
	a.Logger = c.Logger.With().Str("experiment", exp).Logger()
	return a
}

// NoOpComparator discards the datasets, for analyzers that write their own
// output.
type NoOpComparator struct{}

var _ core.Comparator = &NoOpComparator{}

func (n *NoOpComparator) Compare(_ []string, _ []core.DataSet) {}

type NoOpComparatorConstructor struct{}

var _ core.ComparatorConstructor = &NoOpComparatorConstructor{}

func (n *NoOpComparatorConstructor) NewComparator(_ int) core.Comparator {
	return &NoOpComparator{}
}

func NewNoOpComparatorConstructor() *NoOpComparatorConstructor {
	return &NoOpComparatorConstructor{}
}

package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeu5/reinforce-cartpole/core"
)

func episode(mode core.SamplingMode, episode int, loss float64, rewards ...float64) (*core.EpisodeContext, *core.Trace) {
	eCtx := core.NewEpisodeContext(context.Background())
	eCtx.Mode = mode
	eCtx.Episode = episode
	eCtx.Loss = loss
	for i, r := range rewards {
		eCtx.Trace.AddStep(&core.Step{
			State:     core.State{float64(i)},
			Action:    core.Action(i % 2),
			Reward:    r,
			NextState: core.State{float64(i + 1)},
			Done:      i == len(rewards)-1,
		})
	}
	return eCtx, eCtx.Trace
}

func TestRewardAnalyzerSkipsGreedyEpisodes(t *testing.T) {
	a := NewRewardAnalyzer()
	a.Analyze(episode(core.Stochastic, 0, 1.5, 1, 1, 1))
	a.Analyze(episode(core.Greedy, 1, 0, 1, 1, 1, 1, 1))
	a.Analyze(episode(core.Stochastic, 1, 0.5, 1, 1))

	ds, ok := a.DataSet().(*rewardAnalyzerDataset)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, ds.Episodes)
	assert.Equal(t, []int{3, 2}, ds.Steps)
	assert.Equal(t, []float64{3, 2}, ds.Rewards)
	assert.Equal(t, []float64{1.5, 0.5}, ds.Losses)

	// the dataset is a snapshot
	ds.Rewards[0] = 100
	assert.Equal(t, 3.0, a.DataSet().(*rewardAnalyzerDataset).Rewards[0])

	a.Reset()
	assert.Empty(t, a.DataSet().(*rewardAnalyzerDataset).Episodes)
}

func TestValidationAnalyzerGroupsByEpisode(t *testing.T) {
	a := NewValidationAnalyzer()
	a.Analyze(episode(core.Stochastic, 0, 1, 1))
	a.Analyze(episode(core.Greedy, 2, 0, 1, 1))
	a.Analyze(episode(core.Greedy, 2, 0, 1, 1, 1, 1))
	a.Analyze(episode(core.Greedy, 4, 0, 1, 1, 1))

	ds, ok := a.DataSet().(*validationAnalyzerDataset)
	require.True(t, ok)
	require.Len(t, ds.Points, 2)
	assert.Equal(t, 2, ds.Points[0].Episode)
	assert.Equal(t, []float64{2, 4}, ds.Points[0].Rewards)
	assert.Equal(t, 3.0, ds.Points[0].MeanReward)
	assert.InDelta(t, 1.4142135623730951, ds.Points[0].StdReward, 1e-12)
	assert.Equal(t, 3.0, ds.Points[1].MeanReward)
	assert.Equal(t, 0.0, ds.Points[1].StdReward)
}

func TestRewardComparatorWritesJson(t *testing.T) {
	dir := t.TempDir()
	a := NewRewardAnalyzer()
	a.Analyze(episode(core.Stochastic, 0, 0.25, 1, 1))

	NewRewardComparatorConstructor(dir).NewComparator(3).Compare([]string{"reinforce"}, []core.DataSet{a.DataSet()})

	bs, err := os.ReadFile(filepath.Join(dir, "3", "rewards.json"))
	require.NoError(t, err)
	out := make(map[string]rewardAnalyzerDataset)
	require.NoError(t, json.Unmarshal(bs, &out))
	assert.Equal(t, []float64{2}, out["reinforce"].Rewards)
	assert.Equal(t, []float64{0.25}, out["reinforce"].Losses)
}

func TestValidationComparatorWritesJson(t *testing.T) {
	dir := t.TempDir()
	a := NewValidationAnalyzer()
	a.Analyze(episode(core.Greedy, 10, 0, 1, 1, 1))

	NewValidationComparatorConstructor(dir).NewComparator(0).Compare([]string{"reinforce", "random"}, []core.DataSet{a.DataSet(), nil})

	bs, err := os.ReadFile(filepath.Join(dir, "0", "validation.json"))
	require.NoError(t, err)
	out := make(map[string]validationAnalyzerDataset)
	require.NoError(t, json.Unmarshal(bs, &out))
	require.Contains(t, out, "reinforce")
	assert.NotContains(t, out, "random")
	assert.Equal(t, 10, out["reinforce"].Points[0].Episode)
}

func TestPrintDebugAnalyzerThreshold(t *testing.T) {
	dir := t.TempDir()
	a := NewPrintDebugAnalyzerConstructor(dir, 5).NewAnalyzer("reinforce", 0)

	a.Analyze(episode(core.Stochastic, 4, 0.1, 1, 1))
	a.Analyze(episode(core.Stochastic, 5, 0.1, 1, 1))

	entries, err := os.ReadDir(filepath.Join(dir, "traces"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "0_reinforce_stochastic_trace_5.txt", entries[0].Name())

	bs, err := os.ReadFile(filepath.Join(dir, "traces", entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(bs), "Steps: 2")
	assert.Contains(t, string(bs), "Done: true")
}

// blockedDir returns a path below a regular file, so nothing can be created there.
func blockedDir(t *testing.T) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	return filepath.Join(file, "results")
}

func TestComparatorsLogWriteFailures(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := zerolog.New(buf)
	dir := blockedDir(t)

	rewards := NewRewardComparatorConstructor(dir)
	rewards.Logger = logger
	rewards.NewComparator(0).Compare([]string{"reinforce"}, []core.DataSet{NewRewardAnalyzer().DataSet()})
	assert.Contains(t, buf.String(), "failed to save rewards")

	validation := NewValidationComparatorConstructor(dir)
	validation.Logger = logger
	validation.NewComparator(1).Compare([]string{"reinforce"}, []core.DataSet{NewValidationAnalyzer().DataSet()})
	assert.Contains(t, buf.String(), "failed to save validation")
	assert.Contains(t, buf.String(), `"run":1`)
}

func TestPrintDebugAnalyzerLogsWriteFailures(t *testing.T) {
	buf := new(bytes.Buffer)
	c := NewPrintDebugAnalyzerConstructor(blockedDir(t), 0)
	c.Logger = zerolog.New(buf)

	c.NewAnalyzer("reinforce", 0).Analyze(episode(core.Stochastic, 0, 0.1, 1))
	assert.Contains(t, buf.String(), "failed to write trace")
	assert.Contains(t, buf.String(), `"experiment":"reinforce"`)
}

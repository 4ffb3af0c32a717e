package cartpole

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeu5/reinforce-cartpole/experiments/common"
)

func smallFlags(t *testing.T) *common.Flags {
	f := common.DefaultFlags()
	f.SavePath = t.TempDir()
	f.RunID = "test"
	f.Episodes = 4
	f.MaxSteps = 20
	f.Hidden = 4
	f.ValidationInterval = 2
	f.ValidationEpisodes = 2
	return f
}

func TestPrepareComparison(t *testing.T) {
	f := smallFlags(t)

	cmp, err := PrepareComparison(f, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, cmp.Experiments, 1)
	assert.Equal(t, ReinforceExperiment, cmp.Experiments[0].Name)
	assert.Contains(t, cmp.Analyzers, "Rewards")
	assert.Contains(t, cmp.Analyzers, "Validation")
	assert.NotContains(t, cmp.Analyzers, "Debug")

	f.Baseline = true
	f.Debug = true
	cmp, err = PrepareComparison(f, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, cmp.Experiments, 2)
	assert.Equal(t, RandomExperiment, cmp.Experiments[1].Name)
	assert.Contains(t, cmp.Analyzers, "Debug")
}

func TestPrepareComparisonBadPolicy(t *testing.T) {
	f := smallFlags(t)
	f.Optimizer = "unknown"

	_, err := PrepareComparison(f, zerolog.Nop())
	assert.Error(t, err)
}

func TestComparisonWritesResults(t *testing.T) {
	f := smallFlags(t)
	f.Baseline = true

	cmp, err := PrepareComparison(f, zerolog.Nop())
	require.NoError(t, err)
	cmp.Out = io.Discard

	results, err := cmp.Run(context.Background(), 1, f.RunConfig())
	require.NoError(t, err)
	require.Len(t, results, 1)

	for _, name := range []string{ReinforceExperiment, RandomExperiment} {
		res := results[0][name]
		require.NotNil(t, res, name)
		assert.Equal(t, f.Episodes, res.CompletedEpisodes)
		assert.Len(t, res.Validations, 2)
		for _, ep := range res.Episodes {
			assert.LessOrEqual(t, ep.Steps, f.MaxSteps)
			assert.Equal(t, float64(ep.Steps), ep.Reward)
		}
	}

	data, err := os.ReadFile(path.Join(f.OutputPath(), "0", "rewards.json"))
	require.NoError(t, err)
	var rewards map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &rewards))
	assert.Contains(t, rewards, ReinforceExperiment)
	assert.Contains(t, rewards, RandomExperiment)

	_, err = os.Stat(path.Join(f.OutputPath(), "0", "validation.json"))
	assert.NoError(t, err)
}

package analysis

import (
	"path"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/zeu5/reinforce-cartpole/core"
	"github.com/zeu5/reinforce-cartpole/util"
)

type rewardAnalyzerDataset struct {
	Episodes []int     `json:"episodes"`
	Steps    []int     `json:"steps"`
	Rewards  []float64 `json:"rewards"`
	Losses   []float64 `json:"losses"`
}

func (r *rewardAnalyzerDataset) Copy() *rewardAnalyzerDataset {
	return &rewardAnalyzerDataset{
		Episodes: util.CopyIntSlice(r.Episodes),
		Steps:    util.CopyIntSlice(r.Steps),
		Rewards:  util.CopyFloatSlice(r.Rewards),
		Losses:   util.CopyFloatSlice(r.Losses),
	}
}

// RewardAnalyzer records the total reward and the loss of every training
// episode.
type RewardAnalyzer struct {
	dataset *rewardAnalyzerDataset
}

var _ core.Analyzer = &RewardAnalyzer{}

func NewRewardAnalyzer() *RewardAnalyzer {
	r := &RewardAnalyzer{}
	r.Reset()
	return r
}

func (r *RewardAnalyzer) Reset() {
	r.dataset = &rewardAnalyzerDataset{
		Episodes: make([]int, 0),
		Steps:    make([]int, 0),
		Rewards:  make([]float64, 0),
		Losses:   make([]float64, 0),
	}
}

func (r *RewardAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	if eCtx.Mode != core.Stochastic {
		return
	}
	r.dataset.Episodes = append(r.dataset.Episodes, eCtx.Episode)
	r.dataset.Steps = append(r.dataset.Steps, trace.Len())
	r.dataset.Rewards = append(r.dataset.Rewards, trace.TotalReward())
	r.dataset.Losses = append(r.dataset.Losses, eCtx.Loss)
}

func (r *RewardAnalyzer) DataSet() core.DataSet {
	return r.dataset.Copy()
}

type RewardAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &RewardAnalyzerConstructor{}

func (r *RewardAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewRewardAnalyzer()
}

// RewardComparator writes the reward datasets of all experiments of a run to
// rewards.json.
type RewardComparator struct {
	savePath string
	Logger   zerolog.Logger
}

var _ core.Comparator = &RewardComparator{}

func NewRewardComparator(savePath string) *RewardComparator {
	return &RewardComparator{
		savePath: path.Join(savePath, "rewards.json"),
		Logger:   zerolog.Nop(),
	}
}

func (r *RewardComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	out := make(map[string]*rewardAnalyzerDataset)
	for i, name := range experimentNames {
		ds, ok := datasets[i].(*rewardAnalyzerDataset)
		if !ok {
			continue
		}
		out[name] = ds
	}
	if err := util.SaveJson(r.savePath, out); err != nil {
		r.Logger.Error().Err(err).Str("path", r.savePath).Msg("failed to save rewards")
	}
}

type RewardComparatorConstructor struct {
	savePath string
	Logger   zerolog.Logger
}

var _ core.ComparatorConstructor = &RewardComparatorConstructor{}

func NewRewardComparatorConstructor(savePath string) *RewardComparatorConstructor {
	return &RewardComparatorConstructor{
		savePath: savePath,
		Logger:   zerolog.Nop(),
	}
}

func (r *RewardComparatorConstructor) NewComparator(run int) core.Comparator {
	c := NewRewardComparator(path.Join(r.savePath, strconv.Itoa(run)))
	c.Logger = r.Logger.With().Int("run", run).Logger()
	return c
}

package analysis

import (
	"path"
	"strconv"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/zeu5/reinforce-cartpole/core"
	"github.com/zeu5/reinforce-cartpole/util"
)

type validationPoint struct {
	Episode    int       `json:"episode"`
	Rewards    []float64 `json:"rewards"`
	MeanReward float64   `json:"mean_reward"`
	StdReward  float64   `json:"std_reward"`
}

type validationAnalyzerDataset struct {
	Points []validationPoint `json:"points"`
}

// ValidationAnalyzer groups greedy episodes by the training episode at which
// they ran.
type ValidationAnalyzer struct {
	points []validationPoint
}

var _ core.Analyzer = &ValidationAnalyzer{}

func NewValidationAnalyzer() *ValidationAnalyzer {
	return &ValidationAnalyzer{
		points: make([]validationPoint, 0),
	}
}

func (v *ValidationAnalyzer) Reset() {
	v.points = make([]validationPoint, 0)
}

func (v *ValidationAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	if eCtx.Mode != core.Greedy {
		return
	}
	n := len(v.points)
	if n == 0 || v.points[n-1].Episode != eCtx.Episode {
		v.points = append(v.points, validationPoint{Episode: eCtx.Episode, Rewards: make([]float64, 0)})
		n++
	}
	v.points[n-1].Rewards = append(v.points[n-1].Rewards, trace.TotalReward())
}

func (v *ValidationAnalyzer) DataSet() core.DataSet {
	out := &validationAnalyzerDataset{Points: make([]validationPoint, len(v.points))}
	for i, p := range v.points {
		mean, std := stat.MeanStdDev(p.Rewards, nil)
		if len(p.Rewards) < 2 {
			std = 0
		}
		out.Points[i] = validationPoint{
			Episode:    p.Episode,
			Rewards:    util.CopyFloatSlice(p.Rewards),
			MeanReward: mean,
			StdReward:  std,
		}
	}
	return out
}

type ValidationAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &ValidationAnalyzerConstructor{}

func (v *ValidationAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewValidationAnalyzer()
}

type ValidationComparator struct {
	savePath string
	Logger   zerolog.Logger
}

var _ core.Comparator = &ValidationComparator{}

func NewValidationComparator(savePath string) *ValidationComparator {
	return &ValidationComparator{
		savePath: path.Join(savePath, "validation.json"),
		Logger:   zerolog.Nop(),
	}
}

func (v *ValidationComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	out := make(map[string]*validationAnalyzerDataset)
	for i, name := range experimentNames {
		ds, ok := datasets[i].(*validationAnalyzerDataset)
		if !ok {
			continue
		}
		out[name] = ds
	}
	if err := util.SaveJson(v.savePath, out); err != nil {
		v.Logger.Error().Err(err).Str("path", v.savePath).Msg("failed to save validation")
	}
}

type ValidationComparatorConstructor struct {
	savePath string
	Logger   zerolog.Logger
}

var _ core.ComparatorConstructor = &ValidationComparatorConstructor{}

func NewValidationComparatorConstructor(savePath string) *ValidationComparatorConstructor {
	return &ValidationComparatorConstructor{
		savePath: savePath,
		Logger:   zerolog.Nop(),
	}
}

func (v *ValidationComparatorConstructor) NewComparator(run int) core.Comparator {
	c := NewValidationComparator(path.Join(v.savePath, strconv.Itoa(run)))
	c.Logger = v.Logger.With().Int("run", run).Logger()
	return c
}

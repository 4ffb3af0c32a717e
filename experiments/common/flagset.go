package common

import (
	"errors"
	"fmt"
	"math"
	"path"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zeu5/reinforce-cartpole/core"
	"github.com/zeu5/reinforce-cartpole/optim"
	"github.com/zeu5/reinforce-cartpole/util"
)

type Flags struct {
	RunID    string
	SavePath string
	RunFlags
	PolicyFlags
	Seed     int64
	Baseline bool
	Debug    bool
	LogLevel string
}

type RunFlags struct {
	NumRuns            int
	Episodes           int
	MaxSteps           int
	Discount           float64
	ValidationInterval int
	ValidationEpisodes int
}

type PolicyFlags struct {
	Hidden       int
	Optimizer    string
	LearningRate float64
	InitScale    float64
}

func DefaultFlags() *Flags {
	return &Flags{
		SavePath: "results",
		RunFlags: RunFlags{
			NumRuns:            1,
			Episodes:           1000,
			MaxSteps:           500,
			Discount:           0.99,
			ValidationInterval: 50,
			ValidationEpisodes: 10,
		},
		PolicyFlags: PolicyFlags{
			Hidden:       32,
			Optimizer:    "adam",
			LearningRate: 0.01,
			InitScale:    0.1,
		},
		Seed:     0,
		Baseline: false,
		Debug:    false,
		LogLevel: "info",
	}
}

// Validate checks the flags that are not covered by core.RunConfig.
func (f *Flags) Validate() error {
	if f.SavePath == "" {
		return errors.New("save path must not be empty")
	}
	if f.NumRuns <= 0 {
		return errors.New("number of runs must be positive")
	}
	if f.Hidden < 0 {
		return errors.New("hidden units must not be negative")
	}
	if _, err := optim.New(f.Optimizer, f.LearningRate); err != nil {
		return err
	}
	if math.IsNaN(f.InitScale) || math.IsInf(f.InitScale, 0) || f.InitScale <= 0 {
		return errors.New("init scale must be positive")
	}
	if _, err := zerolog.ParseLevel(f.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", f.LogLevel, err)
	}
	return f.RunConfig().Validate()
}

func (f *Flags) RunConfig() *core.RunConfig {
	return &core.RunConfig{
		Episodes:           f.Episodes,
		Horizon:            f.MaxSteps,
		Discount:           f.Discount,
		ValidationInterval: f.ValidationInterval,
		ValidationEpisodes: f.ValidationEpisodes,
		Seed:               f.Seed,
	}
}

// OutputPath is the directory holding everything written by this invocation.
func (f *Flags) OutputPath() string {
	if f.RunID == "" {
		return f.SavePath
	}
	return path.Join(f.SavePath, f.RunID)
}

// Record assigns a run id if none is set and saves the flags as config.json
// under the output path.
func (f *Flags) Record() error {
	if f.RunID == "" {
		f.RunID = uuid.NewString()
	}
	return util.SaveJson(path.Join(f.OutputPath(), "config.json"), f)
}

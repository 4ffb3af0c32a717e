package core

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/rs/zerolog"
)

type DataSet interface{}

type Analyzer interface {
	Analyze(*EpisodeContext, *Trace)
	DataSet() DataSet
	Reset()
}

type AnalyzerConstructor interface {
	// NewAnalyzer creates an analyzer for the given experiment name and run
	NewAnalyzer(string, int) Analyzer
}

type Comparator interface {
	Compare([]string, []DataSet)
}

type ComparatorConstructor interface {
	NewComparator(int) Comparator
}

type RunConfig struct {
	Episodes int
	// Horizon is the step limit of a single rollout.
	Horizon  int
	Discount float64

	// ValidationInterval is the number of training episodes between greedy
	// validation phases. Zero disables validation.
	ValidationInterval int
	ValidationEpisodes int

	Seed int64
}

func (c *RunConfig) Validate() error {
	if c.Episodes <= 0 {
		return errors.New("episodes must be positive")
	}
	if c.Horizon <= 0 {
		return errors.New("horizon must be positive")
	}
	if math.IsNaN(c.Discount) || c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("discount must be in [0, 1], got %f", c.Discount)
	}
	if c.ValidationInterval < 0 {
		return errors.New("validation interval must not be negative")
	}
	if c.ValidationInterval > 0 && c.ValidationEpisodes <= 0 {
		return errors.New("validation episodes must be positive when validation is enabled")
	}
	return nil
}

type Experiment struct {
	Name        string
	Environment Environment
	Policy      Policy
}

type Comparison struct {
	Experiments []*Experiment
	Analyzers   map[string]AnalyzerConstructor
	Comparators map[string]ComparatorConstructor

	Logger zerolog.Logger
	// Out receives the live progress lines, stdout when nil.
	Out io.Writer
}

func NewComparison() *Comparison {
	return &Comparison{
		Analyzers:   make(map[string]AnalyzerConstructor),
		Comparators: make(map[string]ComparatorConstructor),
		Experiments: make([]*Experiment, 0),
		Logger:      zerolog.Nop(),
	}
}

func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

func (c *Comparison) AddAnalysis(name string, a AnalyzerConstructor, cmp ComparatorConstructor) {
	c.Analyzers[name] = a
	c.Comparators[name] = cmp
}

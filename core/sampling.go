package core

import (
	"errors"
	"fmt"

	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"
)

var ErrInvalidDistribution = errors.New("invalid action distribution")

// SamplingMode selects how actions are drawn from the policy distribution.
type SamplingMode int

const (
	// Stochastic draws from the categorical distribution. Used for training.
	Stochastic SamplingMode = iota
	// Greedy takes the most probable action. Used for validation.
	Greedy
)

func (m SamplingMode) String() string {
	switch m {
	case Greedy:
		return "greedy"
	default:
		return "stochastic"
	}
}

// SelectAction picks an action from probs according to mode.
func SelectAction(probs []float64, mode SamplingMode, src erand.Source) (Action, error) {
	if len(probs) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrInvalidDistribution)
	}
	for _, p := range probs {
		if p < 0 {
			return 0, fmt.Errorf("%w: negative probability %f", ErrInvalidDistribution, p)
		}
	}
	if mode == Greedy {
		return Action(floats.MaxIdx(probs)), nil
	}
	i, ok := sampleuv.NewWeighted(probs, src).Take()
	if !ok {
		return 0, fmt.Errorf("%w: no probability mass", ErrInvalidDistribution)
	}
	return Action(i), nil
}

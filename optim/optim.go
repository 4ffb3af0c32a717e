// Package optim implements first-order optimizers over flat parameter vectors.
package optim

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var ErrLengthMismatch = errors.New("parameter and gradient lengths differ")

// Optimizer applies descent updates in place.
type Optimizer interface {
	// Update moves params one step against grad.
	Update(params, grad []float64) error
	// Reset clears any accumulated state.
	Reset()
}

// New returns the optimizer registered under name.
func New(name string, learningRate float64) (Optimizer, error) {
	if math.IsNaN(learningRate) || math.IsInf(learningRate, 0) || learningRate <= 0 {
		return nil, fmt.Errorf("learning rate must be positive, got %f", learningRate)
	}
	switch name {
	case "adam":
		return NewAdam(learningRate), nil
	case "sgd":
		return NewSGD(learningRate), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}

type SGD struct {
	LearningRate float64
}

var _ Optimizer = &SGD{}

func NewSGD(learningRate float64) *SGD {
	return &SGD{LearningRate: learningRate}
}

func (s *SGD) Update(params, grad []float64) error {
	if len(params) != len(grad) {
		return ErrLengthMismatch
	}
	floats.AddScaled(params, -s.LearningRate, grad)
	return nil
}

func (s *SGD) Reset() {}

// Adam keeps bias-corrected running estimates of the first and second
// moments of the gradient.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	m []float64
	v []float64
	t int
}

var _ Optimizer = &Adam{}

func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}
}

func (a *Adam) Update(params, grad []float64) error {
	if len(params) != len(grad) {
		return ErrLengthMismatch
	}
	if len(a.m) != len(params) {
		// moments are tied to one parameter vector
		a.m = make([]float64, len(params))
		a.v = make([]float64, len(params))
		a.t = 0
	}
	a.t++
	c1 := 1 - math.Pow(a.Beta1, float64(a.t))
	c2 := 1 - math.Pow(a.Beta2, float64(a.t))
	for i, g := range grad {
		a.m[i] = a.Beta1*a.m[i] + (1-a.Beta1)*g
		a.v[i] = a.Beta2*a.v[i] + (1-a.Beta2)*g*g
		mHat := a.m[i] / c1
		vHat := a.v[i] / c2
		params[i] -= a.LearningRate * mHat / (math.Sqrt(vHat) + a.Epsilon)
	}
	return nil
}

func (a *Adam) Reset() {
	a.m = nil
	a.v = nil
	a.t = 0
}

// Steps is the number of updates applied since the last reset.
func (a *Adam) Steps() int {
	return a.t
}

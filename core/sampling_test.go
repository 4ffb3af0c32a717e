package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	erand "golang.org/x/exp/rand"
)

func TestSelectActionGreedy(t *testing.T) {
	src := erand.NewSource(1)
	for i := 0; i < 10; i++ {
		a, err := SelectAction([]float64{0.2, 0.5, 0.3}, Greedy, src)
		require.NoError(t, err)
		assert.Equal(t, Action(1), a)
	}
}

func TestSelectActionStochasticFollowsDistribution(t *testing.T) {
	src := erand.NewSource(42)
	counts := make([]int, 2)
	const draws = 10000
	for i := 0; i < draws; i++ {
		a, err := SelectAction([]float64{0.25, 0.75}, Stochastic, src)
		require.NoError(t, err)
		counts[a]++
	}
	assert.InDelta(t, 0.75, float64(counts[1])/draws, 0.03)
}

func TestSelectActionStochasticNeverPicksImpossibleAction(t *testing.T) {
	src := erand.NewSource(3)
	for i := 0; i < 100; i++ {
		a, err := SelectAction([]float64{0, 1, 0}, Stochastic, src)
		require.NoError(t, err)
		assert.Equal(t, Action(1), a)
	}
}

func TestSelectActionInvalid(t *testing.T) {
	src := erand.NewSource(1)

	_, err := SelectAction(nil, Stochastic, src)
	assert.ErrorIs(t, err, ErrInvalidDistribution)

	_, err = SelectAction([]float64{-0.1, 1.1}, Greedy, src)
	assert.ErrorIs(t, err, ErrInvalidDistribution)

	_, err = SelectAction([]float64{0, 0}, Stochastic, src)
	assert.ErrorIs(t, err, ErrInvalidDistribution)
}

func TestSamplingModeString(t *testing.T) {
	assert.Equal(t, "stochastic", Stochastic.String())
	assert.Equal(t, "greedy", Greedy.String())
}

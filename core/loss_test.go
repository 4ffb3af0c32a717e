package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurrogateLoss(t *testing.T) {
	probs := [][]float64{{0.5, 0.5}, {0.25, 0.75}}
	actions := []Action{0, 1}
	g := []float64{2, 1}

	loss, weights, err := SurrogateLoss(probs, actions, g)
	require.NoError(t, err)

	want := -(math.Log(0.5)*2 + math.Log(0.75)*1) / 2
	assert.InDelta(t, want, loss, 1e-12)
	assert.Equal(t, []float64{-1, -0.5}, weights)
}

func TestSurrogateLossPositiveReturnsGivePositiveLoss(t *testing.T) {
	loss, _, err := SurrogateLoss([][]float64{{0.9, 0.1}}, []Action{0}, []float64{3})
	require.NoError(t, err)
	assert.Greater(t, loss, 0.0)
}

func TestSurrogateLossZeroProbabilityIsFinite(t *testing.T) {
	loss, _, err := SurrogateLoss([][]float64{{1, 0}}, []Action{1}, []float64{1})
	require.NoError(t, err)
	assert.False(t, math.IsInf(loss, 0))
}

func TestSurrogateLossShapeErrors(t *testing.T) {
	_, _, err := SurrogateLoss(nil, nil, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, _, err = SurrogateLoss([][]float64{{0.5, 0.5}}, []Action{0, 1}, []float64{1, 1})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, _, err = SurrogateLoss([][]float64{{0.5, 0.5}}, []Action{2}, []float64{1})
	assert.ErrorIs(t, err, ErrInvalidAction)
}

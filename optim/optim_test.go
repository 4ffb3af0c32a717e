package optim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	o, err := New("adam", 0.01)
	require.NoError(t, err)
	assert.IsType(t, &Adam{}, o)

	o, err = New("sgd", 0.1)
	require.NoError(t, err)
	assert.IsType(t, &SGD{}, o)

	_, err = New("rmsprop", 0.1)
	assert.Error(t, err)

	_, err = New("adam", math.NaN())
	assert.Error(t, err)

	_, err = New("sgd", math.Inf(1))
	assert.Error(t, err)

	_, err = New("adam", 0)
	assert.Error(t, err)
}

func TestSGDUpdate(t *testing.T) {
	params := []float64{1, 2, 3}
	require.NoError(t, NewSGD(0.5).Update(params, []float64{2, 0, -2}))
	assert.Equal(t, []float64{0, 2, 4}, params)
}

func TestAdamFirstStepMovesByLearningRate(t *testing.T) {
	// with bias correction the first step is lr*sign(g)
	adam := NewAdam(0.1)
	params := []float64{1, 1, 1}
	require.NoError(t, adam.Update(params, []float64{3, -0.5, 0}))

	assert.InDelta(t, 0.9, params[0], 1e-6)
	assert.InDelta(t, 1.1, params[1], 1e-6)
	assert.Equal(t, 1.0, params[2])
	assert.Equal(t, 1, adam.Steps())
}

func TestAdamMinimisesQuadratic(t *testing.T) {
	adam := NewAdam(0.05)
	params := []float64{4, -3}
	for i := 0; i < 2000; i++ {
		grad := []float64{2 * params[0], 2 * params[1]}
		require.NoError(t, adam.Update(params, grad))
	}
	assert.InDelta(t, 0, params[0], 1e-2)
	assert.InDelta(t, 0, params[1], 1e-2)
}

func TestAdamReset(t *testing.T) {
	adam := NewAdam(0.1)
	require.NoError(t, adam.Update([]float64{1}, []float64{1}))
	adam.Reset()
	assert.Equal(t, 0, adam.Steps())
}

func TestLengthMismatch(t *testing.T) {
	assert.ErrorIs(t, NewAdam(0.1).Update([]float64{1, 2}, []float64{1}), ErrLengthMismatch)
	assert.ErrorIs(t, NewSGD(0.1).Update([]float64{1, 2}, []float64{1}), ErrLengthMismatch)
}

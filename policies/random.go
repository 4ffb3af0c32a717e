package policies

import (
	"fmt"

	"github.com/zeu5/reinforce-cartpole/core"
)

// RandomPolicy assigns equal probability to every action and has nothing to
// learn. It serves as a baseline for the trained policies.
type RandomPolicy struct {
	actions int
}

var _ core.Policy = &RandomPolicy{}

func NewRandomPolicy(space core.ActionSpace) *RandomPolicy {
	return &RandomPolicy{
		actions: space.Size(),
	}
}

func (r *RandomPolicy) Reset() {}

func (r *RandomPolicy) Predict(states []core.State) ([][]float64, error) {
	out := make([][]float64, len(states))
	for i := range states {
		probs := make([]float64, r.actions)
		for j := range probs {
			probs[j] = 1 / float64(r.actions)
		}
		out[i] = probs
	}
	return out, nil
}

func (r *RandomPolicy) Gradient(states []core.State, actions []core.Action, weights []float64) ([]float64, error) {
	if len(actions) != len(states) || len(weights) != len(states) {
		return nil, fmt.Errorf("%w: %d states, %d actions, %d weights", core.ErrShapeMismatch, len(states), len(actions), len(weights))
	}
	return []float64{}, nil
}

func (r *RandomPolicy) Step(grad []float64) error {
	if len(grad) != 0 {
		return fmt.Errorf("%w: random policy has no parameters", core.ErrShapeMismatch)
	}
	return nil
}

func (r *RandomPolicy) Parameters() []float64 {
	return []float64{}
}

package core

import (
	"fmt"
	"math"
)

// minProb keeps log from returning -Inf for actions the policy rules out.
const minProb = 1e-12

// SurrogateLoss computes the REINFORCE loss
//
//	L = -1/N * sum_t log pi(a_t | s_t) * G_t
//
// from the predicted distributions, the actions taken and their returns. The
// returned weights are -G_t/N, so that Policy.Gradient(states, actions,
// weights) is the gradient of L.
func SurrogateLoss(probs [][]float64, actions []Action, returns []float64) (float64, []float64, error) {
	n := len(actions)
	if n == 0 {
		return 0, nil, fmt.Errorf("%w: empty rollout", ErrShapeMismatch)
	}
	if len(probs) != n || len(returns) != n {
		return 0, nil, fmt.Errorf("%w: %d distributions, %d actions, %d returns", ErrShapeMismatch, len(probs), n, len(returns))
	}
	loss := 0.0
	weights := make([]float64, n)
	for t, a := range actions {
		if a < 0 || int(a) >= len(probs[t]) {
			return 0, nil, fmt.Errorf("%w: action %d at step %d", ErrInvalidAction, a, t)
		}
		loss -= math.Log(math.Max(probs[t][a], minProb)) * returns[t]
		weights[t] = -returns[t] / float64(n)
	}
	return loss / float64(n), weights, nil
}

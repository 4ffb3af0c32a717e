package core

// Policy is a parameterised stochastic policy trained by gradient descent.
type Policy interface {
	// Predict maps a batch of states to per-action probabilities.
	Predict([]State) ([][]float64, error)
	// Gradient returns the gradient with respect to the parameters of
	// sum_i weights[i] * log pi(actions[i] | states[i]).
	Gradient(states []State, actions []Action, weights []float64) ([]float64, error)
	// Step applies one optimizer update that descends along grad.
	Step(grad []float64) error
	// Parameters returns a copy of the trainable parameters.
	Parameters() []float64
	// Reset re-initialises the parameters and the optimizer state.
	Reset()
}

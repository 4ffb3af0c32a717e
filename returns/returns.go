// Package returns turns per-step reward sequences into discounted returns.
package returns

// Discounted computes, for every timestep t, the discounted sum of the
// rewards from t to the end of the episode:
//
//	G[N-1] = R[N-1]
//	G[t]   = R[t] + gamma*G[t+1]
//
// The input slice is not modified. An empty reward sequence yields nil.
func Discounted(rewards []float64, gamma float64) []float64 {
	n := len(rewards)
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	out[n-1] = rewards[n-1]
	for t := n - 2; t >= 0; t-- {
		out[t] = rewards[t] + gamma*out[t+1]
	}
	return out
}

// Total is the undiscounted sum of the rewards.
func Total(rewards []float64) float64 {
	sum := 0.0
	for _, r := range rewards {
		sum += r
	}
	return sum
}

package policies

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/zeu5/reinforce-cartpole/core"
	"github.com/zeu5/reinforce-cartpole/optim"
)

type SoftmaxPolicyConfig struct {
	Inputs  int
	Actions int
	// Hidden is the width of the tanh hidden layer. Zero makes the policy
	// linear in the state.
	Hidden int

	Optimizer    string
	LearningRate float64
	// InitScale bounds the uniform initialisation of the weights.
	InitScale float64
	Seed      int64
}

func (c SoftmaxPolicyConfig) Validate() error {
	if c.Inputs <= 0 || c.Actions <= 0 {
		return errors.New("inputs and actions must be positive")
	}
	if c.Hidden < 0 {
		return errors.New("hidden units must not be negative")
	}
	if math.IsNaN(c.InitScale) || math.IsInf(c.InitScale, 0) || c.InitScale < 0 {
		return errors.New("init scale must be finite and not negative")
	}
	return nil
}

// layer is a dense affine map stored inside the flat parameter vector.
type layer struct {
	in, out int
	wOff    int
	bOff    int
}

func (l layer) weights(theta []float64) *mat.Dense {
	return mat.NewDense(l.out, l.in, theta[l.wOff:l.wOff+l.out*l.in])
}

func (l layer) bias(theta []float64) []float64 {
	return theta[l.bOff : l.bOff+l.out]
}

// SoftmaxPolicy is a small feed-forward network whose output logits are
// turned into action probabilities with a softmax.
type SoftmaxPolicy struct {
	cfg       SoftmaxPolicyConfig
	layers    []layer
	theta     []float64
	optimizer optim.Optimizer
	rand      *rand.Rand
}

var _ core.Policy = &SoftmaxPolicy{}

func NewSoftmaxPolicy(cfg SoftmaxPolicyConfig) (*SoftmaxPolicy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	optimizer, err := optim.New(cfg.Optimizer, cfg.LearningRate)
	if err != nil {
		return nil, err
	}

	sizes := []int{cfg.Inputs}
	if cfg.Hidden > 0 {
		sizes = append(sizes, cfg.Hidden)
	}
	sizes = append(sizes, cfg.Actions)

	layers := make([]layer, 0, len(sizes)-1)
	offset := 0
	for i := 0; i+1 < len(sizes); i++ {
		l := layer{in: sizes[i], out: sizes[i+1], wOff: offset}
		l.bOff = l.wOff + l.in*l.out
		offset = l.bOff + l.out
		layers = append(layers, l)
	}

	p := &SoftmaxPolicy{
		cfg:       cfg,
		layers:    layers,
		theta:     make([]float64, offset),
		optimizer: optimizer,
	}
	p.Reset()
	return p, nil
}

// Reset draws fresh weights uniformly from [-InitScale, InitScale] with zero
// biases and clears the optimizer.
func (p *SoftmaxPolicy) Reset() {
	p.rand = rand.New(rand.NewSource(p.cfg.Seed))
	for i := range p.theta {
		p.theta[i] = 0
	}
	for _, l := range p.layers {
		w := p.theta[l.wOff : l.wOff+l.in*l.out]
		for i := range w {
			w[i] = (2*p.rand.Float64() - 1) * p.cfg.InitScale
		}
	}
	p.optimizer.Reset()
}

func (p *SoftmaxPolicy) Parameters() []float64 {
	out := make([]float64, len(p.theta))
	copy(out, p.theta)
	return out
}

func (p *SoftmaxPolicy) NumParameters() int {
	return len(p.theta)
}

func (p *SoftmaxPolicy) Predict(states []core.State) ([][]float64, error) {
	x, err := p.inputs(states)
	if err != nil {
		return nil, err
	}
	logits := p.forward(x)
	out := make([][]float64, len(states))
	for i := range out {
		out[i] = mat.Row(nil, i, logits)
		softmaxInPlace(out[i])
	}
	return out, nil
}

func (p *SoftmaxPolicy) inputs(states []core.State) (*mat.Dense, error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("%w: empty batch", core.ErrShapeMismatch)
	}
	x := mat.NewDense(len(states), p.cfg.Inputs, nil)
	for i, s := range states {
		if len(s) != p.cfg.Inputs {
			return nil, fmt.Errorf("%w: state %d has %d values, want %d", core.ErrShapeMismatch, i, len(s), p.cfg.Inputs)
		}
		x.SetRow(i, s)
	}
	return x, nil
}

// forward returns the logits for a batch of inputs.
func (p *SoftmaxPolicy) forward(x *mat.Dense) *mat.Dense {
	n, _ := x.Dims()
	h := x
	for i, l := range p.layers {
		z := mat.NewDense(n, l.out, nil)
		z.Mul(h, l.weights(p.theta).T())
		b := l.bias(p.theta)
		z.Apply(func(_, j int, v float64) float64 { return v + b[j] }, z)
		if i < len(p.layers)-1 {
			z.Apply(func(_, _ int, v float64) float64 { return math.Tanh(v) }, z)
		}
		h = z
	}
	return h
}

// Gradient differentiates sum_i weights[i] * log softmax(f(states[i]))[actions[i]]
// through a gorgonia expression graph built for this batch.
func (p *SoftmaxPolicy) Gradient(states []core.State, actions []core.Action, weights []float64) ([]float64, error) {
	if len(actions) != len(states) || len(weights) != len(states) {
		return nil, fmt.Errorf("%w: %d states, %d actions, %d weights", core.ErrShapeMismatch, len(states), len(actions), len(weights))
	}
	x, err := p.inputs(states)
	if err != nil {
		return nil, err
	}

	n := len(states)
	mask := make([]float64, n*p.cfg.Actions)
	for i, a := range actions {
		if a < 0 || int(a) >= p.cfg.Actions {
			return nil, fmt.Errorf("%w: %d", core.ErrInvalidAction, a)
		}
		mask[i*p.cfg.Actions+int(a)] = weights[i]
	}

	// log-softmax is shift invariant, the row maxima only keep exp finite
	logits := p.forward(x)
	shift := make([]float64, n)
	for i := range shift {
		shift[i] = mat.Max(logits.RowView(i))
	}

	g := newLogProbGraph(p.layers, p.theta)
	grads, err := g.gradient(x, shift, mask, p.cfg.Actions)
	if err != nil {
		return nil, fmt.Errorf("gradient: %w", err)
	}
	return grads, nil
}

func (p *SoftmaxPolicy) Step(grad []float64) error {
	return p.optimizer.Update(p.theta, grad)
}

func softmaxInPlace(v []float64) {
	maxV := v[0]
	for _, x := range v[1:] {
		if x > maxV {
			maxV = x
		}
	}
	sum := 0.0
	for i, x := range v {
		v[i] = math.Exp(x - maxV)
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
}

package policies

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// logProbGraph rebuilds the policy network as a gorgonia expression graph
// so the weighted log-probability objective can be differentiated
// symbolically. A new graph is built for every batch since the rollout
// length fixes the input shape.
type logProbGraph struct {
	layers []layer
	theta  []float64
}

func newLogProbGraph(layers []layer, theta []float64) *logProbGraph {
	return &logProbGraph{
		layers: layers,
		theta:  theta,
	}
}

func constMatrix(g *G.ExprGraph, name string, rows, cols int, data []float64) *G.Node {
	backing := make([]float64, len(data))
	copy(backing, data)
	return G.NewMatrix(g, tensor.Float64,
		G.WithShape(rows, cols),
		G.WithName(name),
		G.WithValue(tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(backing))),
	)
}

// gradient returns d/dθ sum(mask ⊙ log softmax(f(x) - shift)) laid out like
// theta. mask holds the weight of the taken action in each row and zeros
// elsewhere.
func (lg *logProbGraph) gradient(x *mat.Dense, shift, mask []float64, actions int) ([]float64, error) {
	n, in := x.Dims()
	g := G.NewGraph()

	xData := make([]float64, 0, n*in)
	for i := 0; i < n; i++ {
		xData = append(xData, x.RawRowView(i)...)
	}
	h := constMatrix(g, "x", n, in, xData)

	params := make(G.Nodes, 0, 2*len(lg.layers))
	for i, l := range lg.layers {
		w := constMatrix(g, fmt.Sprintf("w%d", i), l.out, l.in, lg.theta[l.wOff:l.wOff+l.out*l.in])
		b := constMatrix(g, fmt.Sprintf("b%d", i), 1, l.out, lg.theta[l.bOff:l.bOff+l.out])
		params = append(params, w, b)

		wT, err := G.Transpose(w)
		if err != nil {
			return nil, err
		}
		z, err := G.Mul(h, wT)
		if err != nil {
			return nil, err
		}
		if z, err = G.BroadcastAdd(z, b, nil, []byte{0}); err != nil {
			return nil, err
		}
		if i < len(lg.layers)-1 {
			if z, err = G.Tanh(z); err != nil {
				return nil, err
			}
		}
		h = z
	}

	shifted, err := G.BroadcastSub(h, constMatrix(g, "shift", n, 1, shift), nil, []byte{1})
	if err != nil {
		return nil, err
	}
	exp, err := G.Exp(shifted)
	if err != nil {
		return nil, err
	}
	sum, err := G.Sum(exp, 1)
	if err != nil {
		return nil, err
	}
	lse, err := G.Log(sum)
	if err != nil {
		return nil, err
	}
	if lse, err = G.Reshape(lse, tensor.Shape{n, 1}); err != nil {
		return nil, err
	}
	logProbs, err := G.BroadcastSub(shifted, lse, nil, []byte{1})
	if err != nil {
		return nil, err
	}
	weighted, err := G.HadamardProd(logProbs, constMatrix(g, "mask", n, actions, mask))
	if err != nil {
		return nil, err
	}
	objective, err := G.Sum(weighted)
	if err != nil {
		return nil, err
	}

	grads, err := G.Grad(objective, params...)
	if err != nil {
		return nil, err
	}
	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return nil, err
	}

	out := make([]float64, len(lg.theta))
	for i, l := range lg.layers {
		if err := copyGrad(out[l.wOff:l.wOff+l.out*l.in], grads[2*i]); err != nil {
			return nil, err
		}
		if err := copyGrad(out[l.bOff:l.bOff+l.out], grads[2*i+1]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func copyGrad(dst []float64, n *G.Node) error {
	v := n.Value()
	if v == nil {
		return fmt.Errorf("no value for %s", n.Name())
	}
	data, ok := v.Data().([]float64)
	if !ok || len(data) != len(dst) {
		return fmt.Errorf("unexpected gradient value for %s: %v", n.Name(), v.Shape())
	}
	copy(dst, data)
	return nil
}

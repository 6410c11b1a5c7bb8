package nn

import "golang.org/x/exp/rand"

// Network is a stack of layers applied in order.
type Network struct {
	Layers []Layer
}

// Tape records the input each layer saw during one forward pass so the
// matching backward pass can be replayed later.
type Tape struct {
	inputs [][]float64
}

func (n *Network) Forward(x []float64) ([]float64, *Tape) {
	tape := &Tape{inputs: make([][]float64, len(n.Layers))}
	for i, layer := range n.Layers {
		tape.inputs[i] = x
		x = layer.Forward(x)
	}
	return x, tape
}

// Backward accumulates parameter gradients for the forward pass recorded on
// the tape and returns the gradient with respect to the network input.
func (n *Network) Backward(tape *Tape, gy []float64) []float64 {
	for i := len(n.Layers) - 1; i >= 0; i-- {
		gy = n.Layers[i].Backward(tape.inputs[i], gy)
	}
	return gy
}

func (n *Network) Params() []*Param {
	params := make([]*Param, 0)
	for _, layer := range n.Layers {
		params = append(params, layer.Params()...)
	}
	return params
}

// NewMLP builds a fully connected network with nHidden layers of the given
// width, ReLU activations in between and a linear output layer.
func NewMLP(in, out, width, nHidden int, rng *rand.Rand) *Network {
	layers := make([]Layer, 0, 2*nHidden+1)
	last := in
	for i := 0; i < nHidden; i++ {
		layers = append(layers, NewLinear(last, width, rng), ReLU{})
		last = width
	}
	layers = append(layers, NewLinear(last, out, rng))
	return &Network{Layers: layers}
}

// NewTrunk builds the hidden part of a network: nHidden rectified layers of
// the given width, ending in an activation so heads can be attached.
func NewTrunk(in, width, nHidden int, rng *rand.Rand) *Network {
	layers := make([]Layer, 0, 2*nHidden)
	last := in
	for i := 0; i < nHidden; i++ {
		layers = append(layers, NewLinear(last, width, rng), ReLU{})
		last = width
	}
	return &Network{Layers: layers}
}

package policies

import (
	"golang.org/x/exp/rand"

	"github.com/zeu5/pcl-gym/nn"
)

// FCVFunction estimates the state value with a fully connected network.
type FCVFunction struct {
	net *nn.Network
}

var _ VFunction = &FCVFunction{}

func NewFCVFunction(obsSize, width, nHidden int, rng *rand.Rand) *FCVFunction {
	return &FCVFunction{net: nn.NewMLP(obsSize, 1, width, nHidden, rng)}
}

func (v *FCVFunction) Value(obs []float64) float64 {
	out, _ := v.net.Forward(obs)
	return out[0]
}

func (v *FCVFunction) AccumulateGrad(obs []float64, coeff float64) {
	_, tape := v.net.Forward(obs)
	v.net.Backward(tape, []float64{coeff})
}

func (v *FCVFunction) Params() []*nn.Param {
	return v.net.Params()
}

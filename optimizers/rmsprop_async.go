package optimizers

import (
	"fmt"
	"math"

	"github.com/zeu5/pcl-gym/nn"
)

// RMSpropAsync is the RMSprop variant used for asynchronous training: it
// keeps no momentum, so updates from concurrent workers compose. The mean
// square statistics live in the optimizer and are shared by every worker;
// callers must serialize Step through the param server.
type RMSpropAsync struct {
	lr    float64
	alpha float64
	eps   float64

	params []*nn.Param
	ms     [][]float64 // mean square per param, row-major
}

var _ Optimizer = &RMSpropAsync{}

func NewRMSpropAsync(lr, alpha float64) *RMSpropAsync {
	return &RMSpropAsync{lr: lr, alpha: alpha, eps: 1e-8}
}

func (r *RMSpropAsync) Setup(params []*nn.Param) {
	r.params = params
	r.ms = make([][]float64, len(params))
	for i, p := range params {
		rows, cols := p.Dims()
		r.ms[i] = make([]float64, rows*cols)
	}
}

func (r *RMSpropAsync) Step() {
	for i, p := range r.params {
		data := p.Data.RawMatrix().Data
		grad := p.Grad.RawMatrix().Data
		for j, g := range grad {
			r.ms[i][j] = r.alpha*r.ms[i][j] + (1-r.alpha)*g*g
			data[j] -= r.lr * g / (math.Sqrt(r.ms[i][j]) + r.eps)
		}
		p.ZeroGrad()
	}
}

func (r *RMSpropAsync) State() State {
	slots := make([][]float64, len(r.ms))
	for i := range r.ms {
		slots[i] = append([]float64(nil), r.ms[i]...)
	}
	return State{Slots: slots}
}

func (r *RMSpropAsync) LoadState(state State) error {
	if len(state.Slots) != len(r.ms) {
		return fmt.Errorf("rmsprop state has %d slots, want %d", len(state.Slots), len(r.ms))
	}
	for i := range r.ms {
		copy(r.ms[i], state.Slots[i])
	}
	return nil
}

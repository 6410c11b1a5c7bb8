package optimizers

import (
	"fmt"
	"math"

	"github.com/zeu5/pcl-gym/nn"
)

// Adam is the adaptive gradient optimizer used for single-process training.
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64

	params []*nn.Param
	m      [][]float64 // first moment per param, row-major
	v      [][]float64 // second moment per param, row-major
	t      int
}

var _ Optimizer = &Adam{}

func NewAdam(lr float64) *Adam {
	return &Adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-8}
}

func (a *Adam) Setup(params []*nn.Param) {
	a.params = params
	a.m = make([][]float64, len(params))
	a.v = make([][]float64, len(params))
	for i, p := range params {
		rows, cols := p.Dims()
		a.m[i] = make([]float64, rows*cols)
		a.v[i] = make([]float64, rows*cols)
	}
}

func (a *Adam) Step() {
	a.t++
	correction1 := 1 - math.Pow(a.beta1, float64(a.t))
	correction2 := 1 - math.Pow(a.beta2, float64(a.t))
	for i, p := range a.params {
		data := p.Data.RawMatrix().Data
		grad := p.Grad.RawMatrix().Data
		for j, g := range grad {
			a.m[i][j] = a.beta1*a.m[i][j] + (1-a.beta1)*g
			a.v[i][j] = a.beta2*a.v[i][j] + (1-a.beta2)*g*g
			mHat := a.m[i][j] / correction1
			vHat := a.v[i][j] / correction2
			data[j] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
		p.ZeroGrad()
	}
}

func (a *Adam) State() State {
	slots := make([][]float64, 0, 2*len(a.m))
	for i := range a.m {
		slots = append(slots, append([]float64(nil), a.m[i]...))
		slots = append(slots, append([]float64(nil), a.v[i]...))
	}
	return State{Step: a.t, Slots: slots}
}

func (a *Adam) LoadState(state State) error {
	if len(state.Slots) != 2*len(a.m) {
		return fmt.Errorf("adam state has %d slots, want %d", len(state.Slots), 2*len(a.m))
	}
	a.t = state.Step
	for i := range a.m {
		copy(a.m[i], state.Slots[2*i])
		copy(a.v[i], state.Slots[2*i+1])
	}
	return nil
}

package nn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Layer is a differentiable transformation. Backward receives the input the
// layer saw during the forward pass together with the gradient of the loss
// with respect to the layer's output, accumulates parameter gradients and
// returns the gradient with respect to the input.
type Layer interface {
	Forward(x []float64) []float64
	Backward(x, gy []float64) []float64
	Params() []*Param
}

// Linear computes y = W x + b.
type Linear struct {
	W *Param // out x in
	B *Param // out x 1
}

var _ Layer = &Linear{}

// NewLinear creates a linear layer with weights drawn from a centered
// Gaussian with stddev 1/sqrt(in) and zero bias.
func NewLinear(in, out int, rng *rand.Rand) *Linear {
	return NewLinearScaled(in, out, 1.0, 0.0, rng)
}

// NewLinearScaled creates a linear layer whose initial weight scale is
// multiplied by wScale and whose bias entries start at bias. Used for heads
// that should start near a fixed output.
func NewLinearScaled(in, out int, wScale, bias float64, rng *rand.Rand) *Linear {
	l := &Linear{
		W: NewParam(out, in),
		B: NewParam(out, 1),
	}
	normal := distuv.Normal{Mu: 0, Sigma: wScale / math.Sqrt(float64(in)), Src: rng}
	for i := 0; i < out; i++ {
		for j := 0; j < in; j++ {
			l.W.Data.Set(i, j, normal.Rand())
		}
		l.B.Data.Set(i, 0, bias)
	}
	return l
}

func (l *Linear) Forward(x []float64) []float64 {
	out, _ := l.W.Dims()
	y := mat.NewVecDense(out, nil)
	y.MulVec(l.W.Data, mat.NewVecDense(len(x), x))
	for i := 0; i < out; i++ {
		y.SetVec(i, y.AtVec(i)+l.B.Data.At(i, 0))
	}
	return y.RawVector().Data
}

func (l *Linear) Backward(x, gy []float64) []float64 {
	out, in := l.W.Dims()

	var gw mat.Dense
	gw.Outer(1, mat.NewVecDense(out, gy), mat.NewVecDense(in, x))
	l.W.Grad.Add(l.W.Grad, &gw)
	for i := 0; i < out; i++ {
		l.B.Grad.Set(i, 0, l.B.Grad.At(i, 0)+gy[i])
	}

	gx := mat.NewVecDense(in, nil)
	gx.MulVec(l.W.Data.T(), mat.NewVecDense(out, gy))
	return gx.RawVector().Data
}

func (l *Linear) Params() []*Param {
	return []*Param{l.W, l.B}
}

// ReLU rectifies its input elementwise.
type ReLU struct{}

var _ Layer = ReLU{}

func (ReLU) Forward(x []float64) []float64 {
	y := make([]float64, len(x))
	for i, v := range x {
		if v > 0 {
			y[i] = v
		}
	}
	return y
}

func (ReLU) Backward(x, gy []float64) []float64 {
	gx := make([]float64, len(x))
	for i, v := range x {
		if v > 0 {
			gx[i] = gy[i]
		}
	}
	return gx
}

func (ReLU) Params() []*Param {
	return nil
}

package nn

import "gonum.org/v1/gonum/mat"

// Param is a learnable tensor paired with an accumulated gradient of the
// same shape. Optimizers read Grad and write Data.
type Param struct {
	Data *mat.Dense
	Grad *mat.Dense
}

func NewParam(rows, cols int) *Param {
	return &Param{
		Data: mat.NewDense(rows, cols, nil),
		Grad: mat.NewDense(rows, cols, nil),
	}
}

func (p *Param) Dims() (int, int) {
	return p.Data.Dims()
}

func (p *Param) ZeroGrad() {
	p.Grad.Zero()
}

// CopyFrom overwrites the parameter values with those of another parameter.
func (p *Param) CopyFrom(other *Param) {
	p.Data.Copy(other.Data)
}

// Flatten returns the parameter values in row-major order.
func (p *Param) Flatten() []float64 {
	return append([]float64(nil), p.Data.RawMatrix().Data...)
}

// Load overwrites the parameter values from a row-major slice.
func (p *Param) Load(values []float64) {
	rows, cols := p.Data.Dims()
	if len(values) != rows*cols {
		panic("parameter size mismatch on load")
	}
	copy(p.Data.RawMatrix().Data, values)
}

func ZeroGrads(params []*Param) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

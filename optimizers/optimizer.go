package optimizers

import "github.com/zeu5/pcl-gym/nn"

// Optimizer updates a fixed set of parameters from their accumulated
// gradients. Setup binds the parameters once, Step consumes the gradients.
type Optimizer interface {
	Setup(params []*nn.Param)
	// Step applies the accumulated gradients and clears them
	Step()
	State() State
	LoadState(State) error
}

// State is a serializable snapshot of an optimizer's slot variables.
type State struct {
	Step  int         `json:"step,omitempty"`
	Slots [][]float64 `json:"slots"`
}

package policies

import (
	"github.com/zeu5/pcl-gym/gym"
	"github.com/zeu5/pcl-gym/nn"
)

// Policy is a differentiable stochastic policy over a fixed action space.
type Policy interface {
	// Sample draws an action from the policy's distribution at obs
	Sample(obs []float64) gym.Action
	// LogProb returns the log probability (density) of an action at obs
	LogProb(obs []float64, a gym.Action) float64
	// AccumulateGrad adds coeff * d logProb(a|obs) / dtheta to the
	// gradients of the policy's parameters
	AccumulateGrad(obs []float64, a gym.Action, coeff float64)
	Params() []*nn.Param
}

// VFunction is a differentiable state-value estimator.
type VFunction interface {
	Value(obs []float64) float64
	// AccumulateGrad adds coeff * d Value(obs) / dtheta to the gradients
	// of the function's parameters
	AccumulateGrad(obs []float64, coeff float64)
	Params() []*nn.Param
}

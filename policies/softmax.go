package policies

import (
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/zeu5/pcl-gym/gym"
	"github.com/zeu5/pcl-gym/nn"
)

// FCSoftmaxPolicy is a categorical policy: a fully connected network maps
// the observation to one logit per action.
type FCSoftmaxPolicy struct {
	net      *nn.Network
	nActions int

	// rngMu serializes draws when several workers sample concurrently
	rngMu sync.Mutex
	rng   *rand.Rand
}

var _ Policy = &FCSoftmaxPolicy{}

func NewFCSoftmaxPolicy(obsSize, nActions, width, nHidden int, rng *rand.Rand) *FCSoftmaxPolicy {
	return &FCSoftmaxPolicy{
		net:      nn.NewMLP(obsSize, nActions, width, nHidden, rng),
		nActions: nActions,
		rng:      rng,
	}
}

// NumActions returns the number of actions the policy distributes over.
func (p *FCSoftmaxPolicy) NumActions() int {
	return p.nActions
}

func (p *FCSoftmaxPolicy) Sample(obs []float64) gym.Action {
	logits, _ := p.net.Forward(obs)
	probs := softmax(logits)
	p.rngMu.Lock()
	i, ok := sampleuv.NewWeighted(probs, p.rng).Take()
	p.rngMu.Unlock()
	if !ok {
		i = 0
	}
	return gym.DiscreteAction(i)
}

func (p *FCSoftmaxPolicy) LogProb(obs []float64, a gym.Action) float64 {
	logits, _ := p.net.Forward(obs)
	probs := softmax(logits)
	return math.Log(probs[a.Index] + 1e-12)
}

func (p *FCSoftmaxPolicy) AccumulateGrad(obs []float64, a gym.Action, coeff float64) {
	logits, tape := p.net.Forward(obs)
	probs := softmax(logits)
	// d logProb / d logits = onehot(a) - softmax(logits)
	gLogits := make([]float64, len(logits))
	for i := range gLogits {
		gLogits[i] = -coeff * probs[i]
	}
	gLogits[a.Index] += coeff
	p.net.Backward(tape, gLogits)
}

func (p *FCSoftmaxPolicy) Params() []*nn.Param {
	return p.net.Params()
}

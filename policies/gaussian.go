package policies

import (
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/zeu5/pcl-gym/gym"
	"github.com/zeu5/pcl-gym/nn"
)

const minVariance = 1e-8

// FCGaussianPolicy is a diagonal Gaussian policy for bounded continuous
// action spaces. A fully connected trunk feeds two linear heads: the mean,
// squashed by tanh into [low, high], and the variance, mapped through
// softplus. The variance head starts near a unit variance so early episodes
// explore.
type FCGaussianPolicy struct {
	trunk    *nn.Network
	meanHead *nn.Linear
	varHead  *nn.Linear

	low  []float64
	high []float64

	// rngMu serializes draws when several workers sample concurrently
	rngMu sync.Mutex
	rng   *rand.Rand
}

var _ Policy = &FCGaussianPolicy{}

func NewFCGaussianPolicy(obsSize, actionSize, width, nHidden int, low, high []float64, rng *rand.Rand) *FCGaussianPolicy {
	trunkOut := width
	if nHidden == 0 {
		trunkOut = obsSize
	}
	return &FCGaussianPolicy{
		trunk:    nn.NewTrunk(obsSize, width, nHidden, rng),
		meanHead: nn.NewLinear(trunkOut, actionSize, rng),
		varHead:  nn.NewLinearScaled(trunkOut, actionSize, 1e-3, 1.0, rng),
		low:      low,
		high:     high,
		rng:      rng,
	}
}

// Bounds returns the action range the mean is squashed into.
func (p *FCGaussianPolicy) Bounds() ([]float64, []float64) {
	return p.low, p.high
}

func (p *FCGaussianPolicy) distribution(obs []float64) (mean, variance, meanRaw, varRaw, hidden []float64, tape *nn.Tape) {
	hidden, tape = p.trunk.Forward(obs)
	meanRaw = p.meanHead.Forward(hidden)
	varRaw = p.varHead.Forward(hidden)

	mean = make([]float64, len(meanRaw))
	variance = make([]float64, len(varRaw))
	for k := range meanRaw {
		center := (p.high[k] + p.low[k]) / 2
		half := (p.high[k] - p.low[k]) / 2
		mean[k] = center + half*math.Tanh(meanRaw[k])
		variance[k] = softplus(varRaw[k]) + minVariance
	}
	return
}

func (p *FCGaussianPolicy) Sample(obs []float64) gym.Action {
	mean, variance, _, _, _, _ := p.distribution(obs)
	unit := distuv.Normal{Mu: 0, Sigma: 1, Src: p.rng}
	values := make([]float64, len(mean))
	p.rngMu.Lock()
	for k := range values {
		values[k] = mean[k] + math.Sqrt(variance[k])*unit.Rand()
	}
	p.rngMu.Unlock()
	return gym.BoxAction(values...)
}

func (p *FCGaussianPolicy) LogProb(obs []float64, a gym.Action) float64 {
	mean, variance, _, _, _, _ := p.distribution(obs)
	logProb := float64(0)
	for k := range mean {
		diff := a.Values[k] - mean[k]
		logProb += -0.5*math.Log(2*math.Pi*variance[k]) - diff*diff/(2*variance[k])
	}
	return logProb
}

func (p *FCGaussianPolicy) AccumulateGrad(obs []float64, a gym.Action, coeff float64) {
	mean, variance, meanRaw, varRaw, hidden, tape := p.distribution(obs)

	gMeanRaw := make([]float64, len(mean))
	gVarRaw := make([]float64, len(mean))
	for k := range mean {
		diff := a.Values[k] - mean[k]
		gMean := diff / variance[k]
		gVar := (diff*diff/variance[k] - 1) / (2 * variance[k])

		half := (p.high[k] - p.low[k]) / 2
		tanh := math.Tanh(meanRaw[k])
		gMeanRaw[k] = coeff * gMean * half * (1 - tanh*tanh)
		gVarRaw[k] = coeff * gVar * sigmoid(varRaw[k])
	}

	gHidden := p.meanHead.Backward(hidden, gMeanRaw)
	gHiddenVar := p.varHead.Backward(hidden, gVarRaw)
	for i := range gHidden {
		gHidden[i] += gHiddenVar[i]
	}
	p.trunk.Backward(tape, gHidden)
}

func (p *FCGaussianPolicy) Params() []*nn.Param {
	params := p.trunk.Params()
	params = append(params, p.meanHead.Params()...)
	params = append(params, p.varHead.Params()...)
	return params
}

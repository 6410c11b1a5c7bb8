package policies

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/zeu5/pcl-gym/gym"
)

func TestSoftmaxPolicyOutputs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := NewFCSoftmaxPolicy(4, 3, 16, 1, rng)
	if p.NumActions() != 3 {
		t.Errorf("expected 3 actions, got %d", p.NumActions())
	}

	obs := []float64{0.1, -0.2, 0.3, 0.4}
	for i := 0; i < 100; i++ {
		a := p.Sample(obs)
		if a.Index < 0 || a.Index >= 3 {
			t.Fatalf("sampled action %d out of range", a.Index)
		}
	}

	// probabilities over all actions must sum to one
	total := float64(0)
	for i := 0; i < 3; i++ {
		total += math.Exp(p.LogProb(obs, gym.DiscreteAction(i)))
	}
	if math.Abs(total-1) > 1e-6 {
		t.Errorf("action probabilities sum to %f", total)
	}
}

func TestSoftmaxPolicyGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	p := NewFCSoftmaxPolicy(3, 2, 16, 0, rng)
	obs := []float64{0.5, -0.3, 0.8}
	action := gym.DiscreteAction(1)
	checkLogProbGradient(t, p, obs, action)
}

func TestGaussianPolicyBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	low := []float64{-2}
	high := []float64{2}
	p := NewFCGaussianPolicy(3, 1, 16, 1, low, high, rng)

	gotLow, gotHigh := p.Bounds()
	if gotLow[0] != -2 || gotHigh[0] != 2 {
		t.Errorf("bounds not preserved: [%f, %f]", gotLow[0], gotHigh[0])
	}

	// the mean is squashed into the bounds, so the density at the mean of
	// any observation must be finite and positive
	obs := []float64{0.2, 0.1, -0.4}
	mean, _, _, _, _, _ := p.distribution(obs)
	if mean[0] < low[0] || mean[0] > high[0] {
		t.Errorf("policy mean %f escapes bounds [-2, 2]", mean[0])
	}
	if lp := p.LogProb(obs, gym.BoxAction(mean[0])); math.IsInf(lp, 0) || math.IsNaN(lp) {
		t.Errorf("log density at the mean is %f", lp)
	}
}

func TestGaussianPolicyGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	p := NewFCGaussianPolicy(2, 1, 16, 0, []float64{-1}, []float64{1}, rng)
	obs := []float64{0.4, -0.9}
	action := gym.BoxAction(0.3)
	checkLogProbGradient(t, p, obs, action)
}

func TestVFunctionGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	v := NewFCVFunction(3, 16, 0, rng)
	obs := []float64{0.1, 0.2, 0.3}

	v.AccumulateGrad(obs, 1)
	const eps = 1e-6
	for pi, p := range v.Params() {
		data := p.Data.RawMatrix().Data
		grad := p.Grad.RawMatrix().Data
		for j := range data {
			orig := data[j]
			data[j] = orig + eps
			plus := v.Value(obs)
			data[j] = orig - eps
			minus := v.Value(obs)
			data[j] = orig

			numeric := (plus - minus) / (2 * eps)
			if math.Abs(numeric-grad[j]) > 1e-4 {
				t.Fatalf("param %d entry %d: analytic %f vs numeric %f", pi, j, grad[j], numeric)
			}
		}
	}
}

func checkLogProbGradient(t *testing.T, p Policy, obs []float64, action gym.Action) {
	t.Helper()
	p.AccumulateGrad(obs, action, 1)

	const eps = 1e-6
	for pi, param := range p.Params() {
		data := param.Data.RawMatrix().Data
		grad := param.Grad.RawMatrix().Data
		for j := range data {
			orig := data[j]
			data[j] = orig + eps
			plus := p.LogProb(obs, action)
			data[j] = orig - eps
			minus := p.LogProb(obs, action)
			data[j] = orig

			numeric := (plus - minus) / (2 * eps)
			if math.Abs(numeric-grad[j]) > 1e-4 {
				t.Fatalf("param %d entry %d: analytic %f vs numeric %f", pi, j, grad[j], numeric)
			}
		}
	}
}

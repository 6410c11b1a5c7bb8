package gym

import "fmt"

type SpaceKind int

const (
	// Discrete is a finite set of actions indexed 0..N-1
	Discrete SpaceKind = iota
	// Box is a bounded real vector
	Box
)

// Space describes the shape of an action or observation space.
// Exactly one of the variants is meaningful depending on Kind.
type Space struct {
	Kind SpaceKind
	N    int       // number of choices, Discrete only
	Low  []float64 // per-dimension lower bounds, Box only
	High []float64 // per-dimension upper bounds, Box only
}

func DiscreteSpace(n int) Space {
	return Space{Kind: Discrete, N: n}
}

func BoxSpace(low, high []float64) Space {
	if len(low) != len(high) {
		panic(fmt.Sprintf("box space bounds disagree: %d vs %d", len(low), len(high)))
	}
	return Space{Kind: Box, Low: low, High: high}
}

// Dim returns the number of components of a value drawn from the space.
func (s Space) Dim() int {
	if s.Kind == Discrete {
		return 1
	}
	return len(s.Low)
}

// Clip bounds a vector to the box. No-op for discrete spaces.
func (s Space) Clip(v []float64) []float64 {
	if s.Kind != Box {
		return v
	}
	clipped := make([]float64, len(v))
	for i, x := range v {
		if x < s.Low[i] {
			x = s.Low[i]
		}
		if x > s.High[i] {
			x = s.High[i]
		}
		clipped[i] = x
	}
	return clipped
}

// Action is a tagged value: Index is meaningful when the action space is
// Discrete, Values when it is a Box.
type Action struct {
	Index  int
	Values []float64
}

func DiscreteAction(i int) Action {
	return Action{Index: i}
}

func BoxAction(values ...float64) Action {
	return Action{Values: values}
}

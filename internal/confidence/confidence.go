// Package confidence implements the bounded random drift applied to active
// signal confidence on every refresh tick. It has no notion of time; the
// session decides when to call Update.
package confidence

import (
	"github.com/newthinker/signalpro/internal/core"
)

// Source yields uniform draws in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Bounds configures the drift step.
type Bounds struct {
	Floor     float64
	Ceiling   float64
	Amplitude float64 // full width of the per-tick delta
}

// DefaultBounds returns floor 60, ceiling 100 and a ±1.5 delta.
func DefaultBounds() Bounds {
	return Bounds{
		Floor:     60,
		Ceiling:   100,
		Amplitude: 3,
	}
}

// Delta maps a uniform draw to a signed change centred on zero.
func (b Bounds) Delta(draw float64) float64 {
	return (draw - 0.5) * b.Amplitude
}

// Contains reports whether v already lies within [Floor, Ceiling].
func (b Bounds) Contains(v float64) bool {
	return v >= b.Floor && v <= b.Ceiling
}

// Clamp saturates v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Step applies one drift to a single confidence value.
func Step(old, draw float64, b Bounds) float64 {
	return Clamp(old+b.Delta(draw), b.Floor, b.Ceiling)
}

// Update returns a new slice with every signal's confidence drifted by one
// draw from src. Length and order are preserved and the input is left
// untouched.
func Update(signals []core.Signal, src Source, b Bounds) []core.Signal {
	out := make([]core.Signal, len(signals))
	for i, s := range signals {
		next := s.Clone()
		next.Confidence = Step(s.Confidence, src.Float64(), b)
		out[i] = next
	}
	return out
}

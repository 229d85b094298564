// Package repulsion turns proximity records into per-joint force/moment vectors and publishes them.
package repulsion

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"
)

// WrenchSize is the number of components of a Wrench.
const WrenchSize = 6

// Wrench is a force (x, y, z) followed by a moment (x, y, z) acting on one joint.
type Wrench [WrenchSize]float64

// NewWrench builds a wrench from a force and a moment.
func NewWrench(force, moment r3.Vector) Wrench {
	return Wrench{force.X, force.Y, force.Z, moment.X, moment.Y, moment.Z}
}

// Force returns the force part.
func (w Wrench) Force() r3.Vector {
	return r3.Vector{X: w[0], Y: w[1], Z: w[2]}
}

// Moment returns the moment part.
func (w Wrench) Moment() r3.Vector {
	return r3.Vector{X: w[3], Y: w[4], Z: w[5]}
}

// IsZero returns whether every component is zero.
func (w Wrench) IsZero() bool {
	return w == Wrench{}
}

func (w *Wrench) add(other Wrench) {
	floats.Add(w[:], other[:])
}

func (w *Wrench) addForce(f r3.Vector) {
	floats.Add(w[:3], []float64{f.X, f.Y, f.Z})
}

func (w *Wrench) addMoment(m r3.Vector) {
	floats.Add(w[3:], []float64{m.X, m.Y, m.Z})
}

// zeroNonFinite replaces NaN and infinite components with zero.
func (w *Wrench) zeroNonFinite() {
	for i, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			w[i] = 0
		}
	}
}

// clip limits every component to [-limit, limit].
func (w *Wrench) clip(limit float64) {
	for i, v := range w {
		w[i] = math.Max(-limit, math.Min(limit, v))
	}
}

package repulsion

import (
	"math"

	"github.com/golang/geo/r3"
)

// springMagnitude is the saturating spring law: zero outside the safety shell, largest at minDist
// and tapering towards contact.
func springMagnitude(dist, minDist, maxDist float64) float64 {
	span := maxDist - minDist
	return math.Max(0, math.Min(span, span-math.Abs(dist-minDist)))
}

func linkLength(positions []r3.Vector, point int) float64 {
	if point < 1 || point >= len(positions) {
		return 0
	}
	return positions[point].Sub(positions[point-1]).Norm()
}

// transferTrailing moves the load of every point past lastActuated onto its predecessor, walking
// tip to root. Only the force moves, since trailing links are treated as coincident with their
// actuated ancestor; a zero-length link moves the whole wrench. acc is indexed by chain point.
func transferTrailing(acc []Wrench, positions []r3.Vector, lastActuated int) {
	for p := len(acc) - 1; p > lastActuated && p > 0; p-- {
		if linkLength(positions, p) == 0 {
			acc[p-1].add(acc[p])
		} else {
			acc[p-1].addForce(acc[p].Force())
		}
	}
}

// actuatedRows drops the root and returns one row per actuated joint, padding with zeros when the
// chain is shorter than the actuated joint count.
func actuatedRows(acc []Wrench, actuated int) []Wrench {
	out := make([]Wrench, actuated)
	if len(acc) > 1 {
		copy(out, acc[1:])
	}
	return out
}

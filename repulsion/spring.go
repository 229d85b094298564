package repulsion

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"

	"github.com/viam-labs/evasion/collision"
)

// SpringPolicy sums spring-law repulsion vectors per joint. Moments are never produced except by
// a zero-length trailing link handing its whole wrench on.
type SpringPolicy struct {
	MinDist        float64
	MaxDist        float64
	Damping        float64
	ActuatedJoints int
}

// NewSpringPolicy returns a spring policy with the default shell, damping and joint count.
func NewSpringPolicy() *SpringPolicy {
	return &SpringPolicy{
		MinDist:        DefaultMinDist,
		MaxDist:        DefaultMaxDist,
		Damping:        DefaultDamping,
		ActuatedJoints: DefaultActuatedJoints,
	}
}

// Forces implements Policy.
func (sp *SpringPolicy) Forces(records []collision.Record, positions []r3.Vector) ([]Wrench, error) {
	acc := make([]Wrench, len(positions))
	for _, rec := range validRecords(records, len(positions)) {
		mag := springMagnitude(rec.Distance, sp.MinDist, sp.MaxDist)
		acc[rec.RobotSegment].addForce(rec.Direction.Mul(mag))
	}
	transferTrailing(acc, positions, sp.ActuatedJoints)

	out := actuatedRows(acc, sp.ActuatedJoints)
	for i := range out {
		floats.Scale(1/sp.Damping, out[i][:])
		out[i].zeroNonFinite()
	}
	return out, nil
}

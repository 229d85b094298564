package repulsion

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/viam-labs/evasion/collision"
)

// ScaledPolicy expresses repulsion in Newtons and Newton-meters. The strongest rated torque over
// the lever arm is the largest force any record can produce; moments come from applying that force
// at the contact point along the link.
type ScaledPolicy struct {
	MinDist         float64
	MaxDist         float64
	ActuatedJoints  int
	TorqueLimits    []float64
	LeverArm        float64
	Gain            float64
	AxisMultipliers [WrenchSize]float64
}

// NewScaledPolicy returns a scaled policy with Franka torque limits.
func NewScaledPolicy() *ScaledPolicy {
	return &ScaledPolicy{
		MinDist:         DefaultMinDist,
		MaxDist:         DefaultMaxDist,
		ActuatedJoints:  DefaultActuatedJoints,
		TorqueLimits:    DefaultTorqueLimits(),
		LeverArm:        DefaultLeverArm,
		Gain:            DefaultScaledGain,
		AxisMultipliers: DefaultAxisMultipliers(),
	}
}

// MaxForce returns the force produced by a record at the peak of the spring law.
func (sp *ScaledPolicy) MaxForce() (float64, error) {
	if len(sp.TorqueLimits) == 0 {
		return 0, errors.New("scaled policy needs at least one torque limit")
	}
	if sp.LeverArm <= 0 {
		return 0, errors.Errorf("scaled policy lever arm must be positive, got %v", sp.LeverArm)
	}
	maxTorque := floats.Max(sp.TorqueLimits)
	if maxTorque <= 0 {
		return 0, errors.Errorf("scaled policy needs a positive torque limit, got %v", sp.TorqueLimits)
	}
	return maxTorque / sp.LeverArm, nil
}

// Forces implements Policy.
func (sp *ScaledPolicy) Forces(records []collision.Record, positions []r3.Vector) ([]Wrench, error) {
	maxForce, err := sp.MaxForce()
	if err != nil {
		return nil, err
	}
	span := sp.MaxDist - sp.MinDist

	acc := make([]Wrench, len(positions))
	for _, rec := range validRecords(records, len(positions)) {
		seg := rec.RobotSegment
		force := rec.Direction.Mul(springMagnitude(rec.Distance, sp.MinDist, sp.MaxDist) / span * maxForce)
		acc[seg].addForce(force)
		if rec.T > 0 && seg+1 < len(positions) {
			lever := positions[seg+1].Sub(positions[seg]).Mul(rec.T)
			acc[seg].addMoment(lever.Cross(force))
		}
	}
	transferTrailing(acc, positions, sp.ActuatedJoints)

	// The root is not actuated; joint 1 takes its moment, or all of it when they coincide.
	if len(acc) > 1 {
		if linkLength(positions, 1) == 0 {
			acc[1].add(acc[0])
		} else {
			acc[1].addMoment(acc[0].Moment())
		}
	}

	maxTorque := floats.Max(sp.TorqueLimits)
	out := actuatedRows(acc, sp.ActuatedJoints)
	for i := range out {
		out[i].zeroNonFinite()
		out[i].clip(maxForce)
		limit := maxTorque
		if i < len(sp.TorqueLimits) {
			limit = sp.TorqueLimits[i]
		}
		floats.Scale(limit/maxTorque*sp.Gain, out[i][:])
		floats.Mul(out[i][:], sp.AxisMultipliers[:])
	}
	return out, nil
}

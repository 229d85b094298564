package repulsion

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/viam-labs/evasion/collision"
)

// Policy turns a cycle's distance records into one wrench per actuated joint. positions are the
// robot chain points the records were measured against, root first; segment s of the chain acts
// on joint s and output row r is joint r+1.
type Policy interface {
	Forces(records []collision.Record, positions []r3.Vector) ([]Wrench, error)
}

// PolicyName names a force policy in configuration.
type PolicyName string

// The available force policies.
const (
	SpringPolicyName PolicyName = "spring"
	ScaledPolicyName PolicyName = "scaled"
)

// ParsePolicyName parses a policy name; the empty string is SpringPolicyName.
func ParsePolicyName(s string) (PolicyName, error) {
	switch PolicyName(s) {
	case "", SpringPolicyName:
		return SpringPolicyName, nil
	case ScaledPolicyName:
		return ScaledPolicyName, nil
	default:
		return "", errors.Errorf("unknown force policy %q", s)
	}
}

// Defaults used by the policies.
const (
	DefaultMaxDist        = 0.5
	DefaultMinDist        = 0.05
	DefaultDamping        = 4.0
	DefaultActuatedJoints = 7
	DefaultLeverArm       = 1.0
	DefaultScaledGain     = 0.7
)

// DefaultTorqueLimits are the rated joint torques of a Franka arm, in Nm.
func DefaultTorqueLimits() []float64 {
	return []float64{87, 87, 87, 87, 12, 12, 12}
}

// DefaultAxisMultipliers weight forces over moments in the scaled policy.
func DefaultAxisMultipliers() [WrenchSize]float64 {
	return [WrenchSize]float64{2, 2, 2, 1, 1, 1}
}

func validRecords(records []collision.Record, points int) []collision.Record {
	return lo.Filter(records, func(r collision.Record, _ int) bool {
		return r.RobotSegment >= 0 && r.RobotSegment < points
	})
}

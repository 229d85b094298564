// Package bodytrack keeps per-subject limb polylines built from 3D keypoint batches and picks the
// subject the robot should react to.
package bodytrack

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"
	"github.com/samber/lo"
)

// LimbID names one of the polylines tracked per subject.
type LimbID int

// The limb ids carried in keypoint rows.
const (
	LeftArm LimbID = iota
	RightArm
	Trunk
	numLimbs
)

func (l LimbID) String() string {
	switch l {
	case LeftArm:
		return "left_arm"
	case RightArm:
		return "right_arm"
	case Trunk:
		return "trunk"
	default:
		return fmt.Sprintf("limb(%d)", int(l))
	}
}

func (l LimbID) valid() bool {
	return l >= LeftArm && l < numLimbs
}

// Chain names the polylines handed to the distance engine.
const (
	ArmsChain  = "arms"
	TrunkChain = "trunk"
)

// Chain is a named polyline of one subject.
type Chain struct {
	Name   string
	Points []r3.Vector
}

// Track is the state of one subject. A Track returned by the Tracker is a copy and may be read
// freely.
type Track struct {
	ID      int
	Limbs   [numLimbs][]r3.Vector
	Updated time.Time
}

// Limb returns the polyline of one limb.
func (t Track) Limb(limb LimbID) []r3.Vector {
	if !limb.valid() {
		return nil
	}
	return t.Limbs[limb]
}

// Chains returns the subject's arms, as one line running from the left hand through the shoulders
// to the right hand, and its trunk.
func (t Track) Chains() []Chain {
	arms := make([]r3.Vector, 0, len(t.Limbs[LeftArm])+len(t.Limbs[RightArm]))
	arms = append(arms, lo.Reverse(append([]r3.Vector(nil), t.Limbs[LeftArm]...))...)
	arms = append(arms, t.Limbs[RightArm]...)
	return []Chain{
		{Name: ArmsChain, Points: arms},
		{Name: TrunkChain, Points: append([]r3.Vector(nil), t.Limbs[Trunk]...)},
	}
}

func (t *Track) clone() Track {
	out := *t
	for i := range t.Limbs {
		out.Limbs[i] = append([]r3.Vector(nil), t.Limbs[i]...)
	}
	return out
}

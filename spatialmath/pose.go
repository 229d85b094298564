package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a position plus an orientation expressed as a unit quaternion.
type Pose struct {
	Point       r3.Vector
	Orientation quat.Number
}

// NewZeroPose returns the identity pose at the origin.
func NewZeroPose() Pose {
	return Pose{Orientation: quat.Number{Real: 1}}
}

// NewPose returns a pose from a point and a (possibly unnormalized) orientation.
func NewPose(pt r3.Vector, orientation quat.Number) Pose {
	return Pose{Point: pt, Orientation: Normalize(orientation)}
}

// NewPoseFromPoint returns a pose at pt with no rotation.
func NewPoseFromPoint(pt r3.Vector) Pose {
	return Pose{Point: pt, Orientation: quat.Number{Real: 1}}
}

// Compose applies rel in the frame of parent: the rotations are multiplied and the relative
// translation is rotated by the parent before being added.
func Compose(parent, rel Pose) Pose {
	return Pose{
		Point:       parent.Point.Add(RotateVector(parent.Orientation, rel.Point)),
		Orientation: Normalize(quat.Mul(parent.Orientation, rel.Orientation)),
	}
}

// ZAxis returns the canonical +Z axis rotated into the pose's frame.
func (p Pose) ZAxis() r3.Vector {
	return RotateVector(p.Orientation, r3.Vector{Z: 1})
}

// PoseAlmostCoincident returns whether two poses match within the given point and rotation tolerances.
func PoseAlmostCoincident(a, b Pose, pointTol, rotTol float64) bool {
	return a.Point.Sub(b.Point).Norm() <= pointTol && QuaternionAlmostEqual(a.Orientation, b.Orientation, rotTol)
}

package kinematics

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/viam-labs/evasion/spatialmath"
)

// TransformSample is one relative joint transform: the pose of ChildID in its parent's frame.
type TransformSample struct {
	ChildID     string
	Translation r3.Vector
	Rotation    quat.Number
}

// Pose returns the relative pose carried by the sample.
func (ts TransformSample) Pose() spatialmath.Pose {
	return spatialmath.NewPose(ts.Translation, ts.Rotation)
}

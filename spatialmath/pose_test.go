package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestRotateVector(t *testing.T) {
	// 90 degrees about Z maps +X onto +Y.
	q := QuatFromXYZW(0, 0, math.Sin(math.Pi/4), math.Cos(math.Pi/4))
	v := RotateVector(q, r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, v.X, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, v.Z, test.ShouldAlmostEqual, 0, 1e-12)
}

func TestNormalize(t *testing.T) {
	test.That(t, Normalize(quat.Number{}), test.ShouldResemble, quat.Number{Real: 1})
	test.That(t, Normalize(quat.Number{Real: math.NaN()}), test.ShouldResemble, quat.Number{Real: 1})
	n := Normalize(quat.Number{Real: 2})
	test.That(t, n.Real, test.ShouldAlmostEqual, 1)
}

func TestQuatFromRPY(t *testing.T) {
	q := QuatFromRPY(0, 0, math.Pi/2)
	test.That(t, QuaternionAlmostEqual(q, QuatFromXYZW(0, 0, math.Sin(math.Pi/4), math.Cos(math.Pi/4)), 1e-9),
		test.ShouldBeTrue)

	// Fixed-axis ordering: roll about X first, then yaw about Z.
	q = QuatFromRPY(math.Pi/2, 0, math.Pi/2)
	v := RotateVector(q, r3.Vector{X: 0, Y: 1, Z: 0})
	test.That(t, v.X, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, v.Y, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, v.Z, test.ShouldAlmostEqual, 1, 1e-12)
}

func TestCompose(t *testing.T) {
	yaw90 := QuatFromRPY(0, 0, math.Pi/2)
	parent := NewPose(r3.Vector{X: 1, Y: 0, Z: 0}, yaw90)
	rel := NewPoseFromPoint(r3.Vector{X: 1, Y: 0, Z: 0})

	composed := Compose(parent, rel)
	test.That(t, composed.Point.X, test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, composed.Point.Y, test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, QuaternionAlmostEqual(composed.Orientation, yaw90, 1e-12), test.ShouldBeTrue)

	test.That(t, PoseAlmostCoincident(Compose(NewZeroPose(), parent), parent, 1e-12, 1e-12), test.ShouldBeTrue)

	axis := NewPose(r3.Vector{}, QuatFromRPY(math.Pi/2, 0, 0)).ZAxis()
	test.That(t, axis.Y, test.ShouldAlmostEqual, -1, 1e-12)
}

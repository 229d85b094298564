package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// QuatFromXYZW returns the normalized quaternion for ROS (x, y, z, w) component ordering.
func QuatFromXYZW(x, y, z, w float64) quat.Number {
	return Normalize(quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z})
}

// QuatFromRPY converts URDF fixed-axis roll/pitch/yaw (radians) to a quaternion.
func QuatFromRPY(roll, pitch, yaw float64) quat.Number {
	qx := quat.Number{Real: math.Cos(roll / 2), Imag: math.Sin(roll / 2)}
	qy := quat.Number{Real: math.Cos(pitch / 2), Jmag: math.Sin(pitch / 2)}
	qz := quat.Number{Real: math.Cos(yaw / 2), Kmag: math.Sin(yaw / 2)}
	return quat.Mul(quat.Mul(qz, qy), qx)
}

// Normalize scales a quaternion to unit length. A zero or non-finite quaternion becomes identity.
func Normalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/norm, q)
}

// RotateVector rotates v by the unit quaternion q.
func RotateVector(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rotated := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}

// QuaternionAlmostEqual reports whether two unit quaternions describe the same rotation within tol.
// q and -q are the same rotation.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	same := quat.Abs(quat.Sub(a, b)) < tol
	flipped := quat.Abs(quat.Add(a, b)) < tol
	return same || flipped
}

// Package spatialmath defines the spatial mathematical operations used by the
// state estimators: quaternion algebra over gonum's quat.Number, vector
// rotation, and spherical linear interpolation.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

const (
	// below this length a quaternion is considered degenerate and
	// normalizes to the identity rather than dividing by ~0.
	degenerateNormEpsilon = 1e-10

	// above this dot product two unit quaternions are close enough that
	// slerp falls back to a normalized lerp.
	slerpLerpThreshold = 0.9995
)

// QuaternionIdentity returns the identity rotation.
func QuaternionIdentity() quat.Number {
	return quat.Number{Real: 1}
}

// Normalize scales q to unit norm. Degenerate (near-zero) quaternions
// normalize to the identity.
func Normalize(q quat.Number) quat.Number {
	length := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if length < degenerateNormEpsilon {
		return QuaternionIdentity()
	}
	return quat.Scale(1/length, q)
}

// Invert returns the inverse rotation. q must be unit norm, for which the
// inverse is the conjugate.
func Invert(q quat.Number) quat.Number {
	return quat.Conj(q)
}

// Dot is the 4-component dot product of two quaternions.
func Dot(q1, q2 quat.Number) float64 {
	return q1.Real*q2.Real + q1.Imag*q2.Imag + q1.Jmag*q2.Jmag + q1.Kmag*q2.Kmag
}

// RotateVec rotates v by the unit quaternion q using
// v' = v + 2*(w*(q_xyz x v) + q_xyz x (q_xyz x v)), which is equivalent to
// conjugation q*(0,v)*q^-1 without promoting v to a quaternion.
func RotateVec(q quat.Number, v r3.Vector) r3.Vector {
	u := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	uv := u.Cross(v)
	uuv := u.Cross(uv)
	return v.Add(uv.Mul(2 * q.Real)).Add(uuv.Mul(2))
}

// Slerp interpolates between two unit quaternions along the shorter
// great-circle arc, with constant angular velocity in t. Nearly parallel
// inputs interpolate linearly to avoid dividing by a vanishing sine.
func Slerp(q1, q2 quat.Number, t float64) quat.Number {
	d := Dot(q1, q2)
	if d < 0 {
		q2 = quat.Scale(-1, q2)
		d = -d
	}
	if d > slerpLerpThreshold {
		diff := quat.Add(q2, quat.Scale(-1, q1))
		return Normalize(quat.Add(q1, quat.Scale(t, diff)))
	}
	theta0 := math.Acos(d)
	theta := theta0 * t
	sinTheta0 := math.Sin(theta0)
	sinTheta := math.Sin(theta)
	s1 := math.Cos(theta) - d*sinTheta/sinTheta0
	s2 := sinTheta / sinTheta0
	return Normalize(quat.Add(quat.Scale(s1, q1), quat.Scale(s2, q2)))
}

// Yaw extracts the rotation about Z from a unit quaternion.
func Yaw(q quat.Number) float64 {
	return math.Atan2(
		2*(q.Real*q.Kmag+q.Imag*q.Jmag),
		1-2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag),
	)
}

// QuatFromYaw builds the unit quaternion for a pure rotation about Z.
func QuatFromYaw(yaw float64) quat.Number {
	half := yaw / 2
	return quat.Number{Real: math.Cos(half), Kmag: math.Sin(half)}
}

// QuatAlmostEqual compares two quaternions componentwise within tol,
// treating q and -q as the same rotation.
func QuatAlmostEqual(q1, q2 quat.Number, tol float64) bool {
	if Dot(q1, q2) < 0 {
		q2 = quat.Scale(-1, q2)
	}
	return math.Abs(q1.Real-q2.Real) <= tol &&
		math.Abs(q1.Imag-q2.Imag) <= tol &&
		math.Abs(q1.Jmag-q2.Jmag) <= tol &&
		math.Abs(q1.Kmag-q2.Kmag) <= tol
}

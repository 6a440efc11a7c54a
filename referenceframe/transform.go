// Package referenceframe maintains time-buffered rigid-body transforms
// between named coordinate frames and answers interpolated lookups between
// any two frames connected in the frame tree.
package referenceframe

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/openrover/core/spatialmath"
)

// StampedTransform is a rigid-body transform from the child frame to the
// parent frame at a point in time. Applying it to a point expressed in
// child coordinates yields the point in parent coordinates.
type StampedTransform struct {
	Parent      string
	Child       string
	Time        float64 // seconds
	Translation r3.Vector
	Rotation    quat.Number
}

// IdentityTransform returns the identity transform anchored at the given
// frame on both sides.
func IdentityTransform(frame string, t float64) StampedTransform {
	return StampedTransform{
		Parent:   frame,
		Child:    frame,
		Time:     t,
		Rotation: spatialmath.QuaternionIdentity(),
	}
}

// Invert returns the transform going the opposite direction, from parent
// to child.
func (tf StampedTransform) Invert() StampedTransform {
	invRot := spatialmath.Invert(tf.Rotation)
	return StampedTransform{
		Parent:      tf.Child,
		Child:       tf.Parent,
		Time:        tf.Time,
		Translation: spatialmath.RotateVec(invRot, tf.Translation.Mul(-1)),
		Rotation:    invRot,
	}
}

// TransformPoint maps a point from child coordinates into parent
// coordinates.
func (tf StampedTransform) TransformPoint(p r3.Vector) r3.Vector {
	return spatialmath.RotateVec(tf.Rotation, p).Add(tf.Translation)
}

// Compose chains another transform onto this one: the receiver maps child
// into parent, and next maps that parent into its own parent frame.
func (tf StampedTransform) Compose(next StampedTransform) StampedTransform {
	return StampedTransform{
		Parent:      next.Parent,
		Child:       tf.Child,
		Time:        tf.Time,
		Translation: spatialmath.RotateVec(next.Rotation, tf.Translation).Add(next.Translation),
		Rotation:    quat.Mul(next.Rotation, tf.Rotation),
	}
}

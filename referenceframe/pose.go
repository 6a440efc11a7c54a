package referenceframe

import "github.com/openrover/core/spatialmath"

// Pose2D is a planar pose: position in the reference frame plus heading.
type Pose2D struct {
	X   float64
	Y   float64
	Yaw float64 // radians
}

// PoseFromTransform projects a transform onto the plane, discarding Z and
// keeping only the rotation about Z.
func PoseFromTransform(tf StampedTransform) Pose2D {
	return Pose2D{
		X:   tf.Translation.X,
		Y:   tf.Translation.Y,
		Yaw: spatialmath.Yaw(tf.Rotation),
	}
}

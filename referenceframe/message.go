package referenceframe

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// TimeMessage is a decoded header stamp. The fields are float64 so that
// integer and floating encodings both decode cleanly.
type TimeMessage struct {
	Sec     float64 `json:"sec"`
	NanoSec float64 `json:"nanosec"`
}

// Seconds collapses the stamp into fractional seconds.
func (t TimeMessage) Seconds() float64 {
	return t.Sec + t.NanoSec*1e-9
}

// HeaderMessage is a decoded message header.
type HeaderMessage struct {
	Stamp   TimeMessage `json:"stamp"`
	FrameID string      `json:"frame_id"`
}

// Vector3Message is a decoded translation.
type Vector3Message struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// QuaternionMessage is a decoded rotation.
type QuaternionMessage struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// TransformBody is the geometric payload of a stamped transform message.
type TransformBody struct {
	Translation Vector3Message    `json:"translation"`
	Rotation    QuaternionMessage `json:"rotation"`
}

// TransformStampedMessage is one decoded entry of a stamped-transforms
// list as delivered by the message broker.
type TransformStampedMessage struct {
	Header       HeaderMessage `json:"header"`
	ChildFrameID string        `json:"child_frame_id"`
	Transform    TransformBody `json:"transform"`
}

// stampedTransform validates the message and converts it to the internal
// representation.
func (m TransformStampedMessage) stampedTransform() (StampedTransform, error) {
	if m.Header.FrameID == "" || m.ChildFrameID == "" {
		return StampedTransform{}, errors.New("transform message missing frame ids")
	}
	return StampedTransform{
		Parent: m.Header.FrameID,
		Child:  m.ChildFrameID,
		Time:   m.Header.Stamp.Seconds(),
		Translation: r3.Vector{
			X: m.Transform.Translation.X,
			Y: m.Transform.Translation.Y,
			Z: m.Transform.Translation.Z,
		},
		Rotation: quat.Number{
			Real: m.Transform.Rotation.W,
			Imag: m.Transform.Rotation.X,
			Jmag: m.Transform.Rotation.Y,
			Kmag: m.Transform.Rotation.Z,
		},
	}, nil
}

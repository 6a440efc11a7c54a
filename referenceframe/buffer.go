package referenceframe

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/openrover/core/spatialmath"
)

const (
	// timestamps closer than this are the same sample.
	exactMatchToleranceSec = 1e-6

	// lookups this far past either end of the buffer snap to the nearest
	// entry instead of failing with an extrapolation error.
	jitterToleranceSec = 0.05
)

// TransformBuffer holds the time-ordered transform history for one fixed
// (parent, child) frame pair. A maxAge of zero disables eviction, which is
// the convention for static transforms.
type TransformBuffer struct {
	parent  string
	child   string
	maxAge  float64 // seconds
	entries []StampedTransform
}

// NewTransformBuffer creates an empty buffer for the given frame pair.
func NewTransformBuffer(parent, child string, maxAge float64) *TransformBuffer {
	return &TransformBuffer{parent: parent, child: child, maxAge: maxAge}
}

// Pair returns the (parent, child) frame pair this buffer serves.
func (b *TransformBuffer) Pair() (string, string) {
	return b.parent, b.child
}

// Len returns the number of buffered entries.
func (b *TransformBuffer) Len() int {
	return len(b.entries)
}

// Insert adds a transform, keeping entries sorted ascending by timestamp.
// Inserts at or after the newest entry append without searching. When
// maxAge is set, entries older than newest minus maxAge are evicted.
func (b *TransformBuffer) Insert(tf StampedTransform) error {
	if tf.Parent != b.parent || tf.Child != b.child {
		return errors.Errorf(
			"transform %q -> %q does not belong in buffer for %q -> %q",
			tf.Parent, tf.Child, b.parent, b.child,
		)
	}
	if n := len(b.entries); n == 0 || tf.Time >= b.entries[n-1].Time {
		b.entries = append(b.entries, tf)
	} else {
		i := sort.Search(len(b.entries), func(i int) bool {
			return b.entries[i].Time >= tf.Time
		})
		b.entries = append(b.entries, StampedTransform{})
		copy(b.entries[i+1:], b.entries[i:])
		b.entries[i] = tf
	}
	if b.maxAge > 0 {
		cutoff := b.entries[len(b.entries)-1].Time - b.maxAge
		first := 0
		for first < len(b.entries) && b.entries[first].Time < cutoff {
			first++
		}
		if first > 0 {
			b.entries = append(b.entries[:0], b.entries[first:]...)
		}
	}
	return nil
}

// Latest returns the newest entry.
func (b *TransformBuffer) Latest() (StampedTransform, error) {
	if len(b.entries) == 0 {
		return StampedTransform{}, NewNoTransformDataError(b.parent, b.child)
	}
	return b.entries[len(b.entries)-1], nil
}

// Lookup returns the transform at time t, interpolating between the
// bracketing samples when t falls between two entries. A t of zero means
// "latest". Times just outside the buffered range, within the jitter
// tolerance, snap to the nearest end.
func (b *TransformBuffer) Lookup(t float64) (StampedTransform, error) {
	if len(b.entries) == 0 {
		return StampedTransform{}, NewNoTransformDataError(b.parent, b.child)
	}
	if t == 0 {
		return b.entries[len(b.entries)-1], nil
	}

	i := sort.Search(len(b.entries), func(i int) bool {
		return b.entries[i].Time >= t
	})
	if i < len(b.entries) && b.entries[i].Time-t <= exactMatchToleranceSec {
		return b.entries[i], nil
	}
	first := b.entries[0].Time
	last := b.entries[len(b.entries)-1].Time
	if i == 0 {
		if t >= first-jitterToleranceSec {
			return b.entries[0], nil
		}
		return StampedTransform{}, NewExtrapolationError(b.parent, b.child, t, first, last)
	}
	if i == len(b.entries) {
		if t <= last+jitterToleranceSec {
			return b.entries[len(b.entries)-1], nil
		}
		return StampedTransform{}, NewExtrapolationError(b.parent, b.child, t, first, last)
	}

	before := b.entries[i-1]
	after := b.entries[i]
	alpha := (t - before.Time) / (after.Time - before.Time)
	return StampedTransform{
		Parent: b.parent,
		Child:  b.child,
		Time:   t,
		Translation: before.Translation.Add(
			after.Translation.Sub(before.Translation).Mul(alpha),
		),
		Rotation: spatialmath.Slerp(before.Rotation, after.Rotation, alpha),
	}, nil
}

package referenceframe

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/openrover/core/spatialmath"
)

func stamped(t float64, x float64) StampedTransform {
	return StampedTransform{
		Parent:      "odom",
		Child:       "base_link",
		Time:        t,
		Translation: r3.Vector{X: x},
		Rotation:    spatialmath.QuaternionIdentity(),
	}
}

func TestInsertKeepsOrder(t *testing.T) {
	b := NewTransformBuffer("odom", "base_link", 0)
	for _, ts := range []float64{5, 1, 3, 2, 4, 2.5} {
		test.That(t, b.Insert(stamped(ts, ts)), test.ShouldBeNil)
	}
	test.That(t, b.Len(), test.ShouldEqual, 6)
	prev := math.Inf(-1)
	for _, ts := range []float64{1, 2, 2.5, 3, 4, 5} {
		got, err := b.Lookup(ts)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.Time, test.ShouldAlmostEqual, ts)
		test.That(t, got.Time, test.ShouldBeGreaterThan, prev)
		prev = got.Time
	}
}

func TestInsertRejectsWrongPair(t *testing.T) {
	b := NewTransformBuffer("odom", "base_link", 0)
	err := b.Insert(StampedTransform{Parent: "map", Child: "odom", Time: 1})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLookupEmpty(t *testing.T) {
	b := NewTransformBuffer("odom", "base_link", 0)
	_, err := b.Lookup(1)
	var noData *NoTransformDataError
	test.That(t, errors.As(err, &noData), test.ShouldBeTrue)
}

func TestLookupZeroMeansLatest(t *testing.T) {
	b := NewTransformBuffer("odom", "base_link", 0)
	test.That(t, b.Insert(stamped(1, 10)), test.ShouldBeNil)
	test.That(t, b.Insert(stamped(2, 20)), test.ShouldBeNil)
	got, err := b.Lookup(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Translation.X, test.ShouldAlmostEqual, 20)
}

func TestLookupExact(t *testing.T) {
	b := NewTransformBuffer("odom", "base_link", 0)
	test.That(t, b.Insert(stamped(1.5, 7)), test.ShouldBeNil)
	test.That(t, b.Insert(stamped(2.5, 9)), test.ShouldBeNil)
	got, err := b.Lookup(1.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Translation.X, test.ShouldAlmostEqual, 7)
}

func TestLookupInterpolates(t *testing.T) {
	b := NewTransformBuffer("odom", "base_link", 0)
	first := stamped(1, 0)
	second := stamped(2, 10)
	second.Rotation = spatialmath.QuatFromYaw(math.Pi / 2)
	test.That(t, b.Insert(first), test.ShouldBeNil)
	test.That(t, b.Insert(second), test.ShouldBeNil)

	got, err := b.Lookup(1.25)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Time, test.ShouldAlmostEqual, 1.25)
	test.That(t, got.Translation.X, test.ShouldAlmostEqual, 2.5)
	want := spatialmath.Slerp(first.Rotation, second.Rotation, 0.25)
	test.That(t, spatialmath.QuatAlmostEqual(got.Rotation, want, 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.Yaw(got.Rotation), test.ShouldAlmostEqual, math.Pi/8, 1e-9)
}

func TestLookupJitterTolerance(t *testing.T) {
	b := NewTransformBuffer("odom", "base_link", 0)
	test.That(t, b.Insert(stamped(1, 1)), test.ShouldBeNil)
	test.That(t, b.Insert(stamped(2, 2)), test.ShouldBeNil)

	got, err := b.Lookup(1 - 0.04)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Translation.X, test.ShouldAlmostEqual, 1)

	_, err = b.Lookup(1 - 0.06)
	var extrap *ExtrapolationError
	test.That(t, errors.As(err, &extrap), test.ShouldBeTrue)
	test.That(t, extrap.First, test.ShouldAlmostEqual, 1)
	test.That(t, extrap.Last, test.ShouldAlmostEqual, 2)

	got, err = b.Lookup(2 + 0.04)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Translation.X, test.ShouldAlmostEqual, 2)

	_, err = b.Lookup(2 + 0.06)
	test.That(t, errors.As(err, &extrap), test.ShouldBeTrue)
}

func TestEviction(t *testing.T) {
	b := NewTransformBuffer("odom", "base_link", 2.0)
	for ts := 0.0; ts <= 10; ts++ {
		test.That(t, b.Insert(stamped(ts, ts)), test.ShouldBeNil)
	}
	// everything older than 10 - 2 should be gone
	test.That(t, b.Len(), test.ShouldEqual, 3)
	_, err := b.Lookup(7)
	var extrap *ExtrapolationError
	test.That(t, errors.As(err, &extrap), test.ShouldBeTrue)
	got, err := b.Lookup(8)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Translation.X, test.ShouldAlmostEqual, 8)
}

func TestStaticBufferNeverEvicts(t *testing.T) {
	b := NewTransformBuffer("base_link", "laser", 0)
	for ts := 0.0; ts <= 100; ts += 10 {
		test.That(t, b.Insert(stamped2("base_link", "laser", ts)), test.ShouldBeNil)
	}
	test.That(t, b.Len(), test.ShouldEqual, 11)
}

func stamped2(parent, child string, t float64) StampedTransform {
	return StampedTransform{
		Parent:   parent,
		Child:    child,
		Time:     t,
		Rotation: spatialmath.QuaternionIdentity(),
	}
}

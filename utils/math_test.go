package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAngleConversions(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90)
	test.That(t, ModAngDeg(-90), test.ShouldAlmostEqual, 270)
	test.That(t, ModAngDeg(725), test.ShouldAlmostEqual, 5)
}

func TestClamp(t *testing.T) {
	test.That(t, Clamp(3, 0, 5), test.ShouldEqual, 3.0)
	test.That(t, Clamp(-1, 0, 5), test.ShouldEqual, 0.0)
	test.That(t, Clamp(9, 0, 5), test.ShouldEqual, 5.0)
}

func TestIntHelpers(t *testing.T) {
	test.That(t, AbsInt(-4), test.ShouldEqual, 4)
	test.That(t, MaxInt(2, 7), test.ShouldEqual, 7)
	test.That(t, MinInt(2, 7), test.ShouldEqual, 2)
	test.That(t, SquareInt(-3), test.ShouldEqual, 9)
	test.That(t, Square(1.5), test.ShouldAlmostEqual, 2.25)
	test.That(t, Float64AlmostEqual(1.0, 1.0+1e-9, 1e-8), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1.0, 1.1, 1e-8), test.ShouldBeFalse)
}

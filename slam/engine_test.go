package slam

import (
	"math"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/openrover/core/grid"
)

// rectangleScan synthesizes one revolution of ranges inside an
// axis-aligned rectangular room centered on the robot.
func rectangleScan(size int, halfWidthMM, halfHeightMM float64) []int {
	ranges := make([]int, size)
	for i := range ranges {
		k := float64(i) * 360 / float64(size-1)
		a := (-180 + k) * math.Pi / 180
		dx := math.Abs(math.Cos(a))
		dy := math.Abs(math.Sin(a))
		r := math.Inf(1)
		if dx > 1e-12 {
			r = halfWidthMM / dx
		}
		if dy > 1e-12 {
			r = math.Min(r, halfHeightMM/dy)
		}
		ranges[i] = int(math.Round(r))
	}
	return ranges
}

func newTestEngine(t *testing.T, seed uint32) *Engine {
	t.Helper()
	conf := DefaultConfig()
	conf.Seed = seed
	e, err := NewEngine(conf, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return e
}

func TestEngineConfigValidation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	conf := DefaultConfig()
	conf.ScanRateHz = -1
	_, err := NewEngine(conf, logger)
	test.That(t, err, test.ShouldNotBeNil)

	conf = DefaultConfig()
	conf.DetectionAngleDeg = 400
	_, err = NewEngine(conf, logger)
	test.That(t, err, test.ShouldNotBeNil)

	// zero-valued config takes all defaults
	e, err := NewEngine(Config{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, e.conf.ScanSize, test.ShouldEqual, 360)
	test.That(t, e.conf.MaxSearchIter, test.ShouldEqual, 1000)
}

func TestEngineInitialPosition(t *testing.T) {
	e := newTestEngine(t, 1)
	pos := e.Position()
	test.That(t, pos.XMM, test.ShouldAlmostEqual, 10000)
	test.That(t, pos.YMM, test.ShouldAlmostEqual, 10000)
	test.That(t, pos.ThetaDeg, test.ShouldAlmostEqual, 0)
}

func TestEngineStationaryConvergence(t *testing.T) {
	e := newTestEngine(t, 42)
	scan := rectangleScan(360, 2000, 1500)
	for i := 0; i < 5; i++ {
		e.Update(scan, nil)
	}

	pos := e.Position()
	test.That(t, pos.XMM, test.ShouldAlmostEqual, 10000, 150)
	test.That(t, pos.YMM, test.ShouldAlmostEqual, 10000, 150)
	test.That(t, math.Abs(pos.ThetaDeg), test.ShouldBeLessThan, 5.0)
	test.That(t, e.UpdateCount(), test.ShouldEqual, int64(5))

	m := e.Map()
	var sawOccupied, sawFree bool
	for _, b := range m {
		if b < 100 {
			sawOccupied = true
		}
		if b > 200 {
			sawFree = true
		}
	}
	test.That(t, sawOccupied, test.ShouldBeTrue)
	test.That(t, sawFree, test.ShouldBeTrue)

	g := e.BuildOccupancyGrid()
	var occupiedCells int
	for _, v := range g.Data {
		test.That(t, v == grid.CellUnknown || v == grid.CellFree || v == grid.CellOccupied, test.ShouldBeTrue)
		if v == grid.CellOccupied {
			occupiedCells++
		}
	}
	test.That(t, occupiedCells, test.ShouldBeGreaterThan, 0)
}

func TestEngineDeterminism(t *testing.T) {
	e1 := newTestEngine(t, 99)
	e2 := newTestEngine(t, 99)
	scan := rectangleScan(360, 2000, 1500)
	odom := &OdometryDelta{DXMM: 10, DYMM: 5, DThetaDeg: 1}
	for i := 0; i < 3; i++ {
		e1.Update(scan, odom)
		e2.Update(scan, odom)
		test.That(t, e1.Position(), test.ShouldResemble, e2.Position())
	}
}

func TestEngineMatchQualityGate(t *testing.T) {
	e := newTestEngine(t, 7)
	scan := rectangleScan(360, 2000, 1500)
	e.Update(scan, nil)
	before := e.Position()

	// a dead scan produces no obstacle points, so the matcher has no
	// cost surface; the pose must follow odometry exactly
	delta := &OdometryDelta{DXMM: 50, DYMM: -30, DThetaDeg: 10}
	e.Update(make([]int, 360), delta)

	pos := e.Position()
	test.That(t, pos.XMM, test.ShouldAlmostEqual, before.XMM+50)
	test.That(t, pos.YMM, test.ShouldAlmostEqual, before.YMM-30)
	test.That(t, pos.ThetaDeg, test.ShouldAlmostEqual, before.ThetaDeg+10)
}

func TestEngineBorderClamp(t *testing.T) {
	e := newTestEngine(t, 7)
	// drive the predicted pose far off the map with a huge odometry jump
	e.Update(make([]int, 360), &OdometryDelta{DXMM: 1e6, DYMM: -1e6})
	pos := e.Position()
	test.That(t, pos.XMM, test.ShouldAlmostEqual, 20000-borderMM)
	test.That(t, pos.YMM, test.ShouldAlmostEqual, borderMM)
}

func TestEngineWallProtection(t *testing.T) {
	e := newTestEngine(t, 123)
	scan := rectangleScan(360, 2000, 1500)
	for i := 0; i < 5; i++ {
		e.Update(scan, nil)
	}

	var protected []int
	for i, c := range e.m.cells {
		if float64(c) > wallProtectThreshold {
			protected = append(protected, i)
		}
	}
	test.That(t, len(protected), test.ShouldBeGreaterThan, 0)

	// drop a handful of rays; the resulting free rays must not erode
	// established walls
	corrupted := rectangleScan(360, 2000, 1500)
	for _, i := range []int{30, 31, 90, 150, 151, 152, 210, 270} {
		corrupted[i] = 0
	}
	for i := 0; i < 20; i++ {
		e.Update(corrupted, nil)
	}
	for _, i := range protected {
		test.That(t, float64(e.m.cells[i]), test.ShouldBeGreaterThanOrEqualTo, wallProtectThreshold)
	}
}

func TestEngineReset(t *testing.T) {
	e := newTestEngine(t, 5)
	scan := rectangleScan(360, 2000, 1500)
	e.Update(scan, &OdometryDelta{DXMM: 100})
	test.That(t, e.UpdateCount(), test.ShouldEqual, int64(1))

	e.Reset()
	pos := e.Position()
	test.That(t, pos.XMM, test.ShouldAlmostEqual, 10000)
	test.That(t, pos.YMM, test.ShouldAlmostEqual, 10000)
	test.That(t, pos.ThetaDeg, test.ShouldAlmostEqual, 0)
	test.That(t, e.UpdateCount(), test.ShouldEqual, int64(0))
	for _, b := range e.Map() {
		test.That(t, b, test.ShouldEqual, byte(128))
	}
}

func TestEngineRejectsWrongScanLength(t *testing.T) {
	e := newTestEngine(t, 5)
	before := e.Position()
	e.Update(make([]int, 100), &OdometryDelta{DXMM: 500})
	test.That(t, e.Position(), test.ShouldResemble, before)
	test.That(t, e.UpdateCount(), test.ShouldEqual, int64(0))
}

func TestEngineSetInitialHeading(t *testing.T) {
	e := newTestEngine(t, 5)
	e.SetInitialHeading(90)
	test.That(t, e.Position().ThetaDeg, test.ShouldAlmostEqual, 90)
}

package slam

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"

	"github.com/openrover/core/grid"
	"github.com/openrover/core/utils"
)

// borderMM keeps the committed pose away from the map edge.
const borderMM = 20

// matchScanSpan and mapScanSpan configure the two scan conversions. Both
// are 1 in the current tuning; the map-build span is kept separate as a
// historical tunable.
const (
	matchScanSpan = 1
	mapScanSpan   = 1
)

// Engine is the SLAM core. All exported methods are safe for concurrent
// use; a single engine-wide mutex serializes them, except UpdateCount,
// which reads an atomic counter without the lock. Update runs the scan
// match and map update to completion on the calling goroutine, so the
// intended deployment is a dedicated worker fed at scan rate.
type Engine struct {
	mu     sync.Mutex
	conf   Config
	logger golog.Logger
	clk    clock.Clock

	m         *logOddsMap
	matchScan *Scan
	mapScan   *Scan
	rng       *zigguratSource
	position  Position

	updateCount atomic.Int64
}

// NewEngine creates an engine with the given configuration. Zero-valued
// config fields take defaults; out-of-range fields are rejected.
func NewEngine(conf Config, logger golog.Logger) (*Engine, error) {
	return NewEngineWithClock(conf, logger, clock.New())
}

// NewEngineWithClock is NewEngine with an injectable clock, used to derive
// the mutation RNG seed when the config does not fix one.
func NewEngineWithClock(conf Config, logger golog.Logger, clk clock.Clock) (*Engine, error) {
	conf = conf.withDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{conf: conf, logger: logger, clk: clk}
	e.initLocked()
	logger.Infow("slam engine ready",
		"scanSize", conf.ScanSize,
		"mapSizePixels", conf.MapSizePixels,
		"mapSizeMeters", conf.MapSizeMeters,
	)
	return e, nil
}

// initLocked (re)builds all engine state; the caller holds the lock or is
// the constructor.
func (e *Engine) initLocked() {
	c := e.conf
	e.m = newLogOddsMap(c.MapSizePixels, c.MapSizeMeters, c.DistanceNoDetectionMM)
	e.matchScan = newScan(matchScanSpan, c.ScanSize, c.ScanRateHz, c.DetectionAngleDeg, c.DistanceNoDetectionMM)
	e.mapScan = newScan(mapScanSpan, c.ScanSize, c.ScanRateHz, c.DetectionAngleDeg, c.DistanceNoDetectionMM)
	seed := c.Seed
	if seed == 0 {
		seed = uint32(e.clk.Now().UnixNano())
	}
	e.rng = newZigguratSource(seed)
	e.position = Position{
		XMM:      500 * c.MapSizeMeters,
		YMM:      500 * c.MapSizeMeters,
		ThetaDeg: 0,
	}
	e.updateCount.Store(0)
}

// Update ingests one scan and the odometry delta since the previous scan,
// commits a corrected pose, and folds the scan into the map. A nil odom is
// treated as zero motion. A scan of the wrong length is rejected without
// mutating any state.
func (e *Engine) Update(scanMM []int, odom *OdometryDelta) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(scanMM) != e.conf.ScanSize {
		e.logger.Warnw("rejecting scan of wrong length",
			"got", len(scanMM), "want", e.conf.ScanSize)
		return
	}
	delta := OdometryDelta{}
	if odom != nil {
		delta = *odom
	}

	dt := 1 / e.conf.ScanRateHz
	velXY := math.Hypot(delta.DXMM, delta.DYMM) / dt
	velTheta := delta.DThetaDeg / dt
	e.matchScan.Update(scanMM, e.conf.HoleWidthMM, velXY, velTheta)
	e.mapScan.Update(scanMM, e.conf.HoleWidthMM, velXY, velTheta)

	odomPos := e.position.add(delta)
	rmhcPos := rmhcSearch(
		e.rng, e.m, e.matchScan, odomPos,
		e.conf.SigmaXYMM, e.conf.SigmaThetaDeg, e.conf.MaxSearchIter,
	)

	// fall back to dead reckoning when the matcher cannot score or scores
	// worse than the odometry prediction
	pos := odomPos
	rmhcCost := e.m.distanceScanToMap(e.matchScan, rmhcPos)
	odomCost := e.m.distanceScanToMap(e.matchScan, odomPos)
	if rmhcCost >= 0 && (odomCost < 0 || rmhcCost <= odomCost) {
		pos = rmhcPos
	}

	maxMM := e.conf.MapSizeMeters*1000 - borderMM
	pos.XMM = utils.Clamp(pos.XMM, borderMM, maxMM)
	pos.YMM = utils.Clamp(pos.YMM, borderMM, maxMM)

	e.position = pos
	e.m.update(e.mapScan, pos)
	count := e.updateCount.Add(1)
	e.logger.Debugw("slam update",
		"count", count,
		"x", pos.XMM, "y", pos.YMM, "theta", pos.ThetaDeg,
		"rmhcCost", rmhcCost, "odomCost", odomCost,
	)
}

// Position returns the current corrected pose in map-frame millimeters and
// degrees.
func (e *Engine) Position() Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// Map renders the current belief as one byte per cell: occupied dark,
// free bright, unknown 128.
func (e *Engine) Map() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m.bytes()
}

// BuildOccupancyGrid exports the belief as a discrete occupancy grid in
// the world frame.
func (e *Engine) BuildOccupancyGrid() *grid.OccupancyGrid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m.occupancyGrid()
}

// UpdateCount reports how many scans have been committed.
func (e *Engine) UpdateCount() int64 {
	return e.updateCount.Load()
}

// SetInitialHeading overrides the current heading, for hosts with an
// absolute heading reference.
func (e *Engine) SetInitialHeading(thetaDeg float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position.ThetaDeg = thetaDeg
}

// Reset reinitializes the map, pose, scans, and RNG.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initLocked()
	e.logger.Info("slam engine reset")
}

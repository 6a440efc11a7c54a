package slam

import (
	"math"

	"github.com/openrover/core/grid"
	"github.com/openrover/core/utils"
)

// Log-odds update contract. A cell above the wall-protection threshold is
// confidently a wall and free rays may no longer erode it.
const (
	logOddsOccupiedDelta = 0.85
	logOddsFreeDelta     = -0.62
	logOddsClamp         = 5.0
	wallProtectThreshold = 2.0
	minDistanceWeight    = 0.05
	endZoneCells         = 2

	// projection thresholds for the exported occupancy grid
	occupiedLogOdds = 0.5
	freeLogOdds     = -0.5
)

// logOddsMap is the dense evidence grid. Cells are log-odds values in
// [-logOddsClamp, +logOddsClamp]; zero is unknown. Pixel Y grows downward.
type logOddsMap struct {
	sizePixels            int
	sizeMeters            float64
	pixelsPerMM           float64
	distanceNoDetectionMM float64
	cells                 []float32
}

func newLogOddsMap(sizePixels int, sizeMeters, distanceNoDetectionMM float64) *logOddsMap {
	return &logOddsMap{
		sizePixels:            sizePixels,
		sizeMeters:            sizeMeters,
		pixelsPerMM:           float64(sizePixels) / (sizeMeters * 1000),
		distanceNoDetectionMM: distanceNoDetectionMM,
		cells:                 make([]float32, sizePixels*sizePixels),
	}
}

func (m *logOddsMap) inBounds(x, y int) bool {
	return x >= 0 && x < m.sizePixels && y >= 0 && y < m.sizePixels
}

func (m *logOddsMap) applyFree(x, y int, w float64) {
	if !m.inBounds(x, y) {
		return
	}
	i := y*m.sizePixels + x
	if float64(m.cells[i]) > wallProtectThreshold {
		return
	}
	m.cells[i] = float32(utils.Clamp(float64(m.cells[i])+logOddsFreeDelta*w, -logOddsClamp, logOddsClamp))
}

func (m *logOddsMap) applyOccupied(x, y int, w float64) {
	if !m.inBounds(x, y) {
		return
	}
	i := y*m.sizePixels + x
	m.cells[i] = float32(utils.Clamp(float64(m.cells[i])+logOddsOccupiedDelta*w, -logOddsClamp, logOddsClamp))
}

// update ray-casts every scan point from the given pose and applies free
// and occupied evidence along each ray.
func (m *logOddsMap) update(scan *Scan, pos Position) {
	theta := utils.DegToRad(pos.ThetaDeg)
	cosT := math.Cos(theta)
	sinT := math.Sin(theta)
	rx := int(math.Round(pos.XMM * m.pixelsPerMM))
	ry := int(math.Round(pos.YMM * m.pixelsPerMM))

	for _, pt := range scan.points {
		wx := cosT*pt.xMM - sinT*pt.yMM
		wy := sinT*pt.xMM + cosT*pt.yMM
		ex := int(math.Round((pos.XMM + wx) * m.pixelsPerMM))
		ey := int(math.Round((pos.YMM + wy) * m.pixelsPerMM))

		w := 1 - utils.Square(pt.distanceMM/m.distanceNoDetectionMM)
		if w < minDistanceWeight {
			w = minDistanceWeight
		}
		m.castRay(rx, ry, ex, ey, w, pt.value == pointObstacle)
	}
}

// castRay walks the Bresenham line from the robot cell to the endpoint
// cell. Cells before the end zone accumulate free evidence; the final
// endZoneCells cells accumulate occupied evidence when the ray hit an
// obstacle, free evidence otherwise.
func (m *logOddsMap) castRay(x0, y0, x1, y1 int, w float64, obstacle bool) {
	dx := utils.AbsInt(x1 - x0)
	dy := utils.AbsInt(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	steps := utils.MaxInt(dx, dy)
	errTerm := dx - dy

	x, y := x0, y0
	for step := 0; ; step++ {
		if steps-step < endZoneCells {
			if obstacle {
				m.applyOccupied(x, y, w)
			} else {
				m.applyFree(x, y, w)
			}
		} else {
			m.applyFree(x, y, w)
		}
		if x == x1 && y == y1 {
			return
		}
		e2 := 2 * errTerm
		if e2 > -dy {
			errTerm -= dy
			x += sx
		}
		if e2 < dx {
			errTerm += dx
			y += sy
		}
	}
}

// distanceScanToMap scores a candidate pose against the map. Obstacle
// points over confidently occupied cells contribute low cost, so lower is
// better. Returns -1 when no obstacle point lands on the map.
func (m *logOddsMap) distanceScanToMap(scan *Scan, pos Position) int64 {
	theta := utils.DegToRad(pos.ThetaDeg)
	cosT := math.Cos(theta)
	sinT := math.Sin(theta)

	var sum int64
	var n int64
	for _, pt := range scan.points {
		if pt.value != pointObstacle {
			continue
		}
		wx := cosT*pt.xMM - sinT*pt.yMM
		wy := sinT*pt.xMM + cosT*pt.yMM
		x := int(math.Round((pos.XMM + wx) * m.pixelsPerMM))
		y := int(math.Round((pos.YMM + wy) * m.pixelsPerMM))
		if !m.inBounds(x, y) {
			continue
		}
		c := 32768 - float64(m.cells[y*m.sizePixels+x])*6000
		sum += int64(utils.Clamp(c, 0, 65535))
		n++
	}
	if n == 0 {
		return -1
	}
	return 1024 * sum / n
}

// bytes renders the map as one byte per cell: occupied dark, free bright,
// unknown 128.
func (m *logOddsMap) bytes() []byte {
	out := make([]byte, len(m.cells))
	for i, l := range m.cells {
		v := math.Round((-float64(l)/logOddsClamp + 1) / 2 * 255)
		out[i] = byte(utils.Clamp(v, 0, 255))
	}
	return out
}

// occupancyGrid projects the belief into the discrete shared grid type,
// flipping Y from the map's pixel-down convention to the world's y-up.
func (m *logOddsMap) occupancyGrid() *grid.OccupancyGrid {
	g := grid.NewOccupancyGrid(m.sizePixels, m.sizePixels, m.sizeMeters/float64(m.sizePixels), "map")
	g.OriginX = -m.sizeMeters / 2
	g.OriginY = -m.sizeMeters / 2
	for y := 0; y < m.sizePixels; y++ {
		flipped := m.sizePixels - 1 - y
		for x := 0; x < m.sizePixels; x++ {
			l := float64(m.cells[y*m.sizePixels+x])
			var v int8
			switch {
			case l > occupiedLogOdds:
				v = grid.CellOccupied
			case l < freeLogOdds:
				v = grid.CellFree
			default:
				v = grid.CellUnknown
			}
			g.Data[flipped*m.sizePixels+x] = v
		}
	}
	return g
}

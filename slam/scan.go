package slam

import "math"

// Scan point classifications. The map update and the map cost function
// only test whether a point is an obstacle; the numeric values are labels.
const (
	pointObstacle   = 0
	pointNoObstacle = 65500
)

type scanPoint struct {
	xMM        float64
	yMM        float64
	value      int
	distanceMM float64
}

// Scan converts raw lidar range arrays into robot-relative point sets with
// motion compensation for the robot's velocity during the sweep.
type Scan struct {
	span                  int
	size                  int
	rateHz                float64
	detectionAngleDeg     float64
	distanceNoDetectionMM float64
	points                []scanPoint
}

func newScan(span, size int, rateHz, detectionAngleDeg, distanceNoDetectionMM float64) *Scan {
	return &Scan{
		span:                  span,
		size:                  size,
		rateHz:                rateHz,
		detectionAngleDeg:     detectionAngleDeg,
		distanceNoDetectionMM: distanceNoDetectionMM,
		points:                make([]scanPoint, 0, size*span),
	}
}

// Update rebuilds the point set from one revolution of ranges. A range of
// zero is "no return" and contributes a free-space point at the
// no-detection distance; ranges inside half the hole width are noise and
// are skipped. The velocities shear and rotate the emitted angles so that
// points observed late in the sweep land where the world was when they
// were measured. The emitted Y axis is negated, converting the scan into
// the map's Y-down pixel convention.
func (s *Scan) Update(distancesMM []int, holeWidthMM, velXYMMPerSec, velThetaDegPerSec float64) {
	degreesPerSecond := math.Floor(s.rateHz * 360)
	horzMM := velXYMMPerSec / degreesPerSecond
	rotation := 1 + velThetaDegPerSec/degreesPerSecond

	s.points = s.points[:0]
	for i := 1; i < s.size-1; i++ {
		r := 0.0
		if i < len(distancesMM) {
			r = float64(distancesMM[i])
		}
		switch {
		case r == 0:
			s.emit(i, s.distanceNoDetectionMM, pointNoObstacle, horzMM, rotation)
		case r > holeWidthMM/2:
			s.emit(i, r, pointObstacle, horzMM, rotation)
		default:
			// too close, assume noise
		}
	}
}

func (s *Scan) emit(i int, r float64, value int, horzMM, rotation float64) {
	for j := 0; j < s.span; j++ {
		k := float64(i*s.span+j) * s.detectionAngleDeg / float64(s.size*s.span-1)
		angle := (-s.detectionAngleDeg/2 + k*rotation) * math.Pi / 180
		s.points = append(s.points, scanPoint{
			xMM:        r*math.Cos(angle) - k*horzMM,
			yMM:        -r * math.Sin(angle),
			value:      value,
			distanceMM: r,
		})
	}
}

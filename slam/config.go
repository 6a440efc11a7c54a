// Package slam implements a real-time 2-D SLAM engine: lidar scans plus
// odometry deltas go in, a corrected pose and a log-odds occupancy map come
// out. Scan matching is a random-mutation hill climb over a position cost
// evaluated against the map.
package slam

import "github.com/pkg/errors"

// Config holds the engine parameters. Zero values select the defaults.
type Config struct {
	// ScanSize is the number of rays per scan.
	ScanSize int
	// ScanRateHz is the lidar revolution rate.
	ScanRateHz float64
	// DetectionAngleDeg is the angular field of view covered by a scan.
	DetectionAngleDeg float64
	// DistanceNoDetectionMM is the range assumed for rays with no return.
	DistanceNoDetectionMM float64
	// MapSizePixels is the side length of the square map.
	MapSizePixels int
	// MapSizeMeters is the physical side length of the map.
	MapSizeMeters float64
	// MapQuality is retained for legacy map-update variants; the log-odds
	// updater does not consume it.
	MapQuality int
	// HoleWidthMM is the obstacle hole width; returns closer than half of
	// it are treated as noise.
	HoleWidthMM float64
	// SigmaXYMM is the initial standard deviation of position mutations.
	SigmaXYMM float64
	// SigmaThetaDeg is the initial standard deviation of heading mutations.
	SigmaThetaDeg float64
	// MaxSearchIter bounds the hill-climb iteration count.
	MaxSearchIter int
	// Seed fixes the mutation RNG seed; zero seeds from the wall clock.
	Seed uint32
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		ScanSize:              360,
		ScanRateHz:            5,
		DetectionAngleDeg:     360,
		DistanceNoDetectionMM: 3500,
		MapSizePixels:         800,
		MapSizeMeters:         20,
		MapQuality:            50,
		HoleWidthMM:           600,
		SigmaXYMM:             100,
		SigmaThetaDeg:         20,
		MaxSearchIter:         1000,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ScanSize == 0 {
		c.ScanSize = def.ScanSize
	}
	if c.ScanRateHz == 0 {
		c.ScanRateHz = def.ScanRateHz
	}
	if c.DetectionAngleDeg == 0 {
		c.DetectionAngleDeg = def.DetectionAngleDeg
	}
	if c.DistanceNoDetectionMM == 0 {
		c.DistanceNoDetectionMM = def.DistanceNoDetectionMM
	}
	if c.MapSizePixels == 0 {
		c.MapSizePixels = def.MapSizePixels
	}
	if c.MapSizeMeters == 0 {
		c.MapSizeMeters = def.MapSizeMeters
	}
	if c.MapQuality == 0 {
		c.MapQuality = def.MapQuality
	}
	if c.HoleWidthMM == 0 {
		c.HoleWidthMM = def.HoleWidthMM
	}
	if c.SigmaXYMM == 0 {
		c.SigmaXYMM = def.SigmaXYMM
	}
	if c.SigmaThetaDeg == 0 {
		c.SigmaThetaDeg = def.SigmaThetaDeg
	}
	if c.MaxSearchIter == 0 {
		c.MaxSearchIter = def.MaxSearchIter
	}
	return c
}

// Validate rejects out-of-range configuration.
func (c Config) Validate() error {
	if c.ScanSize < 2 {
		return errors.Errorf("scan size must be at least 2, got %d", c.ScanSize)
	}
	if c.ScanRateHz <= 0 {
		return errors.Errorf("scan rate must be positive, got %f", c.ScanRateHz)
	}
	if c.DetectionAngleDeg <= 0 || c.DetectionAngleDeg > 360 {
		return errors.Errorf("detection angle must be in (0, 360], got %f", c.DetectionAngleDeg)
	}
	if c.DistanceNoDetectionMM <= 0 {
		return errors.Errorf("no-detection distance must be positive, got %f", c.DistanceNoDetectionMM)
	}
	if c.MapSizePixels < 2 {
		return errors.Errorf("map size must be at least 2 pixels, got %d", c.MapSizePixels)
	}
	if c.MapSizeMeters <= 0 {
		return errors.Errorf("map size must be positive meters, got %f", c.MapSizeMeters)
	}
	if c.HoleWidthMM < 0 {
		return errors.Errorf("hole width must be non-negative, got %f", c.HoleWidthMM)
	}
	if c.SigmaXYMM < 0 || c.SigmaThetaDeg < 0 {
		return errors.New("mutation sigmas must be non-negative")
	}
	if c.MaxSearchIter < 1 {
		return errors.Errorf("search iterations must be at least 1, got %d", c.MaxSearchIter)
	}
	return nil
}

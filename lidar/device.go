// Package lidar describes the scanning range-finder devices that feed the
// SLAM engine.
package lidar

import "context"

// Device is a 2-D scanning range finder. Implementations are expected to
// be safe for use from a single consumer goroutine.
type Device interface {
	// Scan returns one revolution of ranges in millimeters, ordered by
	// angle. A range of zero means no return.
	Scan(ctx context.Context) ([]int, error)

	// Range returns the number of rays per revolution.
	Range() int

	// AngularResolution returns the degrees between adjacent rays.
	AngularResolution() float64
}

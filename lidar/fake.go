package lidar

import (
	"context"

	"github.com/pkg/errors"
)

// Fake is a canned-scan Device for tests and offline playback. Scans are
// returned in order and the last one repeats once the sequence runs out.
type Fake struct {
	ScanSize int
	Scans    [][]int
	next     int
}

// Scan returns the next canned scan.
func (f *Fake) Scan(ctx context.Context) ([]int, error) {
	if len(f.Scans) == 0 {
		return nil, errors.New("no canned scans")
	}
	scan := f.Scans[f.next]
	if f.next < len(f.Scans)-1 {
		f.next++
	}
	return scan, nil
}

// Range returns the configured ray count.
func (f *Fake) Range() int {
	return f.ScanSize
}

// AngularResolution assumes a full 360 degree sweep.
func (f *Fake) AngularResolution() float64 {
	return 360 / float64(f.ScanSize)
}

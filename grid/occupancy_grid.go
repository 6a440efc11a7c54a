// Package grid provides the dense occupancy grid type shared between the
// SLAM engine and its consumers.
package grid

import "math"

// Cell occupancy values. Intermediate values in (0, 100) carry a
// probability scaled by 100.
const (
	CellUnknown  int8 = -1
	CellFree     int8 = 0
	CellOccupied int8 = 100
)

// OccupancyGrid is a dense row-major grid of occupancy estimates. The
// origin is the world coordinate of the bottom-left corner of cell (0,0),
// with y increasing upward in the world frame.
type OccupancyGrid struct {
	Resolution float64 // meters per cell
	Width      int
	Height     int
	OriginX    float64 // meters, world frame
	OriginY    float64
	OriginYaw  float64 // radians
	FrameID    string
	Data       []int8 // len == Width*Height, index = y*Width + x
}

// NewOccupancyGrid allocates a grid with every cell unknown.
func NewOccupancyGrid(width, height int, resolution float64, frameID string) *OccupancyGrid {
	data := make([]int8, width*height)
	for i := range data {
		data[i] = CellUnknown
	}
	return &OccupancyGrid{
		Resolution: resolution,
		Width:      width,
		Height:     height,
		FrameID:    frameID,
		Data:       data,
	}
}

// At returns the value at cell (x, y). Out-of-bounds reads return unknown.
func (g *OccupancyGrid) At(x, y int) int8 {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return CellUnknown
	}
	return g.Data[y*g.Width+x]
}

// Set writes the value at cell (x, y), ignoring out-of-bounds writes.
func (g *OccupancyGrid) Set(x, y int, v int8) {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return
	}
	g.Data[y*g.Width+x] = v
}

// WorldToGrid converts world-frame meters to cell coordinates. The second
// return is false when the point falls outside the grid.
func (g *OccupancyGrid) WorldToGrid(wx, wy float64) (int, int, bool) {
	x := int(math.Floor((wx - g.OriginX) / g.Resolution))
	y := int(math.Floor((wy - g.OriginY) / g.Resolution))
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return 0, 0, false
	}
	return x, y, true
}

// GridToWorld returns the world-frame coordinate of the center of cell (x, y).
func (g *OccupancyGrid) GridToWorld(x, y int) (float64, float64) {
	wx := g.OriginX + (float64(x)+0.5)*g.Resolution
	wy := g.OriginY + (float64(y)+0.5)*g.Resolution
	return wx, wy
}

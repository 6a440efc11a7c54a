package slam

// Position is a pose in the map frame: millimeters for translation,
// degrees for heading.
type Position struct {
	XMM      float64
	YMM      float64
	ThetaDeg float64
}

// OdometryDelta is the reported motion since the previous update, in the
// map frame.
type OdometryDelta struct {
	DXMM      float64
	DYMM      float64
	DThetaDeg float64
}

func (p Position) add(d OdometryDelta) Position {
	return Position{
		XMM:      p.XMM + d.DXMM,
		YMM:      p.YMM + d.DYMM,
		ThetaDeg: p.ThetaDeg + d.DThetaDeg,
	}
}

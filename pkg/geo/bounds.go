package geo

// GeoBounds is a geographic bounding box in degrees.
type GeoBounds struct {
	West  float64 `yaml:"west" json:"west"`
	East  float64 `yaml:"east" json:"east"`
	South float64 `yaml:"south" json:"south"`
	North float64 `yaml:"north" json:"north"`
}

// Bounds is a bounding box in the grid's native (projected) CRS. It is the
// region filter: built once per run, then used as a pure predicate over
// cell coordinates. Safe for concurrent use.
type Bounds struct {
	West  float64
	East  float64
	South float64
	North float64
}

// Contains reports whether the native-CRS point lies inside the box.
// All four edges are inclusive.
func (b Bounds) Contains(x, y float64) bool {
	return b.West <= x && x <= b.East && b.South <= y && y <= b.North
}

// ProjectBounds converts a geographic bounding box into the projected CRS
// by forward-projecting the northwest and southeast corners.
func ProjectBounds(g GeoBounds, p *Albers) Bounds {
	west, north := p.Forward(g.West, g.North)
	east, south := p.Forward(g.East, g.South)
	return Bounds{West: west, East: east, South: south, North: north}
}

package raster

import "cdlextract/pkg/geo"

// MemGrid is an in-memory Source, used by tests and as the staging
// representation when building grid files.
type MemGrid struct {
	cells     [][]int32
	transform geo.Affine
}

// NewMemGrid wraps cell rows in a Source. All rows must share one length.
func NewMemGrid(cells [][]int32, transform geo.Affine) *MemGrid {
	return &MemGrid{cells: cells, transform: transform}
}

// NewUniformGrid builds a height x width grid filled with one value.
func NewUniformGrid(height, width int, value int32, transform geo.Affine) *MemGrid {
	cells := make([][]int32, height)
	for r := range cells {
		cells[r] = make([]int32, width)
		for c := range cells[r] {
			cells[r][c] = value
		}
	}
	return &MemGrid{cells: cells, transform: transform}
}

// Set assigns a single cell value.
func (g *MemGrid) Set(row, col int, value int32) {
	g.cells[row][col] = value
}

func (g *MemGrid) Height() int { return len(g.cells) }

func (g *MemGrid) Width() int {
	if len(g.cells) == 0 {
		return 0
	}
	return len(g.cells[0])
}

func (g *MemGrid) Transform() geo.Affine { return g.transform }

func (g *MemGrid) ReadWindow(w Window) ([][]int32, error) {
	if err := checkWindow(w, g.Height(), g.Width()); err != nil {
		return nil, err
	}
	out := make([][]int32, w.Height)
	for r := 0; r < w.Height; r++ {
		row := make([]int32, w.Width)
		copy(row, g.cells[w.RowOff+r][w.ColOff:w.ColOff+w.Width])
		out[r] = row
	}
	return out, nil
}

func (g *MemGrid) Close() error { return nil }

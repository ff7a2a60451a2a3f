// Package raster provides read access to yearly categorical land-cover
// grids. A Source exposes the grid dimensions, its affine georeferencing
// transform, and windowed reads of cell values, so callers never hold more
// than one window of the grid in memory.
package raster

import (
	"fmt"

	"cdlextract/pkg/geo"
)

// Window is a rectangular sub-region of a grid.
type Window struct {
	RowOff int
	ColOff int
	Height int
	Width  int
}

// String formats the window for log output.
func (w Window) String() string {
	return fmt.Sprintf("window(row=%d col=%d h=%d w=%d)", w.RowOff, w.ColOff, w.Height, w.Width)
}

// Source is an open grid. Implementations are read-only; the pipeline
// never mutates a source raster.
type Source interface {
	// Height returns the number of rows in the grid.
	Height() int

	// Width returns the number of columns in the grid.
	Width() int

	// Transform returns the affine transform mapping (row, col) to
	// native-CRS coordinates.
	Transform() geo.Affine

	// ReadWindow returns the cell values of the window as rows of
	// columns. It fails if the window does not lie entirely inside the
	// grid.
	ReadWindow(w Window) ([][]int32, error)

	// Close releases the underlying resources.
	Close() error
}

// checkWindow validates a window against grid dimensions.
func checkWindow(w Window, height, width int) error {
	if w.Height <= 0 || w.Width <= 0 {
		return fmt.Errorf("empty %v", w)
	}
	if w.RowOff < 0 || w.ColOff < 0 ||
		w.RowOff+w.Height > height || w.ColOff+w.Width > width {
		return fmt.Errorf("%v outside %dx%d grid", w, height, width)
	}
	return nil
}

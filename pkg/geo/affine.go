package geo

// Affine is a six-coefficient affine transform mapping grid indices to
// native-CRS coordinates, in the usual raster convention:
//
//	x = C + A*col + B*row
//	y = F + D*col + E*row
//
// A is the cell width, E the (typically negative) cell height, C and F the
// coordinates of the top-left corner of the grid.
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// XY returns the native-CRS coordinate of the center of the cell at
// (row, col).
func (t Affine) XY(row, col int) (x, y float64) {
	fc := float64(col) + 0.5
	fr := float64(row) + 0.5
	x = t.C + t.A*fc + t.B*fr
	y = t.F + t.D*fc + t.E*fr
	return x, y
}

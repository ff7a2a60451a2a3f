package pipeline

import "cdlextract/pkg/raster"

// WindowCount returns the number of windows tiling a height x width grid
// with the given chunk size.
func WindowCount(height, width, chunkSize int) int {
	rows := (height + chunkSize - 1) / chunkSize
	cols := (width + chunkSize - 1) / chunkSize
	return rows * cols
}

// Windows tiles the grid into disjoint windows in row-major order: row
// bands outer, column bands inner. The last band in each direction is
// clipped to the grid edge.
func Windows(height, width, chunkSize int) []raster.Window {
	windows := make([]raster.Window, 0, WindowCount(height, width, chunkSize))
	for row := 0; row < height; row += chunkSize {
		h := chunkSize
		if row+h > height {
			h = height - row
		}
		for col := 0; col < width; col += chunkSize {
			w := chunkSize
			if col+w > width {
				w = width - col
			}
			windows = append(windows, raster.Window{
				RowOff: row,
				ColOff: col,
				Height: h,
				Width:  w,
			})
		}
	}
	return windows
}

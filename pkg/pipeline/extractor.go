package pipeline

import (
	"cdlextract/pkg/cdl"
	"cdlextract/pkg/chunk"
	apperrors "cdlextract/pkg/errors"
	"cdlextract/pkg/geo"
	"cdlextract/pkg/logger"
	"cdlextract/pkg/raster"
)

// Extractor turns one grid window into tabular records: read the window,
// filter cells against the region bounds, reproject the survivors to
// geographic coordinates, and attach category labels.
type Extractor struct {
	source raster.Source
	bounds geo.Bounds
	proj   *geo.Albers
	year   int
	logger logger.Logger
}

// NewExtractor creates an extractor for one year's grid.
func NewExtractor(source raster.Source, bounds geo.Bounds, proj *geo.Albers, year int, log logger.Logger) *Extractor {
	return &Extractor{
		source: source,
		bounds: bounds,
		proj:   proj,
		year:   year,
		logger: log,
	}
}

// Extract returns the records for one window, possibly none. Failures
// are confined to the window: the error is logged and the window simply
// contributes no records.
func (e *Extractor) Extract(w raster.Window) []chunk.Record {
	records, err := e.extract(w)
	if err != nil {
		werr := apperrors.Wrap(apperrors.ErrorTypeWindow, "extracting "+w.String(), err)
		e.logger.WithError(werr).WarnWithFields("Window skipped", map[string]interface{}{
			"row_off": w.RowOff,
			"col_off": w.ColOff,
		})
		return nil
	}
	return records
}

func (e *Extractor) extract(w raster.Window) ([]chunk.Record, error) {
	cells, err := e.source.ReadWindow(w)
	if err != nil {
		return nil, err
	}

	tr := e.source.Transform()

	// Cheap predicates first: background exclusion, then the bounds
	// check in the native CRS. Only surviving cells pay for the
	// inverse projection.
	var codes []int
	var xs, ys []float64
	for r := 0; r < w.Height; r++ {
		for c := 0; c < w.Width; c++ {
			v := cells[r][c]
			if v <= 0 {
				// 0 is the "no classification" sentinel
				continue
			}
			x, y := tr.XY(w.RowOff+r, w.ColOff+c)
			if !e.bounds.Contains(x, y) {
				continue
			}
			codes = append(codes, int(v))
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}

	if len(codes) == 0 {
		return nil, nil
	}

	lons, lats := e.proj.InverseSlice(xs, ys)

	records := make([]chunk.Record, len(codes))
	for i, code := range codes {
		records[i] = chunk.Record{
			Year:      e.year,
			Code:      code,
			Longitude: lons[i],
			Latitude:  lats[i],
			Label:     cdl.Label(code),
		}
	}
	return records, nil
}

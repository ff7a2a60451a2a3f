package pipeline

import (
	"os"

	"cdlextract/pkg/checkpoint"
	"cdlextract/pkg/chunk"
	"cdlextract/pkg/config"
	apperrors "cdlextract/pkg/errors"
	"cdlextract/pkg/geo"
	"cdlextract/pkg/logger"
	"cdlextract/pkg/raster"
)

// Runner executes the scan phase for one year from configuration.
type Runner struct {
	cfg    *config.Config
	logger logger.Logger

	// OnProgress, when set, receives scan progress after every chunk.
	OnProgress func(chunksDone, totalChunks, records int)
}

// NewRunner creates a scan-phase runner.
func NewRunner(cfg *config.Config, log logger.Logger) *Runner {
	return &Runner{cfg: cfg, logger: log}
}

// ProcessYear scans one year's grid into chunk files. If the year's final
// artifact already exists the whole pipeline is skipped: the artifact is
// the idempotence marker.
func (r *Runner) ProcessYear(year int) (*ScanResult, error) {
	log := r.logger.WithField("year", year)

	finalPath := r.cfg.FinalArtifactPath(year)
	if _, err := os.Stat(finalPath); err == nil {
		log.InfoWithFields("Year already processed, skipping", map[string]interface{}{
			"final_artifact": finalPath,
		})
		return &ScanResult{AlreadyProcessed: true}, nil
	}

	srcPath := r.cfg.SourcePath(year)
	source, err := raster.Open(srcPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeSource, "opening grid "+srcPath, err)
	}
	defer source.Close()

	log.InfoWithFields("Source grid opened", map[string]interface{}{
		"path":   srcPath,
		"height": source.Height(),
		"width":  source.Width(),
	})

	// Reproject the geographic region box into the grid's CRS once;
	// from here on the filter is pure numeric comparison.
	proj := geo.NewConusAlbers()
	bounds := geo.ProjectBounds(r.cfg.Region.Bounds, proj)

	chunksDir := r.cfg.ChunksDir(year)
	store, err := chunk.NewStore(chunksDir, log)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeScanFatal, "creating chunk store", err)
	}

	checkpoints, err := checkpoint.NewManager(chunksDir, year, log)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeScanFatal, "creating checkpoint manager", err)
	}

	extractor := NewExtractor(source, bounds, proj, year, log)
	scanner := NewScanner(source, extractor, store, checkpoints,
		r.cfg.Processing.ChunkSize, r.cfg.Processing.ProgressInterval, log)
	if r.OnProgress != nil {
		scanner.SetProgressFunc(r.OnProgress)
	}

	return scanner.Run()
}

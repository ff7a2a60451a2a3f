package pipeline

import (
	"fmt"

	"cdlextract/pkg/checkpoint"
	"cdlextract/pkg/chunk"
	apperrors "cdlextract/pkg/errors"
	"cdlextract/pkg/logger"
	"cdlextract/pkg/raster"
)

// State is the scan driver's lifecycle state.
type State string

const (
	StateNotStarted State = "not_started"
	StateScanning   State = "scanning"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// ScanResult summarizes one scan run.
type ScanResult struct {
	TotalChunks  int
	Processed    int
	Skipped      int
	TotalRecords int

	// AlreadyProcessed is set when the year's final artifact exists and
	// the scan never started.
	AlreadyProcessed bool
}

// Scanner drives the windowed scan of one year's grid: it iterates
// windows in row-major order, extracts each into a chunk, persists
// non-empty chunks, and advances the checkpoint after each chunk's I/O
// completes — whether or not the chunk produced output.
type Scanner struct {
	source           raster.Source
	extractor        *Extractor
	store            *chunk.Store
	checkpoints      *checkpoint.Manager
	chunkSize        int
	progressInterval int
	logger           logger.Logger
	state            State
	onProgress       func(chunksDone, totalChunks, records int)
}

// NewScanner wires up a scan driver.
func NewScanner(source raster.Source, extractor *Extractor, store *chunk.Store,
	checkpoints *checkpoint.Manager, chunkSize, progressInterval int, log logger.Logger) *Scanner {
	return &Scanner{
		source:           source,
		extractor:        extractor,
		store:            store,
		checkpoints:      checkpoints,
		chunkSize:        chunkSize,
		progressInterval: progressInterval,
		logger:           log,
		state:            StateNotStarted,
	}
}

// SetProgressFunc installs a callback invoked after every chunk with the
// scan position and running record count. Nil disables it.
func (s *Scanner) SetProgressFunc(fn func(chunksDone, totalChunks, records int)) {
	s.onProgress = fn
}

// State returns the scanner's current lifecycle state.
func (s *Scanner) State() State {
	return s.state
}

// Run executes the scan. Per-window failures are absorbed by the
// extractor; the errors returned here are the unrecoverable kind (chunk
// or checkpoint I/O), after which the checkpoint still holds its last
// saved value so a retry resumes correctly.
func (s *Scanner) Run() (*ScanResult, error) {
	cp, err := s.checkpoints.Load()
	if err != nil {
		s.state = StateFailed
		return nil, apperrors.Wrap(apperrors.ErrorTypeScanFatal, "loading checkpoint", err)
	}

	height := s.source.Height()
	width := s.source.Width()
	totalChunks := WindowCount(height, width, s.chunkSize)

	s.logger.InfoWithFields("Scan started", map[string]interface{}{
		"grid":         fmt.Sprintf("%dx%d", height, width),
		"chunk_size":   s.chunkSize,
		"total_chunks": totalChunks,
		"start_chunk":  cp.LastChunk,
	})

	s.state = StateScanning
	result := &ScanResult{TotalChunks: totalChunks}

	// Chunk numbers are 1-based and assigned before the skip check, so
	// numbering is identical across interrupted and fresh runs.
	chunkNum := 0
	for _, w := range Windows(height, width, s.chunkSize) {
		chunkNum++

		if chunkNum <= cp.LastChunk {
			result.Skipped++
			continue
		}

		if chunkNum%s.progressInterval == 0 {
			progress := float64(chunkNum) / float64(totalChunks) * 100
			s.logger.InfoWithFields("Progress", map[string]interface{}{
				"percent": fmt.Sprintf("%.1f", progress),
				"chunk":   chunkNum,
				"total":   totalChunks,
			})
		}

		records := s.extractor.Extract(w)
		if len(records) > 0 {
			if err := s.store.Write(records, chunkNum); err != nil {
				s.state = StateFailed
				return result, apperrors.Wrap(apperrors.ErrorTypeScanFatal,
					fmt.Sprintf("writing chunk %d", chunkNum), err)
			}
			result.TotalRecords += len(records)
		}

		// Checkpoint last: a crash between chunk write and this save
		// re-derives the chunk, never loses it.
		if err := s.checkpoints.Advance(cp, chunkNum); err != nil {
			s.state = StateFailed
			return result, apperrors.Wrap(apperrors.ErrorTypeScanFatal,
				fmt.Sprintf("saving checkpoint after chunk %d", chunkNum), err)
		}

		result.Processed++

		if s.onProgress != nil {
			s.onProgress(chunkNum, totalChunks, result.TotalRecords)
		}
	}

	cp.Status = checkpoint.StatusComplete
	if err := s.checkpoints.Save(cp); err != nil {
		s.state = StateFailed
		return result, apperrors.Wrap(apperrors.ErrorTypeScanFatal, "saving final checkpoint", err)
	}

	s.state = StateCompleted
	s.logger.InfoWithFields("Scan completed", map[string]interface{}{
		"chunks_processed": result.Processed,
		"chunks_skipped":   result.Skipped,
		"records":          result.TotalRecords,
	})

	return result, nil
}

package consolidate

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"cdlextract/pkg/chunk"
	apperrors "cdlextract/pkg/errors"
	"cdlextract/pkg/logger"
)

// Phase is the merger's lifecycle phase.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseMerging    Phase = "merging"
	PhaseVerifying  Phase = "verifying"
	PhaseCleaningUp Phase = "cleaning_up"
	PhaseDone       Phase = "done"
	PhaseAborted    Phase = "aborted"
	PhaseFailed     Phase = "failed"
)

// Result summarizes one merge run.
type Result struct {
	ArtifactPath string
	TotalRecords int64
	ChunksMerged int
	Quarantined  int
	Verified     bool
	CleanedUp    bool
	Elapsed      time.Duration
}

// Merger consolidates one year's chunk files into a single artifact. It
// runs validate, merge, verify, and cleanup phases in order; chunk files
// are only removed after the artifact's row count matches the running
// total.
type Merger struct {
	store            *chunk.Store
	progressInterval int
	logger           logger.Logger
	phase            Phase
	onProgress       func(chunksDone, totalChunks int, records int64)

	// afterMerge, when set, runs after the artifact is written and
	// closed, before verification reopens it. Tests use it to tamper
	// with the artifact between the phases.
	afterMerge func(path string) error
}

// NewMerger wires up a merger over one year's chunk store.
func NewMerger(store *chunk.Store, progressInterval int, log logger.Logger) *Merger {
	return &Merger{
		store:            store,
		progressInterval: progressInterval,
		logger:           log,
		phase:            PhaseIdle,
	}
}

// SetProgressFunc installs a callback invoked after every merged or
// quarantined chunk with the merge position and running record count.
// Nil disables it.
func (m *Merger) SetProgressFunc(fn func(chunksDone, totalChunks int, records int64)) {
	m.onProgress = fn
}

// Phase returns the merger's current lifecycle phase.
func (m *Merger) Phase() Phase {
	return m.phase
}

// Merge consolidates all valid chunk files into a new artifact at
// outPath. Corrupt chunks are quarantined and excluded from accounting;
// they never abort the merge. The chunk directory is removed only after
// verification succeeds.
func (m *Merger) Merge(year int, outPath string) (*Result, error) {
	start := time.Now()
	result := &Result{ArtifactPath: outPath}

	files, err := m.store.List()
	if err != nil {
		m.phase = PhaseFailed
		return result, apperrors.Wrap(apperrors.ErrorTypeConsolidation, "listing chunks", err)
	}
	if len(files) == 0 {
		m.phase = PhaseFailed
		return result, apperrors.New(apperrors.ErrorTypeConsolidation,
			fmt.Sprintf("no chunk files found in %s", m.store.Dir()))
	}

	valid := m.validate(files, result)
	if len(valid) == 0 {
		m.phase = PhaseFailed
		return result, apperrors.New(apperrors.ErrorTypeConsolidation, "no valid chunk files to merge")
	}

	m.phase = PhaseMerging
	out, err := Create(outPath)
	if err != nil {
		m.phase = PhaseFailed
		return result, apperrors.Wrap(apperrors.ErrorTypeConsolidation, "creating artifact", err)
	}

	m.merge(valid, out, result, start)

	meta := map[string]string{
		MetaTotalRecords:    fmt.Sprintf("%d", result.TotalRecords),
		MetaYear:            fmt.Sprintf("%d", year),
		MetaProcessingDate:  time.Now().Format(time.RFC3339),
		MetaChunksProcessed: fmt.Sprintf("%d", result.ChunksMerged),
	}
	for k, v := range meta {
		if err := out.SetMetadata(k, v); err != nil {
			out.Close()
			m.phase = PhaseFailed
			return result, apperrors.Wrap(apperrors.ErrorTypeConsolidation, "writing metadata", err)
		}
	}

	if err := out.Close(); err != nil {
		m.phase = PhaseFailed
		return result, apperrors.Wrap(apperrors.ErrorTypeConsolidation, "closing artifact", err)
	}

	if m.afterMerge != nil {
		if err := m.afterMerge(outPath); err != nil {
			m.phase = PhaseFailed
			return result, apperrors.Wrap(apperrors.ErrorTypeConsolidation, "after merge", err)
		}
	}

	rows, err := m.verify(outPath)
	if err != nil {
		m.phase = PhaseFailed
		return result, err
	}
	if rows == result.TotalRecords {
		result.Verified = true
	} else {
		// A count mismatch is an invariant violation, not an abort: the
		// merge reports completion with the failure flagged, and the
		// chunk directory is kept for inspection or a re-merge.
		m.logger.ErrorWithFields("Verification mismatch", map[string]interface{}{
			"expected": result.TotalRecords,
			"actual":   rows,
		})
	}

	if result.Verified {
		// Chunks are redundant now that the artifact is verified. A
		// failed delete is only logged; the merge itself succeeded.
		m.phase = PhaseCleaningUp
		if err := os.RemoveAll(m.store.Dir()); err != nil {
			m.logger.WithError(err).WarnWithFields("Chunk cleanup failed", map[string]interface{}{
				"dir": m.store.Dir(),
			})
		} else {
			result.CleanedUp = true
		}
		m.phase = PhaseDone
	} else {
		m.phase = PhaseAborted
	}

	result.Elapsed = time.Since(start)
	m.logSummary(result)
	return result, nil
}

// validate probes every chunk file and quarantines the corrupt ones.
func (m *Merger) validate(files []chunk.File, result *Result) []chunk.File {
	m.phase = PhaseValidating
	m.logger.InfoWithFields("Validating chunks", map[string]interface{}{
		"total": len(files),
	})

	valid := make([]chunk.File, 0, len(files))
	for i, f := range files {
		if (i+1)%m.progressInterval == 0 {
			m.logger.InfoWithFields("Validation progress", map[string]interface{}{
				"checked": i + 1,
				"total":   len(files),
			})
		}
		if err := m.store.Probe(f); err != nil {
			m.quarantine(f, err, result)
			continue
		}
		valid = append(valid, f)
	}

	if result.Quarantined > 0 {
		m.logger.WarnWithFields("Corrupt chunks quarantined", map[string]interface{}{
			"quarantined": result.Quarantined,
			"valid":       len(valid),
		})
	}
	return valid
}

// merge streams each valid chunk into the artifact. A chunk that fails
// to parse here despite passing the probe is quarantined late and the
// merge continues.
func (m *Merger) merge(valid []chunk.File, out *Store, result *Result, start time.Time) {
	for i, f := range valid {
		if (i+1)%m.progressInterval == 0 {
			elapsed := time.Since(start)
			perChunk := elapsed / time.Duration(i+1)
			remaining := perChunk * time.Duration(len(valid)-i-1)
			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			m.logger.InfoWithFields("Merge progress", map[string]interface{}{
				"merged":  i + 1,
				"total":   len(valid),
				"records": result.TotalRecords,
				"eta":     remaining.Round(time.Second).String(),
				"memory":  humanize.Bytes(mem.Alloc),
			})
		}

		records, err := m.store.Read(f)
		if err != nil {
			m.quarantine(f, err, result)
		} else if err := out.AppendRecords(records); err != nil {
			// The chunk's transaction rolled back, so nothing of it
			// reached the store; quarantine and keep going.
			werr := apperrors.Wrap(apperrors.ErrorTypeConsolidation, "appending "+f.Name(), err)
			m.quarantine(f, werr, result)
		} else {
			result.TotalRecords += int64(len(records))
			result.ChunksMerged++
		}

		if m.onProgress != nil {
			m.onProgress(i+1, len(valid), result.TotalRecords)
		}
	}
}

// verify reopens the artifact and counts its rows, so the comparison is
// against what is durably on disk rather than the writing connection's
// view of its own transactions.
func (m *Merger) verify(outPath string) (int64, error) {
	m.phase = PhaseVerifying

	check, err := Open(outPath)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrorTypeConsolidation, "reopening artifact", err)
	}
	defer check.Close()

	rows, err := check.RowCount()
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrorTypeConsolidation, "counting artifact rows", err)
	}
	return rows, nil
}

func (m *Merger) quarantine(f chunk.File, cause error, result *Result) {
	result.Quarantined++
	m.logger.WithError(cause).WarnWithFields("Chunk quarantined", map[string]interface{}{
		"chunk": f.Name(),
	})
	if err := m.store.Quarantine(f); err != nil {
		m.logger.WithError(err).ErrorWithFields("Quarantine move failed", map[string]interface{}{
			"chunk": f.Name(),
		})
	}
}

func (m *Merger) logSummary(result *Result) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	var rate float64
	if secs := result.Elapsed.Seconds(); secs > 0 {
		rate = float64(result.TotalRecords) / secs
	}

	m.logger.InfoWithFields("Merge completed", map[string]interface{}{
		"artifact":      result.ArtifactPath,
		"records":       result.TotalRecords,
		"chunks_merged": result.ChunksMerged,
		"quarantined":   result.Quarantined,
		"cleaned_up":    result.CleanedUp,
		"elapsed":       result.Elapsed.Round(time.Millisecond).String(),
		"records_per_s": fmt.Sprintf("%.0f", rate),
		"memory":        humanize.Bytes(mem.Alloc),
	})
}

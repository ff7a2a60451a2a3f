package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cdlextract/pkg/logger"
)

// Status values for a year's scan.
const (
	StatusProcessing = "processing"
	StatusComplete   = "complete"
)

// FileName is the checkpoint file name inside a year's chunk directory.
const FileName = "progress.json"

// Checkpoint records the last chunk whose I/O completed for a year. On
// resume, every chunk number up to and including LastChunk is skipped
// without re-reading the grid.
type Checkpoint struct {
	Year      int       `json:"year"`
	LastChunk int       `json:"last_chunk"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Manager handles checkpoint persistence for one year
type Manager struct {
	checkpointPath string
	year           int
	logger         logger.Logger
}

// NewManager creates a checkpoint manager rooted in the year's chunk
// directory, creating the directory if needed.
func NewManager(chunksDir string, year int, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(chunksDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chunk directory: %w", err)
	}

	return &Manager{
		checkpointPath: filepath.Join(chunksDir, FileName),
		year:           year,
		logger:         log,
	}, nil
}

// Load returns the persisted checkpoint, or a fresh zero checkpoint when
// none exists yet.
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			now := time.Now()
			return &Checkpoint{
				Year:      m.year,
				LastChunk: 0,
				Status:    StatusProcessing,
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"year":       checkpoint.Year,
		"last_chunk": checkpoint.LastChunk,
		"status":     checkpoint.Status,
		"updated_at": checkpoint.UpdatedAt,
	})

	return &checkpoint, nil
}

// Save persists the checkpoint atomically: a crash leaves either the old
// or the new value on disk, never a torn one.
func (m *Manager) Save(checkpoint *Checkpoint) error {
	checkpoint.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(checkpoint); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"year":       checkpoint.Year,
		"last_chunk": checkpoint.LastChunk,
	})

	return nil
}

// Advance records that chunk's I/O completed and persists the checkpoint.
// Called after every chunk, whether or not it produced output. The last
// chunk number only ever moves forward; a stale call is a no-op.
func (m *Manager) Advance(checkpoint *Checkpoint, chunkNum int) error {
	if chunkNum <= checkpoint.LastChunk {
		return nil
	}
	checkpoint.LastChunk = chunkNum
	return m.Save(checkpoint)
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.checkpointPath
}

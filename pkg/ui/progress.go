package ui

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	progressFill  = "█"
	progressEmpty = "░"
	barWidth      = 20
)

// StatusTracker tracks chunk progress for terminal display.
type StatusTracker struct {
	TotalChunks int
	ChunksDone  int
	Records     int
	StartTime   time.Time
}

// NewStatusTracker creates a tracker over a known chunk count.
func NewStatusTracker(totalChunks int) *StatusTracker {
	return &StatusTracker{
		TotalChunks: totalChunks,
		StartTime:   time.Now(),
	}
}

// Update records progress so far.
func (st *StatusTracker) Update(chunksDone, records int) {
	st.ChunksDone = chunksDone
	st.Records = records
}

// Bar returns a fixed-width progress bar with chunk counts.
func (st *StatusTracker) Bar() string {
	progress := 0.0
	if st.TotalChunks > 0 {
		progress = float64(st.ChunksDone) / float64(st.TotalChunks)
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * barWidth)

	bar := strings.Repeat(progressFill, filled) +
		strings.Repeat(progressEmpty, barWidth-filled)
	return fmt.Sprintf("[%s] %d/%d", bar, st.ChunksDone, st.TotalChunks)
}

// Elapsed returns the time since tracking started.
func (st *StatusTracker) Elapsed() time.Duration {
	return time.Since(st.StartTime)
}

// Rate returns records per second since tracking started.
func (st *StatusTracker) Rate() float64 {
	secs := st.Elapsed().Seconds()
	if secs == 0 {
		return 0
	}
	return float64(st.Records) / secs
}

// ETA estimates time remaining from the chunk rate so far. Zero until at
// least one chunk completes.
func (st *StatusTracker) ETA() time.Duration {
	if st.ChunksDone == 0 || st.TotalChunks <= st.ChunksDone {
		return 0
	}
	perChunk := st.Elapsed() / time.Duration(st.ChunksDone)
	return perChunk * time.Duration(st.TotalChunks-st.ChunksDone)
}

// MemoryUsage returns the process's current heap allocation, humanized.
func (st *StatusTracker) MemoryUsage() string {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return humanize.Bytes(mem.Alloc)
}

// Summary returns a one-line completion summary.
func (st *StatusTracker) Summary() string {
	return fmt.Sprintf("%s records in %s (%.0f rec/s, mem %s)",
		humanize.Comma(int64(st.Records)),
		st.Elapsed().Round(time.Second),
		st.Rate(),
		st.MemoryUsage())
}

package pipeline

import (
	"testing"

	"cdlextract/pkg/checkpoint"
	"cdlextract/pkg/chunk"
	"cdlextract/pkg/geo"
	"cdlextract/pkg/logger"
	"cdlextract/pkg/raster"
)

func newTestScanner(t *testing.T, grid raster.Source, dir string, chunkSize int) (*Scanner, *chunk.Store, *checkpoint.Manager) {
	t.Helper()
	log := logger.NewNopLogger()

	store, err := chunk.NewStore(dir, log)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	checkpoints, err := checkpoint.NewManager(dir, 2012, log)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	proj := geo.NewConusAlbers()
	bounds := geo.ProjectBounds(californiaBounds(), proj)
	extractor := NewExtractor(grid, bounds, proj, 2012, log)

	return NewScanner(grid, extractor, store, checkpoints, chunkSize, 100, log), store, checkpoints
}

func TestScannerFullRun(t *testing.T) {
	proj := geo.NewConusAlbers()
	grid := raster.NewUniformGrid(4, 4, 1, testTransform(proj))

	scanner, store, checkpoints := newTestScanner(t, grid, t.TempDir(), 2)

	if scanner.State() != StateNotStarted {
		t.Errorf("initial state = %s, want %s", scanner.State(), StateNotStarted)
	}

	result, err := scanner.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.TotalChunks != 4 || result.Processed != 4 || result.Skipped != 0 {
		t.Errorf("result = %+v, want 4 chunks all processed", result)
	}
	if result.TotalRecords != 16 {
		t.Errorf("TotalRecords = %d, want 16", result.TotalRecords)
	}
	if scanner.State() != StateCompleted {
		t.Errorf("final state = %s, want %s", scanner.State(), StateCompleted)
	}

	files, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("got %d chunk files, want 4", len(files))
	}
	for i, f := range files {
		if f.Num != i+1 {
			t.Errorf("chunk file %d has number %d, want %d", i, f.Num, i+1)
		}
	}

	cp, err := checkpoints.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cp.LastChunk != 4 {
		t.Errorf("checkpoint LastChunk = %d, want 4", cp.LastChunk)
	}
	if cp.Status != checkpoint.StatusComplete {
		t.Errorf("checkpoint status = %s, want %s", cp.Status, checkpoint.StatusComplete)
	}
}

func TestScannerSkipsEmptyChunks(t *testing.T) {
	proj := geo.NewConusAlbers()
	grid := raster.NewUniformGrid(4, 4, 0, testTransform(proj))
	grid.Set(0, 0, 61)

	scanner, store, _ := newTestScanner(t, grid, t.TempDir(), 2)

	result, err := scanner.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Processed != 4 {
		t.Errorf("Processed = %d, want 4 (empty chunks still advance)", result.Processed)
	}
	if result.TotalRecords != 1 {
		t.Errorf("TotalRecords = %d, want 1", result.TotalRecords)
	}

	files, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("got %d chunk files, want 1 (empty chunks write nothing)", len(files))
	}
}

func TestScannerResume(t *testing.T) {
	proj := geo.NewConusAlbers()
	grid := raster.NewUniformGrid(4, 4, 1, testTransform(proj))
	dir := t.TempDir()

	// Simulate an interrupted run that finished two of four chunks.
	log := logger.NewNopLogger()
	checkpoints, err := checkpoint.NewManager(dir, 2012, log)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	cp, err := checkpoints.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := checkpoints.Advance(cp, 2); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	scanner, store, _ := newTestScanner(t, grid, dir, 2)

	result, err := scanner.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Skipped != 2 || result.Processed != 2 {
		t.Errorf("result = %+v, want 2 skipped 2 processed", result)
	}
	if result.TotalRecords != 8 {
		t.Errorf("TotalRecords = %d, want 8 (resumed chunks only)", result.TotalRecords)
	}

	// Resumed chunk numbering continues at 3: the interrupted run's
	// chunks are never re-emitted under different names.
	files, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d chunk files, want 2", len(files))
	}
	if files[0].Num != 3 || files[1].Num != 4 {
		t.Errorf("chunk numbers = %d, %d, want 3, 4", files[0].Num, files[1].Num)
	}
}

func TestScannerRerunAfterCompletion(t *testing.T) {
	proj := geo.NewConusAlbers()
	grid := raster.NewUniformGrid(4, 4, 1, testTransform(proj))
	dir := t.TempDir()

	first, _, _ := newTestScanner(t, grid, dir, 2)
	if _, err := first.Run(); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	second, store, _ := newTestScanner(t, grid, dir, 2)
	result, err := second.Run()
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	if result.Skipped != 4 || result.Processed != 0 || result.TotalRecords != 0 {
		t.Errorf("result = %+v, want everything skipped", result)
	}

	files, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 4 {
		t.Errorf("got %d chunk files after rerun, want 4 unchanged", len(files))
	}
}

func TestScannerProgressCallback(t *testing.T) {
	proj := geo.NewConusAlbers()
	grid := raster.NewUniformGrid(4, 4, 1, testTransform(proj))

	scanner, _, _ := newTestScanner(t, grid, t.TempDir(), 2)

	var calls int
	var lastDone, lastTotal, lastRecords int
	scanner.SetProgressFunc(func(done, total, records int) {
		calls++
		lastDone, lastTotal, lastRecords = done, total, records
	})

	if _, err := scanner.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if calls != 4 {
		t.Errorf("progress callback called %d times, want 4", calls)
	}
	if lastDone != 4 || lastTotal != 4 || lastRecords != 16 {
		t.Errorf("final progress = (%d, %d, %d), want (4, 4, 16)", lastDone, lastTotal, lastRecords)
	}
}

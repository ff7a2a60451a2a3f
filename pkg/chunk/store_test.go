package chunk

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "cdlextract/pkg/errors"
	"cdlextract/pkg/logger"
)

func testRecords(year, n int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			Year:      year,
			Code:      36,
			Longitude: -120.5 + float64(i)*0.001,
			Latitude:  37.2,
			Label:     "Alfalfa",
		}
	}
	return records
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), logger.NewNopLogger())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

func TestWriteAndRead(t *testing.T) {
	s := newTestStore(t)

	want := testRecords(2008, 5)
	if err := s.Write(want, 3); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	files, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 chunk file, got %d", len(files))
	}
	if files[0].Num != 3 {
		t.Errorf("expected chunk number 3, got %d", files[0].Num)
	}
	if files[0].Name() != "chunk_00003.csv.gz" {
		t.Errorf("unexpected file name %s", files[0].Name())
	}

	got, err := s.Read(files[0])
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestWriteEmptyChunkProducesNoFile(t *testing.T) {
	s := newTestStore(t)

	if err := s.Write(nil, 1); err != nil {
		t.Fatalf("Write of empty chunk failed: %v", err)
	}

	files, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files for empty chunk, got %d", len(files))
	}
}

func TestListSortedByChunkNumber(t *testing.T) {
	s := newTestStore(t)

	for _, n := range []int{12, 3, 101, 7} {
		if err := s.Write(testRecords(2008, 1), n); err != nil {
			t.Fatalf("Write(%d) failed: %v", n, err)
		}
	}

	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(s.Dir(), "progress.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []int{3, 7, 12, 101}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %d", len(want), len(files))
	}
	for i, f := range files {
		if f.Num != want[i] {
			t.Errorf("position %d: expected chunk %d, got %d", i, want[i], f.Num)
		}
	}
}

func TestProbeDetectsCorruption(t *testing.T) {
	s := newTestStore(t)

	if err := s.Write(testRecords(2008, 10), 1); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	files, _ := s.List()
	if err := s.Probe(files[0]); err != nil {
		t.Errorf("Probe of valid chunk failed: %v", err)
	}

	// Truncate mid-stream: gzip can no longer decompress.
	info, err := os.Stat(files[0].Path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Truncate(files[0].Path, info.Size()/2); err != nil {
		t.Fatal(err)
	}

	err = s.Probe(files[0])
	if err == nil {
		t.Fatal("expected Probe to fail on truncated chunk")
	}
	if apperrors.TypeOf(err) != apperrors.ErrorTypeChunkCorrupt {
		t.Errorf("expected chunk_corrupt error, got %s", apperrors.TypeOf(err))
	}
}

func TestProbeGarbageFile(t *testing.T) {
	s := newTestStore(t)

	path := filepath.Join(s.Dir(), "chunk_00009.csv.gz")
	if err := os.WriteFile(path, []byte("this is not gzip"), 0644); err != nil {
		t.Fatal(err)
	}

	files, _ := s.List()
	if len(files) != 1 {
		t.Fatalf("expected garbage file to be listed, got %d files", len(files))
	}
	if err := s.Probe(files[0]); err == nil {
		t.Error("expected Probe to fail on garbage file")
	}
	if _, err := s.Read(files[0]); err == nil {
		t.Error("expected Read to fail on garbage file")
	}
}

func TestQuarantine(t *testing.T) {
	s := newTestStore(t)

	if err := s.Write(testRecords(2008, 2), 1); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Write(testRecords(2008, 2), 2); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	files, _ := s.List()
	if err := s.Quarantine(files[0]); err != nil {
		t.Fatalf("Quarantine failed: %v", err)
	}

	// Quarantined file is out of the listing but preserved on disk.
	files, _ = s.List()
	if len(files) != 1 || files[0].Num != 2 {
		t.Errorf("expected only chunk 2 after quarantine, got %v", files)
	}
	moved := filepath.Join(s.Dir(), QuarantineDir, "chunk_00001.csv.gz")
	if _, err := os.Stat(moved); err != nil {
		t.Errorf("expected quarantined file at %s: %v", moved, err)
	}
}

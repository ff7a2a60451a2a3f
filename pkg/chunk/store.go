// Package chunk persists per-window extraction results as compressed
// tabular files. Chunk files are immutable once written; the merge phase
// either consumes them or moves them into a quarantine subdirectory.
package chunk

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	apperrors "cdlextract/pkg/errors"
	"cdlextract/pkg/logger"
)

// QuarantineDir is the subdirectory chunk files are moved to when they
// fail a readability probe.
const QuarantineDir = "corrupted"

const filePrefix = "chunk_"

var csvHeader = []string{"year", "crop_code", "longitude", "latitude", "crop_name"}

// File is a handle to one chunk file on disk.
type File struct {
	Path string
	Num  int
}

// Name returns the file's base name.
func (f File) Name() string {
	return filepath.Base(f.Path)
}

// Store reads and writes chunk files in one year's chunk directory
type Store struct {
	dir    string
	logger logger.Logger
}

// NewStore creates a chunk store rooted at dir, creating it if needed
func NewStore(dir string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chunk directory: %w", err)
	}
	return &Store{dir: dir, logger: log}, nil
}

// Dir returns the chunk directory path
func (s *Store) Dir() string {
	return s.dir
}

// path returns the deterministic file name for a chunk number. The
// zero-padded number keeps lexicographic order equal to scan order.
func (s *Store) path(chunkNum int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%05d.csv.gz", filePrefix, chunkNum))
}

// Write persists a chunk's records as a gzip-compressed CSV file. A chunk
// with zero records produces no file. The write is atomic: data goes to a
// temp file first, then renames into place.
func (s *Store) Write(records []Record, chunkNum int) error {
	if len(records) == 0 {
		return nil
	}

	target := s.path(chunkNum)
	tempPath := target + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary chunk file: %w", err)
	}

	gz := gzip.NewWriter(f)
	w := csv.NewWriter(gz)

	writeErr := w.Write(csvHeader)
	if writeErr == nil {
		for _, r := range records {
			row := []string{
				strconv.Itoa(r.Year),
				strconv.Itoa(r.Code),
				strconv.FormatFloat(r.Longitude, 'f', -1, 64),
				strconv.FormatFloat(r.Latitude, 'f', -1, 64),
				r.Label,
			}
			if writeErr = w.Write(row); writeErr != nil {
				break
			}
		}
	}
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}
	if writeErr == nil {
		writeErr = gz.Close()
	} else {
		gz.Close()
	}
	closeErr := f.Close()

	if writeErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write chunk data: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close chunk file: %w", closeErr)
	}

	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary chunk file: %w", err)
	}

	s.logger.InfoWithFields("Saved chunk", map[string]interface{}{
		"chunk":   chunkNum,
		"records": len(records),
	})

	return nil
}

// List returns all chunk files in the directory, sorted by chunk number
func (s *Store) List() ([]File, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk directory: %w", err)
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		num, ok := parseChunkName(name)
		if !ok {
			continue
		}
		files = append(files, File{Path: filepath.Join(s.dir, name), Num: num})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Num < files[j].Num })
	return files, nil
}

// parseChunkName extracts the chunk number from "chunk_NNNNN.csv.gz".
func parseChunkName(name string) (int, bool) {
	if len(name) <= len(filePrefix) || name[:len(filePrefix)] != filePrefix {
		return 0, false
	}
	rest := name[len(filePrefix):]
	const suffix = ".csv.gz"
	if len(rest) <= len(suffix) || rest[len(rest)-len(suffix):] != suffix {
		return 0, false
	}
	num, err := strconv.Atoi(rest[:len(rest)-len(suffix)])
	if err != nil {
		return 0, false
	}
	return num, true
}

// Probe attempts a minimal read of a chunk file: decompress and parse the
// header plus at most one data row. A failure marks the file corrupt.
func (s *Store) Probe(f File) error {
	file, err := os.Open(f.Path)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeChunkCorrupt, "opening chunk "+f.Name(), err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeChunkCorrupt, "decompressing chunk "+f.Name(), err)
	}
	defer gz.Close()

	r := csv.NewReader(gz)
	for i := 0; i < 2; i++ {
		if _, err := r.Read(); err != nil {
			if err == io.EOF {
				return nil
			}
			return apperrors.Wrap(apperrors.ErrorTypeChunkCorrupt, "probing chunk "+f.Name(), err)
		}
	}
	return nil
}

// Read parses the full contents of a chunk file
func (s *Store) Read(f File) ([]Record, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeChunkCorrupt, "opening chunk "+f.Name(), err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeChunkCorrupt, "decompressing chunk "+f.Name(), err)
	}
	defer gz.Close()

	r := csv.NewReader(gz)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeChunkCorrupt, "parsing chunk "+f.Name(), err)
	}
	if len(rows) == 0 {
		return nil, apperrors.New(apperrors.ErrorTypeChunkCorrupt, "chunk "+f.Name()+" has no header")
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrorTypeChunkCorrupt, "parsing chunk "+f.Name(), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (Record, error) {
	if len(row) != len(csvHeader) {
		return Record{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(row))
	}
	year, err := strconv.Atoi(row[0])
	if err != nil {
		return Record{}, fmt.Errorf("bad year %q: %w", row[0], err)
	}
	code, err := strconv.Atoi(row[1])
	if err != nil {
		return Record{}, fmt.Errorf("bad crop code %q: %w", row[1], err)
	}
	lon, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad longitude %q: %w", row[2], err)
	}
	lat, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad latitude %q: %w", row[3], err)
	}
	return Record{Year: year, Code: code, Longitude: lon, Latitude: lat, Label: row[4]}, nil
}

// Quarantine moves a chunk file into the quarantine subdirectory so it is
// excluded from the merge and from record accounting.
func (s *Store) Quarantine(f File) error {
	qdir := filepath.Join(s.dir, QuarantineDir)
	if err := os.MkdirAll(qdir, 0755); err != nil {
		return fmt.Errorf("failed to create quarantine directory: %w", err)
	}
	if err := os.Rename(f.Path, filepath.Join(qdir, f.Name())); err != nil {
		return fmt.Errorf("failed to quarantine chunk: %w", err)
	}

	s.logger.WarnWithFields("Quarantined chunk", map[string]interface{}{
		"chunk": f.Num,
		"file":  f.Name(),
	})
	return nil
}

package raster

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"cdlextract/pkg/geo"
)

// Flat binary grid file layout: a fixed header followed by row-major
// little-endian int32 cell values. The fixed layout makes windowed reads a
// matter of per-row ReadAt calls, so memory stays bounded by the window.
const (
	gridMagic      = "CDLG"
	gridVersion    = 1
	gridHeaderSize = 4 + 2 + 4 + 4 + 6*8
	cellSize       = 4
)

// FileSource reads windows from a grid file on disk.
type FileSource struct {
	f         *os.File
	height    int
	width     int
	transform geo.Affine
}

// Open opens a grid file and decodes its header.
func Open(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	src := &FileSource{f: f}
	if err := src.readHeader(); err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	want := int64(gridHeaderSize) + int64(src.height)*int64(src.width)*cellSize
	if info.Size() < want {
		f.Close()
		return nil, fmt.Errorf("decode %s: truncated grid, %d bytes, need %d", path, info.Size(), want)
	}

	return src, nil
}

func (s *FileSource) readHeader() error {
	header := make([]byte, gridHeaderSize)
	if _, err := s.f.ReadAt(header, 0); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if string(header[:4]) != gridMagic {
		return fmt.Errorf("bad magic %q", header[:4])
	}
	if v := binary.LittleEndian.Uint16(header[4:6]); v != gridVersion {
		return fmt.Errorf("unsupported grid version %d", v)
	}

	s.width = int(binary.LittleEndian.Uint32(header[6:10]))
	s.height = int(binary.LittleEndian.Uint32(header[10:14]))
	if s.width <= 0 || s.height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", s.height, s.width)
	}

	coef := make([]float64, 6)
	for i := range coef {
		bits := binary.LittleEndian.Uint64(header[14+i*8 : 22+i*8])
		coef[i] = math.Float64frombits(bits)
	}
	s.transform = geo.Affine{A: coef[0], B: coef[1], C: coef[2], D: coef[3], E: coef[4], F: coef[5]}
	return nil
}

func (s *FileSource) Height() int           { return s.height }
func (s *FileSource) Width() int            { return s.width }
func (s *FileSource) Transform() geo.Affine { return s.transform }

func (s *FileSource) ReadWindow(w Window) ([][]int32, error) {
	if err := checkWindow(w, s.height, s.width); err != nil {
		return nil, err
	}

	out := make([][]int32, w.Height)
	buf := make([]byte, w.Width*cellSize)
	for r := 0; r < w.Height; r++ {
		off := int64(gridHeaderSize) +
			(int64(w.RowOff+r)*int64(s.width)+int64(w.ColOff))*cellSize
		if _, err := s.f.ReadAt(buf, off); err != nil {
			return nil, fmt.Errorf("read row %d: %w", w.RowOff+r, err)
		}
		row := make([]int32, w.Width)
		for c := 0; c < w.Width; c++ {
			row[c] = int32(binary.LittleEndian.Uint32(buf[c*cellSize : (c+1)*cellSize]))
		}
		out[r] = row
	}
	return out, nil
}

func (s *FileSource) Close() error { return s.f.Close() }

// WriteFile writes a grid to path in the flat binary format. Used by tests
// and by tooling that prepares grids for the pipeline.
func WriteFile(path string, src Source) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)

	header := make([]byte, gridHeaderSize)
	copy(header[:4], gridMagic)
	binary.LittleEndian.PutUint16(header[4:6], gridVersion)
	binary.LittleEndian.PutUint32(header[6:10], uint32(src.Width()))
	binary.LittleEndian.PutUint32(header[10:14], uint32(src.Height()))
	tr := src.Transform()
	for i, v := range []float64{tr.A, tr.B, tr.C, tr.D, tr.E, tr.F} {
		binary.LittleEndian.PutUint64(header[14+i*8:22+i*8], math.Float64bits(v))
	}
	if _, err := bw.Write(header); err != nil {
		return err
	}

	rowBuf := make([]byte, src.Width()*cellSize)
	for r := 0; r < src.Height(); r++ {
		cells, err := src.ReadWindow(Window{RowOff: r, Height: 1, Width: src.Width()})
		if err != nil {
			return err
		}
		for c, v := range cells[0] {
			binary.LittleEndian.PutUint32(rowBuf[c*cellSize:(c+1)*cellSize], uint32(v))
		}
		if _, err := bw.Write(rowBuf); err != nil {
			return err
		}
	}

	return bw.Flush()
}

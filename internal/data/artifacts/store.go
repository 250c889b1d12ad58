// Package artifacts persists pipeline outputs and reads stored series
// documents through a pluggable filesystem.
package artifacts

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/timescope/featureset-api/internal/core"
	"github.com/timescope/featureset-api/internal/domain/features"
)

// Store reads and writes artifacts on an afero filesystem, so tests run
// against an in-memory fs and production runs against the OS (or any mounted
// volume) without code changes.
type Store struct {
	fs afero.Fs
}

var _ core.ArtifactStore = (*Store)(nil)

// NewStore creates a store over the given filesystem.
func NewStore(fs afero.Fs) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs}
}

// Fs exposes the underlying filesystem for seeding in tests.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// SaveMatrix writes the matrix as gzip-compressed CSV at uri. The leading
// columns are the series name and label; the rest follow the matrix's
// feature order. Parent directories are created as needed.
func (s *Store) SaveMatrix(ctx context.Context, uri string, matrix *features.FeatureMatrix) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if matrix == nil {
		return errors.New("matrix is required")
	}

	if dir := filepath.Dir(uri); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact directory: %w", err)
		}
	}

	f, err := s.fs.Create(uri)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}

	gz := gzip.NewWriter(f)
	w := csv.NewWriter(gz)

	writeErr := writeMatrix(w, matrix)
	w.Flush()
	if writeErr == nil {
		writeErr = w.Error()
	}
	if cerr := gz.Close(); writeErr == nil && cerr != nil {
		writeErr = fmt.Errorf("close gzip writer: %w", cerr)
	}
	if cerr := f.Close(); writeErr == nil && cerr != nil {
		writeErr = fmt.Errorf("close artifact: %w", cerr)
	}
	if writeErr != nil {
		// Half-written artifacts are worse than missing ones.
		_ = s.fs.Remove(uri)
		return writeErr
	}
	return nil
}

func writeMatrix(w *csv.Writer, matrix *features.FeatureMatrix) error {
	header := append([]string{"series", "label"}, matrix.FeatureNames...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write artifact header: %w", err)
	}

	for i, row := range matrix.Rows {
		record := make([]string, 0, len(row)+2)
		record = append(record, matrix.SeriesNames[i], matrix.Labels[i])
		for _, v := range row {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write artifact row %d: %w", i, err)
		}
	}
	return nil
}

// LoadMatrix reads a matrix previously written by SaveMatrix.
func (s *Store) LoadMatrix(ctx context.Context, uri string) (*features.FeatureMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.fs.Open(uri)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	defer func() {
		_ = gz.Close()
	}()

	return readMatrix(csv.NewReader(gz))
}

func readMatrix(r *csv.Reader) (*features.FeatureMatrix, error) {
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read artifact header: %w", err)
	}
	if len(header) < 2 {
		return nil, errors.New("artifact header is malformed")
	}

	m := &features.FeatureMatrix{
		FeatureNames: append([]string(nil), header[2:]...),
	}
	for {
		record, readErr := r.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read artifact row: %w", readErr)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("artifact row has %d columns, want %d", len(record), len(header))
		}

		row := make([]float64, len(record)-2)
		for i, cell := range record[2:] {
			v, parseErr := strconv.ParseFloat(cell, 64)
			if parseErr != nil {
				return nil, fmt.Errorf("parse artifact cell: %w", parseErr)
			}
			row[i] = v
		}
		m.SeriesNames = append(m.SeriesNames, record[0])
		m.Labels = append(m.Labels, record[1])
		m.Rows = append(m.Rows, row)
	}
	return m, nil
}

// ReadSeries returns the raw bytes of a stored series document.
func (s *Store) ReadSeries(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, uri)
	if err != nil {
		return nil, fmt.Errorf("read series %s: %w", uri, err)
	}
	return data, nil
}

// Remove deletes an artifact. Missing files are not an error.
func (s *Store) Remove(ctx context.Context, uri string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.Remove(uri); err != nil {
		if exists, _ := afero.Exists(s.fs, uri); !exists {
			return nil
		}
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

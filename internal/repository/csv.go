package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/UnknownOlympus/geobiz/internal/models"
)

// CSVRepository stores records as rows of a comma-separated file at a fixed path.
// New rows are appended; existing rows are never rewritten.
type CSVRepository struct {
	path string
	log  *slog.Logger
	mu   sync.Mutex
}

// NewCSVRepository creates a record store backed by the file at path.
// The file is created on the first append.
func NewCSVRepository(path string, log *slog.Logger) *CSVRepository {
	return &CSVRepository{path: path, log: log}
}

// Path returns the location of the backing file.
func (r *CSVRepository) Path() string {
	return r.path
}

// Append writes one row to the end of the file, writing the header first when the file is new or empty.
func (r *CSVRepository) Append(ctx context.Context, record models.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat data file: %w", err)
	}

	writer := csv.NewWriter(file)
	if info.Size() == 0 {
		if err = writer.Write(Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err = writer.Write(recordRow(record)); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	writer.Flush()
	if err = writer.Error(); err != nil {
		return fmt.Errorf("failed to flush data file: %w", err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close data file: %w", err)
	}

	r.log.DebugContext(ctx, "Record appended", "file", r.path, "business", record.BusinessName)

	return nil
}

// List returns every stored record in file order. A missing file means no records.
func (r *CSVRepository) List(ctx context.Context) ([]models.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var records []models.Record
	for line := 1; ; line++ {
		row, errRead := reader.Read()
		if errors.Is(errRead, io.EOF) {
			break
		}
		if errRead != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, errRead)
		}
		if line == 1 {
			continue
		}

		record, errParse := parseRow(row)
		if errParse != nil {
			return nil, fmt.Errorf("failed to parse row %d: %w", line, errParse)
		}
		records = append(records, record)
	}

	r.log.DebugContext(ctx, "Records loaded", "file", r.path, "count", len(records))

	return records, nil
}

// Export returns the file's bytes exactly as stored.
func (r *CSVRepository) Export(_ context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRecords
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	return data, nil
}

// Purge deletes the backing file together with every record in it.
func (r *CSVRepository) Purge(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove data file: %w", err)
	}

	r.log.InfoContext(ctx, "Data file removed", "file", r.path)

	return nil
}

// Ping checks that the directory holding the data file is reachable.
func (r *CSVRepository) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(r.path))
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory unavailable: %s is not a directory", filepath.Dir(r.path))
	}

	return nil
}

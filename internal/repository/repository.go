package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"github.com/UnknownOlympus/geobiz/internal/models"
)

// Header is the first row of every serialized record table.
var Header = []string{"Nama Usaha", "Nama Jalan", "Kecamatan", "Latitude", "Longitude"}

// ErrNoRecords is returned by Export when nothing has been stored yet.
var ErrNoRecords = errors.New("no records stored")

// Interface is the append-only record store behind the intake form.
type Interface interface {
	Append(ctx context.Context, record models.Record) error
	List(ctx context.Context) ([]models.Record, error)
	Export(ctx context.Context) ([]byte, error)
	Purge(ctx context.Context) error
	Ping(ctx context.Context) error
}

// EncodeCSV serializes records with the header row, in the same layout the csv store writes.
func EncodeCSV(records []models.Record) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(recordRow(record)); err != nil {
			return nil, fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	return buf.Bytes(), nil
}

func recordRow(record models.Record) []string {
	return []string{
		record.BusinessName,
		record.Street,
		record.District,
		strconv.FormatFloat(record.Latitude, 'f', -1, 64),
		strconv.FormatFloat(record.Longitude, 'f', -1, 64),
	}
}

func parseRow(row []string) (models.Record, error) {
	if len(row) != len(Header) {
		return models.Record{}, fmt.Errorf("expected %d columns, got %d", len(Header), len(row))
	}

	lat, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return models.Record{}, fmt.Errorf("invalid latitude %q: %w", row[3], err)
	}
	lon, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return models.Record{}, fmt.Errorf("invalid longitude %q: %w", row[4], err)
	}

	return models.Record{
		BusinessName: row[0],
		Street:       row[1],
		District:     row[2],
		Latitude:     lat,
		Longitude:    lon,
	}, nil
}

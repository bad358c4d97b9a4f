package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/geobiz/internal/export"
	"github.com/UnknownOlympus/geobiz/internal/geocoding"
	"github.com/UnknownOlympus/geobiz/internal/metrics"
	"github.com/UnknownOlympus/geobiz/internal/models"
	"github.com/UnknownOlympus/geobiz/internal/repository"
)

// ErrIncompleteRecord is returned by Save when the business name is empty
// or the coordinates were never captured.
var ErrIncompleteRecord = errors.New("business name and coordinates are required")

// IntakeService implements the business location intake flow:
// locate a point, let the user adjust the address and append the record to the store.
type IntakeService struct {
	log          *slog.Logger         // Logger for logging service activities
	repo         repository.Interface // Record store
	provider     geocoding.Provider   // Reverse geocoding provider
	providerName string               // Name of the provider for metrics labeling
	metrics      *metrics.Metrics     // Metrics for tracking service performance
}

// NewIntakeService creates a new instance of IntakeService.
func NewIntakeService(
	log *slog.Logger,
	repo repository.Interface,
	provider geocoding.Provider,
	providerName string,
	metrics *metrics.Metrics,
) *IntakeService {
	return &IntakeService{
		log:          log,
		repo:         repo,
		provider:     provider,
		providerName: providerName,
		metrics:      metrics,
	}
}

// Locate reverse-geocodes the coordinates. Any provider failure is logged and
// collapses to an empty address, so the form can still be filled in by hand.
func (s *IntakeService) Locate(ctx context.Context, coords models.Coordinates) models.Address {
	startTime := time.Now()
	address, err := s.provider.Reverse(ctx, coords)
	s.metrics.RequestSeconds.WithLabelValues(s.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		s.metrics.APIErrors.Inc()
		s.log.WarnContext(ctx, "Reverse geocoding failed, leaving address empty",
			"lat", coords.Latitude, "lon", coords.Longitude, "error", err)
		return models.Address{}
	}
	if address == nil {
		return models.Address{}
	}

	s.log.DebugContext(ctx, "Coordinates located",
		"lat", coords.Latitude, "lon", coords.Longitude, "street", address.Street, "district", address.District)

	return *address
}

// Save appends the record once the business name is set and the latitude is non-zero.
// Incomplete records are rejected with ErrIncompleteRecord and nothing is written.
func (s *IntakeService) Save(ctx context.Context, record models.Record) error {
	record.BusinessName = strings.TrimSpace(record.BusinessName)
	record.Street = strings.TrimSpace(record.Street)
	record.District = strings.TrimSpace(record.District)

	if record.BusinessName == "" || !record.Coordinates().Captured() {
		s.metrics.RecordsSaved.WithLabelValues("rejected").Inc()
		s.log.DebugContext(ctx, "Incomplete record rejected",
			"business", record.BusinessName, "lat", record.Latitude)
		return ErrIncompleteRecord
	}

	if err := s.repo.Append(ctx, record); err != nil {
		s.metrics.RecordsSaved.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to save record: %w", err)
	}

	s.metrics.RecordsSaved.WithLabelValues("success").Inc()
	s.log.InfoContext(ctx, "Record saved", "business", record.BusinessName)

	return nil
}

// Preview returns every stored record.
func (s *IntakeService) Preview(ctx context.Context) ([]models.Record, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	return records, nil
}

// Purge deletes all stored records.
func (s *IntakeService) Purge(ctx context.Context) error {
	if err := s.repo.Purge(ctx); err != nil {
		return fmt.Errorf("failed to purge records: %w", err)
	}

	s.log.InfoContext(ctx, "All records purged")

	return nil
}

// Export returns the store serialized as CSV.
func (s *IntakeService) Export(ctx context.Context) ([]byte, error) {
	return s.repo.Export(ctx)
}

// ExportWorkbook returns the stored records as an XLSX workbook.
func (s *IntakeService) ExportWorkbook(ctx context.Context) ([]byte, error) {
	records, err := s.Preview(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, repository.ErrNoRecords
	}

	return export.Workbook(records)
}

// Ping reports whether the record store is reachable.
func (s *IntakeService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/geobiz/internal/config"
	"github.com/UnknownOlympus/geobiz/internal/geocoding"
	"github.com/UnknownOlympus/geobiz/internal/metrics"
	"github.com/UnknownOlympus/geobiz/internal/repository"
	"github.com/UnknownOlympus/geobiz/internal/service"
)

// Supported record stores.
const (
	storeCSV      = "csv"
	storePostgres = "postgres"
)

// openStore builds the record store selected by the configuration.
// The returned closer releases its resources and is never nil.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Interface, func(), error) {
	switch cfg.StoreType {
	case storeCSV:
		log.InfoContext(ctx, "Using csv store", "file", cfg.DataFile)
		return repository.NewCSVRepository(cfg.DataFile, log), func() {}, nil
	case storePostgres:
		dtb, err := repository.NewDatabase(
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to DB: %w", err)
		}

		repo := repository.NewPostgresRepository(dtb, log)
		if err = repo.EnsureSchema(ctx); err != nil {
			dtb.Close()
			return nil, nil, err
		}

		log.InfoContext(ctx, "Using postgres store", "host", cfg.Database.Host, "db", cfg.Database.Name)
		return repo, dtb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store type: %s", cfg.StoreType)
	}
}

// newIntakeService creates the geocoding provider and wires it with the store.
func newIntakeService(
	cfg *config.Config,
	log *slog.Logger,
	repo repository.Interface,
	appMetrics *metrics.Metrics,
) (*service.IntakeService, error) {
	geoProvider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.Geocoder.ProviderType),
		APIKey:    cfg.Geocoder.APIKey,
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
		Timeout:   cfg.Geocoder.Timeout,
		RateLimit: cfg.Geocoder.RateLimit,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoding provider: %w", err)
	}

	return service.NewIntakeService(log, repo, geoProvider, cfg.Geocoder.ProviderType, appMetrics), nil
}

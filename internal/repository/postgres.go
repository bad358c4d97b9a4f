package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/geobiz/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of pgxpool.Pool the postgres store needs.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// PostgresRepository keeps records in the business_locations table.
type PostgresRepository struct {
	db  Database
	log *slog.Logger
}

// NewPostgresRepository creates a new instance of PostgresRepository with the provided Database.
func NewPostgresRepository(db Database, log *slog.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, log: log}
}

// EnsureSchema creates the business_locations table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS business_locations (
			id BIGSERIAL PRIMARY KEY,
			business_name TEXT NOT NULL,
			street TEXT NOT NULL DEFAULT '',
			district TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create business_locations table: %w", err)
	}

	return nil
}

// Append inserts a single record.
func (r *PostgresRepository) Append(ctx context.Context, record models.Record) error {
	query := `
		INSERT INTO business_locations (business_name, street, district, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5);
	`

	_, err := r.db.Exec(ctx, query,
		record.BusinessName, record.Street, record.District, record.Latitude, record.Longitude)
	if err != nil {
		return fmt.Errorf("failed to insert business location: %w", err)
	}

	r.log.DebugContext(ctx, "Record inserted", "business", record.BusinessName)

	return nil
}

// List retrieves all records in insertion order.
//
// Returns:
// - A slice of models.Record, nil when the table is empty.
// - An error if the query fails or if there is an issue scanning the results.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Record, error) {
	query := `
		SELECT business_name, street, district, latitude, longitude
		FROM business_locations
		ORDER BY id ASC;
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query business locations: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var record models.Record
		if errScan := rows.Scan(
			&record.BusinessName,
			&record.Street,
			&record.District,
			&record.Latitude,
			&record.Longitude,
		); errScan != nil {
			return nil, fmt.Errorf("failed to scan business location: %w", errScan)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return records, nil
}

// Export serializes the table with the same header and layout as the csv store.
func (r *PostgresRepository) Export(ctx context.Context) ([]byte, error) {
	records, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	return EncodeCSV(records)
}

// Purge deletes every record.
func (r *PostgresRepository) Purge(ctx context.Context) error {
	query := `DELETE FROM business_locations;`

	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to delete business locations: %w", err)
	}

	r.log.InfoContext(ctx, "Business locations deleted", "rows", tag.RowsAffected())

	return nil
}

// Ping checks the database connection.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/UnknownOlympus/geobiz/internal/config"
	"github.com/UnknownOlympus/geobiz/internal/export"
	"github.com/UnknownOlympus/geobiz/internal/repository"
	"github.com/spf13/cobra"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all stored records to a file",
	RunE:  runExport,
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all stored records",
	RunE:  runPurge,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", formatCSV, "Export format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "Output file, - for stdout")
}

// exporter produces the csv and xlsx downloads.
type exporter interface {
	Export(ctx context.Context) ([]byte, error)
	ExportWorkbook(ctx context.Context) ([]byte, error)
}

// storeExporter reads straight from the store. The offline commands never geocode,
// so they do not need a provider or its credentials.
type storeExporter struct {
	repo repository.Interface
}

func (s storeExporter) Export(ctx context.Context) ([]byte, error) {
	return s.repo.Export(ctx)
}

func (s storeExporter) ExportWorkbook(ctx context.Context) ([]byte, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	if len(records) == 0 {
		return nil, repository.ErrNoRecords
	}

	return export.Workbook(records)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	repo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	source := storeExporter{repo: repo}

	if exportOutput == "-" {
		return writeExport(ctx, source, exportFormat, cmd.OutOrStdout())
	}

	file, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err = writeExport(ctx, source, exportFormat, file); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Records exported", "file", exportOutput, "format", exportFormat)

	return file.Close()
}

func writeExport(ctx context.Context, svc exporter, format string, w io.Writer) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case formatCSV:
		data, err = svc.Export(ctx)
	case formatXLSX:
		data, err = svc.ExportWorkbook(ctx)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}

	if errors.Is(err, repository.ErrNoRecords) {
		return errors.New("no records to export")
	}
	if err != nil {
		return err
	}

	if _, err = w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	return nil
}

func runPurge(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	repo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if err = repo.Purge(ctx); err != nil {
		return fmt.Errorf("failed to purge records: %w", err)
	}
	logger.InfoContext(ctx, "Records purged")

	fmt.Fprintln(cmd.OutOrStdout(), "All records deleted.")

	return nil
}

package export

import (
	"fmt"

	"github.com/UnknownOlympus/geobiz/internal/models"
	"github.com/UnknownOlympus/geobiz/internal/repository"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the records are written to.
const SheetName = "Data Usaha"

// Workbook renders records into an XLSX workbook with the same header as the CSV file.
func Workbook(records []models.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(SheetName); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]interface{}, len(repository.Header))
	for i, name := range repository.Header {
		header[i] = name
	}
	if err = sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range records {
		cell, errCell := excelize.CoordinatesToCellName(1, i+2)
		if errCell != nil {
			return nil, fmt.Errorf("failed to resolve cell for row %d: %w", i+2, errCell)
		}
		row := []interface{}{r.BusinessName, r.Street, r.District, r.Latitude, r.Longitude}
		if err = sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err = sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush sheet: %w", err)
	}

	if err = f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	if index, errIdx := f.GetSheetIndex(SheetName); errIdx == nil {
		f.SetActiveSheet(index)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}

	return buf.Bytes(), nil
}

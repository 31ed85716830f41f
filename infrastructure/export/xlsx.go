// Package export renders dashboard data into downloadable documents.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"energy-dashboard/application/views"
)

const (
	// DataLogSheet is the worksheet holding the data log
	DataLogSheet = "Data Log"

	// ContentTypeXLSX is the MIME type of the workbook
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DataLogFilename names the workbook after the export day
func DataLogFilename(day time.Time) string {
	return fmt.Sprintf("energy_data_log_%s.xlsx", day.UTC().Format("2006-01-02"))
}

// DataLogWorkbook writes points as a single-sheet workbook: a bold header
// row followed by one row per point.
func DataLogWorkbook(points []views.TimeSeriesPoint) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DataLogSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, 0, len(views.DataLogColumns))
	for _, col := range views.DataLogColumns {
		header = append(header, col)
	}
	if err := f.SetSheetRow(DataLogSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(DataLogSheet, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range views.DataLogRows(points) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(DataLogSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(views.DataLogColumns))
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(DataLogSheet, "A", "A", 26); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(DataLogSheet, "B", lastCol, 20); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// =============================================================================
// Retail ETL - XLSX Source Parser
// =============================================================================
//
// This module reads a retail export saved as an Excel workbook. The layout
// is the same as the CSV export:
//
//   | Row ID | Order ID       | Order Date | ... | Product ID      | Sales  |
//   |--------|----------------|------------|-----|-----------------|--------|
//   | 1      | CA-2017-152156 | 43047      | ... | FUR-BO-10001798 | 261.96 |
//
// RAW VALUES:
//   Cells are read raw (RawCellValue), so numbers are not re-rendered with the
//   workbook's display format and date cells arrive as Excel serial numbers.
//   The temporal validator understands serials when the source is a workbook.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
)

// =============================================================================
// SHEET DATA STRUCTURE
// =============================================================================

// SheetData represents the parsed worksheet.
type SheetData struct {
	// SourceFile is the path to the workbook.
	SourceFile string

	// Sheet is the name of the worksheet that was read.
	Sheet string

	// Headers contains the trimmed column headers of the first row.
	Headers []string

	// Records contains one RawRecord per non-empty data row, in sheet order.
	Records []types.RawRecord
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the configured worksheet of an XLSX file.
//
// PARAMETERS:
//   - path: The path to the workbook.
//   - settings: settings.Sheet selects the worksheet; empty means the first.
//
// RETURNS:
//   - The parsed sheet, rows in order.
//   - An *types.IngestionError if the workbook cannot be opened or is malformed.
func Parse(path string, settings config.SourceSettings) (*SheetData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &types.IngestionError{Path: path, Err: fmt.Errorf("failed to open workbook: %w", err)}
	}
	defer f.Close()

	data, err := parseFile(f, settings.Sheet)
	if err != nil {
		return nil, &types.IngestionError{Path: path, Err: err}
	}
	data.SourceFile = path
	return data, nil
}

// parseFile extracts records from an already opened workbook.
func parseFile(f *excelize.File, sheet string) (*SheetData, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	headers, err := cleanHeaders(rows[0])
	if err != nil {
		return nil, err
	}

	data := &SheetData{Sheet: sheet, Headers: headers}

	for i := 1; i < len(rows); i++ {
		row := rows[i]

		// Skip empty rows.
		if isRowEmpty(row) {
			continue
		}

		// GetRows drops trailing empty cells, so short rows are padded;
		// cells beyond the header are a malformed sheet.
		if len(row) > len(headers) && !isRowEmpty(row[len(headers):]) {
			return nil, fmt.Errorf("row %d has %d columns, header has %d", i+1, len(row), len(headers))
		}

		fields := make(map[string]string, len(headers))
		for col, h := range headers {
			if col < len(row) {
				fields[h] = strings.TrimSpace(row[col])
			} else {
				fields[h] = ""
			}
		}
		data.Records = append(data.Records, types.RawRecord{Row: i + 1, Fields: fields})
	}

	return data, nil
}

// cleanHeaders trims header names and rejects duplicates.
func cleanHeaders(headers []string) ([]string, error) {
	// Trailing empty header cells are not columns.
	for len(headers) > 0 && strings.TrimSpace(headers[len(headers)-1]) == "" {
		headers = headers[:len(headers)-1]
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("header row is empty")
	}

	cleaned := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		if seen[h] {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		seen[h] = true
		cleaned[i] = h
	}
	return cleaned, nil
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// Retail ETL - Monthly Sales Workbook Writer
// =============================================================================
//
// This module exports stored sales as an Excel workbook for the monthly
// report ("laporan penjualan"). The layout matches the dashboard backend's
// download:
//
//   Sheet "Penjualan Bulanan"
//   | Order ID       | Tanggal    | Produk    | Sales (Rp) | Profit (Rp) |
//   |----------------|------------|-----------|------------|-------------|
//   | CA-2017-152156 | 08/11/2017 | Furniture | 261.96     | 41.91       |
//
// Rows are written in the order given; the store returns them newest first.
// The header row is bold and frozen.
//
// =============================================================================

package xlsxwriter

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
	"github.com/ghazalyy/RetailAnalyticsApp/pkg/utils"
)

// DefaultFileName is the report file name used by the dashboard backend.
const DefaultFileName = "laporan_penjualan.xlsx"

// =============================================================================
// GENERATION OPTIONS
// =============================================================================

// Column is one report column.
type Column struct {
	Header string
	Width  float64
}

// GenerateOptions contains options for workbook generation.
type GenerateOptions struct {
	// SheetName is the worksheet name.
	// Default: "Penjualan Bulanan"
	SheetName string

	// DateFormat is the Excel number format of the date column.
	// Default: "dd/mm/yyyy"
	DateFormat string

	// Columns holds the header and width of the five report columns:
	// order id, date, category, sales, profit.
	Columns [5]Column
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		SheetName:  "Penjualan Bulanan",
		DateFormat: "dd/mm/yyyy",
		Columns: [5]Column{
			{Header: "Order ID", Width: 20},
			{Header: "Tanggal", Width: 15},
			{Header: "Produk", Width: 20},
			{Header: "Sales (Rp)", Width: 15},
			{Header: "Profit (Rp)", Width: 15},
		},
	}
}

// =============================================================================
// WORKBOOK GENERATION
// =============================================================================

// Generate builds the report workbook. The caller must Close the file.
func Generate(sales []types.Sale, options GenerateOptions) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := build(f, sales, options); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func build(f *excelize.File, sales []types.Sale, options GenerateOptions) error {
	sheet := options.SheetName
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	dateFormat := options.DateFormat
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return err
	}
	// 4 is the built-in "#,##0.00" format.
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	// Widths and panes must be set before the first row.
	for i, col := range options.Columns {
		if err := sw.SetColWidth(i+1, i+1, col.Width); err != nil {
			return err
		}
	}
	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	header := make([]any, len(options.Columns))
	for i, col := range options.Columns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: col.Header}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, s := range sales {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			s.OrderID,
			excelize.Cell{StyleID: dateStyle, Value: s.OrderDate},
			s.Category,
			excelize.Cell{StyleID: moneyStyle, Value: s.Sales.InexactFloat64()},
			excelize.Cell{StyleID: moneyStyle, Value: s.Profit.InexactFloat64()},
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	return sw.Flush()
}

// Write generates the report and writes it to w.
func Write(w io.Writer, sales []types.Sale, options GenerateOptions) error {
	f, err := Generate(sales, options)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteFile generates the report and saves it to path atomically.
func WriteFile(path string, sales []types.Sale, options GenerateOptions) error {
	var buf bytes.Buffer
	if err := Write(&buf, sales, options); err != nil {
		return err
	}
	return utils.AtomicWriteFile(path, buf.Bytes(), 0o644)
}

// =============================================================================
// REPORT PERIOD
// =============================================================================

// MonthBounds returns [first day of month, first day of next month) for a
// "YYYY-MM" value, in loc.
func MonthBounds(month string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q, want YYYY-MM", month)
	}
	return start, start.AddDate(0, 1, 0), nil
}

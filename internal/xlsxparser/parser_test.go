package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
)

// writeWorkbook saves rows to a new workbook on the given sheet.
func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "orders.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParse_ReadsFirstSheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{" Order ID ", "Order Date", "Product ID", "Sales"},
		{"O1", "01/02/2021", "P1", 100.5},
		{},
		{"O2", "03/02/2021", "P2", 20},
	})

	data, err := Parse(path, config.SourceSettings{})
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", data.Sheet)
	assert.Equal(t, []string{"Order ID", "Order Date", "Product ID", "Sales"}, data.Headers)
	require.Len(t, data.Records, 2)
	assert.Equal(t, "O1", data.Records[0].Fields["Order ID"])
	assert.Equal(t, "100.5", data.Records[0].Fields["Sales"])
	assert.Equal(t, 2, data.Records[0].Row)
	assert.Equal(t, 4, data.Records[1].Row)
}

func TestParse_NamedSheetAndPadding(t *testing.T) {
	path := writeWorkbook(t, "Orders", [][]any{
		{"Order ID", "Segment", "Sales"},
		{"O1", "Consumer"},
	})

	data, err := Parse(path, config.SourceSettings{Sheet: "Orders"})
	require.NoError(t, err)
	require.Len(t, data.Records, 1)
	assert.Equal(t, "", data.Records[0].Fields["Sales"])

	_, err = Parse(path, config.SourceSettings{Sheet: "Missing"})
	var ierr *types.IngestionError
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, err.Error(), "not found")
}

func TestParse_RowWiderThanHeader(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"Order ID", "Sales"},
		{"O1", 1, "surplus"},
	})

	_, err := Parse(path, config.SourceSettings{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header has 2")
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "none.xlsx"), config.SourceSettings{})
	var ierr *types.IngestionError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, types.PhaseIngest, types.Phase(err))
}

package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/csvparser"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/xlsxparser"
)

// Source is the tabular input of a run, independent of the file format.
type Source struct {
	Path    string
	Headers []string
	Records []types.RawRecord

	// Workbook is true for XLSX sources. Workbook cells are read raw, so
	// order dates may arrive as Excel serial numbers.
	Workbook bool
}

// ReadSource reads settings.Path with the parser matching its extension.
func ReadSource(settings config.SourceSettings) (*Source, error) {
	switch ext := strings.ToLower(filepath.Ext(settings.Path)); ext {
	case ".csv", ".tsv", ".txt":
		if ext == ".tsv" && settings.Delimiter == "," {
			settings.Delimiter = "tab"
		}
		data, err := csvparser.Parse(settings.Path, settings)
		if err != nil {
			return nil, err
		}
		return &Source{Path: data.SourceFile, Headers: data.Headers, Records: data.Records}, nil

	case ".xlsx", ".xlsm":
		data, err := xlsxparser.Parse(settings.Path, settings)
		if err != nil {
			return nil, err
		}
		return &Source{Path: data.SourceFile, Headers: data.Headers, Records: data.Records, Workbook: true}, nil

	default:
		return nil, &types.IngestionError{
			Path: settings.Path,
			Err:  fmt.Errorf("unsupported file type %q, want .csv, .tsv, .txt, .xlsx or .xlsm", ext),
		}
	}
}

// =============================================================================
// Retail ETL - CSV Parser Module
// =============================================================================
//
// This module reads a delimited retail export into RawRecords. It handles:
//   - Different delimiters (comma, semicolon, pipe, tab)
//   - Different encodings (UTF-8 with or without BOM, ISO-8859-1, Windows-1252)
//   - Quoted fields
//
// STRICTNESS:
//   Unlike a lenient reader, every data row must have exactly as many
//   columns as the header and quotes must be well formed. A file that
//   violates either rule is malformed and the whole batch is rejected with
//   an IngestionError; there is no partial processing.
//
// =============================================================================

package csvparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
)

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents the parsed CSV file.
type CSVData struct {
	// Headers contains the trimmed column headers in source order.
	Headers []string

	// Records contains one RawRecord per non-empty data row, in source order.
	Records []types.RawRecord

	// SourceFile is the path to the source CSV file.
	SourceFile string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the parsed data.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and encoding of the source.
//
// RETURNS:
//   - The parsed data, rows in source order.
//   - An *types.IngestionError if the file is missing, unreadable or malformed.
func Parse(filePath string, settings config.SourceSettings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, &types.IngestionError{Path: filePath, Err: err}
	}
	defer file.Close()

	data, err := ParseReader(file, settings)
	if err != nil {
		return nil, &types.IngestionError{Path: filePath, Err: err}
	}
	data.SourceFile = filePath
	return data, nil
}

// ParseReader parses CSV content from r. Errors are returned unwrapped so
// that Parse can attach the file path.
func ParseReader(r io.Reader, settings config.SourceSettings) (*CSVData, error) {
	enc, err := decoderFor(settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(transform.NewReader(r, enc.NewDecoder()))
	if err := configureReader(csvReader, settings); err != nil {
		return nil, err
	}

	// Read the header row.
	header, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	headers, err := cleanHeaders(header)
	if err != nil {
		return nil, err
	}

	data := &CSVData{Headers: headers}

	// Read data rows one at a time so errors carry the row number.
	for {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed CSV: %w", err)
		}

		if isRowEmpty(row) {
			continue
		}

		line, _ := csvReader.FieldPos(0)
		fields := make(map[string]string, len(headers))
		for i, h := range headers {
			fields[h] = strings.TrimSpace(row[i])
		}
		data.Records = append(data.Records, types.RawRecord{Row: line, Fields: fields})
	}

	return data, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.SourceSettings) error {
	switch settings.Delimiter {
	case "", ",":
		reader.Comma = ','
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		runes := []rune(settings.Delimiter)
		if len(runes) != 1 {
			return fmt.Errorf("unsupported delimiter %q", settings.Delimiter)
		}
		reader.Comma = runes[0]
	}

	// Every row must match the header's column count.
	reader.FieldsPerRecord = 0
	reader.LazyQuotes = false
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false
	return nil
}

// decoderFor maps an encoding name to a text decoder.
func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "UTF-8", "UTF8":
		// Strips a leading byte order mark, which spreadsheet exports add.
		return unicode.UTF8BOM, nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// cleanHeaders trims header names and rejects duplicates.
//
// Empty headers are named Column_<n> so the row map stays addressable; they
// never match the canonical mapping and are dropped by the normalizer.
func cleanHeaders(headers []string) ([]string, error) {
	cleaned := make([]string, len(headers))
	seen := make(map[string]int, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		if prev, dup := seen[header]; dup {
			return nil, fmt.Errorf("duplicate column %q at positions %d and %d", header, prev+1, i+1)
		}
		seen[header] = i
		cleaned[i] = header
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

// =============================================================================
// Retail ETL - Temporal Validator
// =============================================================================
//
// This module parses the order date of every normalized record and drops
// the records whose date cannot be parsed.
//
// DATE INTERPRETATION:
//   Dates are day-first: "08/11/2017" is 8 November 2017. Ambiguous values
//   are never read month-first. Accepted forms:
//     - 02/01/2006, 2/1/2006, 02-01-2006, 2-1-2006, 02.01.2006, 02/01/06
//     - any of the above followed by " 15:04" or " 15:04:05"
//     - ISO 2006-01-02, 2006-01-02 15:04:05 and RFC 3339
//   Workbook sources may additionally carry Excel serial day numbers.
//
// ERROR HANDLING:
//   - A bad date drops the row and records a Rejection; it is not an error.
//   - If no row survives, validation fails with a DataQualityError.
//
// =============================================================================

package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
)

// Rejection reasons.
const (
	ReasonEmptyDate   = "empty order date"
	ReasonInvalidDate = "unparseable order date"
)

// dayFirstLayouts are tried in order; four-digit years come first so that
// "02/01/06" never captures a four-digit year.
var dayFirstLayouts = buildLayouts()

func buildLayouts() []string {
	dates := []string{
		"02/01/2006", "2/1/2006",
		"02-01-2006", "2-1-2006",
		"02.01.2006", "2.1.2006",
		"02/01/06", "2/1/06",
	}
	var layouts []string
	for _, suffix := range []string{"", " 15:04", " 15:04:05"} {
		for _, d := range dates {
			layouts = append(layouts, d+suffix)
		}
	}
	return append(layouts,
		"2006-01-02",
		"2006-01-02 15:04:05",
		time.RFC3339,
	)
}

// ParseOrderDate parses a day-first date string.
func ParseOrderDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q does not match any day-first layout", s)
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Options configures a Validator.
type Options struct {
	// AcceptExcelSerials treats purely numeric values as Excel serial dates.
	// Only meaningful for workbook sources read with raw cell values.
	AcceptExcelSerials bool
}

// Validator parses order dates and partitions records into kept and dropped.
type Validator struct {
	options Options
}

// NewValidator creates a Validator with the given options.
func NewValidator(options Options) *Validator {
	return &Validator{options: options}
}

// Validate validates records with default options.
func Validate(records []types.Record) (*types.Batch, error) {
	return NewValidator(Options{}).Validate(records)
}

// Validate parses every record's order date.
//
// PARAMETERS:
//   - records: Normalized (and synthesized) records in source order.
//
// RETURNS:
//   - A Batch with the surviving records in order and one Rejection per
//     dropped record.
//   - A *types.DataQualityError if nothing survives (including empty input).
func (v *Validator) Validate(records []types.Record) (*types.Batch, error) {
	batch := &types.Batch{Records: make([]types.Record, 0, len(records))}

	for _, rec := range records {
		t, err := v.parse(rec.RawOrderDate)
		if err != nil {
			reason := ReasonInvalidDate
			if strings.TrimSpace(rec.RawOrderDate) == "" {
				reason = ReasonEmptyDate
			}
			batch.Dropped = append(batch.Dropped, types.Rejection{
				Row:     rec.Row,
				OrderID: rec.OrderID,
				Value:   rec.RawOrderDate,
				Reason:  reason,
			})
			continue
		}
		rec.OrderDate = t
		batch.Records = append(batch.Records, rec)
	}

	if len(batch.Records) == 0 {
		return nil, &types.DataQualityError{
			Total:      len(records),
			Dropped:    len(batch.Dropped),
			Rejections: batch.Dropped,
		}
	}
	return batch, nil
}

func (v *Validator) parse(s string) (time.Time, error) {
	if v.options.AcceptExcelSerials {
		if serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			if serial <= 0 {
				return time.Time{}, fmt.Errorf("serial date %v out of range", serial)
			}
			return excelize.ExcelDateToTime(serial, false)
		}
	}
	return ParseOrderDate(s)
}

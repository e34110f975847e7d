// =============================================================================
// Retail ETL - Shared Types
// =============================================================================
//
// This package contains the record types that flow through the pipeline and
// are shared by several modules. Keeping them here avoids import cycles
// between:
//   - csvparser / xlsxparser (produce RawRecord)
//   - transform              (produces Record, Product, Sale)
//   - validation             (produces Batch)
//   - store                  (persists Product, Sale)
//   - summary                (reads Batch)
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INGESTION TYPES
// =============================================================================

// RawRecord is one source row as read from disk, keyed by the (trimmed)
// header name. It only lives for the duration of ingestion.
type RawRecord struct {
	// Row is the 1-based row number in the source file, header included.
	// Used in diagnostics and the reject log.
	Row int

	// Fields maps the source column header to the raw cell value.
	Fields map[string]string
}

// =============================================================================
// TRANSACTION RECORD
// =============================================================================

// Record is a transaction row renamed to the canonical schema.
//
// LIFECYCLE:
//   - created by transform.Normalize
//   - Quantity / Profit filled by transform.Synthesizer
//   - OrderDate filled by validation.Validate
//   - read-only afterwards
type Record struct {
	Row int

	OrderID      string
	RawOrderDate string
	OrderDate    time.Time

	CustomerID  string
	Segment     string
	Region      string
	ProductID   string
	ProductName string
	Category    string
	SubCategory string

	Sales    decimal.Decimal
	Quantity int
	Profit   decimal.Decimal

	// HasQuantity and HasProfit report whether the value came from the
	// source or still needs to be synthesized.
	HasQuantity bool
	HasProfit   bool
}

// Rejection describes a row dropped by the temporal validator.
type Rejection struct {
	Row     int
	OrderID string
	Value   string
	Reason  string
}

// Batch is the validated subsequence of records. Every member has a
// non-zero OrderDate. A Batch is not modified after it is produced.
type Batch struct {
	Records []Record

	// Dropped holds one entry per record excluded by validation.
	Dropped []Rejection
}

// Len returns the number of valid records.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Records)
}

// =============================================================================
// PERSISTED ROWS
// =============================================================================

// Product is one catalog row per distinct product identifier.
type Product struct {
	ID          string
	Name        string
	Category    string
	SubCategory string
	Price       decimal.Decimal
	Stock       int
}

// Sale is one transaction row. ProductID references Product.ID.
type Sale struct {
	OrderID    string
	OrderDate  time.Time
	CustomerID string
	Segment    string
	Region     string
	ProductID  string
	Category   string
	Sales      decimal.Decimal
	Quantity   int
	Profit     decimal.Decimal
}

// SaleKey is the natural key of a Sale in the source data.
type SaleKey struct {
	OrderID   string
	ProductID string
}

// Key returns the natural key of the sale.
func (s Sale) Key() SaleKey {
	return SaleKey{OrderID: s.OrderID, ProductID: s.ProductID}
}

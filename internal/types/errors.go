package types

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// PIPELINE PHASES
// =============================================================================

// Phase names used in diagnostics.
const (
	PhaseIngest    = "ingest"
	PhaseNormalize = "normalize"
	PhaseValidate  = "validate"
	PhaseResolve   = "resolve"
	PhaseLoad      = "load"
	PhaseSummary   = "summary"
)

// phaser is implemented by every error in the taxonomy.
type phaser interface {
	Phase() string
}

// Phase returns the pipeline phase an error originated from, or "" when the
// error is not part of the taxonomy.
func Phase(err error) string {
	var p phaser
	if errors.As(err, &p) {
		return p.Phase()
	}
	return ""
}

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// IngestionError means the source is missing, unreadable or malformed.
type IngestionError struct {
	Path string
	Err  error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion of %s failed: %v", e.Path, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }
func (e *IngestionError) Phase() string { return PhaseIngest }

// SchemaError means a required source field is absent.
type SchemaError struct {
	// Missing lists the required source columns not found in the header.
	Missing []string

	// Row is set when a required value is absent on a specific row.
	Row   int
	Field string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("required column(s) missing: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("row %d: required field %q is empty or invalid", e.Row, e.Field)
}

func (e *SchemaError) Phase() string { return PhaseNormalize }

// DataQualityError means no record survived validation.
type DataQualityError struct {
	Total   int
	Dropped int

	// Rejections lists the dropped rows so they can still be reported.
	Rejections []Rejection
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("no valid records: %d of %d row(s) dropped", e.Dropped, e.Total)
}

func (e *DataQualityError) Phase() string { return PhaseValidate }

// DivisionError means a product representative has zero quantity, so its
// unit price cannot be derived.
type DivisionError struct {
	ProductID string
	Row       int
}

func (e *DivisionError) Error() string {
	return fmt.Sprintf("product %s (row %d): cannot derive price from zero quantity", e.ProductID, e.Row)
}

func (e *DivisionError) Phase() string { return PhaseResolve }

// LoadConflictError is a uniqueness or integrity violation while persisting.
type LoadConflictError struct {
	Table string

	// LikelyRerun is true when the rows were already present in the store,
	// which usually means the same batch was loaded before.
	LikelyRerun bool

	// Key identifies the conflicting row when known.
	Key string

	Err error
}

func (e *LoadConflictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "conflict loading %s", e.Table)
	if e.Key != "" {
		fmt.Fprintf(&b, " (key %s)", e.Key)
	}
	if e.LikelyRerun {
		b.WriteString(": rows already exist, this batch was probably loaded before")
	} else {
		b.WriteString(": integrity violation")
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoadConflictError) Unwrap() error { return e.Err }
func (e *LoadConflictError) Phase() string { return PhaseLoad }

// StoreError wraps connectivity and other non-conflict database failures.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
func (e *StoreError) Phase() string { return PhaseLoad }

// ArtifactError means the dashboard summary could not be published.
type ArtifactError struct {
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("summary %s: %v", e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }
func (e *ArtifactError) Phase() string { return PhaseSummary }

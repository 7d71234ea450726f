/*
errors.go - Centralized error types for the plan engine

PURPOSE:
  All engine errors in one place. The taxonomy is deliberately small:

  1. Configuration errors - fatal, reported before any job row is emitted
     (unknown anchor mode, bad year order, empty required-document list,
     missing input columns).
  2. Field parse failures - NOT errors at all. An unparsable year falls
     through the strategy chain to the fallback anchor; it never aborts a
     run and never silently becomes zero.
  3. Data-quality warnings - carried on the Result as Warning values,
     surfaced via summary reporting, never via failure.

USAGE:
  if plan.IsConfigError(err) {
      log.Fatalf("bad configuration: %v", err)
  }

SEE ALSO:
  - config.go: Validate() produces ConfigError values
  - types.go: Warning codes
*/
package plan

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidYearOrder is returned when general.year_order is not asc/desc.
	ErrInvalidYearOrder = errors.New("year_order must be 'asc' or 'desc'")

	// ErrInvalidLookback is returned when general.lookback_years < 1.
	ErrInvalidLookback = errors.New("lookback_years must be at least 1")

	// ErrYearOutOfRange is returned when a configured year falls outside
	// the accepted [1900, 2100] range.
	ErrYearOutOfRange = errors.New("year outside accepted range")

	// ErrUnknownAnchorMode is returned when a cohort's anchor_mode is not in
	// that cohort's strategy table. Rejected eagerly at validation time.
	ErrUnknownAnchorMode = errors.New("unknown anchor_mode")

	// ErrNoRequiredDocuments is returned when documents.required is empty.
	// An empty required list makes the plan vacuous.
	ErrNoRequiredDocuments = errors.New("documents.required cannot be empty")

	// ErrMissingColumn is returned when an input dataset lacks a required
	// column. Raised by the cohort layer before the engine runs.
	ErrMissingColumn = errors.New("missing required column")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ConfigError identifies the specific configuration key that failed
// validation. A failed run always names the offending key.
type ConfigError struct {
	Key    string // e.g. "general.year_order"
	Detail string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("config %s: %v (%s)", e.Key, e.Err, e.Detail)
	}
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// MissingColumnError names the dataset and columns that were absent.
type MissingColumnError struct {
	Dataset string // "defaulters" or "non_defaulters"
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s missing required column(s): %v", e.Dataset, e.Columns)
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigError reports whether err is fatal configuration-shape trouble,
// as opposed to per-record data trouble (which never surfaces as an error).
func IsConfigError(err error) bool {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return true
	}
	return errors.Is(err, ErrMissingColumn) || errors.Is(err, ErrNoRequiredDocuments)
}

/*
Package plan provides the core download-plan building engine.

PURPOSE:
  This package contains the deterministic rule engine that turns two company
  cohorts (defaulters and non-defaulters) plus an immutable Configuration into
  a flat list of download jobs: one job per (company, financial year, document
  type). Everything here is pure - same input, byte-identical output.

KEY CONCEPTS IN THIS FILE (types.go):
  - Cohort: Which company group a record belongs to (rules differ per cohort)
  - CompanyRecord: One normalized input row (read-only to the engine)
  - AnchorResolution: The single anchor year resolved for one company
  - SectorMedianTable: Defaulter-derived medians handed to non-defaulter rules
  - DownloadJob: One output row, uniquely keyed by JobKey

DESIGN PRINCIPLES:
  1. Immutability: Records and Configuration are never mutated mid-run
  2. Traceability: Every anchor carries the reason that produced it
  3. Determinism: No randomness, no clocks, no map-iteration ordering leaks
  4. Absence is represented: A missing year is a nil pointer, never zero

USAGE:
  cfg := plan.DefaultConfig()
  result, err := plan.Build(plan.BuildInput{
      Defaulters:    defaulters,
      NonDefaulters: nonDefaulters,
      Config:        cfg,
  })

SEE ALSO:
  - config.go: Configuration struct and validation
  - anchor.go: Per-cohort anchor strategy tables
  - assemble.go: Two-phase plan assembly and canonical ordering
*/
package plan

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// COHORT
// =============================================================================

// Cohort identifies which company group a record belongs to. The two cohorts
// use different anchor-resolution rules; the non-defaulter rules depend on
// statistics computed from the defaulter cohort.
type Cohort string

const (
	CohortDefaulter    Cohort = "defaulter"
	CohortNonDefaulter Cohort = "non_defaulter"
)

// =============================================================================
// COMPANY RECORD - One normalized input row
// =============================================================================

// CompanyRecord is one input row, already column-normalized by the cohort
// layer. Identity key within a run is (cohort, Name); the engine never
// deduplicates across cohorts.
//
// Fields holds every raw column by canonical name so that the "column" anchor
// mode can consult arbitrary columns. The typed fields are convenience copies
// of the common ones.
type CompanyRecord struct {
	Name   string // non-empty, trimmed
	CIN    string // registration identifier, possibly empty/invalid
	Sector string // possibly empty

	// Cohort-specific optional fields, kept raw; parse via ParseYear.
	DefaultYear     string
	FYBeforeDefault string

	// Exposure amount (crore), when present and numeric.
	Amount    decimal.Decimal
	HasAmount bool

	Fields map[string]string
}

// Field returns the raw value of a canonical column, or "" when absent.
func (r CompanyRecord) Field(name string) string {
	if r.Fields == nil {
		return ""
	}
	return strings.TrimSpace(r.Fields[name])
}

// =============================================================================
// ANCHOR RESOLUTION
// =============================================================================

// AnchorResolution is the result of resolving one company's anchor financial
// year. Reason records which strategy branch actually produced the value
// (the consulted column name, "fixed_year", a median tag, or the fallback
// tag) - it is part of the output contract and is never dropped.
type AnchorResolution struct {
	Year   int // always within [MinYear, MaxYear]
	Reason string
}

// ResolvedRecord pairs a record with its anchor. This is the hand-off value
// between the defaulter resolution stage and the aggregation stage.
type ResolvedRecord struct {
	Record CompanyRecord
	Anchor AnchorResolution
}

// =============================================================================
// SECTOR MEDIAN TABLE - Defaulter statistics consumed by non-defaulter rules
// =============================================================================

// SectorMedianTable holds the per-sector and global median anchor years
// computed from all resolved defaulter anchors. It is fully built before any
// non-defaulter resolution starts (write-then-read-only barrier).
//
// Invariant: a sector key is present only if at least one defaulter in that
// sector produced a numeric anchor.
type SectorMedianTable struct {
	GlobalMedian  int
	SectorMedians map[string]int
}

// Lookup returns the median for a sector, if one was recorded.
func (t SectorMedianTable) Lookup(sector string) (int, bool) {
	median, ok := t.SectorMedians[strings.TrimSpace(sector)]
	return median, ok
}

// =============================================================================
// DOWNLOAD JOB - One output row
// =============================================================================

// DownloadJob is one row of the final plan: fetch one document type for one
// company for one target financial year. Jobs are immutable once emitted.
type DownloadJob struct {
	Cohort       Cohort
	CompanyName  string
	CIN          string
	Sector       string
	IsListed     bool
	AnchorFY     int
	AnchorReason string

	// SourcePriority is the ordered fallback list of source tags the fetcher
	// must try; order is the contract, first success wins.
	SourcePriority []string

	DefaultYear     *int
	FYBeforeDefault *int

	TargetFY int
	DocType  string
	Required bool
}

// JobKey uniquely identifies a job within a plan. The fetch pipeline uses it
// as its checkpoint/resume key.
type JobKey struct {
	Cohort      Cohort
	CompanyName string
	TargetFY    int
	DocType     string
}

// Key returns the unique identity of this job.
func (j DownloadJob) Key() JobKey {
	return JobKey{Cohort: j.Cohort, CompanyName: j.CompanyName, TargetFY: j.TargetFY, DocType: j.DocType}
}

// SourcePriorityText serializes the priority list in its wire form: an
// ordered, pipe-joined sequence.
func (j DownloadJob) SourcePriorityText() string {
	return strings.Join(j.SourcePriority, "|")
}

// =============================================================================
// DATA QUALITY WARNINGS
// =============================================================================

// Warning flags a non-fatal data-quality event observed during a build.
// Warnings are informational; they never abort a run and never suppress jobs.
type Warning struct {
	Code        string // e.g. WarnGlobalMedianFallback
	Cohort      Cohort
	CompanyName string
	Message     string
}

const (
	// WarnAnchorFallback: every strategy tier failed to parse and the company
	// received the configured global fallback anchor.
	WarnAnchorFallback = "anchor_fallback"

	// WarnGlobalMedianFallback: a non-defaulter's sector had no defaulter
	// data, so the global median was used instead of a sector median.
	WarnGlobalMedianFallback = "global_median_fallback"

	// WarnEmptyDefaulterCohort: no defaulters at all; the global median is
	// the configured fallback anchor.
	WarnEmptyDefaulterCohort = "empty_defaulter_cohort"
)

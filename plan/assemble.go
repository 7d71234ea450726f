/*
assemble.go - Two-phase plan assembly and canonical ordering

PURPOSE:
  Runs the full pipeline over both cohorts in a fixed sequence and produces
  the final, canonically ordered plan:

    1. Resolve every defaulter anchor (per-record, independent).
    2. Aggregate defaulter anchors into the SectorMedianTable.   <- barrier
    3. Resolve every non-defaulter anchor (may read the table).
    4. Expand every (record, anchor) into job rows.
    5. Sort all rows into the canonical order.

  Step 2 before step 3 is a hard sequencing invariant, modeled as an explicit
  hand-off value (the SectorMedianTable) rather than shared mutable state.

ORDERING CONTRACT:
  cohort asc, company_name asc, target_fy desc, required desc (required
  before optional), doc_type asc. This total order is a published contract of
  the output format, stable across reruns: identical input yields
  byte-identical output.

CONCURRENCY:
  Single-threaded on purpose. Every stage is a pure function of its inputs
  and the immutable Config, so per-company resolution could be mapped in
  parallel with a barrier before step 3, but correctness never depends on it;
  reproducibility wins over throughput here.

SEE ALSO:
  - summary.go: Aggregate counts over the finished plan
  - csv.go: Canonical CSV encoding
*/
package plan

import (
	"fmt"
	"sort"
)

// BuildInput carries everything one build needs. Cohort records must already
// be normalized to the CompanyRecord shape (see the cohort package).
type BuildInput struct {
	Defaulters    []CompanyRecord
	NonDefaulters []CompanyRecord
	Config        *Config
}

// Result is a finished plan: the ordered job rows, the median table that was
// handed between the two stages, and any data-quality warnings observed.
// Rows are never mutated after assembly.
type Result struct {
	Jobs     []DownloadJob
	Medians  SectorMedianTable
	Warnings []Warning
}

// Build assembles the download plan. The only error class is configuration
// trouble; per-record parse failures are absorbed by the fallback chains.
func Build(in BuildInput) (*Result, error) {
	cfg := in.Config
	if cfg == nil {
		return nil, &ConfigError{Key: "config", Err: fmt.Errorf("configuration is required")}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}
	fallbackFY := cfg.General.DefaultAnchorFY

	// Phase 1: defaulter anchors. Independent per record.
	resolved := make([]ResolvedRecord, 0, len(in.Defaulters))
	for _, rec := range in.Defaulters {
		anchor := ResolveDefaulterAnchor(rec, cfg.Defaulters, fallbackFY)
		if anchor.Reason == ReasonFallback {
			result.warn(WarnAnchorFallback, CohortDefaulter, rec.Name,
				"no parsable anchor source; using default_anchor_fy")
		}
		resolved = append(resolved, ResolvedRecord{Record: rec, Anchor: anchor})
	}

	// Barrier: the median table is fully written here and read-only after.
	result.Medians = AggregateAnchors(resolved, fallbackFY)
	if len(resolved) == 0 {
		result.warn(WarnEmptyDefaulterCohort, CohortDefaulter, "",
			"no defaulters; global median equals default_anchor_fy")
	}

	// Phase 2: expand defaulters, then resolve and expand non-defaulters.
	for _, rr := range resolved {
		jobs, err := ExpandJobs(rr.Record, CohortDefaulter, rr.Anchor, cfg)
		if err != nil {
			return nil, err
		}
		result.Jobs = append(result.Jobs, jobs...)
	}

	for _, rec := range in.NonDefaulters {
		anchor := ResolveNonDefaulterAnchor(rec, cfg.NonDefaulters, fallbackFY, result.Medians)
		switch anchor.Reason {
		case ReasonFallback:
			result.warn(WarnAnchorFallback, CohortNonDefaulter, rec.Name,
				"no parsable anchor source; using default_anchor_fy")
		case ReasonGlobalMedian:
			if cfg.NonDefaulters.AnchorMode == ModeSectorMedian {
				result.warn(WarnGlobalMedianFallback, CohortNonDefaulter, rec.Name,
					fmt.Sprintf("sector %q has no defaulter data; using global median", rec.Sector))
			}
		}
		jobs, err := ExpandJobs(rec, CohortNonDefaulter, anchor, cfg)
		if err != nil {
			return nil, err
		}
		result.Jobs = append(result.Jobs, jobs...)
	}

	sortJobs(result.Jobs)
	return result, nil
}

func (r *Result) warn(code string, cohort Cohort, name, msg string) {
	r.Warnings = append(r.Warnings, Warning{Code: code, Cohort: cohort, CompanyName: name, Message: msg})
}

// sortJobs applies the canonical total order. Ties break left-to-right:
// cohort asc, company asc, target year desc, required desc, doc type asc.
func sortJobs(jobs []DownloadJob) {
	sort.SliceStable(jobs, func(i, j int) bool {
		a, b := jobs[i], jobs[j]
		if a.Cohort != b.Cohort {
			return a.Cohort < b.Cohort
		}
		if a.CompanyName != b.CompanyName {
			return a.CompanyName < b.CompanyName
		}
		if a.TargetFY != b.TargetFY {
			return a.TargetFY > b.TargetFY
		}
		if a.Required != b.Required {
			return a.Required
		}
		return a.DocType < b.DocType
	})
}

/*
anchor.go - Per-cohort anchor-year strategy tables

PURPOSE:
  Resolves the single anchor financial year for one company. Each cohort has
  its own strategy table (AnchorMode -> pure function); the configured mode
  selects the strategy, and every strategy has a well-defined fallback so
  resolution always succeeds.

STRATEGY TABLES:
  Defaulters:
    fixed_year   configured year, else global fallback anchor
    column       configured column on the record, else global fallback
    default      fy_before_default column if parsable, else
                 default_year column + configured offset, else global fallback

  Non-defaulters:
    fixed_year / column   as above
    global_median_from_defaulters   global median of defaulter anchors
    default (sector_median_from_defaulters)
                 sector median after alias remapping, else global median

REASON TAGS:
  The Reason on the result records which branch actually fired, not the
  configured mode: the literal column name consulted ("fy_before_default"),
  the column-plus-offset form ("default_year-1"), a median tag, or
  "fallback_default_anchor_fy" when every tier failed to parse.

PRECEDENCE:
  Keeping each tier a small pure function in a table (instead of branches
  scattered across call sites) keeps the fallback precedence auditable and
  testable in isolation.

SEE ALSO:
  - aggregate.go: Builds the SectorMedianTable consumed here
  - year.go: ParseYear, used by every tier
*/
package plan

import (
	"fmt"
	"strings"
)

// Reason tags shared across strategies. Column-based tiers use the literal
// column name instead.
const (
	ReasonFixedYear    = "fixed_year"
	ReasonFallback     = "fallback_default_anchor_fy"
	ReasonGlobalMedian = "global_median_from_defaulters"
	ReasonSectorMedian = "sector_median_from_defaulters"
)

// =============================================================================
// DEFAULTER STRATEGIES
// =============================================================================

// defaulterStrategy attempts one resolution rule. ok=false means the rule
// could not produce a year and the global fallback applies.
type defaulterStrategy func(rec CompanyRecord, cfg CohortConfig) (year int, reason string, ok bool)

var defaulterStrategies = map[AnchorMode]defaulterStrategy{
	ModeFixedYear:       fixedYearStrategy,
	ModeColumn:          columnStrategy,
	ModeFYBeforeDefault: fyBeforeDefaultStrategy,
}

// ResolveDefaulterAnchor resolves one defaulter's anchor year. It runs once
// per record and never consults other defaulters.
func ResolveDefaulterAnchor(rec CompanyRecord, cfg CohortConfig, fallbackFY int) AnchorResolution {
	strategy, ok := defaulterStrategies[cfg.AnchorMode]
	if !ok {
		strategy = fyBeforeDefaultStrategy
	}
	if year, reason, ok := strategy(rec, cfg); ok {
		return AnchorResolution{Year: year, Reason: reason}
	}
	return AnchorResolution{Year: fallbackFY, Reason: ReasonFallback}
}

func fixedYearStrategy(_ CompanyRecord, cfg CohortConfig) (int, string, bool) {
	if validYear(cfg.FixedAnchorFY) {
		return cfg.FixedAnchorFY, ReasonFixedYear, true
	}
	return 0, "", false
}

func columnStrategy(rec CompanyRecord, cfg CohortConfig) (int, string, bool) {
	col := cfg.AnchorColumn
	if year, ok := ParseYear(rec.Field(col)); ok {
		return year, col, true
	}
	return 0, "", false
}

// fyBeforeDefaultStrategy: pre-default fiscal year first, then default year
// shifted by the configured offset.
func fyBeforeDefaultStrategy(rec CompanyRecord, cfg CohortConfig) (int, string, bool) {
	if year, ok := ParseYear(rec.Field(cfg.FYBeforeDefaultColumn)); ok {
		return year, cfg.FYBeforeDefaultColumn, true
	}
	if year, ok := ParseYear(rec.Field(cfg.DefaultYearColumn)); ok {
		reason := fmt.Sprintf("%s%+d", cfg.DefaultYearColumn, cfg.DefaultYearOffset)
		return year + cfg.DefaultYearOffset, reason, true
	}
	return 0, "", false
}

// =============================================================================
// NON-DEFAULTER STRATEGIES
// =============================================================================

// nonDefaulterStrategy additionally consults the defaulter-derived medians.
// ok=false again means "apply the global fallback anchor"; the median-based
// strategies always succeed.
type nonDefaulterStrategy func(rec CompanyRecord, cfg CohortConfig, medians SectorMedianTable) (year int, reason string, ok bool)

var nonDefaulterStrategies = map[AnchorMode]nonDefaulterStrategy{
	ModeFixedYear: func(rec CompanyRecord, cfg CohortConfig, _ SectorMedianTable) (int, string, bool) {
		return fixedYearStrategy(rec, cfg)
	},
	ModeColumn: func(rec CompanyRecord, cfg CohortConfig, _ SectorMedianTable) (int, string, bool) {
		return columnStrategy(rec, cfg)
	},
	ModeGlobalMedian: globalMedianStrategy,
	ModeSectorMedian: sectorMedianStrategy,
}

// ResolveNonDefaulterAnchor resolves one non-defaulter's anchor year. The
// SectorMedianTable must be fully built before the first call (the assembler
// enforces this ordering).
func ResolveNonDefaulterAnchor(rec CompanyRecord, cfg CohortConfig, fallbackFY int, medians SectorMedianTable) AnchorResolution {
	strategy, ok := nonDefaulterStrategies[cfg.AnchorMode]
	if !ok {
		strategy = sectorMedianStrategy
	}
	if year, reason, ok := strategy(rec, cfg, medians); ok {
		return AnchorResolution{Year: year, Reason: reason}
	}
	return AnchorResolution{Year: fallbackFY, Reason: ReasonFallback}
}

func globalMedianStrategy(_ CompanyRecord, _ CohortConfig, medians SectorMedianTable) (int, string, bool) {
	return medians.GlobalMedian, ReasonGlobalMedian, true
}

// sectorMedianStrategy remaps the record's sector through the configured
// aliases, then looks it up once. A miss (unknown sector, empty sector, or
// an alias pointing at a sector with no defaulter data) falls to the global
// median - no recursive alias resolution.
func sectorMedianStrategy(rec CompanyRecord, cfg CohortConfig, medians SectorMedianTable) (int, string, bool) {
	sector := strings.TrimSpace(rec.Sector)
	if alias, ok := cfg.SectorAliases[sector]; ok {
		sector = strings.TrimSpace(alias)
	}
	if sector != "" {
		if median, ok := medians.Lookup(sector); ok {
			return median, ReasonSectorMedian, true
		}
	}
	return medians.GlobalMedian, ReasonGlobalMedian, true
}

/*
config.go - Immutable run configuration and eager validation

PURPOSE:
  Defines the Configuration struct that governs one plan build: lookback
  window, fallback anchor, year ordering, per-cohort anchor strategies,
  source-priority lists, listing prefixes and the document-type matrix.

LIFECYCLE:
  Loaded once before any resolution begins (see factory package for parsing
  loose YAML/JSON documents), validated once with Validate(), then treated as
  read-only for the whole run. Nothing in the engine mutates it.

VALIDATION:
  Validate() normalizes the case-insensitive inputs (anchor modes, year
  order) and rejects bad shapes eagerly: unknown anchor modes, year order
  outside asc/desc, lookback < 1, empty required-document list. This turns
  every configuration mistake into an up-front ConfigError instead of a
  mid-resolution surprise.

SEE ALSO:
  - errors.go: ConfigError and sentinel errors
  - factory/config.go: Loose document -> Config with defaults
*/
package plan

import (
	"fmt"
	"strings"
)

// Year bounds accepted anywhere a year is parsed or configured.
const (
	MinYear = 1900
	MaxYear = 2100
)

// =============================================================================
// ANCHOR MODES
// =============================================================================

// AnchorMode selects the strategy used to resolve a company's anchor year.
// Modes are matched case-insensitively; Validate() rejects unknown modes.
type AnchorMode string

const (
	// ModeFixedYear: use a single configured year for every company.
	ModeFixedYear AnchorMode = "fixed_year"

	// ModeColumn: read a configured column on the record.
	ModeColumn AnchorMode = "column"

	// ModeFYBeforeDefault (defaulter default): use the record's pre-default
	// fiscal year column if parsable, else default-year column + offset.
	ModeFYBeforeDefault AnchorMode = "fy_before_default_or_default_minus_one"

	// ModeGlobalMedian (non-defaulter): global median of defaulter anchors.
	ModeGlobalMedian AnchorMode = "global_median_from_defaulters"

	// ModeSectorMedian (non-defaulter default): per-sector median of
	// defaulter anchors, falling back to the global median.
	ModeSectorMedian AnchorMode = "sector_median_from_defaulters"
)

// YearOrder controls the ordering of the expanded year window.
type YearOrder string

const (
	OrderAsc  YearOrder = "asc"
	OrderDesc YearOrder = "desc"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config is the process-wide configuration for one build. Read once at
// start, immutable for the run.
type Config struct {
	General       GeneralConfig
	Defaulters    CohortConfig
	NonDefaulters CohortConfig
	Sources       SourceConfig
	Documents     DocumentConfig
}

// GeneralConfig holds cohort-independent settings.
type GeneralConfig struct {
	LookbackYears   int       // >= 1
	DefaultAnchorFY int       // global fallback anchor, within [MinYear, MaxYear]
	YearOrder       YearOrder // asc | desc
}

// CohortConfig holds the anchor-strategy settings for one cohort.
type CohortConfig struct {
	AnchorMode AnchorMode

	// fixed_year mode
	FixedAnchorFY int

	// column mode
	AnchorColumn string

	// fy_before_default_or_default_minus_one mode
	FYBeforeDefaultColumn string
	DefaultYearColumn     string
	DefaultYearOffset     int

	// sector_median_from_defaulters mode: applied to the record's sector
	// before the median lookup.
	SectorAliases map[string]string
}

// SourceConfig holds the listing classification and source-priority lists.
type SourceConfig struct {
	ListedCINPrefixes []string
	PriorityListed    []string
	PriorityUnlisted  []string
}

// DocumentConfig holds the document-type matrix. Required must be non-empty;
// an empty required list makes the whole plan vacuous.
type DocumentConfig struct {
	Required []string
	Optional []string
}

// DefaultConfig returns a Config carrying the stock defaults: 3-year lookback
// ending at FY2023, descending years, Indian listed-company CIN prefix, and
// exchange sources tried before the registry for listed companies.
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			LookbackYears:   3,
			DefaultAnchorFY: 2023,
			YearOrder:       OrderDesc,
		},
		Defaulters: CohortConfig{
			AnchorMode:            ModeFYBeforeDefault,
			AnchorColumn:          "anchor_fy",
			FYBeforeDefaultColumn: "fy_before_default",
			DefaultYearColumn:     "default_year",
			DefaultYearOffset:     -1,
		},
		NonDefaulters: CohortConfig{
			AnchorMode:   ModeSectorMedian,
			AnchorColumn: "anchor_fy",
		},
		Sources: SourceConfig{
			ListedCINPrefixes: []string{"L"},
			PriorityListed:    []string{"bse", "nse", "mca"},
			PriorityUnlisted:  []string{"mca"},
		},
		Documents: DocumentConfig{
			Required: []string{"annual_report"},
			Optional: []string{},
		},
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

var defaulterModes = map[AnchorMode]bool{
	ModeFixedYear:       true,
	ModeColumn:          true,
	ModeFYBeforeDefault: true,
}

var nonDefaulterModes = map[AnchorMode]bool{
	ModeFixedYear:    true,
	ModeColumn:       true,
	ModeGlobalMedian: true,
	ModeSectorMedian: true,
}

// Validate normalizes case-insensitive fields and rejects invalid shapes.
// It must be called once before the Config is used; Build calls it again
// defensively. After a successful Validate the Config is considered frozen.
func (c *Config) Validate() error {
	c.General.YearOrder = YearOrder(strings.ToLower(strings.TrimSpace(string(c.General.YearOrder))))
	if c.General.YearOrder != OrderAsc && c.General.YearOrder != OrderDesc {
		return &ConfigError{Key: "general.year_order", Err: ErrInvalidYearOrder,
			Detail: fmt.Sprintf("got %q", c.General.YearOrder)}
	}
	if c.General.LookbackYears < 1 {
		return &ConfigError{Key: "general.lookback_years", Err: ErrInvalidLookback,
			Detail: fmt.Sprintf("got %d", c.General.LookbackYears)}
	}
	if !validYear(c.General.DefaultAnchorFY) {
		return &ConfigError{Key: "general.default_anchor_fy", Err: ErrYearOutOfRange,
			Detail: fmt.Sprintf("got %d", c.General.DefaultAnchorFY)}
	}

	if err := c.Defaulters.normalize(ModeFYBeforeDefault, defaulterModes, "defaulters"); err != nil {
		return err
	}
	if err := c.NonDefaulters.normalize(ModeSectorMedian, nonDefaulterModes, "non_defaulters"); err != nil {
		return err
	}

	if len(c.Documents.Required) == 0 {
		return &ConfigError{Key: "documents.required", Err: ErrNoRequiredDocuments}
	}
	return nil
}

// normalize lowercases the mode, fills per-mode column defaults and checks
// the mode against the cohort's allowed set.
func (cc *CohortConfig) normalize(def AnchorMode, allowed map[AnchorMode]bool, group string) error {
	mode := AnchorMode(strings.ToLower(strings.TrimSpace(string(cc.AnchorMode))))
	if mode == "" {
		mode = def
	}
	if !allowed[mode] {
		return &ConfigError{Key: group + ".anchor_mode", Err: ErrUnknownAnchorMode,
			Detail: fmt.Sprintf("got %q", cc.AnchorMode)}
	}
	cc.AnchorMode = mode

	if cc.AnchorColumn == "" {
		cc.AnchorColumn = "anchor_fy"
	}
	if cc.FYBeforeDefaultColumn == "" {
		cc.FYBeforeDefaultColumn = "fy_before_default"
	}
	if cc.DefaultYearColumn == "" {
		cc.DefaultYearColumn = "default_year"
	}
	// A zero offset means unset; the documented default is -1.
	if mode == ModeFYBeforeDefault && cc.DefaultYearOffset == 0 {
		cc.DefaultYearOffset = -1
	}
	return nil
}

func validYear(y int) bool {
	return y >= MinYear && y <= MaxYear
}

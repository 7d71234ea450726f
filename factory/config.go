/*
Package factory provides loose config document to plan.Config conversion.

PURPOSE:
  Converts YAML (or JSON) configuration documents into a validated
  plan.Config. This enables run configuration without code changes - an
  analyst edits the config file, the factory applies defaults and rejects
  bad shapes before the engine sees anything.

WHY A LOOSE DOCUMENT?
  - Analysts tune lookback windows and document lists without a deploy
  - Every field is optional; omissions take the stock defaults
  - Validation happens exactly once, up front

YAML SCHEMA:
  general:
    lookback_years: 3
    default_anchor_fy: 2023
    year_order: desc
  defaulters:
    anchor_mode: fy_before_default_or_default_minus_one
    default_year_offset: -1
  non_defaulters:
    anchor_mode: sector_median_from_defaulters
    sector_aliases:
      "Iron & Steel": "Steel"
  sources:
    listed_cin_prefixes: ["L"]
    priority_listed: ["bse", "nse", "mca"]
    priority_unlisted: ["mca"]
  documents:
    required: ["annual_report"]
    optional: ["board_report"]

  JSON documents parse through the same path (JSON is a YAML subset).

USAGE:
  cfg, err := factory.LoadConfigFile("download_config.yaml")
  if plan.IsConfigError(err) { ... }

SEE ALSO:
  - plan/config.go: The validated Config and its defaults
*/
package factory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fulcrum/download-planner/plan"
)

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// ConfigDocument is the loose, all-optional wire form of a Config.
type ConfigDocument struct {
	General       *GeneralDoc   `yaml:"general" json:"general"`
	Defaulters    *CohortDoc    `yaml:"defaulters" json:"defaulters"`
	NonDefaulters *CohortDoc    `yaml:"non_defaulters" json:"non_defaulters"`
	Sources       *SourcesDoc   `yaml:"sources" json:"sources"`
	Documents     *DocumentsDoc `yaml:"documents" json:"documents"`
}

type GeneralDoc struct {
	LookbackYears   *int    `yaml:"lookback_years" json:"lookback_years"`
	DefaultAnchorFY *int    `yaml:"default_anchor_fy" json:"default_anchor_fy"`
	YearOrder       *string `yaml:"year_order" json:"year_order"`
}

type CohortDoc struct {
	AnchorMode            *string           `yaml:"anchor_mode" json:"anchor_mode"`
	FixedAnchorFY         *int              `yaml:"fixed_anchor_fy" json:"fixed_anchor_fy"`
	AnchorColumn          *string           `yaml:"anchor_column" json:"anchor_column"`
	FYBeforeDefaultColumn *string           `yaml:"fy_before_default_column" json:"fy_before_default_column"`
	DefaultYearColumn     *string           `yaml:"default_year_column" json:"default_year_column"`
	DefaultYearOffset     *int              `yaml:"default_year_offset" json:"default_year_offset"`
	SectorAliases         map[string]string `yaml:"sector_aliases" json:"sector_aliases"`
}

type SourcesDoc struct {
	ListedCINPrefixes []string `yaml:"listed_cin_prefixes" json:"listed_cin_prefixes"`
	PriorityListed    []string `yaml:"priority_listed" json:"priority_listed"`
	PriorityUnlisted  []string `yaml:"priority_unlisted" json:"priority_unlisted"`
}

type DocumentsDoc struct {
	Required []string `yaml:"required" json:"required"`
	Optional []string `yaml:"optional" json:"optional"`
}

// =============================================================================
// PARSING
// =============================================================================

// LoadConfigFile reads and parses a config document from disk.
func LoadConfigFile(path string) (*plan.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig converts a YAML/JSON document into a validated plan.Config.
// Omitted fields take the defaults from plan.DefaultConfig.
func ParseConfig(data []byte) (*plan.Config, error) {
	var doc ConfigDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return doc.Config()
}

// Config applies defaults and validates.
func (doc *ConfigDocument) Config() (*plan.Config, error) {
	cfg := plan.DefaultConfig()

	if g := doc.General; g != nil {
		setInt(&cfg.General.LookbackYears, g.LookbackYears)
		setInt(&cfg.General.DefaultAnchorFY, g.DefaultAnchorFY)
		if g.YearOrder != nil {
			cfg.General.YearOrder = plan.YearOrder(*g.YearOrder)
		}
	}
	applyCohort(&cfg.Defaulters, doc.Defaulters)
	applyCohort(&cfg.NonDefaulters, doc.NonDefaulters)

	if s := doc.Sources; s != nil {
		setList(&cfg.Sources.ListedCINPrefixes, s.ListedCINPrefixes)
		setList(&cfg.Sources.PriorityListed, s.PriorityListed)
		setList(&cfg.Sources.PriorityUnlisted, s.PriorityUnlisted)
	}
	if d := doc.Documents; d != nil {
		// Documents are taken verbatim, including an (invalid) empty
		// required list - Validate is the single gatekeeper for that.
		if d.Required != nil {
			cfg.Documents.Required = d.Required
		}
		cfg.Documents.Optional = d.Optional
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyCohort(dst *plan.CohortConfig, src *CohortDoc) {
	if src == nil {
		return
	}
	if src.AnchorMode != nil {
		dst.AnchorMode = plan.AnchorMode(*src.AnchorMode)
	}
	setInt(&dst.FixedAnchorFY, src.FixedAnchorFY)
	setString(&dst.AnchorColumn, src.AnchorColumn)
	setString(&dst.FYBeforeDefaultColumn, src.FYBeforeDefaultColumn)
	setString(&dst.DefaultYearColumn, src.DefaultYearColumn)
	setInt(&dst.DefaultYearOffset, src.DefaultYearOffset)
	if src.SectorAliases != nil {
		dst.SectorAliases = src.SectorAliases
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setList(dst *[]string, src []string) {
	if src != nil {
		*dst = src
	}
}

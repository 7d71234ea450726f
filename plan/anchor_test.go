package plan_test

import (
	"testing"

	"github.com/fulcrum/download-planner/plan"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// record builds a CompanyRecord from raw canonical columns the way the
// cohort layer would.
func record(fields map[string]string) plan.CompanyRecord {
	return plan.CompanyRecord{
		Name:            fields["company_name"],
		CIN:             fields["cin"],
		Sector:          fields["sector"],
		DefaultYear:     fields["default_year"],
		FYBeforeDefault: fields["fy_before_default"],
		Fields:          fields,
	}
}

func defaulterCfg() plan.CohortConfig {
	return plan.CohortConfig{
		AnchorMode:            plan.ModeFYBeforeDefault,
		AnchorColumn:          "anchor_fy",
		FYBeforeDefaultColumn: "fy_before_default",
		DefaultYearColumn:     "default_year",
		DefaultYearOffset:     -1,
	}
}

// =============================================================================
// DEFAULTER RESOLVER
// =============================================================================

func TestDefaulterAnchor_FYBeforeDefaultWins(t *testing.T) {
	// GIVEN: both fy_before_default and default_year present
	// THEN: fy_before_default wins and names itself as the reason
	rec := record(map[string]string{"fy_before_default": "2018", "default_year": "2020"})

	res := plan.ResolveDefaulterAnchor(rec, defaulterCfg(), 2023)

	if res.Year != 2018 {
		t.Errorf("anchor = %d, want 2018", res.Year)
	}
	if res.Reason != "fy_before_default" {
		t.Errorf("reason = %q, want fy_before_default", res.Reason)
	}
}

func TestDefaulterAnchor_DefaultYearPlusOffset(t *testing.T) {
	// GIVEN: fy_before_default blank, default_year 2020, offset -1
	// THEN: anchor 2019 with reason "default_year-1"
	rec := record(map[string]string{"fy_before_default": "", "default_year": "2020"})

	res := plan.ResolveDefaulterAnchor(rec, defaulterCfg(), 2023)

	if res.Year != 2019 {
		t.Errorf("anchor = %d, want 2019", res.Year)
	}
	if res.Reason != "default_year-1" {
		t.Errorf("reason = %q, want default_year-1", res.Reason)
	}
}

func TestDefaulterAnchor_PositiveOffsetReason(t *testing.T) {
	cfg := defaulterCfg()
	cfg.DefaultYearOffset = 2
	rec := record(map[string]string{"default_year": "2020"})

	res := plan.ResolveDefaulterAnchor(rec, cfg, 2023)

	if res.Year != 2022 || res.Reason != "default_year+2" {
		t.Errorf("got (%d, %q), want (2022, default_year+2)", res.Year, res.Reason)
	}
}

func TestDefaulterAnchor_EveryTierFails_Fallback(t *testing.T) {
	// Unparsable values at every tier fall to the global fallback anchor.
	rec := record(map[string]string{"fy_before_default": "nan", "default_year": "-"})

	res := plan.ResolveDefaulterAnchor(rec, defaulterCfg(), 2023)

	if res.Year != 2023 {
		t.Errorf("anchor = %d, want fallback 2023", res.Year)
	}
	if res.Reason != plan.ReasonFallback {
		t.Errorf("reason = %q, want %q", res.Reason, plan.ReasonFallback)
	}
}

func TestDefaulterAnchor_FixedYearMode(t *testing.T) {
	cfg := defaulterCfg()
	cfg.AnchorMode = plan.ModeFixedYear
	cfg.FixedAnchorFY = 2015

	res := plan.ResolveDefaulterAnchor(record(nil), cfg, 2023)

	if res.Year != 2015 || res.Reason != plan.ReasonFixedYear {
		t.Errorf("got (%d, %q), want (2015, fixed_year)", res.Year, res.Reason)
	}
}

func TestDefaulterAnchor_FixedYearMode_UnsetFallsBack(t *testing.T) {
	cfg := defaulterCfg()
	cfg.AnchorMode = plan.ModeFixedYear // FixedAnchorFY left zero

	res := plan.ResolveDefaulterAnchor(record(nil), cfg, 2023)

	if res.Year != 2023 || res.Reason != plan.ReasonFallback {
		t.Errorf("got (%d, %q), want fallback", res.Year, res.Reason)
	}
}

func TestDefaulterAnchor_ColumnMode(t *testing.T) {
	// The reason is the literal column name consulted.
	cfg := defaulterCfg()
	cfg.AnchorMode = plan.ModeColumn
	cfg.AnchorColumn = "audit_fy"
	rec := record(map[string]string{"audit_fy": "2017.0"})

	res := plan.ResolveDefaulterAnchor(rec, cfg, 2023)

	if res.Year != 2017 || res.Reason != "audit_fy" {
		t.Errorf("got (%d, %q), want (2017, audit_fy)", res.Year, res.Reason)
	}
}

// =============================================================================
// NON-DEFAULTER RESOLVER
// =============================================================================

func nonDefaulterCfg() plan.CohortConfig {
	return plan.CohortConfig{AnchorMode: plan.ModeSectorMedian, AnchorColumn: "anchor_fy"}
}

func steelMedians() plan.SectorMedianTable {
	return plan.SectorMedianTable{
		GlobalMedian:  2020,
		SectorMedians: map[string]int{"Steel": 2018},
	}
}

func TestNonDefaulterAnchor_SectorMedian(t *testing.T) {
	// GIVEN: sector "Steel" with a defaulter median of 2018
	rec := record(map[string]string{"sector": "Steel"})

	res := plan.ResolveNonDefaulterAnchor(rec, nonDefaulterCfg(), 2023, steelMedians())

	if res.Year != 2018 || res.Reason != plan.ReasonSectorMedian {
		t.Errorf("got (%d, %q), want (2018, %s)", res.Year, res.Reason, plan.ReasonSectorMedian)
	}
}

func TestNonDefaulterAnchor_UnknownSector_GlobalMedian(t *testing.T) {
	// A sector absent from the table receives the global median, with the
	// global-median reason tag.
	rec := record(map[string]string{"sector": "Aviation"})

	res := plan.ResolveNonDefaulterAnchor(rec, nonDefaulterCfg(), 2023, steelMedians())

	if res.Year != 2020 || res.Reason != plan.ReasonGlobalMedian {
		t.Errorf("got (%d, %q), want (2020, %s)", res.Year, res.Reason, plan.ReasonGlobalMedian)
	}
}

func TestNonDefaulterAnchor_SectorAliasRemap(t *testing.T) {
	cfg := nonDefaulterCfg()
	cfg.SectorAliases = map[string]string{"Iron & Steel": "Steel"}
	rec := record(map[string]string{"sector": "Iron & Steel"})

	res := plan.ResolveNonDefaulterAnchor(rec, cfg, 2023, steelMedians())

	if res.Year != 2018 || res.Reason != plan.ReasonSectorMedian {
		t.Errorf("got (%d, %q), want remapped sector median", res.Year, res.Reason)
	}
}

func TestNonDefaulterAnchor_AliasToMissingSector_GlobalMedian(t *testing.T) {
	// An alias pointing at a sector that itself has no defaulter data falls
	// to the global median: one lookup, no recursive alias resolution.
	cfg := nonDefaulterCfg()
	cfg.SectorAliases = map[string]string{"Iron & Steel": "Metals"}
	rec := record(map[string]string{"sector": "Iron & Steel"})

	res := plan.ResolveNonDefaulterAnchor(rec, cfg, 2023, steelMedians())

	if res.Year != 2020 || res.Reason != plan.ReasonGlobalMedian {
		t.Errorf("got (%d, %q), want global median", res.Year, res.Reason)
	}
}

func TestNonDefaulterAnchor_EmptySector_GlobalMedian(t *testing.T) {
	rec := record(map[string]string{"sector": "  "})

	res := plan.ResolveNonDefaulterAnchor(rec, nonDefaulterCfg(), 2023, steelMedians())

	if res.Year != 2020 || res.Reason != plan.ReasonGlobalMedian {
		t.Errorf("got (%d, %q), want global median", res.Year, res.Reason)
	}
}

func TestNonDefaulterAnchor_GlobalMedianMode(t *testing.T) {
	cfg := nonDefaulterCfg()
	cfg.AnchorMode = plan.ModeGlobalMedian
	rec := record(map[string]string{"sector": "Steel"}) // sector ignored in this mode

	res := plan.ResolveNonDefaulterAnchor(rec, cfg, 2023, steelMedians())

	if res.Year != 2020 || res.Reason != plan.ReasonGlobalMedian {
		t.Errorf("got (%d, %q), want (2020, %s)", res.Year, res.Reason, plan.ReasonGlobalMedian)
	}
}

func TestNonDefaulterAnchor_ColumnMode_FallsBackWhenUnparsable(t *testing.T) {
	cfg := nonDefaulterCfg()
	cfg.AnchorMode = plan.ModeColumn
	rec := record(map[string]string{"anchor_fy": "not-a-year"})

	res := plan.ResolveNonDefaulterAnchor(rec, cfg, 2023, steelMedians())

	if res.Year != 2023 || res.Reason != plan.ReasonFallback {
		t.Errorf("got (%d, %q), want fallback", res.Year, res.Reason)
	}
}

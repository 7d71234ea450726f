package plan_test

import (
	"testing"

	"github.com/fulcrum/download-planner/plan"
)

func resolvedDefaulter(sector string, year int) plan.ResolvedRecord {
	return plan.ResolvedRecord{
		Record: plan.CompanyRecord{Name: "co", Sector: sector},
		Anchor: plan.AnchorResolution{Year: year, Reason: "fy_before_default"},
	}
}

func TestAggregate_EmptyCohort_FallbackBecomesGlobalMedian(t *testing.T) {
	// GIVEN: no defaulters
	// THEN: global median == default_anchor_fy, no sector keys
	table := plan.AggregateAnchors(nil, 2023)

	if table.GlobalMedian != 2023 {
		t.Errorf("global median = %d, want 2023", table.GlobalMedian)
	}
	if len(table.SectorMedians) != 0 {
		t.Errorf("expected no sector medians, got %v", table.SectorMedians)
	}
}

func TestAggregate_OddCount_MiddleValue(t *testing.T) {
	table := plan.AggregateAnchors([]plan.ResolvedRecord{
		resolvedDefaulter("Steel", 2017),
		resolvedDefaulter("Steel", 2018),
		resolvedDefaulter("Steel", 2022),
	}, 2023)

	if table.GlobalMedian != 2018 {
		t.Errorf("global median = %d, want 2018", table.GlobalMedian)
	}
	if table.SectorMedians["Steel"] != 2018 {
		t.Errorf("Steel median = %d, want 2018", table.SectorMedians["Steel"])
	}
}

func TestAggregate_EvenCount_TieRoundsHalfUp(t *testing.T) {
	// GIVEN: anchors 2018 and 2019 -> median 2018.5
	// THEN: ties round half up -> 2019
	table := plan.AggregateAnchors([]plan.ResolvedRecord{
		resolvedDefaulter("Steel", 2018),
		resolvedDefaulter("Steel", 2019),
	}, 2023)

	if table.GlobalMedian != 2019 {
		t.Errorf("global median = %d, want 2019 (half up)", table.GlobalMedian)
	}
}

func TestAggregate_EvenCount_ExactMean(t *testing.T) {
	table := plan.AggregateAnchors([]plan.ResolvedRecord{
		resolvedDefaulter("Steel", 2016),
		resolvedDefaulter("Steel", 2020),
	}, 2023)

	if table.GlobalMedian != 2018 {
		t.Errorf("global median = %d, want 2018", table.GlobalMedian)
	}
}

func TestAggregate_PerSectorMedians(t *testing.T) {
	table := plan.AggregateAnchors([]plan.ResolvedRecord{
		resolvedDefaulter("Steel", 2016),
		resolvedDefaulter("Steel", 2018),
		resolvedDefaulter("Power", 2021),
	}, 2023)

	if got := table.SectorMedians["Steel"]; got != 2017 {
		t.Errorf("Steel median = %d, want 2017", got)
	}
	if got := table.SectorMedians["Power"]; got != 2021 {
		t.Errorf("Power median = %d, want 2021", got)
	}
}

func TestAggregate_EmptySectorGetsNoKey(t *testing.T) {
	// Records with blank sectors still count toward the global median but
	// never create a sector key.
	table := plan.AggregateAnchors([]plan.ResolvedRecord{
		resolvedDefaulter("", 2016),
		resolvedDefaulter("  ", 2018),
		resolvedDefaulter("Steel", 2020),
	}, 2023)

	if len(table.SectorMedians) != 1 {
		t.Errorf("expected only Steel key, got %v", table.SectorMedians)
	}
	if table.GlobalMedian != 2018 {
		t.Errorf("global median = %d, want 2018", table.GlobalMedian)
	}
}

func TestMedianTable_Lookup(t *testing.T) {
	table := plan.SectorMedianTable{GlobalMedian: 2020, SectorMedians: map[string]int{"Steel": 2018}}

	if y, ok := table.Lookup(" Steel "); !ok || y != 2018 {
		t.Errorf("Lookup(Steel) = (%d, %v), want (2018, true)", y, ok)
	}
	if _, ok := table.Lookup("Aviation"); ok {
		t.Error("Lookup(Aviation): expected miss")
	}
}

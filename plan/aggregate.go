/*
aggregate.go - Defaulter anchor aggregation (medians)

PURPOSE:
  Computes the reference statistics the non-defaulter cohort depends on: one
  global median over all resolved defaulter anchors, and one median per
  non-empty sector. The table is built once, after every defaulter is
  resolved and before any non-defaulter resolution starts. That ordering is
  the only cross-record dependency in the engine.

ROUNDING:
  An even-sized cohort can produce a half-year median (e.g. 2018.5).
  Ties round half up; anchors are always positive so decimal's
  round-half-away-from-zero is exactly half-up here.

FALLBACKS:
  - Empty defaulter cohort: global median = configured fallback anchor.
  - Empty sector subset: sector median = global median. The aggregator never
    inserts a sector key without at least one value, so this branch is
    structural, but it is implemented anyway.

SEE ALSO:
  - anchor.go: sector/global median strategies reading this table
  - assemble.go: The write-then-read barrier between the two cohort stages
*/
package plan

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// AggregateAnchors builds the SectorMedianTable from all resolved defaulter
// anchors. fallbackFY covers the empty-cohort case.
func AggregateAnchors(defaulters []ResolvedRecord, fallbackFY int) SectorMedianTable {
	all := make([]int, 0, len(defaulters))
	bySector := make(map[string][]int)

	for _, rr := range defaulters {
		all = append(all, rr.Anchor.Year)
		sector := strings.TrimSpace(rr.Record.Sector)
		if sector == "" {
			continue
		}
		bySector[sector] = append(bySector[sector], rr.Anchor.Year)
	}

	global := medianOrFallback(all, fallbackFY)
	sectorMedians := make(map[string]int, len(bySector))
	for sector, years := range bySector {
		sectorMedians[sector] = medianOrFallback(years, global)
	}

	return SectorMedianTable{GlobalMedian: global, SectorMedians: sectorMedians}
}

// medianOrFallback returns the median of values rounded half up, or fallback
// when values is empty.
func medianOrFallback(values []int, fallback int) int {
	if len(values) == 0 {
		return fallback
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	// Even count: mean of the two middle values, ties rounded half up.
	sum := decimal.NewFromInt(int64(sorted[n/2-1]) + int64(sorted[n/2]))
	return int(sum.Div(decimal.NewFromInt(2)).Round(0).IntPart())
}

/*
year.go - Year parsing and year-window expansion

PURPOSE:
  Two small pure primitives shared by every resolver:

  ParseYear:   Tolerant scalar parsing. Cohort exports carry years as 2021,
               "2021" or "2021.0", and absence as "", "nan", "na", "none" or
               "-". Absence is represented (ok=false), never treated as zero,
               and parsing never fails loudly.

  YearWindow:  Expands one anchor year and a lookback count into the ordered
               sequence of target years.

SEE ALSO:
  - anchor.go: Every strategy tier parses through ParseYear
  - expand.go: YearWindow feeds the job matrix cross-product
*/
package plan

import (
	"strconv"
	"strings"
)

// ParseYear parses year-like values such as 2021, "2021" or "2021.0".
// It returns ok=false for blank or placeholder values ("nan", "na", "none",
// "-") and for anything outside [MinYear, MaxYear]. It never errors.
func ParseYear(value string) (int, bool) {
	text := strings.TrimSpace(value)
	if text == "" {
		return 0, false
	}
	switch strings.ToLower(text) {
	case "nan", "na", "none", "-":
		return 0, false
	}
	text = strings.TrimSuffix(text, ".0")
	year, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	if !validYear(year) {
		return 0, false
	}
	return year, true
}

// YearWindow expands an anchor year into its lookback window:
// [anchor, anchor-1, ..., anchor-(lookback-1)], reversed for ascending
// order. Entries are always distinct; no deduplication is needed.
func YearWindow(anchorFY, lookbackYears int, order YearOrder) []int {
	years := make([]int, lookbackYears)
	for i := 0; i < lookbackYears; i++ {
		years[i] = anchorFY - i
	}
	if order == OrderAsc {
		for i, j := 0, len(years)-1; i < j; i, j = i+1, j-1 {
			years[i], years[j] = years[j], years[i]
		}
	}
	return years
}

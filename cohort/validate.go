/*
validate.go - Cohort-level validation report

PURPOSE:
  Row-level quality checks run after loading: duplicate company names,
  missing or malformed CINs, out-of-range default years, non-numeric
  amounts. Findings are a report for the operator - they never abort a
  build. Only column-shape problems (caught at load time) are fatal.

SEVERITIES:
  error    The row will still plan, but its data is wrong enough that the
           resulting jobs deserve suspicion (bad CIN, duplicate name).
  warning  Cosmetic or expected gaps (missing sector, absent amount).
*/
package cohort

import (
	"fmt"
	"strings"

	"github.com/fulcrum/download-planner/plan"
)

// Severity of one finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one validation observation about one row (Row is 1-based over
// the record list; 0 means cohort-level).
type Finding struct {
	Severity Severity
	Row      int
	Company  string
	Message  string
}

// Report is the outcome of validating one cohort.
type Report struct {
	Cohort   plan.Cohort
	Records  int
	Findings []Finding
}

// Errors returns only the error-severity findings.
func (r *Report) Errors() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// Accepted default-year range for defaulter records.
const (
	minDefaultYear = 2010
	maxDefaultYear = 2030
)

// Validate checks one loaded cohort and returns its report.
func Validate(records []plan.CompanyRecord, cohort plan.Cohort) *Report {
	report := &Report{Cohort: cohort, Records: len(records)}

	nameCount := make(map[string]int, len(records))
	for _, rec := range records {
		nameCount[rec.Name]++
	}
	for name, n := range nameCount {
		if n > 1 {
			report.add(SeverityError, 0, name, fmt.Sprintf("duplicate company_name (%d rows)", n))
		}
	}

	for i, rec := range records {
		row := i + 1

		rawCIN := strings.TrimSpace(rec.Field(ColCIN))
		switch {
		case rec.CIN == "" && rawCIN == "":
			report.add(SeverityWarning, row, rec.Name, "missing CIN; company will classify as unlisted")
		case rec.CIN == "":
			report.add(SeverityError, row, rec.Name,
				fmt.Sprintf("invalid CIN (must be 21 alphanumeric): %q", rawCIN))
		}

		if rec.Sector == "" {
			report.add(SeverityWarning, row, rec.Name, "missing sector")
		}

		if cohort == plan.CohortDefaulter {
			validateDefaulterRow(report, row, rec)
		}
	}
	return report
}

func validateDefaulterRow(report *Report, row int, rec plan.CompanyRecord) {
	if raw := rec.DefaultYear; raw != "" {
		year, ok := plan.ParseYear(raw)
		if !ok {
			report.add(SeverityError, row, rec.Name, fmt.Sprintf("default_year not a year: %q", raw))
		} else if year < minDefaultYear || year > maxDefaultYear {
			report.add(SeverityError, row, rec.Name, fmt.Sprintf("default_year out of range: %d", year))
		}
	}

	if raw := rec.Field(ColAmount); raw != "" && !rec.HasAmount {
		report.add(SeverityError, row, rec.Name, fmt.Sprintf("amount_crore not numeric: %q", raw))
	}
}

func (r *Report) add(sev Severity, row int, company, msg string) {
	r.Findings = append(r.Findings, Finding{Severity: sev, Row: row, Company: company, Message: msg})
}

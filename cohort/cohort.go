/*
Package cohort loads and validates company cohort datasets.

PURPOSE:
  Bridges raw CSV exports (credit-bureau defaulter lists, sampled peer
  lists) to the plan engine's CompanyRecord shape. Real exports disagree on
  header names, carry stray whitespace, encode absent values a dozen ways
  and hold CINs with embedded spaces, so everything funnels through one
  normalization path.

KEY CONCEPTS:
  - Header aliasing: "Borrower Name", "company name" and "NAME" all map to
    the canonical company_name column
  - CIN normalization: trimmed, de-spaced, uppercased, pattern-checked
  - Validation report: per-row findings (errors vs warnings) that inform the
    operator but never abort a plan build

BOUNDARY:
  Missing required columns (company_name, cin, sector) are fatal
  configuration-class errors surfaced at load time. Everything below column
  level is per-row data quality, handled by Validate as a report.

SEE ALSO:
  - loader.go: CSV reading and row normalization
  - validate.go: Cohort-level validation report
*/
package cohort

import "regexp"

// Canonical column names produced by the loader.
const (
	ColCompanyName     = "company_name"
	ColCIN             = "cin"
	ColSector          = "sector"
	ColDefaultYear     = "default_year"
	ColFYBeforeDefault = "fy_before_default"
	ColAmount          = "amount_crore"
)

// columnAliases maps lowercased raw headers to canonical names. Unknown
// headers pass through lowercased and trimmed.
var columnAliases = map[string]string{
	"company name":                    ColCompanyName,
	"company_name":                    ColCompanyName,
	"borrower name":                   ColCompanyName,
	"borrower":                        ColCompanyName,
	"name of borrower":                ColCompanyName,
	"name":                            ColCompanyName,
	"cin":                             ColCIN,
	"corporate identification number": ColCIN,
	"company registration number":     ColCIN,
	"registration number":             ColCIN,
	"company id":                      ColCIN,
	"sector":                          ColSector,
	"industry":                        ColSector,
	"default year":                    ColDefaultYear,
	"default_year":                    ColDefaultYear,
	"fy before default":               ColFYBeforeDefault,
	"fy_before_default":               ColFYBeforeDefault,
	"amount":                          ColAmount,
	"amount crore":                    ColAmount,
	"amount_crore":                    ColAmount,
	"outstanding amount":              ColAmount,
}

// Strict CIN segment pattern: listing status, industry code, state, year,
// company type, registration number. Bureau exports that fail this still
// pass as any 21-character alphanumeric (see NormalizeCIN).
var cinPattern = regexp.MustCompile(`^[A-Z]{1,2}[0-9]{2}[A-Z]{2}[0-9]{4}[A-Z]{3}[0-9]{6}$`)

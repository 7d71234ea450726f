/*
normalize.go - Field-level normalization

PURPOSE:
  The scalar cleanup rules applied to every loaded value: canonical header
  names, company names, CINs and amounts. These are the same rules whether a
  record arrives from a CSV file or an API request body.
*/
package cohort

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeColumnName maps a raw header to its canonical name. Unknown
// headers come back lowercased and trimmed.
func NormalizeColumnName(raw string) string {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
	if canonical, ok := columnAliases[key]; ok {
		return canonical
	}
	return key
}

// NormalizeCompanyName trims a company name for display and matching.
func NormalizeCompanyName(raw string) string {
	return strings.TrimSpace(raw)
}

// NormalizeCIN validates and normalizes a CIN. It returns "" when the value
// is missing or invalid. A CIN is 21 characters with no spaces; strictly
// pattern-checked first, then accepted best-effort as any 21-character
// alphanumeric.
func NormalizeCIN(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch s {
	case "", "NAN", "NA", "-":
		return ""
	}
	s = strings.ReplaceAll(s, " ", "")
	if cinPattern.MatchString(s) {
		return s
	}
	if len(s) == 21 && isAlnum(s) {
		return s
	}
	return ""
}

// ParseAmount parses an exposure amount (crore). ok=false when absent or
// non-numeric.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return decimal.Zero, false
	}
	switch strings.ToLower(text) {
	case "nan", "na", "none", "-":
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(text, ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func isAlnum(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

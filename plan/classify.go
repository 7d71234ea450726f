/*
classify.go - Listing-status classification from the registration identifier

PURPOSE:
  Decides whether a company is exchange-listed by prefix-matching its CIN
  (Corporate Identification Number) against the configured listed prefixes.
  The first character of an Indian CIN encodes listing status ("L" = listed
  public company), so this is a pure string check.

CONTRACT:
  - Identifier is uppercased and trimmed before matching.
  - Empty input classifies as unlisted.
  - Prefix comparison is case-insensitive.
  - No error path: a malformed identifier simply classifies as unlisted.
*/
package plan

import "strings"

// IsListed reports whether the identifier starts with any configured
// listed prefix.
func IsListed(cin string, listedPrefixes []string) bool {
	text := strings.ToUpper(strings.TrimSpace(cin))
	if text == "" {
		return false
	}
	for _, prefix := range listedPrefixes {
		if strings.HasPrefix(text, strings.ToUpper(prefix)) {
			return true
		}
	}
	return false
}

/*
expand.go - Job matrix expansion

PURPOSE:
  Cross-expands one company record, its resolved anchor and its target-year
  window against the required/optional document-type lists and the
  listing-derived source priority, producing the flat job rows.

LAYOUT:
  For each target year: all required document types first, then all optional
  ones. The Required flag mirrors which list the type came from. The emitted
  keys (cohort, company, year, doc type) are distinct by construction - the
  year window has no duplicates and each doc type appears in one list pass.

SOURCE PRIORITY:
  The single priority list chosen by listing status rides on every job as an
  ordered sequence; consumers try sources in that order and stop at the first
  success. This expander never attempts a fetch itself.

ERROR CONDITION:
  Expansion fails fast if both document lists are empty - that is a
  configuration error (a vacuous plan), not a per-row condition. Validate()
  already rejects it; the check here keeps the expander safe standalone.
*/
package plan

// ExpandJobs produces the job rows for one resolved company.
func ExpandJobs(rec CompanyRecord, cohort Cohort, anchor AnchorResolution, cfg *Config) ([]DownloadJob, error) {
	if len(cfg.Documents.Required) == 0 && len(cfg.Documents.Optional) == 0 {
		return nil, &ConfigError{Key: "documents.required", Err: ErrNoRequiredDocuments}
	}

	listed := IsListed(rec.CIN, cfg.Sources.ListedCINPrefixes)
	priority := cfg.Sources.PriorityUnlisted
	if listed {
		priority = cfg.Sources.PriorityListed
	}
	years := YearWindow(anchor.Year, cfg.General.LookbackYears, cfg.General.YearOrder)

	defaultYear := optionalYear(rec.DefaultYear)
	fyBeforeDefault := optionalYear(rec.FYBeforeDefault)

	jobs := make([]DownloadJob, 0, len(years)*(len(cfg.Documents.Required)+len(cfg.Documents.Optional)))
	for _, year := range years {
		for _, doc := range cfg.Documents.Required {
			jobs = append(jobs, newJob(rec, cohort, anchor, listed, priority, defaultYear, fyBeforeDefault, year, doc, true))
		}
		for _, doc := range cfg.Documents.Optional {
			jobs = append(jobs, newJob(rec, cohort, anchor, listed, priority, defaultYear, fyBeforeDefault, year, doc, false))
		}
	}
	return jobs, nil
}

func newJob(rec CompanyRecord, cohort Cohort, anchor AnchorResolution, listed bool,
	priority []string, defaultYear, fyBeforeDefault *int, targetFY int, docType string, required bool) DownloadJob {
	return DownloadJob{
		Cohort:          cohort,
		CompanyName:     rec.Name,
		CIN:             rec.CIN,
		Sector:          rec.Sector,
		IsListed:        listed,
		AnchorFY:        anchor.Year,
		AnchorReason:    anchor.Reason,
		SourcePriority:  priority,
		DefaultYear:     defaultYear,
		FYBeforeDefault: fyBeforeDefault,
		TargetFY:        targetFY,
		DocType:         docType,
		Required:        required,
	}
}

// optionalYear parses a raw year field into its nullable output form.
func optionalYear(raw string) *int {
	if year, ok := ParseYear(raw); ok {
		return &year
	}
	return nil
}

/*
summary.go - Aggregate reporting over a finished plan

PURPOSE:
  Computes the run summary surfaced to operators: company counts per cohort,
  distinct company-year targets, required/optional/total job counts and the
  distribution of source-priority profiles. Quantity of output is never a
  proxy for data quality - the warnings count and the per-row anchor_reason
  carry that - but the summary is how a run announces itself.
*/
package plan

// Summary holds aggregate counts over one plan.
type Summary struct {
	Companies          int
	CompaniesByCohort  map[Cohort]int
	CompanyYearTargets int
	RequiredJobs       int
	OptionalJobs       int
	TotalJobs          int

	// SourceProfiles maps the pipe-joined priority list to the number of
	// companies carrying it.
	SourceProfiles map[string]int

	Warnings int
}

// Summarize computes the Summary for this result.
func (r *Result) Summarize() Summary {
	s := Summary{
		CompaniesByCohort: make(map[Cohort]int),
		SourceProfiles:    make(map[string]int),
		TotalJobs:         len(r.Jobs),
		Warnings:          len(r.Warnings),
	}

	type companyKey struct {
		Cohort Cohort
		Name   string
	}
	type yearKey struct {
		Name string
		Year int
	}
	companies := make(map[companyKey]string) // -> source priority profile
	years := make(map[yearKey]bool)

	for _, j := range r.Jobs {
		companies[companyKey{j.Cohort, j.CompanyName}] = j.SourcePriorityText()
		years[yearKey{j.CompanyName, j.TargetFY}] = true
		if j.Required {
			s.RequiredJobs++
		} else {
			s.OptionalJobs++
		}
	}

	s.Companies = len(companies)
	s.CompanyYearTargets = len(years)
	for key, profile := range companies {
		s.CompaniesByCohort[key.Cohort]++
		s.SourceProfiles[profile]++
	}
	return s
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal plan model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Plans:
    PlanInfoDTO, PlanDTO, BuildPlanRequest

  Jobs:
    JobDTO

  Fetch results:
    FetchResultRequest, FetchResultDTO

  Validation:
    FindingDTO

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/config.go: ConfigDocument type
*/
package api

import (
	"time"

	"github.com/fulcrum/download-planner/cohort"
	"github.com/fulcrum/download-planner/factory"
	"github.com/fulcrum/download-planner/plan"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// BuildPlanRequest carries everything needed to build and persist a plan:
// an optional config document (defaults apply when omitted) and the two
// cohorts as rows of column name to cell value.
type BuildPlanRequest struct {
	Config        *factory.ConfigDocument `json:"config,omitempty"`
	Defaulters    []map[string]string     `json:"defaulters"`
	NonDefaulters []map[string]string     `json:"non_defaulters"`
}

// PlanInfoDTO is the list-view summary of a stored plan.
type PlanInfoDTO struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	TotalJobs int    `json:"total_jobs"`
}

// PlanDTO is the full plan: every job row plus build warnings.
type PlanDTO struct {
	PlanInfoDTO
	Jobs     []JobDTO     `json:"jobs"`
	Warnings []WarningDTO `json:"warnings"`
}

// JobDTO represents one download job row. Field order mirrors the
// CSV column order.
type JobDTO struct {
	Cohort          string   `json:"cohort"`
	CompanyName     string   `json:"company_name"`
	CIN             string   `json:"cin"`
	Sector          string   `json:"sector"`
	IsListed        bool     `json:"is_listed"`
	AnchorFY        int      `json:"anchor_fy"`
	AnchorReason    string   `json:"anchor_reason"`
	SourcePriority  []string `json:"source_priority"`
	DefaultYear     *int     `json:"default_year"`
	FYBeforeDefault *int     `json:"fy_before_default"`
	TargetFY        int      `json:"target_fy"`
	DocType         string   `json:"doc_type"`
	Required        bool     `json:"required"`
}

// WarningDTO is a non-fatal issue recorded during a build.
type WarningDTO struct {
	Code        string `json:"code"`
	Cohort      string `json:"cohort,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Message     string `json:"message"`
}

// BuildPlanResponse is returned after a successful build.
type BuildPlanResponse struct {
	ID       string       `json:"id"`
	Summary  SummaryDTO   `json:"summary"`
	Warnings []WarningDTO `json:"warnings"`
	Findings []FindingDTO `json:"findings,omitempty"`
}

// SummaryDTO mirrors plan.Summary for API responses.
type SummaryDTO struct {
	Companies          int            `json:"companies"`
	CompaniesByCohort  map[string]int `json:"companies_by_cohort"`
	CompanyYearTargets int            `json:"company_year_targets"`
	RequiredJobs       int            `json:"required_jobs"`
	OptionalJobs       int            `json:"optional_jobs"`
	TotalJobs          int            `json:"total_jobs"`
	SourceProfiles     map[string]int `json:"source_profiles"`
	Warnings           int            `json:"warnings"`
}

// FindingDTO is a cohort validation finding (error or warning).
type FindingDTO struct {
	Severity string `json:"severity"`
	Row      int    `json:"row"`
	Company  string `json:"company,omitempty"`
	Message  string `json:"message"`
}

// FetchResultRequest records one download attempt against a job.
// The job is identified by the four key fields in the body.
type FetchResultRequest struct {
	Cohort      string `json:"cohort"`
	CompanyName string `json:"company_name"`
	TargetFY    int    `json:"target_fy"`
	DocType     string `json:"doc_type"`
	Source      string `json:"source"`
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
}

// FetchResultDTO is one fetch log entry in API responses.
type FetchResultDTO struct {
	Source      string `json:"source"`
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	AttemptedAt string `json:"attempted_at"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// DOMAIN -> DTO CONVERSION
// =============================================================================

func toJobDTO(j plan.DownloadJob) JobDTO {
	return JobDTO{
		Cohort:          string(j.Cohort),
		CompanyName:     j.CompanyName,
		CIN:             j.CIN,
		Sector:          j.Sector,
		IsListed:        j.IsListed,
		AnchorFY:        j.AnchorFY,
		AnchorReason:    j.AnchorReason,
		SourcePriority:  j.SourcePriority,
		DefaultYear:     j.DefaultYear,
		FYBeforeDefault: j.FYBeforeDefault,
		TargetFY:        j.TargetFY,
		DocType:         j.DocType,
		Required:        j.Required,
	}
}

func toJobDTOs(jobs []plan.DownloadJob) []JobDTO {
	dtos := make([]JobDTO, len(jobs))
	for i, j := range jobs {
		dtos[i] = toJobDTO(j)
	}
	return dtos
}

func toWarningDTOs(warnings []plan.Warning) []WarningDTO {
	dtos := make([]WarningDTO, len(warnings))
	for i, w := range warnings {
		dtos[i] = WarningDTO{
			Code:        w.Code,
			Cohort:      string(w.Cohort),
			CompanyName: w.CompanyName,
			Message:     w.Message,
		}
	}
	return dtos
}

func toSummaryDTO(s plan.Summary) SummaryDTO {
	byCohort := make(map[string]int, len(s.CompaniesByCohort))
	for c, n := range s.CompaniesByCohort {
		byCohort[string(c)] = n
	}
	return SummaryDTO{
		Companies:          s.Companies,
		CompaniesByCohort:  byCohort,
		CompanyYearTargets: s.CompanyYearTargets,
		RequiredJobs:       s.RequiredJobs,
		OptionalJobs:       s.OptionalJobs,
		TotalJobs:          s.TotalJobs,
		SourceProfiles:     s.SourceProfiles,
		Warnings:           s.Warnings,
	}
}

func toFindingDTOs(findings []cohort.Finding) []FindingDTO {
	dtos := make([]FindingDTO, len(findings))
	for i, f := range findings {
		dtos[i] = FindingDTO{
			Severity: string(f.Severity),
			Row:      f.Row,
			Company:  f.Company,
			Message:  f.Message,
		}
	}
	return dtos
}

func toFetchResultDTOs(log []plan.FetchResult) []FetchResultDTO {
	dtos := make([]FetchResultDTO, len(log))
	for i, r := range log {
		dtos[i] = FetchResultDTO{
			Source:      r.Source,
			Success:     r.Success,
			Message:     r.Message,
			AttemptedAt: r.AttemptedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

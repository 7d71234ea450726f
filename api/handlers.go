/*
handlers.go - HTTP API handlers for the download plan builder

PURPOSE:
  Exposes the plan builder via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the plan and cohort packages.

ENDPOINTS:
  Plans:
    POST   /api/plans                  Build and persist a plan
    GET    /api/plans                  List stored plans
    GET    /api/plans/{id}             Get one plan with all job rows
    GET    /api/plans/{id}/summary     Aggregate counts for one plan
    GET    /api/plans/{id}/csv         Plan rows as CSV

  Jobs:
    GET    /api/plans/{id}/jobs        Job rows (?pending=true for resume set)
    POST   /api/plans/{id}/results     Record a fetch attempt
    GET    /api/plans/{id}/log         Fetch log for one job key

  Health:
    GET    /api/health                 Liveness probe

ARCHITECTURE:
  Handler holds the store behind the plan.Store interface, so the HTTP
  layer works identically over sqlite and the in-memory store.

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (cohort findings are report-only, returned with the plan)
  3. Call plan.Build / store methods
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Config errors, malformed bodies
  - 404: Unknown plan ID
  - 500: Store failures
  Per-row data findings never fail a request; they ride along in the
  build response as findings.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fulcrum/download-planner/cohort"
	"github.com/fulcrum/download-planner/plan"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store plan.Store
}

// NewHandler creates a new handler over the given store.
func NewHandler(store plan.Store) *Handler {
	return &Handler{Store: store}
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// BuildPlan validates the cohorts, builds a plan, and persists it.
// POST /api/plans
func (h *Handler) BuildPlan(w http.ResponseWriter, r *http.Request) {
	var req BuildPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg := plan.DefaultConfig()
	if req.Config != nil {
		parsed, err := req.Config.Config()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid config", err)
			return
		}
		cfg = parsed
	}

	defaulters := cohort.Records(req.Defaulters)
	nonDefaulters := cohort.Records(req.NonDefaulters)

	// Validation findings are a report, never a gate: bad rows still plan
	// (a malformed CIN just classifies as unlisted). Only configuration
	// errors abort.
	var findings []cohort.Finding
	findings = append(findings, cohort.Validate(defaulters, plan.CohortDefaulter).Findings...)
	findings = append(findings, cohort.Validate(nonDefaulters, plan.CohortNonDefaulter).Findings...)

	result, err := plan.Build(plan.BuildInput{
		Defaulters:    defaulters,
		NonDefaulters: nonDefaulters,
		Config:        cfg,
	})
	if err != nil {
		if plan.IsConfigError(err) {
			writeError(w, http.StatusBadRequest, "Invalid config", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to build plan", err)
		return
	}

	id, err := h.Store.SavePlan(r.Context(), result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save plan", err)
		return
	}

	writeJSON(w, http.StatusCreated, BuildPlanResponse{
		ID:       id,
		Summary:  toSummaryDTO(result.Summarize()),
		Warnings: toWarningDTOs(result.Warnings),
		Findings: toFindingDTOs(findings),
	})
}

// ListPlans returns stored plans, newest first.
// GET /api/plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	infos, err := h.Store.ListPlans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}

	dtos := make([]PlanInfoDTO, len(infos))
	for i, info := range infos {
		dtos[i] = toPlanInfoDTO(info)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPlan returns one plan with all its job rows.
// GET /api/plans/{id}
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.loadPlan(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, PlanDTO{
		PlanInfoDTO: toPlanInfoDTO(stored.PlanInfo),
		Jobs:        toJobDTOs(stored.Jobs),
		Warnings:    toWarningDTOs(stored.Warnings),
	})
}

// GetSummary returns aggregate counts for one plan.
// GET /api/plans/{id}/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.loadPlan(w, r)
	if !ok {
		return
	}

	result := plan.Result{Jobs: stored.Jobs, Warnings: stored.Warnings}
	writeJSON(w, http.StatusOK, toSummaryDTO(result.Summarize()))
}

// GetCSV streams the plan rows in the canonical CSV layout.
// GET /api/plans/{id}/csv
func (h *Handler) GetCSV(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.loadPlan(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+stored.ID+".csv")
	w.WriteHeader(http.StatusOK)
	_ = plan.WriteCSV(w, stored.Jobs) // headers already sent, nothing to report
}

// =============================================================================
// JOB HANDLERS
// =============================================================================

// ListJobs returns the plan's job rows. With ?pending=true only jobs that
// have no successful fetch yet are returned, in canonical order, so a
// download worker can resume where it left off.
// GET /api/plans/{id}/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var jobs []plan.DownloadJob
	var err error
	if r.URL.Query().Get("pending") == "true" {
		jobs, err = h.Store.PendingJobs(r.Context(), id)
	} else {
		var stored *plan.StoredPlan
		stored, err = h.Store.GetPlan(r.Context(), id)
		if stored != nil {
			jobs = stored.Jobs
		}
	}
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobDTOs(jobs))
}

// RecordResult appends one fetch attempt to the plan's log.
// POST /api/plans/{id}/results
func (h *Handler) RecordResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req FetchResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CompanyName == "" || req.DocType == "" {
		writeError(w, http.StatusBadRequest, "company_name and doc_type are required", nil)
		return
	}

	result := plan.FetchResult{
		Key: plan.JobKey{
			Cohort:      plan.Cohort(req.Cohort),
			CompanyName: req.CompanyName,
			TargetFY:    req.TargetFY,
			DocType:     req.DocType,
		},
		Source:      req.Source,
		Success:     req.Success,
		Message:     req.Message,
		AttemptedAt: time.Now().UTC(),
	}
	if err := h.Store.AppendFetchResult(r.Context(), id, result); err != nil {
		h.writeStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetFetchLog returns every recorded attempt for one job key, oldest first.
// GET /api/plans/{id}/log?cohort=&company_name=&target_fy=&doc_type=
func (h *Handler) GetFetchLog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()

	targetFY, ok := plan.ParseYear(q.Get("target_fy"))
	if !ok {
		writeError(w, http.StatusBadRequest, "target_fy must be a year", nil)
		return
	}
	key := plan.JobKey{
		Cohort:      plan.Cohort(q.Get("cohort")),
		CompanyName: q.Get("company_name"),
		TargetFY:    targetFY,
		DocType:     q.Get("doc_type"),
	}

	log, err := h.Store.FetchLog(r.Context(), id, key)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFetchResultDTOs(log))
}

// =============================================================================
// HEALTH
// =============================================================================

// Health is a liveness probe.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadPlan(w http.ResponseWriter, r *http.Request) (*plan.StoredPlan, bool) {
	id := chi.URLParam(r, "id")
	stored, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err)
		return nil, false
	}
	return stored, true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, plan.ErrPlanNotFound) {
		writeError(w, http.StatusNotFound, "Plan not found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "Store error", err)
}

func toPlanInfoDTO(info plan.PlanInfo) PlanInfoDTO {
	return PlanInfoDTO{
		ID:        info.ID,
		CreatedAt: info.CreatedAt.Format(time.RFC3339),
		TotalJobs: info.TotalJobs,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

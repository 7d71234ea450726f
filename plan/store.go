/*
store.go - Persistence interface for plans and the fetch log

PURPOSE:
  Defines the interface between the plan builder and storage. A stored plan
  is immutable: jobs are written once when the plan is saved and never
  updated. Fetch attempts land in an append-only log keyed by the job's
  checkpoint key, which is how the (external) fetch pipeline resumes.

APPEND-ONLY CONTRACT:
  - SavePlan writes a plan and all of its job rows once.
  - AppendFetchResult is the ONLY post-save write, and it only inserts.
  - No Update or Delete methods exist on either surface.

RESUME SEMANTICS:
  PendingJobs returns the jobs with no successful fetch recorded, in the
  plan's canonical order. (cohort, company_name, target_fy, doc_type) is the
  checkpoint key; a job disappears from the pending set on its first
  success, regardless of how many failures preceded it.

IMPLEMENTATIONS:
  - store/sqlite: Production store
  - store/memory: In-memory store for tests
*/
package plan

import (
	"context"
	"errors"
	"time"
)

// ErrPlanNotFound is returned when a referenced plan does not exist.
var ErrPlanNotFound = errors.New("plan not found")

// PlanInfo is the stored-plan header.
type PlanInfo struct {
	ID        string
	CreatedAt time.Time
	TotalJobs int
}

// StoredPlan is a persisted plan with its job rows in canonical order.
type StoredPlan struct {
	PlanInfo
	Jobs     []DownloadJob
	Warnings []Warning
}

// FetchResult is one fetch attempt against one job, as reported by the
// download pipeline. Success=false entries are kept; the log is the audit
// trail, not just the checkpoint.
type FetchResult struct {
	Key         JobKey
	Source      string // which source tag was tried
	Success     bool
	Message     string
	AttemptedAt time.Time
}

// Store persists plans and their fetch logs.
type Store interface {
	// SavePlan persists a finished plan and returns its assigned ID.
	SavePlan(ctx context.Context, result *Result) (string, error)

	// GetPlan returns a stored plan with all job rows.
	GetPlan(ctx context.Context, id string) (*StoredPlan, error)

	// ListPlans returns headers for all stored plans, newest first.
	ListPlans(ctx context.Context) ([]PlanInfo, error)

	// PendingJobs returns the jobs of a plan with no successful fetch yet,
	// in canonical order.
	PendingJobs(ctx context.Context, planID string) ([]DownloadJob, error)

	// AppendFetchResult records one fetch attempt. Append-only.
	AppendFetchResult(ctx context.Context, planID string, res FetchResult) error

	// FetchLog returns all recorded attempts for one job, oldest first.
	FetchLog(ctx context.Context, planID string, key JobKey) ([]FetchResult, error)
}

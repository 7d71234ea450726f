/*
Package sqlite provides a SQLite-backed implementation of plan.Store.

PURPOSE:
  Persists finished download plans and the fetch log the (external) download
  pipeline writes back. The same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  - plan_jobs rows are written once when a plan is saved; no UPDATE path
  - fetch_log is INSERT-only; a job's state is derived from its log
  - no DELETE statements exist anywhere in this package

KEY TABLES:
  plans:      Plan headers (id, created_at, total_jobs)
  plan_jobs:  One row per download job, PK mirrors the job identity
              (plan_id, cohort, company_name, target_fy, doc_type)
  fetch_log:  Append-only fetch attempts keyed by the same job identity

RESUME:
  PendingJobs joins plan_jobs against successful fetch_log entries; a job
  leaves the pending set on its first recorded success. The job identity
  columns are the checkpoint key the fetcher resumes from.

WAL MODE:
  Opened with WAL for better concurrency: readers don't block, single
  writer, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/plans.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - plan/store.go: Interface definition and resume semantics
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fulcrum/download-planner/plan"
)

// Store implements plan.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Plan headers
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		total_jobs INTEGER NOT NULL
	);

	-- One row per download job; written once when the plan is saved
	CREATE TABLE IF NOT EXISTS plan_jobs (
		plan_id TEXT NOT NULL REFERENCES plans(id),
		seq INTEGER NOT NULL,            -- canonical row order within the plan
		cohort TEXT NOT NULL,
		company_name TEXT NOT NULL,
		cin TEXT,
		sector TEXT,
		is_listed INTEGER NOT NULL,
		anchor_fy INTEGER NOT NULL,
		anchor_reason TEXT NOT NULL,
		source_priority TEXT NOT NULL,   -- pipe-joined, ordered
		default_year INTEGER,
		fy_before_default INTEGER,
		target_fy INTEGER NOT NULL,
		doc_type TEXT NOT NULL,
		required INTEGER NOT NULL,
		PRIMARY KEY (plan_id, cohort, company_name, target_fy, doc_type)
	);

	-- Data-quality warnings observed while the plan was built
	CREATE TABLE IF NOT EXISTS plan_warnings (
		plan_id TEXT NOT NULL REFERENCES plans(id),
		seq INTEGER NOT NULL,
		code TEXT NOT NULL,
		cohort TEXT NOT NULL,
		company_name TEXT,
		message TEXT,
		PRIMARY KEY (plan_id, seq)
	);

	-- Append-only fetch attempts (INSERT only; no UPDATE, no DELETE)
	CREATE TABLE IF NOT EXISTS fetch_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		plan_id TEXT NOT NULL REFERENCES plans(id),
		cohort TEXT NOT NULL,
		company_name TEXT NOT NULL,
		target_fy INTEGER NOT NULL,
		doc_type TEXT NOT NULL,
		source TEXT,
		success INTEGER NOT NULL,
		message TEXT,
		attempted_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plan_jobs_order
		ON plan_jobs(plan_id, seq);
	CREATE INDEX IF NOT EXISTS idx_fetch_log_key
		ON fetch_log(plan_id, cohort, company_name, target_fy, doc_type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PLAN PERSISTENCE
// =============================================================================

// SavePlan persists a finished plan and all of its job rows atomically.
func (s *Store) SavePlan(ctx context.Context, result *plan.Result) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("plan-%d", time.Now().UnixNano())
	createdAt := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO plans (id, created_at, total_jobs) VALUES (?, ?, ?)`,
		id, createdAt.Format(time.RFC3339Nano), len(result.Jobs))
	if err != nil {
		return "", fmt.Errorf("insert plan: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO plan_jobs (
			plan_id, seq, cohort, company_name, cin, sector, is_listed,
			anchor_fy, anchor_reason, source_priority,
			default_year, fy_before_default, target_fy, doc_type, required
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for seq, j := range result.Jobs {
		_, err := stmt.ExecContext(ctx,
			id, seq, string(j.Cohort), j.CompanyName, j.CIN, j.Sector, boolInt(j.IsListed),
			j.AnchorFY, j.AnchorReason, j.SourcePriorityText(),
			nullableYear(j.DefaultYear), nullableYear(j.FYBeforeDefault),
			j.TargetFY, j.DocType, boolInt(j.Required))
		if err != nil {
			return "", fmt.Errorf("insert job %d: %w", seq, err)
		}
	}

	for seq, w := range result.Warnings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO plan_warnings (plan_id, seq, code, cohort, company_name, message)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, seq, w.Code, string(w.Cohort), w.CompanyName, w.Message)
		if err != nil {
			return "", fmt.Errorf("insert warning %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// GetPlan returns a stored plan with all job rows in canonical order.
func (s *Store) GetPlan(ctx context.Context, id string) (*plan.StoredPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := s.planInfo(ctx, id)
	if err != nil {
		return nil, err
	}

	jobs, err := s.queryJobs(ctx, `
		SELECT cohort, company_name, cin, sector, is_listed, anchor_fy,
		       anchor_reason, source_priority, default_year, fy_before_default,
		       target_fy, doc_type, required
		FROM plan_jobs WHERE plan_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}

	warnings, err := s.queryWarnings(ctx, id)
	if err != nil {
		return nil, err
	}

	return &plan.StoredPlan{PlanInfo: *info, Jobs: jobs, Warnings: warnings}, nil
}

// ListPlans returns plan headers, newest first.
func (s *Store) ListPlans(ctx context.Context) ([]plan.PlanInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, total_jobs FROM plans ORDER BY rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []plan.PlanInfo
	for rows.Next() {
		var info plan.PlanInfo
		var createdAt string
		if err := rows.Scan(&info.ID, &createdAt, &info.TotalJobs); err != nil {
			return nil, err
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// =============================================================================
// FETCH LOG
// =============================================================================

// AppendFetchResult records one fetch attempt. Append-only.
func (s *Store) AppendFetchResult(ctx context.Context, planID string, res plan.FetchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.planInfo(ctx, planID); err != nil {
		return err
	}

	attemptedAt := res.AttemptedAt
	if attemptedAt.IsZero() {
		attemptedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fetch_log (plan_id, cohort, company_name, target_fy, doc_type,
		                       source, success, message, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		planID, string(res.Key.Cohort), res.Key.CompanyName, res.Key.TargetFY,
		res.Key.DocType, res.Source, boolInt(res.Success), res.Message,
		attemptedAt.Format(time.RFC3339Nano))
	return err
}

// PendingJobs returns the jobs with no successful fetch yet, in canonical
// order.
func (s *Store) PendingJobs(ctx context.Context, planID string) ([]plan.DownloadJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.planInfo(ctx, planID); err != nil {
		return nil, err
	}

	return s.queryJobs(ctx, `
		SELECT j.cohort, j.company_name, j.cin, j.sector, j.is_listed, j.anchor_fy,
		       j.anchor_reason, j.source_priority, j.default_year, j.fy_before_default,
		       j.target_fy, j.doc_type, j.required
		FROM plan_jobs j
		WHERE j.plan_id = ?
		  AND NOT EXISTS (
			SELECT 1 FROM fetch_log f
			WHERE f.plan_id = j.plan_id
			  AND f.cohort = j.cohort
			  AND f.company_name = j.company_name
			  AND f.target_fy = j.target_fy
			  AND f.doc_type = j.doc_type
			  AND f.success = 1
		  )
		ORDER BY j.seq`, planID)
}

// FetchLog returns all recorded attempts for one job, oldest first.
func (s *Store) FetchLog(ctx context.Context, planID string, key plan.JobKey) ([]plan.FetchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT source, success, message, attempted_at
		FROM fetch_log
		WHERE plan_id = ? AND cohort = ? AND company_name = ? AND target_fy = ? AND doc_type = ?
		ORDER BY id`,
		planID, string(key.Cohort), key.CompanyName, key.TargetFY, key.DocType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []plan.FetchResult
	for rows.Next() {
		res := plan.FetchResult{Key: key}
		var success int
		var attemptedAt string
		if err := rows.Scan(&res.Source, &success, &res.Message, &attemptedAt); err != nil {
			return nil, err
		}
		res.Success = success != 0
		res.AttemptedAt, _ = time.Parse(time.RFC3339Nano, attemptedAt)
		results = append(results, res)
	}
	return results, rows.Err()
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

func (s *Store) planInfo(ctx context.Context, id string) (*plan.PlanInfo, error) {
	var info plan.PlanInfo
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, total_jobs FROM plans WHERE id = ?`, id).
		Scan(&info.ID, &createdAt, &info.TotalJobs)
	if err == sql.ErrNoRows {
		return nil, plan.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	info.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &info, nil
}

func (s *Store) queryJobs(ctx context.Context, query string, args ...any) ([]plan.DownloadJob, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []plan.DownloadJob
	for rows.Next() {
		var j plan.DownloadJob
		var cohort, priority string
		var listed, required int
		var defaultYear, fyBeforeDefault sql.NullInt64
		err := rows.Scan(&cohort, &j.CompanyName, &j.CIN, &j.Sector, &listed,
			&j.AnchorFY, &j.AnchorReason, &priority, &defaultYear, &fyBeforeDefault,
			&j.TargetFY, &j.DocType, &required)
		if err != nil {
			return nil, err
		}
		j.Cohort = plan.Cohort(cohort)
		j.IsListed = listed != 0
		j.Required = required != 0
		if priority != "" {
			j.SourcePriority = strings.Split(priority, "|")
		}
		if defaultYear.Valid {
			y := int(defaultYear.Int64)
			j.DefaultYear = &y
		}
		if fyBeforeDefault.Valid {
			y := int(fyBeforeDefault.Int64)
			j.FYBeforeDefault = &y
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *Store) queryWarnings(ctx context.Context, planID string) ([]plan.Warning, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, cohort, company_name, message
		FROM plan_warnings WHERE plan_id = ? ORDER BY seq`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var warnings []plan.Warning
	for rows.Next() {
		var w plan.Warning
		var cohort string
		if err := rows.Scan(&w.Code, &cohort, &w.CompanyName, &w.Message); err != nil {
			return nil, err
		}
		w.Cohort = plan.Cohort(cohort)
		warnings = append(warnings, w)
	}
	return warnings, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableYear(y *int) any {
	if y == nil {
		return nil
	}
	return *y
}

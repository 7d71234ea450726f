// Package memory provides an in-memory plan.Store implementation
// (for testing/dev).
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fulcrum/download-planner/plan"
)

// Store keeps plans and fetch logs in maps. Same append-only contract as the
// SQLite store: jobs are written once, fetch results only ever accumulate.
type Store struct {
	mu     sync.RWMutex
	nextID int
	plans  map[string]*storedPlan
}

type storedPlan struct {
	info     plan.PlanInfo
	jobs     []plan.DownloadJob
	warnings []plan.Warning
	log      map[plan.JobKey][]plan.FetchResult
}

func New() *Store {
	return &Store{plans: make(map[string]*storedPlan)}
}

// SavePlan persists a finished plan.
func (s *Store) SavePlan(_ context.Context, result *plan.Result) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := fmt.Sprintf("plan-%d", s.nextID)

	jobs := make([]plan.DownloadJob, len(result.Jobs))
	copy(jobs, result.Jobs)
	warnings := make([]plan.Warning, len(result.Warnings))
	copy(warnings, result.Warnings)

	s.plans[id] = &storedPlan{
		info:     plan.PlanInfo{ID: id, CreatedAt: time.Now().UTC(), TotalJobs: len(jobs)},
		jobs:     jobs,
		warnings: warnings,
		log:      make(map[plan.JobKey][]plan.FetchResult),
	}
	return id, nil
}

func (s *Store) GetPlan(_ context.Context, id string) (*plan.StoredPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, plan.ErrPlanNotFound
	}
	jobs := make([]plan.DownloadJob, len(p.jobs))
	copy(jobs, p.jobs)
	warnings := make([]plan.Warning, len(p.warnings))
	copy(warnings, p.warnings)
	return &plan.StoredPlan{PlanInfo: p.info, Jobs: jobs, Warnings: warnings}, nil
}

func (s *Store) ListPlans(_ context.Context) ([]plan.PlanInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]plan.PlanInfo, 0, len(s.plans))
	for i := s.nextID; i >= 1; i-- { // newest first
		if p, ok := s.plans[fmt.Sprintf("plan-%d", i)]; ok {
			infos = append(infos, p.info)
		}
	}
	return infos, nil
}

func (s *Store) PendingJobs(_ context.Context, planID string) ([]plan.DownloadJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[planID]
	if !ok {
		return nil, plan.ErrPlanNotFound
	}

	var pending []plan.DownloadJob
	for _, j := range p.jobs {
		if !succeeded(p.log[j.Key()]) {
			pending = append(pending, j)
		}
	}
	return pending, nil
}

// AppendFetchResult records one fetch attempt. Append-only.
func (s *Store) AppendFetchResult(_ context.Context, planID string, res plan.FetchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[planID]
	if !ok {
		return plan.ErrPlanNotFound
	}
	if res.AttemptedAt.IsZero() {
		res.AttemptedAt = time.Now().UTC()
	}
	p.log[res.Key] = append(p.log[res.Key], res)
	return nil
}

func (s *Store) FetchLog(_ context.Context, planID string, key plan.JobKey) ([]plan.FetchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[planID]
	if !ok {
		return nil, plan.ErrPlanNotFound
	}
	log := make([]plan.FetchResult, len(p.log[key]))
	copy(log, p.log[key])
	return log, nil
}

func succeeded(attempts []plan.FetchResult) bool {
	for _, a := range attempts {
		if a.Success {
			return true
		}
	}
	return false
}

package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/nestegg-app/nestegg/internal/api"
	"github.com/nestegg-app/nestegg/internal/money"
)

// SeededSetup runs the one-shot category seeding call and holds its
// outcome. It never retries on its own; a failed run waits for the user.
type SeededSetup struct {
	svc      Seeder
	reporter Reporter
	notifier notifier

	mu      sync.Mutex
	gen     uint64
	loading bool
	result  *api.SeedDefaultsResult
	errMsg  string
}

// SeedSnapshot is a copy of the seeding state, safe to render from.
type SeedSnapshot struct {
	Loading bool
	Result  *api.SeedDefaultsResult
	Err     string
}

// NewSeededSetup creates a seeding controller backed by svc. A nil reporter
// falls back to NopReporter.
func NewSeededSetup(svc Seeder, reporter Reporter) *SeededSetup {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &SeededSetup{svc: svc, reporter: reporter}
}

// Subscribe registers fn to run after every state change.
func (s *SeededSetup) Subscribe(fn func()) { s.notifier.subscribe(fn) }

// Snapshot returns a copy of the current state.
func (s *SeededSetup) Snapshot() SeedSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := SeedSnapshot{Loading: s.loading, Err: s.errMsg}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

// Run asks the service to seed its default categories with budgetCents
// split evenly across expense categories, tracking accountIDs (empty means
// all). A run while one is in flight is a no-op; starting a run clears the
// previous error. The result is stored exactly as the service returned it.
func (s *SeededSetup) Run(ctx context.Context, budgetCents int64, accountIDs []string) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return
	}
	s.loading = true
	s.errMsg = ""
	gen := s.gen
	s.mu.Unlock()
	s.notifier.notify()

	res, err := s.svc.SeedDefaultCategories(ctx, api.SeedDefaultsRequest{
		MonthlyBudget: money.Dollars(budgetCents),
		AccountIDs:    accountIDs,
	})

	s.mu.Lock()
	s.loading = false
	if gen != s.gen || errors.Is(err, context.Canceled) {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.errMsg = api.Message(err)
		s.mu.Unlock()
		s.reporter.Event("seeding.failed", "error", err)
		s.notifier.notify()
		return
	}
	s.result = res
	s.mu.Unlock()
	s.reporter.Event("seeding.done",
		"categories", res.CategoriesCreated, "subcategories", res.SubcategoriesCreated)
	s.notifier.notify()
}

// Detach invalidates whatever is still in flight.
func (s *SeededSetup) Detach() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
}

package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nestegg-app/nestegg/internal/api"
)

type fakeSeeder struct {
	mu    sync.Mutex
	calls int
	last  api.SeedDefaultsRequest
	fn    func(ctx context.Context, in api.SeedDefaultsRequest) (*api.SeedDefaultsResult, error)
}

func (f *fakeSeeder) SeedDefaultCategories(ctx context.Context, in api.SeedDefaultsRequest) (*api.SeedDefaultsResult, error) {
	f.mu.Lock()
	f.calls++
	f.last = in
	f.mu.Unlock()
	if f.fn == nil {
		return &api.SeedDefaultsResult{}, nil
	}
	return f.fn(ctx, in)
}

func TestRunStoresResultVerbatim(t *testing.T) {
	want := api.SeedDefaultsResult{
		CategoriesCreated:    5,
		SubcategoriesCreated: 12,
		BudgetsCreated:       12,
		MonthlyBudget:        3000,
		BudgetPerCategory:    600,
	}
	svc := &fakeSeeder{fn: func(context.Context, api.SeedDefaultsRequest) (*api.SeedDefaultsResult, error) {
		r := want
		return &r, nil
	}}
	s := NewSeededSetup(svc, nil)

	s.Run(context.Background(), 300000, nil)

	snap := s.Snapshot()
	if snap.Loading || snap.Err != "" {
		t.Fatalf("flags = %+v, want settled success", snap)
	}
	if snap.Result == nil || *snap.Result != want {
		t.Fatalf("result = %+v, want %+v stored verbatim", snap.Result, want)
	}

	svc.mu.Lock()
	req := svc.last
	svc.mu.Unlock()
	if req.MonthlyBudget != 3000 {
		t.Fatalf("request budget = %v dollars, want 3000", req.MonthlyBudget)
	}
	if len(req.AccountIDs) != 0 {
		t.Fatalf("request accounts = %v, want empty", req.AccountIDs)
	}
}

func TestRunPassesSelectedAccounts(t *testing.T) {
	svc := &fakeSeeder{}
	s := NewSeededSetup(svc, nil)

	s.Run(context.Background(), 5000, []string{"acc1", "acc2"})

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.last.AccountIDs) != 2 || svc.last.AccountIDs[0] != "acc1" {
		t.Fatalf("accounts = %v, want [acc1 acc2]", svc.last.AccountIDs)
	}
	if svc.last.MonthlyBudget != 50 {
		t.Fatalf("budget = %v dollars, want 50", svc.last.MonthlyBudget)
	}
}

func TestRunFailureRecordsErrorOnly(t *testing.T) {
	svc := &fakeSeeder{fn: func(context.Context, api.SeedDefaultsRequest) (*api.SeedDefaultsResult, error) {
		return nil, &api.Error{StatusCode: 409, Message: "Default categories already exist"}
	}}
	s := NewSeededSetup(svc, nil)

	s.Run(context.Background(), 100000, nil)

	snap := s.Snapshot()
	if snap.Err != "Default categories already exist" {
		t.Fatalf("err = %q", snap.Err)
	}
	if snap.Result != nil {
		t.Fatalf("result = %+v, want nil after failure", snap.Result)
	}
	if snap.Loading {
		t.Fatal("loading flag stuck after failure")
	}
}

func TestRunRetryAfterFailureClearsError(t *testing.T) {
	fail := true
	svc := &fakeSeeder{fn: func(context.Context, api.SeedDefaultsRequest) (*api.SeedDefaultsResult, error) {
		if fail {
			return nil, errors.New("down")
		}
		return &api.SeedDefaultsResult{CategoriesCreated: 19}, nil
	}}
	s := NewSeededSetup(svc, nil)

	s.Run(context.Background(), 100000, nil)
	fail = false
	s.Run(context.Background(), 100000, nil)

	snap := s.Snapshot()
	if snap.Err != "" || snap.Result == nil || snap.Result.CategoriesCreated != 19 {
		t.Fatalf("retry should recover, got %+v", snap)
	}
}

func TestRunWhileRunningIsNoOp(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	svc := &fakeSeeder{fn: func(context.Context, api.SeedDefaultsRequest) (*api.SeedDefaultsResult, error) {
		close(started)
		<-release
		return &api.SeedDefaultsResult{}, nil
	}}
	s := NewSeededSetup(svc, nil)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background(), 100000, nil)
		close(done)
	}()
	<-started

	s.Run(context.Background(), 100000, nil)
	svc.mu.Lock()
	calls := svc.calls
	svc.mu.Unlock()
	if calls != 1 {
		t.Fatalf("seed calls = %d, want 1", calls)
	}
	close(release)
	<-done
}

func TestCanceledRunIsDiscarded(t *testing.T) {
	svc := &fakeSeeder{fn: func(context.Context, api.SeedDefaultsRequest) (*api.SeedDefaultsResult, error) {
		return nil, fmt.Errorf("POST /categories/seed-defaults: %w", context.Canceled)
	}}
	s := NewSeededSetup(svc, nil)

	s.Run(context.Background(), 100000, nil)

	snap := s.Snapshot()
	if snap.Err != "" || snap.Result != nil || snap.Loading {
		t.Fatalf("canceled run must leave no trace, got %+v", snap)
	}
}

func TestDetachedRunDiscardsResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	svc := &fakeSeeder{fn: func(context.Context, api.SeedDefaultsRequest) (*api.SeedDefaultsResult, error) {
		close(started)
		<-release
		return &api.SeedDefaultsResult{CategoriesCreated: 19}, nil
	}}
	s := NewSeededSetup(svc, nil)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background(), 100000, nil)
		close(done)
	}()
	<-started
	s.Detach()
	close(release)
	<-done

	if snap := s.Snapshot(); snap.Result != nil {
		t.Fatalf("detached controller applied a late result: %+v", snap)
	}
}

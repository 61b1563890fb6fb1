package controller

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nestegg-app/nestegg/internal/api"
)

type fakeAccounts struct {
	mu         sync.Mutex
	itemCalls  int
	itemsFn    func(ctx context.Context) ([]api.LinkedItem, error)
	accountsFn func(ctx context.Context, itemID string) ([]api.Account, error)
}

func (f *fakeAccounts) ListLinkedItems(ctx context.Context) ([]api.LinkedItem, error) {
	f.mu.Lock()
	f.itemCalls++
	f.mu.Unlock()
	if f.itemsFn == nil {
		return nil, nil
	}
	return f.itemsFn(ctx)
}

func (f *fakeAccounts) ListItemAccounts(ctx context.Context, itemID string) ([]api.Account, error) {
	if f.accountsFn == nil {
		return nil, nil
	}
	return f.accountsFn(ctx, itemID)
}

func twoBankSource() *fakeAccounts {
	return &fakeAccounts{
		itemsFn: func(context.Context) ([]api.LinkedItem, error) {
			return []api.LinkedItem{{ID: "item1"}, {ID: "item2"}}, nil
		},
		accountsFn: func(_ context.Context, itemID string) ([]api.Account, error) {
			switch itemID {
			case "item1":
				return []api.Account{{ID: "acc1", Name: "Checking"}, {ID: "acc2", Name: "Savings"}}, nil
			case "item2":
				return []api.Account{{ID: "acc3", Name: "Credit"}}, nil
			}
			return nil, nil
		},
	}
}

func TestCanCompleteFollowsBudgetInput(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"", false},
		{"0", false},
		{"-5", false},
		{"abc", false},
		{"1", true},
		{"3000.50", true},
	}
	w := NewOnboardingWizard(&fakeAccounts{}, nil)
	for _, tc := range cases {
		w.SetBudgetInput(tc.in)
		if got := w.CanComplete(); got != tc.ok {
			t.Fatalf("CanComplete(%q) = %v, want %v", tc.in, got, tc.ok)
		}
	}
}

func TestCompleteReturnsCentsAndSelection(t *testing.T) {
	w := NewOnboardingWizard(twoBankSource(), nil)
	w.LoadAccounts(context.Background())
	w.SetBudgetInput("3000.50")
	w.ToggleAccount("acc3")
	w.ToggleAccount("acc1")

	res, ok := w.Complete()
	if !ok {
		t.Fatal("Complete() should succeed with a valid budget")
	}
	if res.BudgetCents != 300050 {
		t.Fatalf("budget = %d cents, want 300050", res.BudgetCents)
	}
	// Selection comes back in display order, not toggle order.
	if len(res.AccountIDs) != 2 || res.AccountIDs[0] != "acc1" || res.AccountIDs[1] != "acc3" {
		t.Fatalf("accounts = %v, want [acc1 acc3]", res.AccountIDs)
	}
}

func TestCompleteWithoutSelectionMeansAllAccounts(t *testing.T) {
	w := NewOnboardingWizard(twoBankSource(), nil)
	w.LoadAccounts(context.Background())
	w.SetBudgetInput("100")

	res, ok := w.Complete()
	if !ok {
		t.Fatal("Complete() should succeed")
	}
	if len(res.AccountIDs) != 0 {
		t.Fatalf("accounts = %v, want empty (track all)", res.AccountIDs)
	}
}

func TestCompleteRejectsInvalidBudget(t *testing.T) {
	w := NewOnboardingWizard(&fakeAccounts{}, nil)
	w.SetBudgetInput("abc")
	if _, ok := w.Complete(); ok {
		t.Fatal("Complete() must fail while the budget does not parse")
	}
}

func TestLoadAccountsFlattensInItemOrder(t *testing.T) {
	w := NewOnboardingWizard(twoBankSource(), nil)
	w.LoadAccounts(context.Background())

	snap := w.Snapshot()
	if !snap.AccountsLoaded || snap.AccountsErr != "" {
		t.Fatalf("flags = %+v, want loaded without error", snap)
	}
	if len(snap.Accounts) != 3 {
		t.Fatalf("len(accounts) = %d, want 3", len(snap.Accounts))
	}
	want := []string{"acc1", "acc2", "acc3"}
	for i, a := range snap.Accounts {
		if a.ID != want[i] {
			t.Fatalf("accounts[%d] = %s, want %s", i, a.ID, want[i])
		}
	}
}

func TestLoadAccountsFailureIsSoft(t *testing.T) {
	src := &fakeAccounts{
		itemsFn: func(context.Context) ([]api.LinkedItem, error) {
			return nil, errors.New("aggregator down")
		},
	}
	w := NewOnboardingWizard(src, nil)
	w.SetBudgetInput("250")

	w.LoadAccounts(context.Background())

	snap := w.Snapshot()
	if snap.AccountsErr == "" {
		t.Fatal("expected a soft account error")
	}
	if snap.AccountsLoaded {
		t.Fatal("a failed load must not count as loaded")
	}
	if !w.CanComplete() {
		t.Fatal("account failure must never block completion")
	}
}

func TestLoadAccountsZeroIsLoadedNotError(t *testing.T) {
	src := &fakeAccounts{
		itemsFn: func(context.Context) ([]api.LinkedItem, error) {
			return []api.LinkedItem{}, nil
		},
	}
	w := NewOnboardingWizard(src, nil)
	w.LoadAccounts(context.Background())

	snap := w.Snapshot()
	if !snap.AccountsLoaded || snap.AccountsErr != "" || len(snap.Accounts) != 0 {
		t.Fatalf("zero accounts should read as loaded-and-empty, got %+v", snap)
	}
}

func TestLoadAccountsPartialFailureFailsWhole(t *testing.T) {
	src := twoBankSource()
	src.accountsFn = func(_ context.Context, itemID string) ([]api.Account, error) {
		if itemID == "item2" {
			return nil, errors.New("item sync failed")
		}
		return []api.Account{{ID: "acc1"}}, nil
	}
	w := NewOnboardingWizard(src, nil)
	w.LoadAccounts(context.Background())

	snap := w.Snapshot()
	if snap.AccountsErr == "" || snap.AccountsLoaded {
		t.Fatalf("one failed item must fail the load, got %+v", snap)
	}
	if len(snap.Accounts) != 0 {
		t.Fatalf("partial results must not leak, got %v", snap.Accounts)
	}
}

func TestLoadAccountsRetryAfterFailure(t *testing.T) {
	fail := true
	src := twoBankSource()
	inner := src.itemsFn
	src.itemsFn = func(ctx context.Context) ([]api.LinkedItem, error) {
		if fail {
			return nil, errors.New("down")
		}
		return inner(ctx)
	}
	w := NewOnboardingWizard(src, nil)

	w.LoadAccounts(context.Background())
	fail = false
	w.LoadAccounts(context.Background())

	snap := w.Snapshot()
	if !snap.AccountsLoaded || snap.AccountsErr != "" || len(snap.Accounts) != 3 {
		t.Fatalf("retry should recover, got %+v", snap)
	}
}

func TestToggleAccount(t *testing.T) {
	w := NewOnboardingWizard(twoBankSource(), nil)
	w.LoadAccounts(context.Background())

	w.ToggleAccount("acc2")
	if got := w.SelectedIDs(); len(got) != 1 || got[0] != "acc2" {
		t.Fatalf("selected = %v, want [acc2]", got)
	}

	w.ToggleAccount("acc2")
	if got := w.SelectedIDs(); len(got) != 0 {
		t.Fatalf("selected = %v, want empty after second toggle", got)
	}

	w.ToggleAccount("nope")
	if got := w.SelectedIDs(); len(got) != 0 {
		t.Fatalf("unknown id must be ignored, got %v", got)
	}
}

func TestToggleSelectAllSymmetry(t *testing.T) {
	w := NewOnboardingWizard(twoBankSource(), nil)
	w.LoadAccounts(context.Background())

	w.ToggleSelectAll()
	if got := len(w.SelectedIDs()); got != 3 {
		t.Fatalf("selected = %d, want all 3", got)
	}
	if !w.Snapshot().AllSelected {
		t.Fatal("AllSelected should be true")
	}

	w.ToggleSelectAll()
	if got := len(w.SelectedIDs()); got != 0 {
		t.Fatalf("selected = %d, want 0 after the reverse toggle", got)
	}
}

func TestToggleSelectAllFromPartialSelectsAll(t *testing.T) {
	w := NewOnboardingWizard(twoBankSource(), nil)
	w.LoadAccounts(context.Background())

	w.ToggleAccount("acc1")
	w.ToggleSelectAll()
	if got := len(w.SelectedIDs()); got != 3 {
		t.Fatalf("selected = %d, want all 3 from a partial selection", got)
	}
}

func TestWizardSteps(t *testing.T) {
	w := NewOnboardingWizard(&fakeAccounts{}, nil)

	if w.Advance() {
		t.Fatal("Advance must refuse while the budget is invalid")
	}
	w.SetBudgetInput("1200")
	if !w.Advance() {
		t.Fatal("Advance should succeed with a valid budget")
	}
	if got := w.Step(); got != StepAccounts {
		t.Fatalf("step = %v, want StepAccounts", got)
	}
	w.Back()
	if got := w.Step(); got != StepBudget {
		t.Fatalf("step = %v, want StepBudget", got)
	}
}

func TestLoadAccountsWhileLoadingIsNoOp(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	src := &fakeAccounts{
		itemsFn: func(context.Context) ([]api.LinkedItem, error) {
			close(started)
			<-release
			return nil, nil
		},
	}
	w := NewOnboardingWizard(src, nil)

	done := make(chan struct{})
	go func() {
		w.LoadAccounts(context.Background())
		close(done)
	}()
	<-started

	w.LoadAccounts(context.Background())
	src.mu.Lock()
	calls := src.itemCalls
	src.mu.Unlock()
	if calls != 1 {
		t.Fatalf("item calls = %d, want 1", calls)
	}
	close(release)
	<-done
}

func TestReloadDropsSelectionsForVanishedAccounts(t *testing.T) {
	src := twoBankSource()
	w := NewOnboardingWizard(src, nil)
	w.LoadAccounts(context.Background())
	w.ToggleAccount("acc3")

	src.accountsFn = func(_ context.Context, itemID string) ([]api.Account, error) {
		if itemID == "item1" {
			return []api.Account{{ID: "acc1"}}, nil
		}
		return nil, nil
	}
	w.LoadAccounts(context.Background())

	if got := w.SelectedIDs(); len(got) != 0 {
		t.Fatalf("selection for a vanished account survived: %v", got)
	}
}

package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/nestegg-app/nestegg/internal/api"
	"github.com/nestegg-app/nestegg/internal/money"
)

// WizardStep is a page of the first-run wizard.
type WizardStep int

const (
	StepBudget WizardStep = iota
	StepAccounts
)

// OnboardingWizard drives first-run setup: a monthly budget amount and an
// optional pick of which linked accounts to track.
//
// Account loading is best effort. A failed load leaves the wizard fully
// usable; the user can still complete with the budget alone.
type OnboardingWizard struct {
	src      AccountSource
	reporter Reporter
	notifier notifier

	mu              sync.Mutex
	gen             uint64
	step            WizardStep
	budgetInput     string
	accounts        []api.Account
	selected        map[string]bool
	accountsErr     string
	accountsLoading bool
	accountsLoaded  bool
}

// OnboardingResult is what a completed wizard hands to seeding.
type OnboardingResult struct {
	BudgetCents int64
	// AccountIDs empty means every linked account is tracked.
	AccountIDs []string
}

// OnboardingSnapshot is a copy of the wizard state, safe to render from.
type OnboardingSnapshot struct {
	Step            WizardStep
	BudgetInput     string
	CanComplete     bool
	Accounts        []api.Account
	Selected        map[string]bool
	AllSelected     bool
	AccountsErr     string
	AccountsLoading bool
	AccountsLoaded  bool
}

// NewOnboardingWizard creates a wizard backed by src. A nil reporter falls
// back to NopReporter.
func NewOnboardingWizard(src AccountSource, reporter Reporter) *OnboardingWizard {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &OnboardingWizard{
		src:      src,
		reporter: reporter,
		selected: make(map[string]bool),
	}
}

// Subscribe registers fn to run after every state change.
func (w *OnboardingWizard) Subscribe(fn func()) { w.notifier.subscribe(fn) }

// Snapshot returns a copy of the current state.
func (w *OnboardingWizard) Snapshot() OnboardingSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	accounts := make([]api.Account, len(w.accounts))
	copy(accounts, w.accounts)
	selected := make(map[string]bool, len(w.selected))
	for id := range w.selected {
		selected[id] = true
	}
	return OnboardingSnapshot{
		Step:            w.step,
		BudgetInput:     w.budgetInput,
		CanComplete:     w.canCompleteLocked(),
		Accounts:        accounts,
		Selected:        selected,
		AllSelected:     len(w.accounts) > 0 && len(w.selected) == len(w.accounts),
		AccountsErr:     w.accountsErr,
		AccountsLoading: w.accountsLoading,
		AccountsLoaded:  w.accountsLoaded,
	}
}

// SetBudgetInput stores the raw budget text as typed.
func (w *OnboardingWizard) SetBudgetInput(s string) {
	w.mu.Lock()
	w.budgetInput = s
	w.mu.Unlock()
	w.notifier.notify()
}

// BudgetInput returns the raw budget text.
func (w *OnboardingWizard) BudgetInput() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.budgetInput
}

// CanComplete reports whether the budget parses to a positive amount.
// Account state never gates completion.
func (w *OnboardingWizard) CanComplete() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canCompleteLocked()
}

func (w *OnboardingWizard) canCompleteLocked() bool {
	_, err := money.ParseAmountCents(w.budgetInput)
	return err == nil
}

// Step returns the current wizard page.
func (w *OnboardingWizard) Step() WizardStep {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Advance moves from the budget page to the accounts page, but only once
// the budget is valid.
func (w *OnboardingWizard) Advance() bool {
	w.mu.Lock()
	if w.step != StepBudget || !w.canCompleteLocked() {
		w.mu.Unlock()
		return false
	}
	w.step = StepAccounts
	w.mu.Unlock()
	w.notifier.notify()
	return true
}

// Back returns to the budget page.
func (w *OnboardingWizard) Back() {
	w.mu.Lock()
	w.step = StepBudget
	w.mu.Unlock()
	w.notifier.notify()
}

// LoadAccounts fetches every linked account. Failure is soft: the wizard
// records a message and stays usable. A load while one is in flight is a
// no-op. Reloading after a failure is allowed.
func (w *OnboardingWizard) LoadAccounts(ctx context.Context) {
	w.mu.Lock()
	if w.accountsLoading {
		w.mu.Unlock()
		return
	}
	w.accountsLoading = true
	w.accountsErr = ""
	gen := w.gen
	w.mu.Unlock()
	w.notifier.notify()

	accounts, err := LoadLinkedAccounts(ctx, w.src)

	w.mu.Lock()
	w.accountsLoading = false
	if gen != w.gen || errors.Is(err, context.Canceled) {
		w.mu.Unlock()
		return
	}
	if err != nil {
		w.accountsErr = api.Message(err)
		w.mu.Unlock()
		w.reporter.Event("onboarding.accounts_failed", "error", err)
		w.notifier.notify()
		return
	}
	w.accounts = accounts
	w.accountsLoaded = true
	// Selections for accounts that disappeared are dropped.
	valid := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		valid[a.ID] = true
	}
	for id := range w.selected {
		if !valid[id] {
			delete(w.selected, id)
		}
	}
	w.mu.Unlock()
	w.reporter.Event("onboarding.accounts_loaded", "count", len(accounts))
	w.notifier.notify()
}

// ToggleAccount flips one account's selection. Unknown ids are ignored.
func (w *OnboardingWizard) ToggleAccount(id string) {
	w.mu.Lock()
	known := false
	for _, a := range w.accounts {
		if a.ID == id {
			known = true
			break
		}
	}
	if !known {
		w.mu.Unlock()
		return
	}
	if w.selected[id] {
		delete(w.selected, id)
	} else {
		w.selected[id] = true
	}
	w.mu.Unlock()
	w.notifier.notify()
}

// ToggleSelectAll selects every account, or clears the selection when
// everything is already selected.
func (w *OnboardingWizard) ToggleSelectAll() {
	w.mu.Lock()
	if len(w.accounts) > 0 && len(w.selected) == len(w.accounts) {
		w.selected = make(map[string]bool)
	} else {
		for _, a := range w.accounts {
			w.selected[a.ID] = true
		}
	}
	w.mu.Unlock()
	w.notifier.notify()
}

// SelectedIDs returns the selected account ids in display order.
func (w *OnboardingWizard) SelectedIDs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selectedIDsLocked()
}

func (w *OnboardingWizard) selectedIDsLocked() []string {
	ids := make([]string, 0, len(w.selected))
	for _, a := range w.accounts {
		if w.selected[a.ID] {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// Complete closes the wizard, returning the budget in cents and the chosen
// account ids. An empty id list deliberately means "track all accounts".
// Returns false while the budget does not parse.
func (w *OnboardingWizard) Complete() (OnboardingResult, bool) {
	w.mu.Lock()
	cents, err := money.ParseAmountCents(w.budgetInput)
	if err != nil {
		w.mu.Unlock()
		return OnboardingResult{}, false
	}
	res := OnboardingResult{
		BudgetCents: cents,
		AccountIDs:  w.selectedIDsLocked(),
	}
	w.mu.Unlock()
	w.reporter.Event("onboarding.completed",
		"budget_cents", res.BudgetCents, "accounts", len(res.AccountIDs))
	return res, true
}

// Detach invalidates whatever is still in flight.
func (w *OnboardingWizard) Detach() {
	w.mu.Lock()
	w.gen++
	w.mu.Unlock()
}

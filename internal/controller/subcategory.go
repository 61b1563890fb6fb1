package controller

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nestegg-app/nestegg/internal/money"
)

// SubcategoryIcons is the pick list the form cycles through. Icons travel
// as plain emoji, same as the seeded defaults.
var SubcategoryIcons = []string{"📝", "🛒", "🍽️", "🚗", "🏠", "💊", "🎮", "✈️", "🎁", "💡"}

// NewSubcategory is a locally drafted budget line. It starts with no
// activity; spent and transaction figures only ever come from the service.
type NewSubcategory struct {
	ID               string
	Name             string
	Icon             string
	BudgetCents      *int64
	SpentCents       int64
	TransactionCount int
}

// SubcategoryForm collects a name, an icon and an optional budget for a new
// budget line. Submit builds the draft and hands it to the owner's
// callback; persisting it is the owner's business, not the form's.
type SubcategoryForm struct {
	mu       sync.Mutex
	name     string
	iconIdx  int
	budget   string
	onSubmit func(NewSubcategory)
}

// SubcategoryFormSnapshot is a copy of the form state.
type SubcategoryFormSnapshot struct {
	Name        string
	Icon        string
	BudgetInput string
	CanSubmit   bool
}

// NewSubcategoryForm creates a form that delivers drafts to onSubmit.
func NewSubcategoryForm(onSubmit func(NewSubcategory)) *SubcategoryForm {
	return &SubcategoryForm{onSubmit: onSubmit}
}

// Snapshot returns a copy of the current state.
func (f *SubcategoryForm) Snapshot() SubcategoryFormSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return SubcategoryFormSnapshot{
		Name:        f.name,
		Icon:        SubcategoryIcons[f.iconIdx],
		BudgetInput: f.budget,
		CanSubmit:   f.canSubmitLocked(),
	}
}

// SetName stores the name as typed.
func (f *SubcategoryForm) SetName(s string) {
	f.mu.Lock()
	f.name = s
	f.mu.Unlock()
}

// SetBudgetInput stores the optional budget text as typed.
func (f *SubcategoryForm) SetBudgetInput(s string) {
	f.mu.Lock()
	f.budget = s
	f.mu.Unlock()
}

// CycleIcon advances to the next icon in the pick list, wrapping around.
func (f *SubcategoryForm) CycleIcon() {
	f.mu.Lock()
	f.iconIdx = (f.iconIdx + 1) % len(SubcategoryIcons)
	f.mu.Unlock()
}

// Icon returns the currently picked icon.
func (f *SubcategoryForm) Icon() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return SubcategoryIcons[f.iconIdx]
}

// CanSubmit requires a non-blank name, and a parseable budget when one was
// typed at all.
func (f *SubcategoryForm) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canSubmitLocked()
}

func (f *SubcategoryForm) canSubmitLocked() bool {
	if strings.TrimSpace(f.name) == "" {
		return false
	}
	if strings.TrimSpace(f.budget) == "" {
		return true
	}
	_, err := money.ParseAmountCents(f.budget)
	return err == nil
}

// Submit builds the draft and delivers it. The draft carries zero spent and
// zero transactions; a fresh budget line has no history by definition.
// Returns false when the form does not validate.
func (f *SubcategoryForm) Submit() (NewSubcategory, bool) {
	f.mu.Lock()
	if !f.canSubmitLocked() {
		f.mu.Unlock()
		return NewSubcategory{}, false
	}
	draft := NewSubcategory{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(f.name),
		Icon:             SubcategoryIcons[f.iconIdx],
		SpentCents:       0,
		TransactionCount: 0,
	}
	if strings.TrimSpace(f.budget) != "" {
		cents, _ := money.ParseAmountCents(f.budget)
		draft.BudgetCents = &cents
	}
	onSubmit := f.onSubmit
	f.mu.Unlock()
	if onSubmit != nil {
		onSubmit(draft)
	}
	return draft, true
}

// Reset clears the form for the next use.
func (f *SubcategoryForm) Reset() {
	f.mu.Lock()
	f.name = ""
	f.budget = ""
	f.iconIdx = 0
	f.mu.Unlock()
}

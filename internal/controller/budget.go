package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/nestegg-app/nestegg/internal/api"
)

// BudgetTree owns the budget screen state: the category tree as the service
// reports it, plus locally drafted subcategories still being saved. Drafts
// render with zero activity until the service confirms them.
type BudgetTree struct {
	svc      CategoryService
	reporter Reporter
	notifier notifier

	mu         sync.Mutex
	gen        uint64
	categories []api.Category
	drafts     map[string][]NewSubcategory
	errMsg     string
	loading    bool
	loadedOnce bool
	saving     bool
}

// BudgetSnapshot is a copy of the budget screen state.
type BudgetSnapshot struct {
	Categories []api.Category
	Drafts     map[string][]NewSubcategory
	Err        string
	Loading    bool
	LoadedOnce bool
	Saving     bool
}

// Phase maps the snapshot to a screen state, same scheme as the goal list.
func (s BudgetSnapshot) Phase() Phase {
	switch {
	case !s.LoadedOnce:
		return PhaseLoading
	case s.Err != "" && len(s.Categories) == 0:
		return PhaseError
	case len(s.Categories) == 0:
		return PhaseEmpty
	default:
		return PhaseList
	}
}

// NewBudgetTree creates a budget tree controller backed by svc. A nil
// reporter falls back to NopReporter.
func NewBudgetTree(svc CategoryService, reporter Reporter) *BudgetTree {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &BudgetTree{
		svc:      svc,
		reporter: reporter,
		drafts:   make(map[string][]NewSubcategory),
	}
}

// Subscribe registers fn to run after every state change.
func (b *BudgetTree) Subscribe(fn func()) { b.notifier.subscribe(fn) }

// Snapshot returns a copy of the current state.
func (b *BudgetTree) Snapshot() BudgetSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	categories := make([]api.Category, len(b.categories))
	copy(categories, b.categories)
	drafts := make(map[string][]NewSubcategory, len(b.drafts))
	for id, ds := range b.drafts {
		cp := make([]NewSubcategory, len(ds))
		copy(cp, ds)
		drafts[id] = cp
	}
	return BudgetSnapshot{
		Categories: categories,
		Drafts:     drafts,
		Err:        b.errMsg,
		Loading:    b.loading,
		LoadedOnce: b.loadedOnce,
		Saving:     b.saving,
	}
}

// Load fetches the category tree, with the same attempt semantics as the
// goal list: the error clears at attempt start, a failure keeps whatever
// tree was already shown, and a load during a load is a no-op.
func (b *BudgetTree) Load(ctx context.Context) {
	b.mu.Lock()
	if b.loading {
		b.mu.Unlock()
		return
	}
	b.loading = true
	b.errMsg = ""
	gen := b.gen
	b.mu.Unlock()
	b.notifier.notify()

	categories, err := b.svc.ListCategories(ctx)

	b.mu.Lock()
	b.loading = false
	if gen != b.gen || errors.Is(err, context.Canceled) {
		b.mu.Unlock()
		return
	}
	if err != nil {
		b.errMsg = api.Message(err)
		b.loadedOnce = true
		b.mu.Unlock()
		b.reporter.Event("budget.load_failed", "error", err)
		b.notifier.notify()
		return
	}
	b.categories = categories
	b.loadedOnce = true
	b.mu.Unlock()
	b.reporter.Event("budget.loaded", "categories", len(categories))
	b.notifier.notify()
}

// AddSubcategory persists a drafted budget line under categoryID. The draft
// shows up immediately; once the service confirms, it is swapped for the
// stored row. A rejected save drops the draft and records the error.
func (b *BudgetTree) AddSubcategory(ctx context.Context, categoryID string, draft NewSubcategory) error {
	b.mu.Lock()
	if b.saving {
		b.mu.Unlock()
		return nil
	}
	b.saving = true
	order := b.nextDisplayOrderLocked(categoryID)
	b.drafts[categoryID] = append(b.drafts[categoryID], draft)
	gen := b.gen
	b.mu.Unlock()
	b.notifier.notify()

	in := api.SubcategoryCreate{Name: draft.Name, DisplayOrder: order}
	if draft.Icon != "" {
		icon := draft.Icon
		in.Icon = &icon
	}
	sub, err := b.svc.CreateSubcategory(ctx, categoryID, in)

	b.mu.Lock()
	b.saving = false
	if gen != b.gen || errors.Is(err, context.Canceled) {
		b.dropDraftLocked(categoryID, draft.ID)
		b.mu.Unlock()
		return nil
	}
	b.dropDraftLocked(categoryID, draft.ID)
	if err != nil {
		b.errMsg = api.Message(err)
		b.mu.Unlock()
		b.reporter.Event("budget.subcategory_failed", "category_id", categoryID, "error", err)
		b.notifier.notify()
		return err
	}
	for i := range b.categories {
		if b.categories[i].ID == categoryID {
			b.categories[i].Subcategories = append(b.categories[i].Subcategories, *sub)
			break
		}
	}
	b.mu.Unlock()
	b.reporter.Event("budget.subcategory_added", "category_id", categoryID, "subcategory_id", sub.ID)
	b.notifier.notify()
	return nil
}

func (b *BudgetTree) nextDisplayOrderLocked(categoryID string) int {
	next := 0
	for _, c := range b.categories {
		if c.ID != categoryID {
			continue
		}
		for _, s := range c.Subcategories {
			if s.DisplayOrder >= next {
				next = s.DisplayOrder + 1
			}
		}
		break
	}
	return next
}

func (b *BudgetTree) dropDraftLocked(categoryID, draftID string) {
	ds := b.drafts[categoryID]
	kept := ds[:0]
	for _, d := range ds {
		if d.ID != draftID {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		delete(b.drafts, categoryID)
	} else {
		b.drafts[categoryID] = kept
	}
}

// DismissError clears the error banner without touching the data.
func (b *BudgetTree) DismissError() {
	b.mu.Lock()
	b.errMsg = ""
	b.mu.Unlock()
	b.notifier.notify()
}

// Detach invalidates whatever is still in flight.
func (b *BudgetTree) Detach() {
	b.mu.Lock()
	b.gen++
	b.mu.Unlock()
}

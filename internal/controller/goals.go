package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/nestegg-app/nestegg/internal/api"
)

// GoalList owns the goals screen state: the fetched list, the error banner
// and the in-flight flags the view keys off.
//
// The list is never mutated optimistically. A create or delete talks to the
// service first and touches local state only once the service confirmed.
type GoalList struct {
	svc      GoalService
	reporter Reporter
	notifier notifier

	mu         sync.Mutex
	gen        uint64
	goals      []api.Goal
	errMsg     string
	loading    bool
	loadedOnce bool
	mutating   bool
}

// Phase is what the goals screen should be showing.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseError
	PhaseEmpty
	PhaseList
)

// GoalListSnapshot is a copy of the list state, safe to render from.
type GoalListSnapshot struct {
	Goals      []api.Goal
	Err        string
	Loading    bool
	LoadedOnce bool
	Mutating   bool
}

// Phase maps the snapshot to a screen state: a spinner until the first load
// finishes, a blocking error only when there is no data to show, and the
// list otherwise. Err alongside data means "stale list plus banner".
func (s GoalListSnapshot) Phase() Phase {
	switch {
	case !s.LoadedOnce:
		return PhaseLoading
	case s.Err != "" && len(s.Goals) == 0:
		return PhaseError
	case len(s.Goals) == 0:
		return PhaseEmpty
	default:
		return PhaseList
	}
}

// NewGoalList creates a goal list controller backed by svc. A nil reporter
// falls back to NopReporter.
func NewGoalList(svc GoalService, reporter Reporter) *GoalList {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &GoalList{svc: svc, reporter: reporter}
}

// Subscribe registers fn to run after every state change.
func (l *GoalList) Subscribe(fn func()) { l.notifier.subscribe(fn) }

// Snapshot returns a copy of the current state.
func (l *GoalList) Snapshot() GoalListSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	goals := make([]api.Goal, len(l.goals))
	copy(goals, l.goals)
	return GoalListSnapshot{
		Goals:      goals,
		Err:        l.errMsg,
		Loading:    l.loading,
		LoadedOnce: l.loadedOnce,
		Mutating:   l.mutating,
	}
}

// Load fetches the list. Starting an attempt clears the previous error; a
// failed attempt keeps whatever list was already shown and records the
// failure. A Load while one is in flight is a no-op.
func (l *GoalList) Load(ctx context.Context) {
	l.mu.Lock()
	if l.loading {
		l.mu.Unlock()
		return
	}
	l.loading = true
	l.errMsg = ""
	gen := l.gen
	l.mu.Unlock()
	l.notifier.notify()

	goals, err := l.svc.ListGoals(ctx)

	l.mu.Lock()
	l.loading = false
	if gen != l.gen || errors.Is(err, context.Canceled) {
		l.mu.Unlock()
		return
	}
	if err != nil {
		l.errMsg = api.Message(err)
		l.loadedOnce = true
		l.mu.Unlock()
		l.reporter.Event("goals.load_failed", "error", err)
		l.notifier.notify()
		return
	}
	l.goals = goals
	l.loadedOnce = true
	l.mu.Unlock()
	l.reporter.Event("goals.loaded", "count", len(goals))
	l.notifier.notify()
}

// Insert prepends a goal the service confirmed, so a create shows up
// without a refetch.
func (l *GoalList) Insert(g api.Goal) {
	l.mu.Lock()
	l.goals = append([]api.Goal{g}, l.goals...)
	l.mu.Unlock()
	l.notifier.notify()
}

// Replace swaps the stored goal with the same id, keeping list order. An id
// that is not present is ignored.
func (l *GoalList) Replace(g api.Goal) {
	l.mu.Lock()
	for i := range l.goals {
		if l.goals[i].ID == g.ID {
			l.goals[i] = g
			break
		}
	}
	l.mu.Unlock()
	l.notifier.notify()
}

// Delete removes the goal on the service and only then drops it from the
// list; a failed delete leaves the list as it was. Dropping an id that is
// no longer present is a no-op. A Delete while a mutation is in flight is
// a no-op.
func (l *GoalList) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	if l.mutating {
		l.mu.Unlock()
		return nil
	}
	l.mutating = true
	gen := l.gen
	l.mu.Unlock()
	l.notifier.notify()

	err := l.svc.DeleteGoal(ctx, id)

	l.mu.Lock()
	l.mutating = false
	if gen != l.gen || errors.Is(err, context.Canceled) {
		l.mu.Unlock()
		return nil
	}
	if err != nil {
		l.errMsg = api.Message(err)
		l.mu.Unlock()
		l.reporter.Event("goals.delete_failed", "goal_id", id, "error", err)
		l.notifier.notify()
		return err
	}
	kept := make([]api.Goal, 0, len(l.goals))
	for _, g := range l.goals {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	l.goals = kept
	l.mu.Unlock()
	l.reporter.Event("goals.deleted", "goal_id", id)
	l.notifier.notify()
	return nil
}

// DismissError clears the error banner without touching the data.
func (l *GoalList) DismissError() {
	l.mu.Lock()
	l.errMsg = ""
	l.mu.Unlock()
	l.notifier.notify()
}

// Detach invalidates whatever is still in flight. A controller whose screen
// was torn down must not apply results that arrive afterwards.
func (l *GoalList) Detach() {
	l.mu.Lock()
	l.gen++
	l.mu.Unlock()
}

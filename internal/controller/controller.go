// Package controller holds the client-side state machines behind each
// screen: loading remote data, tracking in-flight work, and exposing
// copied snapshots for rendering. Controllers never touch the terminal;
// the TUI drives them and they are tested headless.
package controller

import "sync"

// Reporter receives notable controller events for logging or analytics.
// Implementations must be safe for concurrent use.
type Reporter interface {
	Event(name string, attrs ...any)
}

// NopReporter discards every event. It is the default when nothing is
// injected.
type NopReporter struct{}

func (NopReporter) Event(string, ...any) {}

// notifier fans out change notifications. Callbacks run on the goroutine
// that caused the change, outside the owner's lock, so a callback may read
// the controller again.
type notifier struct {
	mu   sync.Mutex
	subs []func()
}

func (n *notifier) subscribe(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, fn)
}

func (n *notifier) notify() {
	n.mu.Lock()
	subs := make([]func(), len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

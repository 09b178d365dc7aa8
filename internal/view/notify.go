package view

import (
	"sync"

	"github.com/OCAP2/boatsync/pkg/core"
)

// Toaster shows fire-and-forget notifications.
type Toaster interface {
	Notify(n core.Notification)
}

// Toasts collects notifications and tracks the page-level loading spinner.
// It satisfies edit.Notifier.
type Toasts struct {
	mu      sync.Mutex
	items   []core.Notification
	loading int
	onToast func(core.Notification)
}

// NewToasts creates a collector. onToast, if set, is called for every
// notification as it arrives.
func NewToasts(onToast func(core.Notification)) *Toasts {
	return &Toasts{onToast: onToast}
}

func (t *Toasts) LoadingStarted() {
	t.mu.Lock()
	t.loading++
	t.mu.Unlock()
}

func (t *Toasts) LoadingEnded() {
	t.mu.Lock()
	if t.loading > 0 {
		t.loading--
	}
	t.mu.Unlock()
}

// Loading reports whether any operation is still in progress.
func (t *Toasts) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading > 0
}

func (t *Toasts) Notify(n core.Notification) {
	t.mu.Lock()
	t.items = append(t.items, n)
	t.mu.Unlock()

	if t.onToast != nil {
		t.onToast(n)
	}
}

// All returns every notification so far, oldest first.
func (t *Toasts) All() []core.Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]core.Notification(nil), t.items...)
}

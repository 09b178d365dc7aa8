package selection

import (
	"sync"

	"github.com/OCAP2/boatsync/internal/bus"
	"github.com/OCAP2/boatsync/pkg/core"
)

// BindingOptions configures how a fragment follows the selection.
type BindingOptions struct {
	// BoundRecordID is the record the fragment was rendered for (a record page).
	// When set, the binding never subscribes and keeps this id for its lifetime.
	BoundRecordID string
	// OnSelect is called with every selection published while following.
	OnSelect func(recordID string)
}

// Binding is one fragment's view of the selection.
type Binding struct {
	bus       *bus.Bus
	following bool
	sub       bus.Subscription

	mu       sync.RWMutex
	recordID string
	closed   bool
}

// Bind creates a binding for a fragment. The bound-record check happens once,
// here.
func (c *Coordinator) Bind(opts BindingOptions) *Binding {
	bd := &Binding{bus: c.bus, recordID: opts.BoundRecordID}
	if opts.BoundRecordID != "" {
		return bd
	}

	bd.following = true
	bd.sub = bus.On(c.bus, core.TopicSelection, func(m core.SelectionMessage) error {
		bd.mu.Lock()
		if bd.closed {
			bd.mu.Unlock()
			return nil
		}
		bd.recordID = m.RecordID
		bd.mu.Unlock()

		if opts.OnSelect != nil {
			opts.OnSelect(m.RecordID)
		}
		return nil
	})
	return bd
}

// RecordID returns the record the fragment currently shows.
func (bd *Binding) RecordID() string {
	bd.mu.RLock()
	defer bd.mu.RUnlock()
	return bd.recordID
}

// Following reports whether the binding listens to the bus.
func (bd *Binding) Following() bool {
	return bd.following
}

// Clear forgets the current record without publishing anything, e.g. after the
// record failed to load.
func (bd *Binding) Clear() {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	if bd.following {
		bd.recordID = ""
	}
}

// Close stops following the bus.
func (bd *Binding) Close() {
	bd.mu.Lock()
	if bd.closed {
		bd.mu.Unlock()
		return
	}
	bd.closed = true
	bd.mu.Unlock()

	if bd.following {
		bd.bus.Unsubscribe(bd.sub)
	}
}

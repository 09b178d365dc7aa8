// Package selection tracks the boat currently selected in the UI session and
// broadcasts changes on the bus.
package selection

import (
	"fmt"
	"sync"

	"github.com/OCAP2/boatsync/internal/bus"
	"github.com/OCAP2/boatsync/internal/logging"
	"github.com/OCAP2/boatsync/pkg/core"
)

// State is the session-wide selection. An empty SelectedID means nothing is selected.
type State struct {
	SelectedID string
}

// Coordinator owns the selection state. Select mutates it for local
// selections; selections relayed onto the bus from another session (events
// with a Source) are adopted without being republished.
type Coordinator struct {
	bus    *bus.Bus
	logger logging.Logger
	sub    bus.Subscription

	mu    sync.RWMutex
	state State
}

// New creates a coordinator publishing on b. It subscribes before any binding
// so relayed selections are adopted before fragments see them.
func New(b *bus.Bus, logger logging.Logger) *Coordinator {
	c := &Coordinator{bus: b, logger: logging.OrNop(logger)}
	c.sub = b.Subscribe(core.TopicSelection, c.adopt)
	return c
}

func (c *Coordinator) adopt(e bus.Event) error {
	if e.Source == "" {
		return nil
	}
	var id string
	switch m := e.Payload.(type) {
	case core.SelectionMessage:
		id = m.RecordID
	case *core.SelectionMessage:
		if m == nil {
			return nil
		}
		id = m.RecordID
	default:
		return fmt.Errorf("%w: selection from %s is %T", bus.ErrPayloadType, e.Source, e.Payload)
	}

	c.mu.Lock()
	prev := c.state.SelectedID
	c.state.SelectedID = id
	c.mu.Unlock()

	c.logger.Debug("remote boat selected", "recordId", id, "previous", prev, "source", e.Source)
	return nil
}

// Select records id as the current selection and publishes it on the
// "selection" topic.
func (c *Coordinator) Select(id string) {
	c.mu.Lock()
	prev := c.state.SelectedID
	c.state.SelectedID = id
	c.mu.Unlock()

	c.logger.Debug("boat selected", "recordId", id, "previous", prev)
	c.bus.Publish(core.TopicSelection, core.SelectionMessage{RecordID: id})
}

// Current returns the selection synchronously.
func (c *Coordinator) Current() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Close stops adopting relayed selections.
func (c *Coordinator) Close() {
	c.bus.Unsubscribe(c.sub)
}

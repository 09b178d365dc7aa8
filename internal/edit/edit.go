// Package edit submits batches of inline table edits and keeps the rest of
// the session consistent with the outcome.
package edit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/OCAP2/boatsync/internal/bus"
	"github.com/OCAP2/boatsync/internal/logging"
	"github.com/OCAP2/boatsync/pkg/core"
)

// Notification texts.
const (
	SuccessTitle   = "Success"
	SuccessMessage = "Ship It!"
	ErrorTitle     = "Error"
)

// ConfigurationError is returned for a malformed batch.
type ConfigurationError = core.ConfigurationError

// WriteError wraps a failure of the write collaborator.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to update boats: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Writer persists a batch atomically.
type Writer interface {
	UpdateBatch(ctx context.Context, drafts []core.EditDraft) (string, error)
}

// Notifier receives loading transitions and toasts.
type Notifier interface {
	LoadingStarted()
	LoadingEnded()
	Notify(n core.Notification)
}

// Cache exposes the records currently rendered by the edited table.
type Cache interface {
	Data() []core.Boat
}

// Refresher is a query that must re-fetch after a successful save.
type Refresher interface {
	Refresh()
}

// AuditSink records every submitted session.
type AuditSink interface {
	RecordEdit(ctx context.Context, outcome core.EditOutcome) error
}

// Dependencies holds the collaborators of a Controller.
type Dependencies struct {
	Bus        *bus.Bus
	Writer     Writer
	Notifier   Notifier
	Cache      Cache
	Dependents []Refresher
	Audit      AuditSink
	Logger     logging.Logger
}

// Controller runs edit sessions. Submissions are serialized.
type Controller struct {
	deps        Dependencies
	log         logging.Logger
	submissions metric.Int64Counter

	submitMu sync.Mutex

	mu    sync.Mutex
	draft []core.EditDraft
}

// New creates a controller.
func New(deps Dependencies) *Controller {
	return &Controller{
		deps:        deps,
		log:         logging.OrNop(deps.Logger),
		submissions: submissionCounter(),
	}
}

// Stage replaces the pending draft, as the inline table does on every cell commit.
func (c *Controller) Stage(drafts []core.EditDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = append([]core.EditDraft(nil), drafts...)
}

// Draft returns the pending draft.
func (c *Controller) Draft() []core.EditDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.EditDraft(nil), c.draft...)
}

// SubmitDraft submits the staged draft.
func (c *Controller) SubmitDraft(ctx context.Context) (core.Notification, error) {
	return c.Submit(ctx, c.Draft())
}

// Submit validates drafts, writes them as one batch and reports the outcome.
// A ConfigurationError is returned before any collaborator is called. A failed
// write returns the error notification together with a *WriteError.
func (c *Controller) Submit(ctx context.Context, drafts []core.EditDraft) (core.Notification, error) {
	if err := Validate(drafts); err != nil {
		c.log.Warn("edit session rejected", "error", err)
		c.submissions.Add(ctx, 1, outcomeAttr("invalid"))
		return core.Notification{}, err
	}

	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	c.deps.Notifier.LoadingStarted()
	defer func() {
		c.clearDraft()
		c.deps.Notifier.LoadingEnded()
	}()

	started := time.Now()
	ack, err := c.deps.Writer.UpdateBatch(ctx, drafts)
	outcome := core.EditOutcome{
		Drafts:   drafts,
		Success:  err == nil,
		Detail:   ack,
		Started:  started,
		Duration: time.Since(started),
	}

	if err != nil {
		outcome.Detail = err.Error()
		c.audit(ctx, outcome)
		c.submissions.Add(ctx, 1, outcomeAttr("error"))
		c.log.Error("boat update failed", "count", len(drafts), "error", err)

		n := core.Notification{Title: ErrorTitle, Message: err.Error(), Severity: core.SeverityError}
		c.deps.Notifier.Notify(n)
		return n, &WriteError{Err: err}
	}

	updated := c.overlay(drafts)
	if c.deps.Bus != nil {
		c.deps.Bus.Publish(core.TopicBulkUpdated, core.BulkUpdatedMessage{Updated: updated})
	}
	for _, d := range c.deps.Dependents {
		d.Refresh()
	}
	c.audit(ctx, outcome)
	c.submissions.Add(ctx, 1, outcomeAttr("success"))
	c.log.Info("boats updated", "count", len(drafts), "ack", ack)

	n := core.Notification{Title: SuccessTitle, Message: SuccessMessage, Severity: core.SeveritySuccess}
	c.deps.Notifier.Notify(n)
	return n, nil
}

func (c *Controller) clearDraft() {
	c.mu.Lock()
	c.draft = nil
	c.mu.Unlock()
}

// overlay merges each draft over its cached record. Drafts for records the
// cache does not hold are left out.
func (c *Controller) overlay(drafts []core.EditDraft) []core.Boat {
	cached := map[string]core.Boat{}
	if c.deps.Cache != nil {
		for _, b := range c.deps.Cache.Data() {
			cached[b.ID] = b
		}
	}

	out := make([]core.Boat, 0, len(drafts))
	for _, d := range drafts {
		base, ok := cached[d.EntityID]
		if !ok {
			c.log.Debug("edited boat not in cache", "id", d.EntityID)
			continue
		}
		merged, err := base.Apply(d.Fields)
		if err != nil {
			c.log.Warn("cannot merge edit into cached boat", "id", d.EntityID, "error", err)
			continue
		}
		out = append(out, merged)
	}
	return out
}

func (c *Controller) audit(ctx context.Context, outcome core.EditOutcome) {
	if c.deps.Audit == nil {
		return
	}
	if err := c.deps.Audit.RecordEdit(ctx, outcome); err != nil {
		c.log.Warn("failed to record edit audit", "error", err)
	}
}

// Validate rejects empty batches, missing or duplicate entity ids and fields
// that are unknown or immutable.
func Validate(drafts []core.EditDraft) error {
	const op = "submit edits"
	if len(drafts) == 0 {
		return core.Configf(op, "empty batch")
	}
	seen := make(map[string]struct{}, len(drafts))
	for i, d := range drafts {
		if d.EntityID == "" {
			return core.Configf(op, "draft %d has no entity id", i)
		}
		if _, dup := seen[d.EntityID]; dup {
			return core.Configf(op, "duplicate entity id %q", d.EntityID)
		}
		seen[d.EntityID] = struct{}{}

		for name := range d.Fields {
			if !core.IsEditableField(name) {
				return core.Configf(op, "field %q of %q is not editable", name, d.EntityID)
			}
		}
	}
	return nil
}

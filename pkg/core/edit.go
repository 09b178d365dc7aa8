// pkg/core/edit.go
package core

import "time"

// EditDraft holds the changed fields of one boat, as produced by an inline table
// commit. Fields are keyed by the boat's JSON field names.
type EditDraft struct {
	EntityID string         `json:"id"`
	Fields   map[string]any `json:"fields"`
}

// Severity of a Notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a fire-and-forget toast.
type Notification struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// UpdateSucceeded is the acknowledgement backends return for a committed batch.
const UpdateSucceeded = "Success: Boats updated successfully"

// EditOutcome summarizes one submitted edit session for audit sinks.
type EditOutcome struct {
	Drafts   []EditDraft
	Success  bool
	Detail   string // backend acknowledgement or error detail
	Started  time.Time
	Duration time.Duration
}

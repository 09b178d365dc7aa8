// pkg/core/messages.go
package core

// Well-known bus topics.
const (
	TopicSelection   = "selection"
	TopicBulkUpdated = "bulk-updated"
)

// SelectionMessage is published on TopicSelection.
type SelectionMessage struct {
	RecordID string `json:"recordId"`
}

// BulkUpdatedMessage is published on TopicBulkUpdated after a successful edit session.
type BulkUpdatedMessage struct {
	Updated []Boat `json:"updated"`
}

// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/OCAP2/boatsync/pkg/core"
)

// ErrNotFound is returned for an unknown boat id.
var ErrNotFound = core.ErrNotFound

// Backend is the remote collaborator behind the boat queries and edit sessions.
// Every implementation must be safe for concurrent use.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Queries. An empty typeID matches every boat type.
	SearchByType(ctx context.Context, typeID string) ([]core.Boat, error)
	SearchByLocation(ctx context.Context, typeID string, latitude, longitude float64) ([]core.Boat, error)
	RelatedByField(ctx context.Context, boatID string, by core.SimilarBy) ([]core.Boat, error)
	Get(ctx context.Context, id string) (core.Boat, error)

	// UpdateBatch applies every draft or none of them.
	UpdateBatch(ctx context.Context, drafts []core.EditDraft) (string, error)
}

// Seeder is implemented by backends that accept bulk loading of boats.
type Seeder interface {
	Seed(ctx context.Context, boats []core.Boat) error
}

// Package memory is an in-process storage.Backend used by the CLI demo and by
// tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/OCAP2/boatsync/internal/geo"
	"github.com/OCAP2/boatsync/internal/logging"
	"github.com/OCAP2/boatsync/pkg/core"
)

// Backend keeps boats in a map guarded by a RWMutex.
type Backend struct {
	log   logging.Logger
	boats map[string]core.Boat

	// FailUpdates, when set, is returned by UpdateBatch without applying anything.
	FailUpdates error

	mu sync.RWMutex
}

// New creates a new memory backend
func New(log logging.Logger) *Backend {
	return &Backend{
		log:   logging.OrNop(log),
		boats: make(map[string]core.Boat),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Seed inserts or replaces boats.
func (b *Backend) Seed(_ context.Context, boats []core.Boat) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, boat := range boats {
		if boat.ID == "" {
			return fmt.Errorf("cannot seed boat %q without id", boat.Name)
		}
		b.boats[boat.ID] = boat.Clone()
	}
	b.log.Debug("seeded boats", "count", len(boats))
	return nil
}

// SearchByType returns boats of typeID ordered by name. An empty typeID
// matches every boat.
func (b *Backend) SearchByType(ctx context.Context, typeID string) ([]core.Boat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := b.filter(func(boat core.Boat) bool {
		return typeID == "" || boat.TypeID == typeID
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SearchByLocation returns boats of typeID nearest first. Boats without a
// location come last.
func (b *Backend) SearchByLocation(ctx context.Context, typeID string, latitude, longitude float64) ([]core.Boat, error) {
	out, err := b.SearchByType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	geo.SortByDistance(out, core.Position{Latitude: latitude, Longitude: longitude})
	return out, nil
}

// RelatedByField returns boats similar to boatID, excluding it.
func (b *Backend) RelatedByField(ctx context.Context, boatID string, by core.SimilarBy) ([]core.Boat, error) {
	parent, err := b.Get(ctx, boatID)
	if err != nil {
		return nil, err
	}

	var (
		match func(core.Boat) bool
		less  func(x, y core.Boat) bool
	)
	byPriceThenLength := func(x, y core.Boat) bool {
		if x.Price != y.Price {
			return x.Price < y.Price
		}
		return x.Length < y.Length
	}

	switch by {
	case core.SimilarByType:
		match = func(o core.Boat) bool { return o.TypeID == parent.TypeID }
		less = byPriceThenLength
	case core.SimilarByLength:
		match = func(o core.Boat) bool { return within(o.Length, parent.Length) }
		less = func(x, y core.Boat) bool {
			if x.Length != y.Length {
				return x.Length < y.Length
			}
			return x.Price < y.Price
		}
	case core.SimilarByPrice:
		match = func(o core.Boat) bool { return within(o.Price, parent.Price) }
		less = byPriceThenLength
	default:
		return nil, fmt.Errorf("unknown similarity field %q", by)
	}

	out := b.filter(func(o core.Boat) bool { return o.ID != parent.ID && match(o) })
	sort.SliceStable(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func within(v, ref float64) bool {
	return v >= ref/core.SimilarityBand && v <= ref*core.SimilarityBand
}

// Get returns one boat.
func (b *Backend) Get(ctx context.Context, id string) (core.Boat, error) {
	if err := ctx.Err(); err != nil {
		return core.Boat{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	boat, ok := b.boats[id]
	if !ok {
		return core.Boat{}, fmt.Errorf("boat %s: %w", id, core.ErrNotFound)
	}
	return boat.Clone(), nil
}

// UpdateBatch validates every draft before touching the store, so a failing
// draft leaves all boats unchanged.
func (b *Backend) UpdateBatch(ctx context.Context, drafts []core.EditDraft) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.FailUpdates != nil {
		return "", b.FailUpdates
	}

	staged := make(map[string]core.Boat, len(drafts))
	for _, d := range drafts {
		current, ok := staged[d.EntityID]
		if !ok {
			current, ok = b.boats[d.EntityID]
		}
		if !ok {
			return "", fmt.Errorf("boat %s: %w", d.EntityID, core.ErrNotFound)
		}
		updated, err := current.Apply(d.Fields)
		if err != nil {
			return "", err
		}
		staged[d.EntityID] = updated
	}

	for id, boat := range staged {
		b.boats[id] = boat
	}
	b.log.Info("boats updated", "count", len(staged))
	return core.UpdateSucceeded, nil
}

func (b *Backend) filter(keep func(core.Boat) bool) []core.Boat {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.Boat, 0, len(b.boats))
	for _, boat := range b.boats {
		if keep(boat) {
			out = append(out, boat.Clone())
		}
	}
	return out
}

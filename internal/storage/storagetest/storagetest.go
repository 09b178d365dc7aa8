// Package storagetest holds the behavioural suite every storage backend must pass.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/boatsync/internal/storage/sample"
	"github.com/OCAP2/boatsync/pkg/core"
)

// Backend is the subset of storage.Backend and storage.Seeder the suite drives.
type Backend interface {
	SearchByType(ctx context.Context, typeID string) ([]core.Boat, error)
	SearchByLocation(ctx context.Context, typeID string, latitude, longitude float64) ([]core.Boat, error)
	RelatedByField(ctx context.Context, boatID string, by core.SimilarBy) ([]core.Boat, error)
	Get(ctx context.Context, id string) (core.Boat, error)
	UpdateBatch(ctx context.Context, drafts []core.EditDraft) (string, error)
	Seed(ctx context.Context, boats []core.Boat) error
}

// Run executes the suite. newBackend must return an empty, initialized backend.
func Run(t *testing.T, newBackend func(t *testing.T) Backend) {
	seeded := func(t *testing.T) Backend {
		b := newBackend(t)
		require.NoError(t, b.Seed(context.Background(), sample.Boats()))
		return b
	}

	t.Run("SearchByType", func(t *testing.T) {
		b := seeded(t)

		boats, err := b.SearchByType(context.Background(), sample.TypeSail)
		require.NoError(t, err)
		assert.Equal(t, []string{"a03", "e01", "a02", "a01", "a04"}, ids(boats))

		all, err := b.SearchByType(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, all, len(sample.Boats()))

		none, err := b.SearchByType(context.Background(), "submarine")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("SearchByLocation", func(t *testing.T) {
		b := seeded(t)

		boats, err := b.SearchByLocation(context.Background(), sample.TypeSail, 50.52649475739886, 10.02004164522074)
		require.NoError(t, err)
		assert.Equal(t, []string{"a01", "a02", "a03", "a04", "e01"}, ids(boats))
	})

	t.Run("RelatedByType", func(t *testing.T) {
		b := seeded(t)

		boats, err := b.RelatedByField(context.Background(), "a01", core.SimilarByType)
		require.NoError(t, err)
		assert.Equal(t, []string{"a03", "e01", "a02", "a04"}, ids(boats))
	})

	t.Run("RelatedByLength", func(t *testing.T) {
		b := seeded(t)

		boats, err := b.RelatedByField(context.Background(), "a01", core.SimilarByLength)
		require.NoError(t, err)
		assert.Equal(t, []string{"e01", "b01", "b03", "a02"}, ids(boats))
	})

	t.Run("RelatedByPrice", func(t *testing.T) {
		b := seeded(t)

		boats, err := b.RelatedByField(context.Background(), "a01", core.SimilarByPrice)
		require.NoError(t, err)
		assert.Equal(t, []string{"e02"}, ids(boats))
	})

	t.Run("RelatedUnknownBoat", func(t *testing.T) {
		b := seeded(t)

		_, err := b.RelatedByField(context.Background(), "zzz", core.SimilarByType)
		assert.True(t, errors.Is(err, core.ErrNotFound))
	})

	t.Run("Get", func(t *testing.T) {
		b := seeded(t)

		boat, err := b.Get(context.Background(), "a01")
		require.NoError(t, err)
		assert.Equal(t, "Sea Breeze", boat.Name)
		require.True(t, boat.Geolocated())
		assert.InDelta(t, 50.5301, *boat.Latitude, 1e-9)

		unlocated, err := b.Get(context.Background(), "e01")
		require.NoError(t, err)
		assert.False(t, unlocated.Geolocated())

		_, err = b.Get(context.Background(), "zzz")
		assert.True(t, errors.Is(err, core.ErrNotFound))
	})

	t.Run("UpdateBatch", func(t *testing.T) {
		b := seeded(t)

		msg, err := b.UpdateBatch(context.Background(), []core.EditDraft{
			{EntityID: "a01", Fields: map[string]any{"name": "Sea Gale", "price": 50000}},
			{EntityID: "e01", Fields: map[string]any{"latitude": 50.1, "longitude": 10.1}},
		})
		require.NoError(t, err)
		assert.Equal(t, core.UpdateSucceeded, msg)

		a01, err := b.Get(context.Background(), "a01")
		require.NoError(t, err)
		assert.Equal(t, "Sea Gale", a01.Name)
		assert.Equal(t, 50000.0, a01.Price)
		assert.Equal(t, 12.5, a01.Length)

		e01, err := b.Get(context.Background(), "e01")
		require.NoError(t, err)
		assert.True(t, e01.Geolocated())
	})

	t.Run("UpdateBatchAllOrNothing", func(t *testing.T) {
		b := seeded(t)

		_, err := b.UpdateBatch(context.Background(), []core.EditDraft{
			{EntityID: "a01", Fields: map[string]any{"name": "Sea Gale"}},
			{EntityID: "zzz", Fields: map[string]any{"name": "Nobody"}},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrNotFound))

		_, err = b.UpdateBatch(context.Background(), []core.EditDraft{
			{EntityID: "a01", Fields: map[string]any{"name": "Sea Gale"}},
			{EntityID: "a02", Fields: map[string]any{"length": "very"}},
		})
		require.Error(t, err)

		a01, err := b.Get(context.Background(), "a01")
		require.NoError(t, err)
		assert.Equal(t, "Sea Breeze", a01.Name)
	})
}

func ids(boats []core.Boat) []string {
	out := make([]string, len(boats))
	for i, b := range boats {
		out[i] = b.ID
	}
	return out
}

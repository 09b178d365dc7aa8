package sqlstore

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/boatsync/internal/config"
	"github.com/OCAP2/boatsync/internal/database"
	"github.com/OCAP2/boatsync/internal/geo"
	"github.com/OCAP2/boatsync/internal/storage/sample"
	"github.com/OCAP2/boatsync/internal/storage/storagetest"
	"github.com/OCAP2/boatsync/pkg/core"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	mgr := database.NewManager(zerolog.Nop())
	cfg := config.StorageConfig{
		Type:   "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "boats.db")},
	}
	require.NoError(t, mgr.Connect(cfg))

	b := New(Dependencies{Manager: mgr})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storagetest.Backend {
		return newTestBackend(t)
	})
}

func TestLocationColumn(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Seed(context.Background(), sample.Boats()))

	var row BoatRow
	require.NoError(t, b.db.Where("id = ?", "a01").First(&row).Error)
	pos, ok := geo.FromMercator(row.Location)
	require.True(t, ok)
	assert.InDelta(t, 50.5301, pos.Latitude, 1e-6)
	assert.InDelta(t, 10.0312, pos.Longitude, 1e-6)

	var unlocated BoatRow
	require.NoError(t, b.db.Where("id = ?", "e01").First(&unlocated).Error)
	_, located := unlocated.Location.Coordinates()
	assert.False(t, located)
}

func TestUpdateBatch_RecordsAudit(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Seed(context.Background(), sample.Boats()))

	_, err := b.UpdateBatch(context.Background(), []core.EditDraft{
		{EntityID: "a01", Fields: map[string]any{"price": 50000}},
		{EntityID: "a02", Fields: map[string]any{"name": "Polaris"}},
	})
	require.NoError(t, err)

	audits, err := b.Audits(context.Background(), "a01")
	require.NoError(t, err)
	require.Len(t, audits, 1)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(audits[0].Fields, &fields))
	assert.Equal(t, 50000.0, fields["price"])

	other, err := b.Audits(context.Background(), "a02")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, audits[0].BatchID, other[0].BatchID)
}

func TestUpdateBatch_RollbackLeavesNoAudit(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Seed(context.Background(), sample.Boats()))

	_, err := b.UpdateBatch(context.Background(), []core.EditDraft{
		{EntityID: "a01", Fields: map[string]any{"price": 50000}},
		{EntityID: "zzz", Fields: map[string]any{"price": 1}},
	})
	require.Error(t, err)

	audits, err := b.Audits(context.Background(), "a01")
	require.NoError(t, err)
	assert.Empty(t, audits)
}

func TestSeed_Upserts(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Seed(context.Background(), sample.Boats()))

	renamed := sample.Boats()[0]
	renamed.Name = "Renamed"
	require.NoError(t, b.Seed(context.Background(), []core.Boat{renamed}))

	boat, err := b.Get(context.Background(), renamed.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", boat.Name)
}

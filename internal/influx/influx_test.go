package influx

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/boatsync/internal/config"
	"github.com/OCAP2/boatsync/pkg/core"
)

func outcome(success bool) core.EditOutcome {
	return core.EditOutcome{
		Drafts: []core.EditDraft{
			{EntityID: "a01", Fields: map[string]any{"price": 1, "name": "x"}},
			{EntityID: "a02", Fields: map[string]any{"length": 2}},
		},
		Success:  success,
		Started:  time.Unix(1700000000, 0),
		Duration: 40 * time.Millisecond,
	}
}

func TestEditPoints(t *testing.T) {
	points := EditPoints(outcome(true))
	require.Len(t, points, 2)

	line := influxdb2_write.PointToLineProtocol(points[0], time.Second)
	assert.Contains(t, line, "boat_edit,boat_id=a01,outcome=success")
	assert.Contains(t, line, `fields="name,price"`)
	assert.Contains(t, line, "field_count=2i")
	assert.Contains(t, line, "batch_size=2i")
	assert.Contains(t, line, "1700000000")

	failed := EditPoints(outcome(false))
	assert.Contains(t, influxdb2_write.PointToLineProtocol(failed[1], time.Second), "outcome=error")
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	err := m.Connect(context.Background(), config.InfluxConfig{Enabled: false})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestConnect_UnreachableWritesBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edits.lp.gz")
	m := NewManager(zerolog.Nop(), path)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Connect(ctx, config.InfluxConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1",
		Org:     "boatsync",
		Bucket:  "boat-edits",
	}))
	assert.False(t, m.IsValid)

	require.NoError(t, m.RecordEdit(context.Background(), outcome(true)))
	require.NoError(t, m.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	assert.Contains(t, string(raw), "boat_id=a01")
	assert.Contains(t, string(raw), "boat_id=a02")
}

func TestWritePoint_NotInitialized(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	err := m.WritePoint(EditPoints(outcome(true))[0])
	assert.Error(t, err)
}

package position

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/boatsync/pkg/core"
)

var fallback = core.Position{Latitude: 50.52649475739886, Longitude: 10.02004164522074}

func waitDone(t *testing.T, tr *Tracker) {
	t.Helper()
	select {
	case <-tr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("tracker did not resolve")
	}
}

func TestTracker_ReportsFallbackUntilResolved(t *testing.T) {
	tr := NewTracker(Static{Latitude: 1, Longitude: 2}, fallback, 0, nil)

	pos, fromDevice := tr.Current()
	assert.Equal(t, fallback, pos)
	assert.False(t, fromDevice)
}

func TestTracker_ResolvesOnce(t *testing.T) {
	var lookups atomic.Int32
	p := Func(func(context.Context) (core.Position, error) {
		lookups.Add(1)
		return core.Position{Latitude: 1, Longitude: 2}, nil
	})
	tr := NewTracker(p, fallback, time.Second, nil)

	var calls atomic.Int32
	var got core.Position
	onResolved := func(pos core.Position) {
		calls.Add(1)
		got = pos
	}
	tr.Request(context.Background(), onResolved)
	tr.Request(context.Background(), onResolved)
	waitDone(t, tr)

	assert.Equal(t, int32(1), lookups.Load())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, core.Position{Latitude: 1, Longitude: 2}, got)

	pos, fromDevice := tr.Current()
	assert.Equal(t, got, pos)
	assert.True(t, fromDevice)
}

func TestTracker_FallsBackOnError(t *testing.T) {
	tr := NewTracker(Unavailable, fallback, time.Second, nil)

	var got core.Position
	tr.Request(context.Background(), func(pos core.Position) { got = pos })
	waitDone(t, tr)

	assert.Equal(t, fallback, got)
	_, fromDevice := tr.Current()
	assert.False(t, fromDevice)
}

func TestTracker_FallsBackOnTimeout(t *testing.T) {
	never := Func(func(ctx context.Context) (core.Position, error) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return core.Position{Latitude: 9, Longitude: 9}, nil
	})
	tr := NewTracker(never, fallback, 20*time.Millisecond, nil)

	var got core.Position
	tr.Request(context.Background(), func(pos core.Position) { got = pos })
	waitDone(t, tr)

	assert.Equal(t, fallback, got)
}

func TestTracker_NilProvider(t *testing.T) {
	tr := NewTracker(nil, fallback, 0, nil)
	tr.Request(context.Background(), nil)
	waitDone(t, tr)

	pos, fromDevice := tr.Current()
	assert.Equal(t, fallback, pos)
	assert.False(t, fromDevice)
}

func TestTracker_LookupWrapsUnavailable(t *testing.T) {
	denied := errors.New("permission denied")
	tr := NewTracker(Func(func(context.Context) (core.Position, error) {
		return core.Position{}, denied
	}), fallback, 0, nil)

	_, err := tr.lookup(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPositionUnavailable)
	assert.ErrorIs(t, err, denied)
}

package view

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/boatsync/internal/config"
	"github.com/OCAP2/boatsync/internal/edit"
	"github.com/OCAP2/boatsync/internal/logging"
	"github.com/OCAP2/boatsync/internal/position"
	"github.com/OCAP2/boatsync/internal/query"
	"github.com/OCAP2/boatsync/internal/selection"
	"github.com/OCAP2/boatsync/internal/storage/memory"
	"github.com/OCAP2/boatsync/internal/storage/sample"
	"github.com/OCAP2/boatsync/pkg/core"
)

var testMap = config.MapConfig{
	DefaultLatitude:  50.52649475739886,
	DefaultLongitude: 10.02004164522074,
	MarkerLimit:      10,
	PositionTimeout:  time.Second,
}

func seededBackend(t *testing.T) *memory.Backend {
	t.Helper()
	b := memory.New(nil)
	require.NoError(t, b.Seed(context.Background(), sample.Boats()))
	return b
}

func newTestSession(t *testing.T, backend interface {
	Backend
	edit.Writer
}, pos position.Provider, mapCfg config.MapConfig) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), SessionDeps{
		Backend:  backend,
		Position: pos,
		Map:      mapCfg,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func ids(boats []core.Boat) []string {
	out := make([]string, len(boats))
	for i, b := range boats {
		out[i] = b.ID
	}
	return out
}

func titles(markers []core.MapMarker) []string {
	out := make([]string, len(markers))
	for i, m := range markers {
		out[i] = m.Title
	}
	return out
}

func TestSession_SearchSelectAndFollow(t *testing.T) {
	s := newTestSession(t, seededBackend(t), nil, testMap)

	s.Search.Search(sample.TypeSail)
	s.Wait()

	assert.False(t, s.Search.IsLoading())
	assert.Equal(t, sample.TypeSail, s.Search.TypeID())
	assert.Equal(t, []string{"a03", "e01", "a02", "a01", "a04"}, ids(s.Results.Rows()))
	assert.False(t, s.Results.Empty())

	s.Results.SelectTile("a01")
	s.Wait()

	assert.Equal(t, "a01", s.Selection.Current().SelectedID)
	assert.Equal(t, TileSelectedClass, s.Results.TileClass("a01"))
	assert.Equal(t, "", s.Results.TileClass("a02"))

	assert.Equal(t, "a01", s.Detail.RecordID())
	assert.True(t, s.Detail.ShowMap())
	assert.Equal(t, []core.MapMarker{{Title: "Sea Breeze", Latitude: 50.5301, Longitude: 10.0312}}, s.Detail.Markers())

	byLength := s.Similar[core.SimilarByLength]
	assert.Equal(t, "Similar boats by Length", byLength.Title())
	assert.Equal(t, []string{"e01", "b01", "b03", "a02"}, ids(byLength.Boats()))
	assert.False(t, byLength.NoBoats())
	assert.Equal(t, []string{"e02"}, ids(s.Similar[core.SimilarByPrice].Boats()))
}

func TestSession_EmptySearch(t *testing.T) {
	s := newTestSession(t, seededBackend(t), nil, testMap)

	s.Search.Search("submarine")
	s.Wait()

	assert.True(t, s.Results.Empty())
	assert.Empty(t, s.Results.Rows())
}

func TestSearch_MemoizedSearchEndsLoading(t *testing.T) {
	s := newTestSession(t, seededBackend(t), nil, testMap)

	s.Search.Search(sample.TypeMotor)
	s.Wait()
	s.Search.Search(sample.TypeMotor)

	assert.False(t, s.Search.IsLoading())
}

func TestDetail_FailedLoadClearsRecordAndMarkers(t *testing.T) {
	s := newTestSession(t, seededBackend(t), nil, testMap)

	s.Selection.Select("a01")
	s.Wait()
	require.True(t, s.Detail.ShowMap())

	s.Selection.Select("zzz")
	s.Wait()

	assert.Equal(t, "", s.Detail.RecordID())
	assert.False(t, s.Detail.ShowMap())
	assert.ErrorIs(t, s.Detail.Err(), core.ErrNotFound)
	assert.Equal(t, "zzz", s.Selection.Current().SelectedID)

	assert.True(t, s.Similar[core.SimilarByType].NoBoats())
	var fetchErr *query.FetchError
	assert.True(t, errors.As(s.Similar[core.SimilarByType].Err(), &fetchErr))
}

// unreliableBackend fails the first failures Get calls.
type unreliableBackend struct {
	*memory.Backend

	mu       sync.Mutex
	failures int
	gets     int
}

func (b *unreliableBackend) Get(ctx context.Context, id string) (core.Boat, error) {
	b.mu.Lock()
	b.gets++
	fail := b.failures > 0
	if fail {
		b.failures--
	}
	b.mu.Unlock()
	if fail {
		return core.Boat{}, errors.New("backend unavailable")
	}
	return b.Backend.Get(ctx, id)
}

func (b *unreliableBackend) getCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gets
}

func TestDetail_ReselectAfterFailedLoadRefetches(t *testing.T) {
	backend := &unreliableBackend{Backend: seededBackend(t), failures: 1}
	coord := selection.New(newBus(t), nil)
	record := NewRecordQuery(context.Background(), backend, nil)
	defer record.Close()

	p := NewDetailPresenter(record, coord, selection.BindingOptions{}, nil)
	defer p.Close()

	coord.Select("a02")
	record.Wait()
	require.Error(t, p.Err())
	assert.Equal(t, "", p.RecordID())
	assert.False(t, p.ShowMap())

	coord.Select("a02")
	record.Wait()

	assert.Equal(t, 2, backend.getCalls())
	assert.NoError(t, p.Err())
	assert.Equal(t, "a02", p.RecordID())
	assert.Equal(t, []string{"North Star"}, titles(p.Markers()))
}

// gatedBackend holds Get for the listed ids until their gate is closed.
type gatedBackend struct {
	*memory.Backend
	gates map[string]chan struct{}
}

func (b *gatedBackend) Get(ctx context.Context, id string) (core.Boat, error) {
	if gate, ok := b.gates[id]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return core.Boat{}, ctx.Err()
		}
	}
	return b.Backend.Get(ctx, id)
}

func TestDetail_SlowEarlierLoadKeepsNewerSelection(t *testing.T) {
	release := make(chan struct{})
	backend := &gatedBackend{Backend: seededBackend(t), gates: map[string]chan struct{}{"a01": release}}
	coord := selection.New(newBus(t), nil)
	record := NewRecordQuery(context.Background(), backend, nil)
	defer record.Close()

	p := NewDetailPresenter(record, coord, selection.BindingOptions{}, nil)
	defer p.Close()

	coord.Select("a01")
	coord.Select("a02")
	require.Eventually(t, p.ShowMap, 2*time.Second, 5*time.Millisecond)

	close(release)
	record.Wait()

	assert.Equal(t, "a02", p.RecordID())
	assert.Equal(t, "a02", record.Params())
	assert.Equal(t, query.Ready, record.State().Phase)
	assert.Equal(t, []string{"North Star"}, titles(p.Markers()))
}

func TestDetail_FailureBeforeBindingIsRecorded(t *testing.T) {
	record := NewRecordQuery(context.Background(), seededBackend(t), nil)
	defer record.Close()
	record.SetParameters("zzz")
	record.Wait()

	p := &DetailPresenter{record: record, log: logging.OrNop(nil)}
	assert.NotPanics(t, func() { p.onState(record.State()) })

	assert.ErrorIs(t, p.Err(), core.ErrNotFound)
	assert.False(t, p.ShowMap())
	assert.Equal(t, "", record.Params())
	assert.Equal(t, query.Idle, record.State().Phase)
}

func TestDetail_BoundRecordIgnoresSelection(t *testing.T) {
	backend := seededBackend(t)
	coord := selection.New(newBus(t), nil)
	record := NewRecordQuery(context.Background(), backend, nil)
	defer record.Close()

	p := NewDetailPresenter(record, coord, selection.BindingOptions{BoundRecordID: "a02"}, nil)
	defer p.Close()
	record.Wait()

	coord.Select("a01")
	record.Wait()

	assert.Equal(t, "a02", p.RecordID())
	assert.Equal(t, []string{"North Star"}, titles(p.Markers()))
}

func TestSimilar_IdleUntilSelected(t *testing.T) {
	backend := seededBackend(t)
	coord := selection.New(newBus(t), nil)
	related := NewSimilarQuery(context.Background(), backend, nil)
	defer related.Close()

	p := NewSimilarPresenter(related, coord, core.SimilarByType, selection.BindingOptions{})
	defer p.Close()

	assert.True(t, p.NoBoats())
	assert.Equal(t, query.Idle, related.State().Phase)
	assert.Equal(t, "Similar boats by Type", p.Title())
}

func TestNearby_UsesDevicePositionOnce(t *testing.T) {
	mapCfg := testMap
	mapCfg.MarkerLimit = 3
	here := position.Static{Latitude: 50.53, Longitude: 10.03}
	s := newTestSession(t, seededBackend(t), here, mapCfg)

	s.Nearby.Mount(context.Background(), "")
	s.Nearby.Mount(context.Background(), sample.TypeSail)
	s.Wait()

	markers := s.Nearby.Markers()
	assert.Equal(t, []string{"You are here!", "Sea Breeze", "Old Salt", "Thunder"}, titles(markers))
	assert.Equal(t, core.MapMarker{Title: "You are here!", Latitude: 50.53, Longitude: 10.03, Icon: "standard:user"}, markers[0])
	assert.False(t, s.Nearby.IsLoading())
	assert.Equal(t, NearbyParams{Latitude: 50.53, Longitude: 10.03}, s.NearbyQuery.Params())
}

func TestNearby_FallsBackToDefaultPosition(t *testing.T) {
	s := newTestSession(t, seededBackend(t), position.Unavailable, testMap)

	s.Nearby.Mount(context.Background(), sample.TypeSail)
	s.Wait()

	markers := s.Nearby.Markers()
	require.NotEmpty(t, markers)
	assert.Equal(t, testMap.DefaultLatitude, markers[0].Latitude)
	assert.Equal(t, testMap.DefaultLongitude, markers[0].Longitude)
	// Four sail boats have a location, the fifth is dropped.
	assert.Len(t, markers, 5)
}

func TestNearby_SetBoatType(t *testing.T) {
	s := newTestSession(t, seededBackend(t), position.Unavailable, testMap)

	s.Nearby.Mount(context.Background(), sample.TypeSail)
	s.Wait()
	s.Nearby.SetBoatType(sample.TypeFishing)
	s.Wait()

	assert.Equal(t, []string{"You are here!", "Old Salt", "Catch of the Day"}, titles(s.Nearby.Markers()))
}

type brokenNearby struct {
	*memory.Backend
}

func (brokenNearby) SearchByLocation(context.Context, string, float64, float64) ([]core.Boat, error) {
	return nil, errors.New("INVALID_QUERY")
}

func TestNearby_FetchErrorRaisesToast(t *testing.T) {
	s := newTestSession(t, brokenNearby{seededBackend(t)}, position.Unavailable, testMap)

	s.Nearby.Mount(context.Background(), "")
	s.Wait()

	assert.Empty(t, s.Nearby.Markers())
	assert.False(t, s.Nearby.IsLoading())

	toasts := s.Toasts.All()
	require.NotEmpty(t, toasts)
	assert.Equal(t, "Error loading Boats Near Me", toasts[0].Title)
	assert.Equal(t, core.SeverityError, toasts[0].Severity)
	assert.Contains(t, toasts[0].Message, "INVALID_QUERY")
}

func TestResults_SaveRefreshesDependents(t *testing.T) {
	backend := seededBackend(t)
	s := newTestSession(t, backend, position.Unavailable, testMap)

	s.Search.Search(sample.TypeSail)
	s.Nearby.Mount(context.Background(), sample.TypeSail)
	s.Wait()

	n, err := s.Results.Save(context.Background(), []core.EditDraft{
		{EntityID: "a01", Fields: map[string]any{"name": "Sea Gale"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ship It!", n.Message)
	s.Wait()

	assert.Contains(t, titlesOf(s.Results.Rows()), "Sea Gale")
	assert.Contains(t, titles(s.Nearby.Markers()), "Sea Gale")
	assert.False(t, s.Toasts.Loading())
	assert.Equal(t, []core.Notification{{Title: "Success", Message: "Ship It!", Severity: core.SeveritySuccess}}, s.Toasts.All())
}

func TestResults_FailedSaveKeepsRows(t *testing.T) {
	backend := seededBackend(t)
	backend.FailUpdates = errors.New("UNABLE_TO_LOCK_ROW")
	s := newTestSession(t, backend, nil, testMap)

	s.Search.Search(sample.TypeSail)
	s.Wait()
	before := s.Results.Rows()

	n, err := s.Results.Save(context.Background(), []core.EditDraft{
		{EntityID: "a01", Fields: map[string]any{"name": "Sea Gale"}},
	})
	require.Error(t, err)
	assert.Equal(t, core.SeverityError, n.Severity)
	s.Wait()

	assert.Equal(t, before, s.Results.Rows())
	assert.Equal(t, query.Ready, s.Results.State().Phase)
	assert.False(t, s.Toasts.Loading())
}

func TestResults_BulkUpdateOverlaysRows(t *testing.T) {
	s := newTestSession(t, seededBackend(t), nil, testMap)

	s.Search.Search(sample.TypeFishing)
	s.Wait()

	renamed := sample.Boats()[7] // c01
	renamed.Name = "Older Salt"
	s.Bus.Publish(core.TopicBulkUpdated, core.BulkUpdatedMessage{Updated: []core.Boat{renamed}})

	assert.Contains(t, titlesOf(s.Results.Rows()), "Older Salt")

	s.ResultsQuery.Refresh()
	s.Wait()
	assert.NotContains(t, titlesOf(s.Results.Rows()), "Older Salt")
}

func TestNewSession_NegativeLimit(t *testing.T) {
	mapCfg := testMap
	mapCfg.MarkerLimit = -1
	_, err := NewSession(context.Background(), SessionDeps{Backend: seededBackend(t), Map: mapCfg})

	var cfgErr *core.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestToasts(t *testing.T) {
	var seen []string
	toasts := NewToasts(func(n core.Notification) { seen = append(seen, n.Title) })

	toasts.LoadingStarted()
	assert.True(t, toasts.Loading())
	toasts.LoadingEnded()
	toasts.LoadingEnded()
	assert.False(t, toasts.Loading())

	toasts.Notify(core.Notification{Title: "Success"})
	assert.Equal(t, []string{"Success"}, seen)
	assert.Len(t, toasts.All(), 1)
}

func titlesOf(boats []core.Boat) []string {
	out := make([]string, len(boats))
	for i, b := range boats {
		out[i] = b.Name
	}
	return out
}

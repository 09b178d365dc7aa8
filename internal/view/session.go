package view

import (
	"context"
	"fmt"

	"github.com/OCAP2/boatsync/internal/bus"
	"github.com/OCAP2/boatsync/internal/config"
	"github.com/OCAP2/boatsync/internal/edit"
	"github.com/OCAP2/boatsync/internal/logging"
	"github.com/OCAP2/boatsync/internal/position"
	"github.com/OCAP2/boatsync/internal/selection"
	"github.com/OCAP2/boatsync/pkg/core"
)

// SessionDeps holds what a UI session is assembled from.
type SessionDeps struct {
	Backend interface {
		Backend
		edit.Writer
	}
	// Bus is shared with other components such as a redis bridge. Nil creates one.
	Bus      *bus.Bus
	Position position.Provider
	Map      config.MapConfig
	Audit    edit.AuditSink
	OnToast  func(core.Notification)
	Logger   logging.Logger
}

// Session is one page: a search form, its results, the boat map, the nearby
// map and the similar-boats cards, all sharing one bus.
type Session struct {
	Bus       *bus.Bus
	Selection *selection.Coordinator
	Toasts    *Toasts
	Editor    *edit.Controller

	ResultsQuery *BoatQuery[string]
	RecordQuery  *BoatQuery[string]
	NearbyQuery  *BoatQuery[NearbyParams]

	Search  *SearchController
	Results *ResultsPresenter
	Detail  *DetailPresenter
	Nearby  *NearbyPresenter
	Similar map[core.SimilarBy]*SimilarPresenter

	similarQueries []*BoatQuery[SimilarParams]
	cancel         context.CancelFunc
}

// NewSession assembles a session. Fragments follow the bus selection.
func NewSession(ctx context.Context, deps SessionDeps) (*Session, error) {
	log := logging.OrNop(deps.Logger)
	if deps.Map.MarkerLimit < 0 {
		return nil, core.Configf("new session", "negative marker limit %d", deps.Map.MarkerLimit)
	}

	b := deps.Bus
	if b == nil {
		var err error
		if b, err = bus.New(log); err != nil {
			return nil, fmt.Errorf("failed to create bus: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		Bus:       b,
		Selection: selection.New(b, log),
		Toasts:    NewToasts(deps.OnToast),
		Similar:   map[core.SimilarBy]*SimilarPresenter{},
		cancel:    cancel,
	}

	s.ResultsQuery = NewResultsQuery(ctx, deps.Backend, log)
	s.RecordQuery = NewRecordQuery(ctx, deps.Backend, log)
	s.NearbyQuery = NewNearbyQuery(ctx, deps.Backend, log)

	s.Editor = edit.New(edit.Dependencies{
		Bus:        b,
		Writer:     deps.Backend,
		Notifier:   s.Toasts,
		Cache:      s.ResultsQuery,
		Dependents: []edit.Refresher{s.ResultsQuery, s.NearbyQuery},
		Audit:      deps.Audit,
		Logger:     log,
	})

	s.Search = NewSearchController(s.ResultsQuery)
	s.Results = NewResultsPresenter(ResultsDeps{
		Results:   s.ResultsQuery,
		Selection: s.Selection,
		Editor:    s.Editor,
		Bus:       b,
	})
	s.Detail = NewDetailPresenter(s.RecordQuery, s.Selection, selection.BindingOptions{}, log)

	fallback := core.Position{Latitude: deps.Map.DefaultLatitude, Longitude: deps.Map.DefaultLongitude}
	s.Nearby = NewNearbyPresenter(NearbyDeps{
		Query:   s.NearbyQuery,
		Tracker: position.NewTracker(deps.Position, fallback, deps.Map.PositionTimeout, log),
		Toaster: s.Toasts,
		Limit:   deps.Map.MarkerLimit,
		Logger:  log,
	})

	for _, by := range []core.SimilarBy{core.SimilarByType, core.SimilarByLength, core.SimilarByPrice} {
		q := NewSimilarQuery(ctx, deps.Backend, log)
		s.similarQueries = append(s.similarQueries, q)
		s.Similar[by] = NewSimilarPresenter(q, s.Selection, by, selection.BindingOptions{})
	}
	return s, nil
}

// Wait blocks until no query of the session is fetching.
func (s *Session) Wait() {
	s.Nearby.WaitPosition()
	s.ResultsQuery.Wait()
	s.RecordQuery.Wait()
	s.NearbyQuery.Wait()
	for _, q := range s.similarQueries {
		q.Wait()
	}
}

// Close detaches every fragment and cancels in-flight fetches.
func (s *Session) Close() {
	s.Search.Close()
	s.Results.Close()
	s.Detail.Close()
	s.Nearby.Close()
	for _, p := range s.Similar {
		p.Close()
	}
	s.Selection.Close()

	s.cancel()
	s.ResultsQuery.Close()
	s.RecordQuery.Close()
	s.NearbyQuery.Close()
	for _, q := range s.similarQueries {
		q.Close()
	}
}

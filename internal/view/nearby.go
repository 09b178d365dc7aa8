package view

import (
	"context"
	"sync"

	"github.com/OCAP2/boatsync/internal/geo"
	"github.com/OCAP2/boatsync/internal/logging"
	"github.com/OCAP2/boatsync/internal/position"
	"github.com/OCAP2/boatsync/internal/query"
	"github.com/OCAP2/boatsync/pkg/core"
)

// NearbyErrorTitle titles the toast raised when the nearby search fails.
const NearbyErrorTitle = "Error loading Boats Near Me"

// NearbyDeps holds the collaborators of a NearbyPresenter.
type NearbyDeps struct {
	Query   *BoatQuery[NearbyParams]
	Tracker *position.Tracker
	Toaster Toaster
	// Limit caps the number of boat markers.
	Limit  int
	Logger logging.Logger
}

// NearbyPresenter shows boats of a type near the viewer.
type NearbyPresenter struct {
	deps  NearbyDeps
	log   logging.Logger
	unsub func()

	mu      sync.Mutex
	typeID  string
	markers []core.MapMarker
	loading bool
	mounted bool
}

// NewNearbyPresenter creates an unmounted presenter.
func NewNearbyPresenter(deps NearbyDeps) *NearbyPresenter {
	p := &NearbyPresenter{deps: deps, log: logging.OrNop(deps.Logger), loading: true}
	p.unsub = deps.Query.Subscribe(p.onState)
	return p
}

// Mount searches around the current best position and requests the viewer's
// location once. Later mounts do nothing.
func (p *NearbyPresenter) Mount(ctx context.Context, typeID string) {
	p.mu.Lock()
	if p.mounted {
		p.mu.Unlock()
		return
	}
	p.mounted = true
	p.typeID = typeID
	p.mu.Unlock()

	p.search()
	p.deps.Tracker.Request(ctx, func(core.Position) { p.search() })
}

// SetBoatType changes the type filter.
func (p *NearbyPresenter) SetBoatType(typeID string) {
	p.mu.Lock()
	p.typeID = typeID
	p.mu.Unlock()
	p.search()
}

func (p *NearbyPresenter) search() {
	pos, _ := p.deps.Tracker.Current()

	p.mu.Lock()
	params := NearbyParams{TypeID: p.typeID, Latitude: pos.Latitude, Longitude: pos.Longitude}
	p.mu.Unlock()

	p.deps.Query.SetParameters(params)
}

func (p *NearbyPresenter) onState(st query.State[NearbyParams, core.Boat]) {
	switch st.Phase {
	case query.Loading:
		p.mu.Lock()
		p.loading = true
		p.mu.Unlock()
	case query.Ready:
		viewer := core.Position{Latitude: st.Params.Latitude, Longitude: st.Params.Longitude}
		markers, err := geo.Project(st.Data, &viewer, p.deps.Limit)
		if err != nil {
			p.log.Error("failed to project nearby markers", "error", err)
			markers = nil
		}
		p.mu.Lock()
		p.markers, p.loading = markers, false
		p.mu.Unlock()
	case query.Failed:
		p.mu.Lock()
		p.markers, p.loading = nil, false
		p.mu.Unlock()
		if p.deps.Toaster != nil {
			p.deps.Toaster.Notify(core.Notification{
				Title:    NearbyErrorTitle,
				Message:  st.Err.Error(),
				Severity: core.SeverityError,
			})
		}
	}
}

// Markers returns the viewer marker followed by the nearest boats.
func (p *NearbyPresenter) Markers() []core.MapMarker {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]core.MapMarker(nil), p.markers...)
}

// IsLoading reports whether the nearby search is in progress.
func (p *NearbyPresenter) IsLoading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// WaitPosition blocks until the mount-time position request has resolved. It
// returns at once if the presenter was never mounted.
func (p *NearbyPresenter) WaitPosition() {
	p.mu.Lock()
	mounted := p.mounted
	p.mu.Unlock()
	if mounted {
		<-p.deps.Tracker.Done()
	}
}

// Close detaches the presenter.
func (p *NearbyPresenter) Close() {
	p.unsub()
}

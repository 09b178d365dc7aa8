package view

import (
	"context"
	"sync"

	"github.com/OCAP2/boatsync/internal/bus"
	"github.com/OCAP2/boatsync/internal/edit"
	"github.com/OCAP2/boatsync/internal/query"
	"github.com/OCAP2/boatsync/internal/selection"
	"github.com/OCAP2/boatsync/pkg/core"
)

// TileSelectedClass is the CSS class of the selected boat tile.
const TileSelectedClass = "selected"

// ResultsPresenter renders the search results as tiles and as an editable table.
type ResultsPresenter struct {
	results   *BoatQuery[string]
	selection *selection.Coordinator
	editor    *edit.Controller
	bus       *bus.Bus
	sub       bus.Subscription
	unsub     func()

	mu         sync.Mutex
	selectedID string
	overrides  map[string]core.Boat
}

// ResultsDeps holds the collaborators of a ResultsPresenter.
type ResultsDeps struct {
	Results   *BoatQuery[string]
	Selection *selection.Coordinator
	Editor    *edit.Controller
	Bus       *bus.Bus
}

// NewResultsPresenter wires the presenter to the results query and the bus.
func NewResultsPresenter(deps ResultsDeps) *ResultsPresenter {
	p := &ResultsPresenter{
		results:   deps.Results,
		selection: deps.Selection,
		editor:    deps.Editor,
		bus:       deps.Bus,
		overrides: map[string]core.Boat{},
	}
	p.unsub = deps.Results.Subscribe(func(st query.State[string, core.Boat]) {
		if st.Phase == query.Ready || st.Phase == query.Failed {
			p.mu.Lock()
			p.overrides = map[string]core.Boat{}
			p.mu.Unlock()
		}
	})
	p.sub = bus.On(deps.Bus, core.TopicBulkUpdated, func(m core.BulkUpdatedMessage) error {
		p.mu.Lock()
		defer p.mu.Unlock()
		for _, b := range m.Updated {
			p.overrides[b.ID] = b
		}
		return nil
	})
	return p
}

// State returns the underlying query state.
func (p *ResultsPresenter) State() query.State[string, core.Boat] {
	return p.results.State()
}

// Rows returns the boats to render. Records updated by a save are shown with
// their new values until the refreshed result lands.
func (p *ResultsPresenter) Rows() []core.Boat {
	rows := p.results.Data()

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, b := range rows {
		if o, ok := p.overrides[b.ID]; ok {
			rows[i] = o
		}
	}
	return rows
}

// Empty reports whether the search finished without boats.
func (p *ResultsPresenter) Empty() bool {
	st := p.results.State()
	return st.Phase == query.Ready && len(st.Data) == 0
}

// Err returns the fetch error of a failed search.
func (p *ResultsPresenter) Err() error {
	return p.results.State().Err
}

// SelectTile marks the tile selected and broadcasts the selection.
func (p *ResultsPresenter) SelectTile(id string) {
	p.mu.Lock()
	p.selectedID = id
	p.mu.Unlock()

	p.selection.Select(id)
}

// SelectedID returns the id of the selected tile.
func (p *ResultsPresenter) SelectedID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectedID
}

// TileClass returns the CSS class for the tile of id.
func (p *ResultsPresenter) TileClass(id string) string {
	if id != "" && p.SelectedID() == id {
		return TileSelectedClass
	}
	return ""
}

// Save submits the table's draft values.
func (p *ResultsPresenter) Save(ctx context.Context, drafts []core.EditDraft) (core.Notification, error) {
	return p.editor.Submit(ctx, drafts)
}

// Close detaches the presenter.
func (p *ResultsPresenter) Close() {
	p.unsub()
	p.bus.Unsubscribe(p.sub)
}

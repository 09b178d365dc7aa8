package view

import (
	"sync"

	"github.com/OCAP2/boatsync/internal/geo"
	"github.com/OCAP2/boatsync/internal/logging"
	"github.com/OCAP2/boatsync/internal/query"
	"github.com/OCAP2/boatsync/internal/selection"
	"github.com/OCAP2/boatsync/pkg/core"
)

// DetailPresenter shows the selected boat on a map.
type DetailPresenter struct {
	record  *BoatQuery[string]
	binding *selection.Binding
	log     logging.Logger
	unsub   func()

	mu      sync.Mutex
	markers []core.MapMarker
	err     error
}

// NewDetailPresenter follows the selection unless opts.BoundRecordID is set.
func NewDetailPresenter(record *BoatQuery[string], coord *selection.Coordinator, opts selection.BindingOptions, log logging.Logger) *DetailPresenter {
	p := &DetailPresenter{record: record, log: logging.OrNop(log)}
	p.unsub = record.Subscribe(p.onState)

	onSelect := opts.OnSelect
	opts.OnSelect = func(id string) {
		record.SetParameters(id)
		if onSelect != nil {
			onSelect(id)
		}
	}
	binding := coord.Bind(opts)
	p.mu.Lock()
	p.binding = binding
	p.mu.Unlock()

	if id := binding.RecordID(); id != "" {
		record.SetParameters(id)
	}
	return p
}

func (p *DetailPresenter) onState(st query.State[string, core.Boat]) {
	switch st.Phase {
	case query.Ready:
		markers, err := geo.Project(st.Data, nil, 1)
		if err != nil {
			p.log.Error("failed to project boat marker", "error", err)
			return
		}
		p.mu.Lock()
		p.markers, p.err = markers, nil
		p.mu.Unlock()
	case query.Failed:
		p.mu.Lock()
		p.markers, p.err = nil, st.Err
		binding := p.binding
		p.mu.Unlock()

		// A transition can arrive before the binding exists.
		if binding != nil {
			binding.Clear()
		}
		// Unbind the failed id so selecting it again refetches.
		p.record.SwapParameters(st.Params, "")
	}
}

// RecordID returns the boat currently shown, or "" after a failed load.
func (p *DetailPresenter) RecordID() string {
	p.mu.Lock()
	binding := p.binding
	p.mu.Unlock()
	return binding.RecordID()
}

// Markers returns the boat marker, if any.
func (p *DetailPresenter) Markers() []core.MapMarker {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]core.MapMarker(nil), p.markers...)
}

// ShowMap reports whether there is a marker to show.
func (p *DetailPresenter) ShowMap() bool {
	return len(p.Markers()) > 0
}

// Err returns the last load error.
func (p *DetailPresenter) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close detaches the presenter.
func (p *DetailPresenter) Close() {
	p.binding.Close()
	p.unsub()
}

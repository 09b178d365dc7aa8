package view

import (
	"github.com/OCAP2/boatsync/internal/selection"
	"github.com/OCAP2/boatsync/pkg/core"
)

// SimilarPresenter lists boats related to the shown boat by one field.
type SimilarPresenter struct {
	related *BoatQuery[SimilarParams]
	binding *selection.Binding
	by      core.SimilarBy
}

// NewSimilarPresenter follows the selection unless opts.BoundRecordID is set.
func NewSimilarPresenter(related *BoatQuery[SimilarParams], coord *selection.Coordinator, by core.SimilarBy, opts selection.BindingOptions) *SimilarPresenter {
	p := &SimilarPresenter{related: related, by: by}

	onSelect := opts.OnSelect
	opts.OnSelect = func(id string) {
		related.SetParameters(SimilarParams{BoatID: id, By: by})
		if onSelect != nil {
			onSelect(id)
		}
	}
	p.binding = coord.Bind(opts)
	if id := p.binding.RecordID(); id != "" {
		related.SetParameters(SimilarParams{BoatID: id, By: by})
	}
	return p
}

// Title is the card heading.
func (p *SimilarPresenter) Title() string {
	return "Similar boats by " + string(p.by)
}

// Boats returns the related boats.
func (p *SimilarPresenter) Boats() []core.Boat {
	return p.related.Data()
}

// NoBoats reports whether there is nothing to list, including after a failure.
func (p *SimilarPresenter) NoBoats() bool {
	return len(p.related.Data()) == 0
}

// Err returns the fetch error of a failed lookup.
func (p *SimilarPresenter) Err() error {
	return p.related.State().Err
}

// Close detaches the presenter.
func (p *SimilarPresenter) Close() {
	p.binding.Close()
}

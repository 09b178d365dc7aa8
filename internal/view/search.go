package view

import (
	"sync"

	"github.com/OCAP2/boatsync/internal/query"
	"github.com/OCAP2/boatsync/pkg/core"
)

// SearchController turns a submitted boat type filter into results query
// parameters and owns the form's loading flag.
type SearchController struct {
	results *BoatQuery[string]
	unsub   func()

	mu      sync.Mutex
	typeID  string
	loading bool
}

// NewSearchController binds the controller to the results query.
func NewSearchController(results *BoatQuery[string]) *SearchController {
	s := &SearchController{results: results}
	s.unsub = results.Subscribe(func(st query.State[string, core.Boat]) {
		if st.Phase == query.Ready || st.Phase == query.Failed {
			s.doneLoading()
		}
	})
	return s
}

// Search submits the filter. An empty typeID searches every type.
func (s *SearchController) Search(typeID string) {
	s.mu.Lock()
	s.typeID = typeID
	s.loading = true
	s.mu.Unlock()

	s.results.SetParameters(typeID)

	// A memoized search produces no transition.
	if st := s.results.State(); st.Params == typeID && st.Phase != query.Loading {
		s.doneLoading()
	}
}

func (s *SearchController) doneLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

// TypeID returns the last submitted filter.
func (s *SearchController) TypeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typeID
}

// IsLoading reports whether a search is in progress.
func (s *SearchController) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Close detaches from the results query.
func (s *SearchController) Close() {
	s.unsub()
}

// Package query implements the reactive read binding used by every fragment: a
// parameterized remote fetch that re-runs when its parameters change and exposes
// an idle/loading/ready/failed state.
//
// Each fetch is tagged with a sequence number. Only the result of the latest
// issued fetch is applied; anything older is discarded on arrival. Superseded
// requests are not cancelled, they simply lose.
package query

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/OCAP2/boatsync/internal/logging"
)

// Phase of a query.
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is a snapshot of a query. Data holds the last successful result and is
// kept while a newer fetch is loading; it is cleared on failure.
type State[K comparable, T any] struct {
	Params K
	Phase  Phase
	Data   []T
	Err    error
	Seq    uint64
}

// FetchError wraps a failed remote read.
type FetchError struct {
	Query  string
	Params string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("query %s(%s): %v", e.Query, e.Params, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetchFunc is the remote read collaborator.
type FetchFunc[K comparable, T any] func(ctx context.Context, params K) ([]T, error)

// Config configures a Query.
type Config[K comparable] struct {
	Name   string
	Logger logging.Logger
	// Ready reports whether the parameters are complete enough to fetch. A query
	// whose parameters are not ready stays idle. Nil means always ready.
	Ready func(K) bool
	// Context is the parent of every fetch context. Defaults to context.Background.
	Context context.Context
}

type observer[K comparable, T any] struct {
	id int
	fn func(State[K, T])
}

// Query is a reactive, auto-refetching read binding. Safe for concurrent use.
type Query[K comparable, T any] struct {
	name   string
	fetch  FetchFunc[K, T]
	ready  func(K) bool
	logger logging.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State[K, T]
	hasParams bool
	seq       uint64
	closed    bool

	observers []observer[K, T]
	nextObsID int
	pending   []State[K, T]
	notifying bool

	inflight sync.WaitGroup

	issued metric.Int64Counter
	stale  metric.Int64Counter
}

// New creates an idle query. Nothing is fetched until SetParameters or Refresh.
func New[K comparable, T any](fetch FetchFunc[K, T], cfg Config[K]) *Query[K, T] {
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	name := cfg.Name
	if name == "" {
		name = "query"
	}

	q := &Query[K, T]{
		name:   name,
		fetch:  fetch,
		ready:  cfg.Ready,
		logger: logging.OrNop(cfg.Logger),
		ctx:    ctx,
		cancel: cancel,
	}
	q.issued, q.stale = counters()
	return q
}

// Name returns the query name used in logs and errors.
func (q *Query[K, T]) Name() string {
	return q.name
}

// State returns a copy of the current state.
func (q *Query[K, T]) State() State[K, T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	st := q.state
	st.Data = append([]T(nil), q.state.Data...)
	return st
}

// Data returns a copy of the last successful result.
func (q *Query[K, T]) Data() []T {
	return q.State().Data
}

// Params returns the current parameters.
func (q *Query[K, T]) Params() K {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state.Params
}

// SetParameters re-binds the query. Identical parameters whose result is already
// ready or failed are memoized and trigger nothing; anything else supersedes the
// in-flight fetch, if any, and issues a new one.
func (q *Query[K, T]) SetParameters(params K) {
	q.mu.Lock()
	if !q.closed {
		q.setLocked(params)
	}
	q.mu.Unlock()

	q.flush()
}

// SwapParameters re-binds the query to params only while it is still bound to
// old, and reports whether it did.
func (q *Query[K, T]) SwapParameters(old, params K) bool {
	q.mu.Lock()
	swapped := !q.closed && q.hasParams && q.state.Params == old
	if swapped {
		q.setLocked(params)
	}
	q.mu.Unlock()

	q.flush()
	return swapped
}

func (q *Query[K, T]) setLocked(params K) {
	if q.hasParams && params == q.state.Params {
		switch q.state.Phase {
		case Ready, Failed:
			return
		case Idle:
			if q.ready != nil && !q.ready(params) {
				return
			}
		}
	}
	q.state.Params = params
	q.hasParams = true
	q.issueLocked()
}

// Refresh re-issues the fetch with the current parameters, bypassing memoization.
// It is a no-op before the first SetParameters and when the parameters are not
// ready.
func (q *Query[K, T]) Refresh() {
	q.mu.Lock()
	if q.closed || !q.hasParams {
		q.mu.Unlock()
		return
	}
	q.issueLocked()
	q.mu.Unlock()

	q.flush()
}

// issueLocked supersedes whatever is in flight and starts a fetch for the current
// parameters, or parks the query in Idle when they are not ready.
func (q *Query[K, T]) issueLocked() {
	q.seq++
	seq := q.seq
	params := q.state.Params

	if q.ready != nil && !q.ready(params) {
		q.state = State[K, T]{Params: params, Phase: Idle, Seq: seq}
		q.enqueueLocked()
		return
	}

	q.state.Phase = Loading
	q.state.Err = nil
	q.state.Seq = seq
	q.enqueueLocked()

	q.issued.Add(q.ctx, 1, metric.WithAttributes(attribute.String("query", q.name)))
	q.logger.Debug("fetch issued", "query", q.name, "seq", seq, "params", params)

	q.inflight.Add(1)
	go q.run(seq, params)
}

func (q *Query[K, T]) run(seq uint64, params K) {
	defer q.inflight.Done()

	data, err := q.fetch(q.ctx, params)

	q.mu.Lock()
	if q.closed || seq != q.seq {
		latest := q.seq
		q.mu.Unlock()
		q.stale.Add(context.Background(), 1, metric.WithAttributes(attribute.String("query", q.name)))
		q.logger.Debug("stale result discarded", "query", q.name, "seq", seq, "latest", latest)
		return
	}

	if err != nil {
		q.state.Phase = Failed
		q.state.Data = nil
		q.state.Err = &FetchError{Query: q.name, Params: fmt.Sprint(params), Err: err}
		q.logger.Warn("fetch failed", "query", q.name, "seq", seq, "error", err)
	} else {
		q.state.Phase = Ready
		q.state.Data = data
		q.state.Err = nil
		q.logger.Debug("fetch ready", "query", q.name, "seq", seq, "rows", len(data))
	}
	q.enqueueLocked()
	q.mu.Unlock()

	q.flush()
}

// Subscribe registers fn for every state transition, delivered in the order the
// transitions were applied. The returned func unsubscribes.
func (q *Query[K, T]) Subscribe(fn func(State[K, T])) func() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextObsID++
	id := q.nextObsID
	q.observers = append(q.observers, observer[K, T]{id: id, fn: fn})

	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		next := make([]observer[K, T], 0, len(q.observers))
		for _, o := range q.observers {
			if o.id != id {
				next = append(next, o)
			}
		}
		q.observers = next
	}
}

func (q *Query[K, T]) enqueueLocked() {
	st := q.state
	st.Data = append([]T(nil), q.state.Data...)
	q.pending = append(q.pending, st)
}

// flush delivers queued transitions. Only one goroutine drains at a time; calls
// made while draining (including re-entrant ones from observers) leave their
// transitions to the active drainer.
func (q *Query[K, T]) flush() {
	q.mu.Lock()
	if q.notifying {
		q.mu.Unlock()
		return
	}
	q.notifying = true

	for len(q.pending) > 0 && !q.closed {
		st := q.pending[0]
		q.pending = q.pending[1:]
		obs := q.observers
		q.mu.Unlock()

		for _, o := range obs {
			q.notify(o, st)
		}

		q.mu.Lock()
	}
	q.pending = nil
	q.notifying = false
	q.mu.Unlock()
}

func (q *Query[K, T]) notify(o observer[K, T], st State[K, T]) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("query observer panicked", "query", q.name, "panic", r)
		}
	}()
	o.fn(st)
}

// Wait blocks until no fetch of this query is running. Results are applied
// before the fetch goroutine exits.
func (q *Query[K, T]) Wait() {
	q.inflight.Wait()
}

// Close cancels in-flight fetch contexts and stops all notifications.
func (q *Query[K, T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.observers = nil
	q.pending = nil
	q.mu.Unlock()
	q.cancel()
}

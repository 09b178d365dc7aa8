// Package position resolves the viewer's location for the nearby map.
package position

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/OCAP2/boatsync/internal/logging"
	"github.com/OCAP2/boatsync/pkg/core"
)

// ErrPositionUnavailable is returned when the device cannot report a location.
var ErrPositionUnavailable = errors.New("position unavailable")

// Provider reports the viewer's current location.
type Provider interface {
	CurrentPosition(ctx context.Context) (core.Position, error)
}

// Static always reports the same position.
type Static core.Position

func (s Static) CurrentPosition(context.Context) (core.Position, error) {
	return core.Position(s), nil
}

// Func adapts a function to Provider.
type Func func(ctx context.Context) (core.Position, error)

func (f Func) CurrentPosition(ctx context.Context) (core.Position, error) {
	return f(ctx)
}

// Unavailable never knows the position.
var Unavailable Provider = Func(func(context.Context) (core.Position, error) {
	return core.Position{}, ErrPositionUnavailable
})

// Tracker performs a single position request and falls back to a default
// when it fails or does not answer within the timeout.
type Tracker struct {
	provider Provider
	timeout  time.Duration
	log      logging.Logger

	once sync.Once
	done chan struct{}

	mu         sync.RWMutex
	pos        core.Position
	fromDevice bool
}

// NewTracker creates a tracker reporting fallback until the request resolves.
// A zero timeout waits for the provider indefinitely.
func NewTracker(p Provider, fallback core.Position, timeout time.Duration, log logging.Logger) *Tracker {
	if p == nil {
		p = Unavailable
	}
	return &Tracker{
		provider: p,
		timeout:  timeout,
		log:      logging.OrNop(log),
		done:     make(chan struct{}),
		pos:      fallback,
	}
}

// Current returns the best known position and whether it came from the provider.
func (t *Tracker) Current() (core.Position, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pos, t.fromDevice
}

// Request starts the one-shot lookup. Only the first call has an effect;
// onResolved then runs exactly once, from the lookup goroutine, with the final
// position.
func (t *Tracker) Request(ctx context.Context, onResolved func(core.Position)) {
	t.once.Do(func() {
		go t.resolve(ctx, onResolved)
	})
}

// Done is closed once the lookup has resolved.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

func (t *Tracker) resolve(ctx context.Context, onResolved func(core.Position)) {
	defer close(t.done)

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	pos, err := t.lookup(ctx)

	t.mu.Lock()
	if err == nil {
		t.pos = pos
		t.fromDevice = true
	} else {
		t.log.Warn("using default position", "error", err)
	}
	final := t.pos
	t.mu.Unlock()

	if onResolved != nil {
		onResolved(final)
	}
}

func (t *Tracker) lookup(ctx context.Context) (core.Position, error) {
	type result struct {
		pos core.Position
		err error
	}
	ch := make(chan result, 1)
	go func() {
		pos, err := t.provider.CurrentPosition(ctx)
		ch <- result{pos, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return core.Position{}, fmt.Errorf("%w: %w", ErrPositionUnavailable, r.err)
		}
		return r.pos, nil
	case <-ctx.Done():
		return core.Position{}, fmt.Errorf("%w: %w", ErrPositionUnavailable, ctx.Err())
	}
}

// Package bus is the topic-based publish/subscribe transport shared by every UI
// fragment. Fragments never hold references to each other; they agree on a topic
// name and a payload type and talk through one Bus instance injected at
// construction.
package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/OCAP2/boatsync/internal/logging"
)

// ErrPayloadType is reported when a typed handler receives a payload of another type.
var ErrPayloadType = errors.New("unexpected payload type")

// Event is one published message.
type Event struct {
	Topic   string
	Payload any
	// Source identifies the publisher when it matters (bridges use it to avoid
	// echoing their own traffic). Empty for ordinary publishes.
	Source string
}

// Handler receives events for a topic. A returned error is logged and counted,
// never propagated to the publisher.
type Handler func(Event) error

// Subscription identifies a registered handler.
type Subscription struct {
	ID    string
	Topic string
}

type subscriber struct {
	id      string
	handler Handler
}

// queued is an event together with the handlers registered when it was published.
type queued struct {
	event Event
	subs  []subscriber
}

// Bus delivers events synchronously, in subscription order, one event at a time.
//
// Events published while a delivery is running (from a handler, or from another
// goroutine) are queued and delivered once the current event has reached every
// subscriber, so all subscribers observe the same total order. Each event goes to
// the handlers registered when it was published.
type Bus struct {
	logger logging.Logger

	mu       sync.Mutex
	topics   map[string][]subscriber
	pending  []queued
	draining bool

	published metric.Int64Counter
	failures  metric.Int64Counter
}

// New creates a Bus. Uses the global OTel meter for metrics (no-op if not configured).
func New(logger logging.Logger) (*Bus, error) {
	b := &Bus{
		logger: logging.OrNop(logger),
		topics: make(map[string][]subscriber),
	}

	m := meter()
	var err error
	b.published, err = m.Int64Counter(
		"bus.events.published",
		metric.WithDescription("Events published per topic"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating published counter: %w", err)
	}
	b.failures, err = m.Int64Counter(
		"bus.handler.failures",
		metric.WithDescription("Handler errors and panics isolated by the bus"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}
	return b, nil
}

// Subscribe registers h for topic. Late subscribers never see past events.
func (b *Bus) Subscribe(topic string, h Handler) Subscription {
	sub := Subscription{ID: uuid.NewString(), Topic: topic}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics[topic] = append(b.topics[topic], subscriber{id: sub.ID, handler: h})
	return sub
}

// Unsubscribe removes the handler. It reports false when the subscription was
// already gone. An event already being delivered still reaches the handler.
func (b *Bus) Unsubscribe(sub Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[sub.Topic]
	for i, s := range subs {
		if s.id != sub.ID {
			continue
		}
		// Copy so snapshots held by an in-flight delivery stay intact.
		next := make([]subscriber, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(b.topics, sub.Topic)
		} else {
			b.topics[sub.Topic] = next
		}
		return true
	}
	return false
}

// Subscribers returns the number of handlers registered for topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

// Publish delivers payload to every handler of topic. It never fails.
func (b *Bus) Publish(topic string, payload any) {
	b.PublishFrom("", topic, payload)
}

// PublishFrom is Publish with an explicit Source.
func (b *Bus) PublishFrom(source, topic string, payload any) {
	b.published.Add(context.Background(), 1, metric.WithAttributes(attribute.String("topic", topic)))

	b.mu.Lock()
	b.pending = append(b.pending, queued{
		event: Event{Topic: topic, Payload: payload, Source: source},
		subs:  b.topics[topic],
	})
	if b.draining {
		b.mu.Unlock()
		return
	}
	b.draining = true

	for len(b.pending) > 0 {
		next := b.pending[0]
		b.pending = b.pending[1:]
		b.mu.Unlock()

		for _, s := range next.subs {
			b.deliver(s, next.event)
		}

		b.mu.Lock()
	}
	b.pending = nil
	b.draining = false
	b.mu.Unlock()
}

func (b *Bus) deliver(s subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.failures.Add(context.Background(), 1, metric.WithAttributes(attribute.String("topic", e.Topic)))
			b.logger.Error("bus handler panicked", "topic", e.Topic, "subscription", s.id, "panic", r)
		}
	}()

	if err := s.handler(e); err != nil {
		b.failures.Add(context.Background(), 1, metric.WithAttributes(attribute.String("topic", e.Topic)))
		b.logger.Error("bus handler failed", "topic", e.Topic, "subscription", s.id, "error", err)
	}
}

// On subscribes a typed handler. Payloads of type T or *T are accepted; anything
// else is reported as ErrPayloadType and the handler is not called.
func On[T any](b *Bus, topic string, fn func(T) error) Subscription {
	return b.Subscribe(topic, func(e Event) error {
		switch v := e.Payload.(type) {
		case T:
			return fn(v)
		case *T:
			if v != nil {
				return fn(*v)
			}
		}
		var want T
		return fmt.Errorf("%w: topic %q expects %T, got %T", ErrPayloadType, topic, want, e.Payload)
	})
}

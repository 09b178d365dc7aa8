// Package redisbridge mirrors selected bus topics over Redis Pub/Sub so that
// several UI sessions observe each other's bulk updates.
//
// Channels are namespaced as {prefix}:{topic}. Every message carries the origin
// bridge id; a bridge drops its own messages and republishes foreign ones on the
// local bus with Source set to its id, which keeps the local forwarder from
// echoing them back.
package redisbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/OCAP2/boatsync/internal/bus"
	"github.com/OCAP2/boatsync/internal/logging"
)

// Config holds bridge settings.
type Config struct {
	ChannelPrefix string
}

// envelope is the wire format on Redis.
type envelope struct {
	Origin  string          `json:"origin"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

type decoder func(json.RawMessage) (any, error)

// Bridge connects a local bus to Redis.
type Bridge struct {
	bus    *bus.Bus
	rdb    *redis.Client
	prefix string
	origin string
	logger logging.Logger

	mu       sync.Mutex
	decoders map[string]decoder
	subs     []bus.Subscription
	pubsub   *redis.PubSub
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a bridge. Register topics before calling Start.
func New(b *bus.Bus, redisOpts *redis.Options, cfg Config, logger logging.Logger) (*Bridge, error) {
	if b == nil {
		return nil, errors.New("bus cannot be nil")
	}
	prefix := strings.TrimSuffix(cfg.ChannelPrefix, ":")
	if prefix == "" {
		prefix = "boatsync"
	}
	return &Bridge{
		bus:      b,
		rdb:      redis.NewClient(redisOpts),
		prefix:   prefix,
		origin:   uuid.NewString(),
		logger:   logging.OrNop(logger),
		decoders: make(map[string]decoder),
	}, nil
}

// Origin returns the id stamped on outgoing messages.
func (br *Bridge) Origin() string {
	return br.origin
}

// Channel returns the Redis channel used for topic.
func (br *Bridge) Channel(topic string) string {
	return br.prefix + ":" + topic
}

// Register mirrors topic in both directions with payload type T.
func Register[T any](br *Bridge, topic string) {
	br.mu.Lock()
	br.decoders[topic] = func(raw json.RawMessage) (any, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	br.mu.Unlock()

	sub := br.bus.Subscribe(topic, func(e bus.Event) error {
		if e.Source == br.origin {
			return nil
		}
		return br.forward(context.Background(), e)
	})

	br.mu.Lock()
	br.subs = append(br.subs, sub)
	br.mu.Unlock()
}

func (br *Bridge) forward(ctx context.Context, e bus.Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", e.Topic, err)
	}
	msg, err := json.Marshal(envelope{Origin: br.origin, Topic: e.Topic, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	if err := br.rdb.Publish(ctx, br.Channel(e.Topic), msg).Err(); err != nil {
		return fmt.Errorf("failed to publish %s to redis: %w", e.Topic, err)
	}
	return nil
}

// Start subscribes to the registered topics and begins relaying. It returns once
// Redis confirmed the subscription.
func (br *Bridge) Start(ctx context.Context) error {
	br.mu.Lock()
	channels := make([]string, 0, len(br.decoders))
	for topic := range br.decoders {
		channels = append(channels, br.Channel(topic))
	}
	br.mu.Unlock()
	if len(channels) == 0 {
		return errors.New("no topics registered")
	}

	ps := br.rdb.Subscribe(ctx, channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("failed to subscribe to redis: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	br.mu.Lock()
	br.pubsub = ps
	br.cancel = cancel
	br.done = make(chan struct{})
	br.mu.Unlock()

	go br.relay(runCtx, ps.Channel())
	br.logger.Info("redis bridge started", "channels", channels, "origin", br.origin)
	return nil
}

func (br *Bridge) relay(ctx context.Context, ch <-chan *redis.Message) {
	defer close(br.done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := br.receive(msg.Payload); err != nil {
				br.logger.Warn("dropping redis message", "channel", msg.Channel, "error", err)
			}
		}
	}
}

func (br *Bridge) receive(raw string) error {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	if env.Origin == br.origin {
		return nil
	}

	br.mu.Lock()
	decode, ok := br.decoders[env.Topic]
	br.mu.Unlock()
	if !ok {
		return fmt.Errorf("unregistered topic %q", env.Topic)
	}

	payload, err := decode(env.Payload)
	if err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", env.Topic, err)
	}
	br.bus.PublishFrom(br.origin, env.Topic, payload)
	return nil
}

// Close stops relaying, removes the local forwarders and closes the Redis client.
// Implements io.Closer.
func (br *Bridge) Close() error {
	br.mu.Lock()
	subs := br.subs
	br.subs = nil
	cancel, ps, done := br.cancel, br.pubsub, br.done
	br.cancel, br.pubsub = nil, nil
	br.mu.Unlock()

	for _, s := range subs {
		br.bus.Unsubscribe(s)
	}
	if cancel != nil {
		cancel()
		_ = ps.Close()
		<-done
	}
	return br.rdb.Close()
}

package redisbridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/boatsync/internal/bus"
	"github.com/OCAP2/boatsync/internal/selection"
	"github.com/OCAP2/boatsync/pkg/core"
)

type session struct {
	bus    *bus.Bus
	bridge *Bridge

	mu      sync.Mutex
	updates []core.BulkUpdatedMessage
}

func (s *session) received() []core.BulkUpdatedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.BulkUpdatedMessage(nil), s.updates...)
}

func newSession(t *testing.T, addr string) *session {
	t.Helper()
	b, err := bus.New(nil)
	require.NoError(t, err)

	br, err := New(b, &redis.Options{Addr: addr}, Config{ChannelPrefix: "test"}, nil)
	require.NoError(t, err)
	Register[core.BulkUpdatedMessage](br, core.TopicBulkUpdated)
	Register[core.SelectionMessage](br, core.TopicSelection)
	require.NoError(t, br.Start(context.Background()))
	t.Cleanup(func() { br.Close() })

	s := &session{bus: b, bridge: br}
	bus.On(b, core.TopicBulkUpdated, func(m core.BulkUpdatedMessage) error {
		s.mu.Lock()
		s.updates = append(s.updates, m)
		s.mu.Unlock()
		return nil
	})
	return s
}

func startRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)
	return mr
}

func TestBridge_RelaysBetweenSessions(t *testing.T) {
	mr := startRedis(t)
	a := newSession(t, mr.Addr())
	b := newSession(t, mr.Addr())

	msg := core.BulkUpdatedMessage{Updated: []core.Boat{{ID: "a01", Name: "Sea Breeze", Price: 100}}}
	a.bus.Publish(core.TopicBulkUpdated, msg)

	require.Eventually(t, func() bool { return len(b.received()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, msg, b.received()[0])

	// No echo back into the originating session.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, a.received(), 1)
}

func TestBridge_RelayedSelectionReachesCoordinator(t *testing.T) {
	mr := startRedis(t)
	a := newSession(t, mr.Addr())
	b := newSession(t, mr.Addr())

	coordA := selection.New(a.bus, nil)
	coordB := selection.New(b.bus, nil)
	binding := coordB.Bind(selection.BindingOptions{})
	defer binding.Close()

	coordA.Select("a01")

	require.Eventually(t, func() bool { return binding.RecordID() == "a01" }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "a01", coordB.Current().SelectedID)
	assert.Equal(t, "a01", coordA.Current().SelectedID)
}

func TestBridge_ChannelNaming(t *testing.T) {
	b, err := bus.New(nil)
	require.NoError(t, err)
	br, err := New(b, &redis.Options{Addr: "localhost:0"}, Config{ChannelPrefix: "fleet:"}, nil)
	require.NoError(t, err)
	defer br.Close()

	assert.Equal(t, "fleet:bulk-updated", br.Channel(core.TopicBulkUpdated))
	assert.NotEmpty(t, br.Origin())
}

func TestBridge_StartWithoutTopics(t *testing.T) {
	mr := startRedis(t)
	b, err := bus.New(nil)
	require.NoError(t, err)
	br, err := New(b, &redis.Options{Addr: mr.Addr()}, Config{}, nil)
	require.NoError(t, err)
	defer br.Close()

	assert.Error(t, br.Start(context.Background()))
}

func TestReceive_DropsMalformedMessages(t *testing.T) {
	b, err := bus.New(nil)
	require.NoError(t, err)
	br, err := New(b, &redis.Options{Addr: "localhost:0"}, Config{}, nil)
	require.NoError(t, err)
	defer br.Close()
	Register[core.BulkUpdatedMessage](br, core.TopicBulkUpdated)

	assert.Error(t, br.receive("{not json"))
	assert.Error(t, br.receive(`{"origin":"x","topic":"unknown","payload":{}}`))
	assert.Error(t, br.receive(`{"origin":"x","topic":"bulk-updated","payload":"oops"}`))
	assert.NoError(t, br.receive(`{"origin":"`+br.Origin()+`","topic":"bulk-updated","payload":{}}`))
}

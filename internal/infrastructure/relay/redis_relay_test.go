package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedisAddr = "localhost:6379"

type recordingSink struct {
	mu   sync.Mutex
	got  map[string][]string
	seen chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{got: make(map[string][]string), seen: make(chan struct{}, 16)}
}

func (s *recordingSink) Broadcast(roomID string, payload []byte) {
	s.mu.Lock()
	s.got[roomID] = append(s.got[roomID], string(payload))
	s.mu.Unlock()
	s.seen <- struct{}{}
}

func (s *recordingSink) snapshot() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(s.got))
	for k, v := range s.got {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func setupClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisRelay_ForwardsForeignPayloadsOnly(t *testing.T) {
	client := setupClient(t)
	prefix := "campuslink-test:" + uuid.New().String() + ":"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := NewRedisRelay(client, prefix)
	remote := NewRedisRelay(client, prefix)

	sink := newRecordingSink()
	require.NoError(t, local.Start(ctx, sink))

	local.Publish("room-1", []byte(`{"message":"own"}`))
	remote.Publish("room-1", []byte(`{"message":"from elsewhere"}`))

	select {
	case <-sink.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not forward the remote payload")
	}

	// Give a stray self-delivery a moment to show up.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, map[string][]string{"room-1": {`{"message":"from elsewhere"}`}}, sink.snapshot())
}

func TestRedisRelay_IgnoresMalformedMessages(t *testing.T) {
	client := setupClient(t)
	prefix := "campuslink-test:" + uuid.New().String() + ":"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := newRecordingSink()
	relay := NewRedisRelay(client, prefix)
	require.NoError(t, relay.Start(ctx, sink))

	require.NoError(t, client.Publish(ctx, prefix+"room-1", "not json").Err())
	NewRedisRelay(client, prefix).Publish("room-2", []byte(`"ok"`))

	select {
	case <-sink.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not forward the valid payload")
	}
	assert.Equal(t, map[string][]string{"room-2": {`"ok"`}}, sink.snapshot())
}

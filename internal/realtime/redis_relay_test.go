package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
)

const testRoomChannel = "support-desk:rooms:test"

type relayInstance struct {
	relay  *RedisRelay
	client *Client
	done   chan error
}

func startRelay(ctx context.Context, t *testing.T, mr *miniredis.Miniredis, chatID int64) *relayInstance {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub, _ := newTestHub()
	c := newClient(hub, nil, domain.ClientActor(1), 8)
	hub.register(c)
	hub.Join(chatID, c)

	inst := &relayInstance{
		relay:  NewRedisRelay(rdb, testRoomChannel, hub, zap.NewNop()),
		client: c,
		done:   make(chan error, 1),
	}
	go func() { inst.done <- inst.relay.Run(ctx) }()
	return inst
}

func waitForSubscribers(t *testing.T, mr *miniredis.Miniredis, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(testRoomChannel)[testRoomChannel] == n
	}, 2*time.Second, 10*time.Millisecond)
}

func waitFrame(t *testing.T, c *Client) map[string]any {
	t.Helper()
	select {
	case raw := <-c.send:
		var frame map[string]any
		require.NoError(t, json.Unmarshal(raw, &frame))
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered")
		return nil
	}
}

func TestRedisRelayDeliversToEveryInstance(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := startRelay(ctx, t, mr, 7)
	second := startRelay(ctx, t, mr, 7)
	waitForSubscribers(t, mr, 2)

	require.NoError(t, first.relay.Emit(ctx, 7, "price_updated", map[string]any{"chat_id": 7, "price": 125.5}))

	for _, inst := range []*relayInstance{first, second} {
		frame := waitFrame(t, inst.client)
		assert.Equal(t, "price_updated", frame["event"])
		data := frame["data"].(map[string]any)
		assert.EqualValues(t, 7, data["chat_id"])
		assert.EqualValues(t, 125.5, data["price"])
	}

	cancel()
	for _, inst := range []*relayInstance{first, second} {
		select {
		case err := <-inst.done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("relay did not stop")
		}
	}
}

func TestRedisRelaySkipsMalformedMessages(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inst := startRelay(ctx, t, mr, 3)
	waitForSubscribers(t, mr, 1)

	mr.Publish(testRoomChannel, "not json")
	require.NoError(t, inst.relay.Emit(ctx, 4, "chat_completed", map[string]any{"chat_id": 4}))
	require.NoError(t, inst.relay.Emit(ctx, 3, "chat_completed", map[string]any{"chat_id": 3}))

	frame := waitFrame(t, inst.client)
	assert.Equal(t, "chat_completed", frame["event"])
	assert.EqualValues(t, 3, frame["data"].(map[string]any)["chat_id"])
	assert.Empty(t, inst.client.send)
}

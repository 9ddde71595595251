package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/observability"
)

func newTestHub() (*Hub, *observability.Metrics) {
	metrics := observability.NewMetrics()
	return NewHub(zap.NewNop(), metrics), metrics
}

func readFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case raw := <-c.send:
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	default:
		t.Fatal("no frame queued")
		return Frame{}
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	hub, _ := newTestHub()
	c := newClient(hub, nil, domain.ClientActor(1), 4)
	hub.register(c)

	hub.Join(7, c)
	hub.Join(7, c)
	assert.Equal(t, 1, hub.RoomSize(7))

	require.NoError(t, hub.Emit(context.Background(), 7, "chat_completed", map[string]int64{"chat_id": 7}))
	assert.Len(t, c.send, 1)
}

func TestEmitReachesSenderAndRoomOnly(t *testing.T) {
	hub, _ := newTestHub()
	sender := newClient(hub, nil, domain.ClientActor(1), 4)
	staff := newClient(hub, nil, domain.StaffActor(2, 5), 4)
	outsider := newClient(hub, nil, domain.ClientActor(3), 4)
	for _, c := range []*Client{sender, staff, outsider} {
		hub.register(c)
	}
	hub.Join(7, sender)
	hub.Join(7, staff)
	hub.Join(8, outsider)

	require.NoError(t, hub.Emit(context.Background(), 7, "new_message", map[string]any{"id": 1, "sender_id": 1}))

	f := readFrame(t, sender)
	assert.Equal(t, "new_message", f.Event)
	assert.Equal(t, "new_message", readFrame(t, staff).Event)
	assert.Empty(t, outsider.send)
}

func TestSlowClientDropsFrames(t *testing.T) {
	hub, metrics := newTestHub()
	slow := newClient(hub, nil, domain.ClientActor(1), 1)
	hub.register(slow)
	hub.Join(7, slow)

	for i := 0; i < 3; i++ {
		require.NoError(t, hub.Emit(context.Background(), 7, "status_updated", map[string]int{"n": i}))
	}
	assert.Len(t, slow.send, 1)
	assert.Equal(t, int64(2), metrics.Snapshot().DroppedFrames)
	assert.Equal(t, int64(3), metrics.Snapshot().RoomEvents["status_updated"])
}

func TestUnregisterLeavesRoomsAndClosesSend(t *testing.T) {
	hub, _ := newTestHub()
	c := newClient(hub, nil, domain.ClientActor(1), 4)
	hub.register(c)
	hub.Join(7, c)
	hub.Join(9, c)

	hub.unregister(c)
	hub.unregister(c)

	assert.Equal(t, 0, hub.RoomSize(7))
	assert.Equal(t, 0, hub.RoomSize(9))
	assert.Equal(t, 0, hub.ClientCount())
	assert.False(t, c.enqueue([]byte("x")))
	_, open := <-c.send
	assert.False(t, open)
}

func TestLeave(t *testing.T) {
	hub, _ := newTestHub()
	c := newClient(hub, nil, domain.ClientActor(1), 4)
	hub.register(c)
	hub.Join(7, c)
	hub.Leave(7, c)

	require.NoError(t, hub.Emit(context.Background(), 7, "chat_completed", nil))
	assert.Empty(t, c.send)
}

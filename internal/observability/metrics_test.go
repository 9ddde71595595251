package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/chats", "GET", 200, time.Millisecond)
	m.RecordRequest("/chats", "GET", 200, time.Millisecond)
	m.RecordError("/chats", "POST", "FORBIDDEN")
	m.RecordRoomEvent("new_message")
	m.RecordDroppedFrame()

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/chats|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/chats|POST|FORBIDDEN"])
	assert.Equal(t, int64(1), snap.RoomEvents["new_message"])
	assert.Equal(t, int64(1), snap.DroppedFrames)

	m.RecordRoomEvent("new_message")
	assert.Equal(t, int64(1), snap.RoomEvents["new_message"], "snapshot is a copy")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordRoomEvent("x")
	assert.Empty(t, m.Snapshot().Requests)
}

package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
)

func TestInMemoryDispatcherRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	calls := 0
	d.Subscribe(EventChatCompleted, func(context.Context, Event) error {
		calls++
		return errors.New("first failed")
	})
	d.Subscribe(EventChatCompleted, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventChatCompleted, 1, domain.AdminActor(1), ChatCompletedPayload{ChatID: 1}))
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestAsyncDispatcherPreservesOrder(t *testing.T) {
	d := NewAsyncDispatcher(16, zap.NewNop())

	var (
		mu  sync.Mutex
		got []int64
	)
	d.Subscribe(EventNewMessage, func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.Payload.(NewMessagePayload).ID)
		return nil
	})

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, d.Publish(context.Background(), NewEvent(EventNewMessage, 1, domain.ClientActor(1), NewMessagePayload{ID: i})))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 5
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, got)
}

func TestAsyncDispatcherDropsWhenFull(t *testing.T) {
	d := NewAsyncDispatcher(1, zap.NewNop())
	ev := NewEvent(EventChatCompleted, 1, domain.AdminActor(1), ChatCompletedPayload{ChatID: 1})

	require.NoError(t, d.Publish(context.Background(), ev))
	assert.ErrorIs(t, d.Publish(context.Background(), ev), ErrQueueFull)
}

func TestNewMessagePayloadFromAttachment(t *testing.T) {
	msg := &domain.Message{ID: 3, SenderID: 2, Attachment: &domain.Attachment{Type: domain.AttachmentImage, Handle: "x.png", SizeBytes: 12}}
	p := NewMessagePayloadFrom(msg)

	assert.Nil(t, p.Text)
	require.NotNil(t, p.AttachmentType)
	assert.Equal(t, domain.AttachmentImage, *p.AttachmentType)
	assert.Equal(t, "x.png", *p.AttachmentFilename)
	assert.Equal(t, int64(12), *p.AttachmentSize)
}

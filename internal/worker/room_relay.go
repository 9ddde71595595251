package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/realtime"
)

// StartRoomRelay forwards committed room events to the broadcaster. The
// dispatcher worker calls it in publish order.
func StartRoomRelay(dispatcher events.Dispatcher, rooms realtime.Broadcaster, logger *zap.Logger) {
	if dispatcher == nil || rooms == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	relay := func(ctx context.Context, event events.Event) error {
		if err := rooms.Emit(ctx, event.ChatID, string(event.Type), event.Payload); err != nil {
			logger.Warn("room emit failed",
				zap.String("event_type", string(event.Type)),
				zap.Int64("chat_id", event.ChatID),
				zap.Error(err))
			return err
		}
		return nil
	}
	for _, eventType := range events.RoomEvents {
		dispatcher.Subscribe(eventType, relay)
	}
}

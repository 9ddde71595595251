package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

// Room events, delivered to every connection joined to the chat.
const (
	EventNewMessage       EventType = "new_message"
	EventPriceUpdated     EventType = "price_updated"
	EventPaymentCompleted EventType = "payment_completed"
	EventStatusUpdated    EventType = "status_updated"
	EventChatCompleted    EventType = "chat_completed"
)

// Internal events, consumed by notification handlers only.
const (
	EventPaymentSubmitted EventType = "payment_submitted"
	EventPaymentRejected  EventType = "payment_rejected"
	EventStaffRegistered  EventType = "staff_registered"
	EventStaffReviewed    EventType = "staff_reviewed"
	EventStaffCredited    EventType = "staff_credited"
)

// RoomEvents lists the types relayed to chat rooms.
var RoomEvents = []EventType{
	EventNewMessage,
	EventPriceUpdated,
	EventPaymentCompleted,
	EventStatusUpdated,
	EventChatCompleted,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   int64       `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ChatID    int64       `json:"chat_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, chatID int64, actor domain.Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ChatID:    chatID,
		Actor:     Actor{ID: actor.ID, Role: actor.Role},
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// NewMessagePayload payload.
type NewMessagePayload struct {
	ID                 int64                  `json:"id"`
	Text               *string                `json:"text"`
	SenderID           int64                  `json:"sender_id"`
	CreatedAt          time.Time              `json:"created_at"`
	AttachmentType     *domain.AttachmentType `json:"attachment_type,omitempty"`
	AttachmentFilename *string                `json:"attachment_filename,omitempty"`
	AttachmentSize     *int64                 `json:"attachment_size,omitempty"`
}

// NewMessagePayloadFrom projects a stored message onto the wire shape.
func NewMessagePayloadFrom(msg *domain.Message) NewMessagePayload {
	p := NewMessagePayload{
		ID:        msg.ID,
		Text:      msg.Text,
		SenderID:  msg.SenderID,
		CreatedAt: msg.CreatedAt,
	}
	if a := msg.Attachment; a != nil {
		attType, handle, size := a.Type, a.Handle, a.SizeBytes
		p.AttachmentType = &attType
		p.AttachmentFilename = &handle
		p.AttachmentSize = &size
	}
	return p
}

// PriceUpdatedPayload payload. Price is in currency units.
type PriceUpdatedPayload struct {
	ChatID int64   `json:"chat_id"`
	Price  float64 `json:"price"`
}

// PaymentCompletedPayload payload.
type PaymentCompletedPayload struct {
	ChatID int64 `json:"chat_id"`
}

// StatusUpdatedPayload payload.
type StatusUpdatedPayload struct {
	ChatID    int64             `json:"chat_id"`
	NewStatus domain.ChatStatus `json:"new_status"`
}

// ChatCompletedPayload payload.
type ChatCompletedPayload struct {
	ChatID int64 `json:"chat_id"`
}

// PaymentAttemptPayload is carried by payment submitted/rejected events.
type PaymentAttemptPayload struct {
	PaymentID int64   `json:"payment_id"`
	ChatID    int64   `json:"chat_id"`
	Amount    float64 `json:"amount"`
}

// StaffReviewedPayload payload.
type StaffReviewedPayload struct {
	MemberID int64              `json:"member_id"`
	Username string             `json:"username"`
	Status   domain.StaffStatus `json:"status"`
}

// StaffCreditedPayload payload.
type StaffCreditedPayload struct {
	MemberID    int64   `json:"member_id"`
	PaymentID   int64   `json:"payment_id"`
	Amount      float64 `json:"amount"`
	TotalEarned float64 `json:"total_earned"`
}

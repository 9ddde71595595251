package domain

import "time"

// ChatStatus enumerates the conversation lifecycle.
type ChatStatus string

const (
	ChatStatusWaiting    ChatStatus = "waiting"
	ChatStatusInProgress ChatStatus = "in_progress"
	ChatStatusCompleted  ChatStatus = "completed"
	ChatStatusCancelled  ChatStatus = "cancelled"
)

// Valid reports whether s is a known chat status.
func (s ChatStatus) Valid() bool {
	switch s {
	case ChatStatusWaiting, ChatStatusInProgress, ChatStatusCompleted, ChatStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the payment axis of a chat.
type PaymentStatus string

const (
	PaymentStatusPending              PaymentStatus = "pending"
	PaymentStatusAwaitingConfirmation PaymentStatus = "awaiting_confirmation"
	PaymentStatusPaid                 PaymentStatus = "paid"
)

// Chat is one client support engagement.
type Chat struct {
	ID              int64
	ClientID        int64
	StaffID         *int64
	ServiceName     string
	Status          ChatStatus
	OrderPriceCents *int64
	PaymentStatus   PaymentStatus
	CreatedAt       time.Time
	LastMessageAt   time.Time
}

// ChatSummary is a listing row with conversation activity.
type ChatSummary struct {
	Chat
	ClientUsername string
	MessageCount   int
	LastMessage    *string
	LastActivityAt time.Time
}

// NewChat opens a chat for a client.
func NewChat(clientID int64, serviceName string) *Chat {
	return &Chat{
		ClientID:      clientID,
		ServiceName:   serviceName,
		Status:        ChatStatusWaiting,
		PaymentStatus: PaymentStatusPending,
	}
}

// RegisterReply applies the effect of a new message from sender. It reports
// whether the status changed.
func (c *Chat) RegisterReply(sender Actor) bool {
	if !sender.IsOperator() {
		return false
	}
	if c.StaffID == nil {
		id := sender.ID
		c.StaffID = &id
	}
	if c.Status != ChatStatusWaiting {
		return false
	}
	c.Status = ChatStatusInProgress
	return true
}

// SetPrice records the order price. The chat leaves waiting when priced.
func (c *Chat) SetPrice(cents int64) error {
	if cents <= 0 {
		return ErrInvalidPrice
	}
	if c.PaymentStatus == PaymentStatusPaid {
		return ErrAlreadyPaid
	}
	c.OrderPriceCents = &cents
	if c.Status == ChatStatusWaiting {
		c.Status = ChatStatusInProgress
	}
	c.Reconcile()
	return nil
}

// SubmitPayment moves the payment axis to awaiting_confirmation.
func (c *Chat) SubmitPayment() error {
	if c.OrderPriceCents == nil {
		return ErrPriceUnset
	}
	switch c.PaymentStatus {
	case PaymentStatusPaid:
		return ErrAlreadyPaid
	case PaymentStatusAwaitingConfirmation:
		return ErrPaymentOutstanding
	}
	c.PaymentStatus = PaymentStatusAwaitingConfirmation
	c.Reconcile()
	return nil
}

// OverrideStatus is the administrative escape hatch: any status is accepted
// except sending a paid chat back to waiting.
func (c *Chat) OverrideStatus(status ChatStatus) error {
	if !status.Valid() {
		return ErrUnknownStatus
	}
	if status == ChatStatusWaiting && c.PaymentStatus == PaymentStatusPaid {
		return ErrPaidChatReopen
	}
	c.Status = status
	c.Reconcile()
	return nil
}

// Complete marks the chat completed. Repeated calls overwrite.
func (c *Chat) Complete() {
	c.Status = ChatStatusCompleted
	c.Reconcile()
}

// Reconcile restores cross-axis invariants after a write to either axis.
func (c *Chat) Reconcile() {
	if c.PaymentStatus == PaymentStatusPaid && c.Status == ChatStatusWaiting {
		c.Status = ChatStatusInProgress
	}
}

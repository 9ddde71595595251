package domain

import "time"

// PaymentAttemptStatus tracks a single client payment attempt.
type PaymentAttemptStatus string

const (
	PaymentAttemptPending   PaymentAttemptStatus = "pending"
	PaymentAttemptCompleted PaymentAttemptStatus = "completed"
	PaymentAttemptRejected  PaymentAttemptStatus = "rejected"
)

// Payment is a client-to-company payment attempt for a chat.
type Payment struct {
	ID           int64
	ChatID       int64
	ClientID     int64
	AmountCents  int64
	CardSnapshot string
	Status       PaymentAttemptStatus
	ResolvedBy   *int64
	ResolvedAt   *time.Time
	CreatedAt    time.Time
}

// PaymentRecord is a ledger listing row joined with client and chat data.
type PaymentRecord struct {
	Payment
	ClientUsername    string
	ServiceName       string
	ChatPaymentStatus PaymentStatus
}

// NewPayment opens a pending attempt for the chat's current price. The chat
// must already have accepted the submission.
func NewPayment(chat *Chat, card string) *Payment {
	return &Payment{
		ChatID:       chat.ID,
		ClientID:     chat.ClientID,
		AmountCents:  *chat.OrderPriceCents,
		CardSnapshot: card,
		Status:       PaymentAttemptPending,
	}
}

// Approve completes the attempt and marks the chat paid.
func (p *Payment) Approve(chat *Chat, adminID int64, at time.Time) error {
	if p.Status != PaymentAttemptPending {
		return ErrPaymentResolved
	}
	if chat.OrderPriceCents == nil {
		return ErrPriceUnset
	}
	p.resolve(PaymentAttemptCompleted, adminID, at)
	chat.PaymentStatus = PaymentStatusPaid
	chat.Reconcile()
	return nil
}

// Reject declines the attempt and reopens the chat for resubmission.
func (p *Payment) Reject(chat *Chat, adminID int64, at time.Time) error {
	if p.Status != PaymentAttemptPending {
		return ErrPaymentResolved
	}
	p.resolve(PaymentAttemptRejected, adminID, at)
	if chat.PaymentStatus != PaymentStatusPaid {
		chat.PaymentStatus = PaymentStatusPending
	}
	chat.Reconcile()
	return nil
}

func (p *Payment) resolve(status PaymentAttemptStatus, adminID int64, at time.Time) {
	p.Status = status
	p.ResolvedBy = &adminID
	p.ResolvedAt = &at
}

// PaymentCard is the destination card configured by an admin.
type PaymentCard struct {
	AdminID    int64
	CardNumber string
	CardHolder string
	UpdatedAt  time.Time
}

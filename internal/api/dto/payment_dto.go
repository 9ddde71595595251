package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// PaymentCardRequest payload.
type PaymentCardRequest struct {
	CardNumber string `json:"card_number"`
	CardHolder string `json:"card_holder"`
}

// PaymentCardResponse is the destination card.
type PaymentCardResponse struct {
	CardNumber string    `json:"card_number"`
	CardHolder string    `json:"card_holder"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PaymentResponse describes a payment attempt.
type PaymentResponse struct {
	ID                int64                       `json:"id"`
	ChatID            int64                       `json:"chat_id"`
	ClientID          int64                       `json:"client_id"`
	Amount            float64                     `json:"amount"`
	CardSnapshot      string                      `json:"card_snapshot"`
	Status            domain.PaymentAttemptStatus `json:"status"`
	ResolvedBy        *int64                      `json:"resolved_by"`
	ResolvedAt        *time.Time                  `json:"resolved_at"`
	CreatedAt         time.Time                   `json:"created_at"`
	ClientUsername    string                      `json:"client_username,omitempty"`
	ServiceName       string                      `json:"service_name,omitempty"`
	ChatPaymentStatus domain.PaymentStatus        `json:"chat_payment_status,omitempty"`
}

// OverviewResponse is the admin dashboard.
type OverviewResponse struct {
	ChatsByStatus          map[domain.ChatStatus]int64    `json:"chats_by_status"`
	ChatsByPaymentStatus   map[domain.PaymentStatus]int64 `json:"chats_by_payment_status"`
	CompletedPayments      int64                          `json:"completed_payments"`
	CompletedPaymentsTotal float64                        `json:"completed_payments_total"`
	StaffEarnedTotal       float64                        `json:"staff_earned_total"`
	PendingRegistrations   int64                          `json:"pending_registrations"`
}

// NewPaymentCardResponse projects a card.
func NewPaymentCardResponse(c *domain.PaymentCard) PaymentCardResponse {
	return PaymentCardResponse{CardNumber: c.CardNumber, CardHolder: c.CardHolder, UpdatedAt: c.UpdatedAt}
}

// NewPaymentResponse projects a payment.
func NewPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:           p.ID,
		ChatID:       p.ChatID,
		ClientID:     p.ClientID,
		Amount:       domain.UnitsFromCents(p.AmountCents),
		CardSnapshot: p.CardSnapshot,
		Status:       p.Status,
		ResolvedBy:   p.ResolvedBy,
		ResolvedAt:   p.ResolvedAt,
		CreatedAt:    p.CreatedAt,
	}
}

// NewPaymentRecords projects listing rows.
func NewPaymentRecords(rows []domain.PaymentRecord) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(rows))
	for i := range rows {
		resp := NewPaymentResponse(&rows[i].Payment)
		resp.ClientUsername = rows[i].ClientUsername
		resp.ServiceName = rows[i].ServiceName
		resp.ChatPaymentStatus = rows[i].ChatPaymentStatus
		out = append(out, resp)
	}
	return out
}

// NewOverviewResponse projects the overview.
func NewOverviewResponse(o *domain.Overview) OverviewResponse {
	return OverviewResponse{
		ChatsByStatus:          o.ChatsByStatus,
		ChatsByPaymentStatus:   o.ChatsByPaymentStatus,
		CompletedPayments:      o.CompletedPayments,
		CompletedPaymentsTotal: domain.UnitsFromCents(o.CompletedPaymentsCents),
		StaffEarnedTotal:       domain.UnitsFromCents(o.StaffEarnedCents),
		PendingRegistrations:   o.PendingRegistrations,
	}
}

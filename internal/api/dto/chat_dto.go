package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateChatRequest payload.
type CreateChatRequest struct {
	ServiceName string `json:"service_name"`
	Description string `json:"description"`
}

// SendMessageRequest is the JSON form of POST /chats/:id/messages.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// SetPriceRequest carries the price in currency units.
type SetPriceRequest struct {
	Price float64 `json:"price"`
}

// OverrideStatusRequest payload.
type OverrideStatusRequest struct {
	Status domain.ChatStatus `json:"status"`
}

// ChatResponse is a chat with both status axes.
type ChatResponse struct {
	ID            int64                `json:"id"`
	ClientID      int64                `json:"client_id"`
	StaffID       *int64               `json:"staff_id"`
	ServiceName   string               `json:"service_name"`
	Status        domain.ChatStatus    `json:"status"`
	OrderPrice    *float64             `json:"order_price"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time            `json:"created_at"`
	LastMessageAt time.Time            `json:"last_message_at"`
}

// ChatSummaryResponse is a listing row.
type ChatSummaryResponse struct {
	ChatResponse
	ClientUsername string  `json:"client_username"`
	MessageCount   int     `json:"message_count"`
	LastMessage    *string `json:"last_message"`
}

// MessageResponse represents one log entry.
type MessageResponse struct {
	ID                 int64                  `json:"id"`
	ChatID             int64                  `json:"chat_id"`
	SenderID           int64                  `json:"sender_id"`
	Text               *string                `json:"text"`
	AttachmentType     *domain.AttachmentType `json:"attachment_type,omitempty"`
	AttachmentFilename *string                `json:"attachment_filename,omitempty"`
	AttachmentSize     *int64                 `json:"attachment_size,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
}

// NewChatResponse projects a chat.
func NewChatResponse(c *domain.Chat) ChatResponse {
	resp := ChatResponse{
		ID:            c.ID,
		ClientID:      c.ClientID,
		StaffID:       c.StaffID,
		ServiceName:   c.ServiceName,
		Status:        c.Status,
		PaymentStatus: c.PaymentStatus,
		CreatedAt:     c.CreatedAt,
		LastMessageAt: c.LastMessageAt,
	}
	if c.OrderPriceCents != nil {
		price := domain.UnitsFromCents(*c.OrderPriceCents)
		resp.OrderPrice = &price
	}
	return resp
}

// NewChatSummaries projects listing rows.
func NewChatSummaries(rows []domain.ChatSummary) []ChatSummaryResponse {
	out := make([]ChatSummaryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, ChatSummaryResponse{
			ChatResponse:   NewChatResponse(&rows[i].Chat),
			ClientUsername: rows[i].ClientUsername,
			MessageCount:   rows[i].MessageCount,
			LastMessage:    rows[i].LastMessage,
		})
	}
	return out
}

// NewMessageResponse projects a message.
func NewMessageResponse(m *domain.Message) MessageResponse {
	resp := MessageResponse{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
	if a := m.Attachment; a != nil {
		attType, handle, size := a.Type, a.Handle, a.SizeBytes
		resp.AttachmentType = &attType
		resp.AttachmentFilename = &handle
		resp.AttachmentSize = &size
	}
	return resp
}

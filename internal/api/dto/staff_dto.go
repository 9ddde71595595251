package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// StaffCreditRequest carries a payout in currency units.
type StaffCreditRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// StaffMemberResponse is a member profile. Credentials never leave the service.
type StaffMemberResponse struct {
	ID             int64              `json:"id"`
	FirstName      string             `json:"first_name"`
	LastName       string             `json:"last_name"`
	FullName       string             `json:"full_name"`
	Position       string             `json:"position"`
	Username       string             `json:"username"`
	Email          string             `json:"email,omitempty"`
	Status         domain.StaffStatus `json:"status"`
	TotalEarned    float64            `json:"total_earned"`
	ContractHandle string             `json:"contract_file"`
	UserID         *int64             `json:"user_id"`
	CreatedAt      time.Time          `json:"created_at"`
}

// StaffDocumentResponse describes an uploaded document.
type StaffDocumentResponse struct {
	ID           int64     `json:"id"`
	MemberID     int64     `json:"member_id"`
	Name         string    `json:"name"`
	DocumentType string    `json:"document_type"`
	Description  string    `json:"description"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// StaffPaymentResponse is one ledger entry.
type StaffPaymentResponse struct {
	ID          int64     `json:"id"`
	MemberID    int64     `json:"member_id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	AdminID     int64     `json:"admin_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// LedgerResponse is a member's payout history.
type LedgerResponse struct {
	Member  StaffMemberResponse    `json:"member"`
	Entries []StaffPaymentResponse `json:"entries"`
}

// NewStaffMemberResponse projects a member.
func NewStaffMemberResponse(m *domain.StaffMember) StaffMemberResponse {
	return StaffMemberResponse{
		ID:             m.ID,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		FullName:       m.FullName(),
		Position:       m.Position,
		Username:       m.Username,
		Email:          m.Email,
		Status:         m.Status,
		TotalEarned:    domain.UnitsFromCents(m.TotalEarnedCents),
		ContractHandle: m.ContractHandle,
		UserID:         m.UserID,
		CreatedAt:      m.CreatedAt,
	}
}

// NewStaffDocumentResponse projects a document.
func NewStaffDocumentResponse(d *domain.StaffDocument) StaffDocumentResponse {
	return StaffDocumentResponse{
		ID:           d.ID,
		MemberID:     d.MemberID,
		Name:         d.Name,
		DocumentType: d.DocumentType,
		Description:  d.Description,
		UploadedAt:   d.UploadedAt,
	}
}

// NewStaffPaymentResponse projects a ledger entry.
func NewStaffPaymentResponse(p *domain.StaffPayment) StaffPaymentResponse {
	return StaffPaymentResponse{
		ID:          p.ID,
		MemberID:    p.MemberID,
		Amount:      domain.UnitsFromCents(p.AmountCents),
		Description: p.Description,
		AdminID:     p.AdminID,
		CreatedAt:   p.CreatedAt,
	}
}

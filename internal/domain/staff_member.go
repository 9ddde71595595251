package domain

import "time"

// StaffStatus is the onboarding state of a registrant.
type StaffStatus string

const (
	StaffStatusPending  StaffStatus = "pending"
	StaffStatusApproved StaffStatus = "approved"
	StaffStatusRejected StaffStatus = "rejected"
)

// StaffMember is the durable onboarding profile and earnings record.
type StaffMember struct {
	ID               int64
	FirstName        string
	LastName         string
	Position         string
	ContractHandle   string
	Username         string
	Email            string
	PasswordHash     string
	Status           StaffStatus
	TotalEarnedCents int64
	UserID           *int64
	CreatedAt        time.Time
}

// FullName joins first and last name.
func (m *StaffMember) FullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

// Approve marks the registrant approved and returns the staff identity to
// create. Persisting both is the caller's atomic unit.
func (m *StaffMember) Approve() (*User, error) {
	if m.Status != StaffStatusPending {
		return nil, ErrMemberNotPending
	}
	m.Status = StaffStatusApproved
	memberID := m.ID
	return &User{
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         RoleStaff,
		MemberID:     &memberID,
	}, nil
}

// Reject closes the submission.
func (m *StaffMember) Reject() error {
	if m.Status != StaffStatusPending {
		return ErrMemberNotPending
	}
	m.Status = StaffStatusRejected
	return nil
}

// StaffDocument is an extra document uploaded by a staff member.
type StaffDocument struct {
	ID           int64
	MemberID     int64
	Name         string
	DocumentType string
	Handle       string
	Description  string
	UploadedAt   time.Time
}

package domain

import "time"

// StaffPayment is one compensation ledger entry.
type StaffPayment struct {
	ID          int64
	MemberID    int64
	AmountCents int64
	Description string
	AdminID     int64
	CreatedAt   time.Time
}

// NewStaffPayment validates a credit against the member's onboarding state.
func NewStaffPayment(member *StaffMember, amountCents int64, description string, adminID int64) (*StaffPayment, error) {
	if member.Status != StaffStatusApproved {
		return nil, ErrMemberNotApproved
	}
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	return &StaffPayment{
		MemberID:    member.ID,
		AmountCents: amountCents,
		Description: description,
		AdminID:     adminID,
	}, nil
}

// LedgerTotal is the signed sum of the given entries.
func LedgerTotal(entries []StaffPayment) int64 {
	var total int64
	for _, e := range entries {
		total += e.AmountCents
	}
	return total
}

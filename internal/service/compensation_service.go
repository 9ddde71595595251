package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
)

// CompensationService keeps the staff payout ledger and its derived totals.
type CompensationService struct {
	staff  repository.StaffRepository
	ledger repository.CompensationRepository
	logger *zap.Logger
	events publisher
}

// CompensationDependencies bundles repositories for the compensation service.
type CompensationDependencies struct {
	StaffRepo        repository.StaffRepository
	CompensationRepo repository.CompensationRepository
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// NewCompensationService constructs the service.
func NewCompensationService(deps CompensationDependencies) *CompensationService {
	logger := nopIfNil(deps.Logger)
	return &CompensationService{
		staff:  deps.StaffRepo,
		ledger: deps.CompensationRepo,
		logger: logger,
		events: publisher{dispatcher: deps.Dispatcher, logger: logger},
	}
}

// CreditInput is a payout to record.
type CreditInput struct {
	AmountCents int64
	Description string
}

// Ledger is a member's payouts with the derived total.
type Ledger struct {
	Member  *domain.StaffMember
	Entries []domain.StaffPayment
}

// Credit records a payout for an approved member.
func (s *CompensationService) Credit(ctx context.Context, actor domain.Actor, memberID int64, input CreditInput) (*domain.StaffPayment, *domain.StaffMember, error) {
	if err := auth.Authorize(actor, auth.OpLedgerWrite, auth.MemberTarget(memberID)); err != nil {
		return nil, nil, err
	}
	description := strings.TrimSpace(input.Description)
	entry, member, err := s.ledger.Credit(ctx, memberID, func(m *domain.StaffMember) (*domain.StaffPayment, error) {
		return domain.NewStaffPayment(m, input.AmountCents, description, actor.ID)
	})
	if err != nil {
		return nil, nil, mapError(err, "staff member")
	}
	s.logger.Info("staff credited",
		zap.Int64("member_id", member.ID),
		zap.Int64("amount_cents", entry.AmountCents),
		zap.Int64("total_cents", member.TotalEarnedCents))
	s.events.publish(ctx, events.NewEvent(events.EventStaffCredited, 0, actor, events.StaffCreditedPayload{
		MemberID:    member.ID,
		PaymentID:   entry.ID,
		Amount:      domain.UnitsFromCents(entry.AmountCents),
		TotalEarned: domain.UnitsFromCents(member.TotalEarnedCents),
	}))
	return entry, member, nil
}

// Reverse deletes a ledger entry and re-derives the member's total.
func (s *CompensationService) Reverse(ctx context.Context, actor domain.Actor, paymentID int64) (*domain.StaffPayment, *domain.StaffMember, error) {
	if err := auth.Authorize(actor, auth.OpLedgerWrite, auth.Target{}); err != nil {
		return nil, nil, err
	}
	entry, member, err := s.ledger.Reverse(ctx, paymentID)
	if err != nil {
		return nil, nil, mapError(err, "staff payment")
	}
	s.logger.Info("staff payment reversed",
		zap.Int64("payment_id", entry.ID),
		zap.Int64("member_id", member.ID),
		zap.Int64("total_cents", member.TotalEarnedCents))
	return entry, member, nil
}

// Recompute re-derives total_earned from the ledger.
func (s *CompensationService) Recompute(ctx context.Context, actor domain.Actor, memberID int64) (*domain.StaffMember, error) {
	if err := auth.Authorize(actor, auth.OpLedgerWrite, auth.MemberTarget(memberID)); err != nil {
		return nil, err
	}
	member, err := s.ledger.Recompute(ctx, memberID)
	if err != nil {
		return nil, mapError(err, "staff member")
	}
	return member, nil
}

// Ledger returns the payouts of a member to its owner or an admin.
func (s *CompensationService) Ledger(ctx context.Context, actor domain.Actor, memberID int64) (*Ledger, error) {
	if err := auth.Authorize(actor, auth.OpLedgerRead, auth.MemberTarget(memberID)); err != nil {
		return nil, err
	}
	member, err := s.staff.GetByID(ctx, memberID)
	if err != nil {
		return nil, mapError(err, "staff member")
	}
	entries, err := s.ledger.ListByMember(ctx, memberID)
	if err != nil {
		return nil, mapError(err, "staff payment")
	}
	return &Ledger{Member: member, Entries: entries}, nil
}

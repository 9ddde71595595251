package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type compensationRepo struct{ s *Store }

func (r *compensationRepo) Credit(_ context.Context, memberID int64, fn func(member *domain.StaffMember) (*domain.StaffPayment, error)) (*domain.StaffPayment, *domain.StaffMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.members[memberID]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	working := cloneMember(m)
	entry, err := fn(working)
	if err != nil {
		return nil, nil, err
	}
	entry.ID = r.s.next("payouts")
	entry.CreatedAt = r.s.now()
	cp := *entry
	r.s.payouts[entry.ID] = &cp
	r.s.refreshTotal(working)
	return entry, working, nil
}

func (r *compensationRepo) Reverse(_ context.Context, paymentID int64) (*domain.StaffPayment, *domain.StaffMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entry, ok := r.s.payouts[paymentID]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	m, ok := r.s.members[entry.MemberID]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	delete(r.s.payouts, paymentID)
	working := cloneMember(m)
	r.s.refreshTotal(working)
	removed := *entry
	return &removed, working, nil
}

func (r *compensationRepo) Recompute(_ context.Context, memberID int64) (*domain.StaffMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[memberID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	working := cloneMember(m)
	r.s.refreshTotal(working)
	return working, nil
}

func (r *compensationRepo) ListByMember(_ context.Context, memberID int64) ([]domain.StaffPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.ledger(memberID), nil
}

func (s *Store) ledger(memberID int64) []domain.StaffPayment {
	var out []domain.StaffPayment
	for _, p := range s.payouts {
		if p.MemberID == memberID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Store) refreshTotal(member *domain.StaffMember) {
	member.TotalEarnedCents = domain.LedgerTotal(s.ledger(member.ID))
	s.members[member.ID] = cloneMember(member)
}

// CorruptTotal overwrites a member's cached total without touching the
// ledger, simulating drift for recompute tests.
func (s *Store) CorruptTotal(memberID, cents int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.members[memberID]; ok {
		m.TotalEarnedCents = cents
	}
}

type statsRepo struct{ s *Store }

func (r *statsRepo) Overview(_ context.Context) (*domain.Overview, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := &domain.Overview{
		ChatsByStatus:        map[domain.ChatStatus]int64{},
		ChatsByPaymentStatus: map[domain.PaymentStatus]int64{},
	}
	for _, c := range r.s.chats {
		out.ChatsByStatus[c.Status]++
		out.ChatsByPaymentStatus[c.PaymentStatus]++
	}
	for _, p := range r.s.payments {
		if p.Status == domain.PaymentAttemptCompleted {
			out.CompletedPayments++
			out.CompletedPaymentsCents += p.AmountCents
		}
	}
	for _, m := range r.s.members {
		out.StaffEarnedCents += m.TotalEarnedCents
		if m.Status == domain.StaffStatusPending {
			out.PendingRegistrations++
		}
	}
	return out, nil
}

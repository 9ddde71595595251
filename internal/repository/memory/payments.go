package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type paymentRepo struct{ s *Store }

func (r *paymentRepo) Submit(_ context.Context, chatID int64, fn func(chat *domain.Chat) (*domain.Payment, error)) (*domain.Payment, *domain.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.chats[chatID]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	working := cloneChat(c)
	p, err := fn(working)
	if err != nil {
		return nil, nil, err
	}
	for _, existing := range r.s.payments {
		if existing.ChatID == p.ChatID && existing.Status == domain.PaymentAttemptPending {
			return nil, nil, repository.ErrPendingPaymentExists
		}
	}

	p.ID = r.s.next("payments")
	p.CreatedAt = r.s.now()
	r.s.payments[p.ID] = clonePayment(p)
	r.s.chats[working.ID] = cloneChat(working)
	return p, working, nil
}

func (r *paymentRepo) Resolve(_ context.Context, paymentID int64, fn func(payment *domain.Payment, chat *domain.Chat) error) (*domain.Payment, *domain.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.payments[paymentID]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	c, ok := r.s.chats[stored.ChatID]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	p, working := clonePayment(stored), cloneChat(c)
	if err := fn(p, working); err != nil {
		return nil, nil, err
	}
	r.s.payments[p.ID] = clonePayment(p)
	r.s.chats[working.ID] = cloneChat(working)
	return p, working, nil
}

func (r *paymentRepo) GetByID(_ context.Context, id int64) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePayment(p), nil
}

func (r *paymentRepo) List(_ context.Context, filter repository.PaymentFilter) ([]domain.PaymentRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.PaymentRecord
	for _, p := range r.s.payments {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.ChatID != nil && p.ChatID != *filter.ChatID {
			continue
		}
		rec := domain.PaymentRecord{Payment: *clonePayment(p)}
		if u, ok := r.s.users[p.ClientID]; ok {
			rec.ClientUsername = u.Username
		}
		if c, ok := r.s.chats[p.ChatID]; ok {
			rec.ServiceName = c.ServiceName
			rec.ChatPaymentStatus = c.PaymentStatus
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, filter.Page), nil
}

type cardRepo struct{ s *Store }

func (r *cardRepo) Current(_ context.Context) (*domain.PaymentCard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *domain.PaymentCard
	for _, c := range r.s.cards {
		if latest == nil || c.UpdatedAt.After(latest.UpdatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *cardRepo) Upsert(_ context.Context, card *domain.PaymentCard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	card.UpdatedAt = r.s.now()
	cp := *card
	r.s.cards[card.AdminID] = &cp
	return nil
}

// Package memory provides mutex-guarded in-process implementations of the
// repository interfaces. It backs development mode and the service tests.
package memory

import (
	"sync"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// Store holds every table behind one lock, so each callback runs as an
// isolated unit the same way a Postgres transaction would.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	users    map[int64]*domain.User
	chats    map[int64]*domain.Chat
	messages map[int64][]domain.Message
	payments map[int64]*domain.Payment
	cards    map[int64]*domain.PaymentCard
	members  map[int64]*domain.StaffMember
	docs     map[int64]*domain.StaffDocument
	payouts  map[int64]*domain.StaffPayment

	seq map[string]int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		now:      time.Now,
		users:    map[int64]*domain.User{},
		chats:    map[int64]*domain.Chat{},
		messages: map[int64][]domain.Message{},
		payments: map[int64]*domain.Payment{},
		cards:    map[int64]*domain.PaymentCard{},
		members:  map[int64]*domain.StaffMember{},
		docs:     map[int64]*domain.StaffDocument{},
		payouts:  map[int64]*domain.StaffPayment{},
		seq:      map[string]int64{},
	}
}

// New returns repositories sharing a fresh store.
func New() repository.Repositories {
	return NewStore().Repositories()
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:        &userRepo{s},
		Chats:        &chatRepo{s},
		Messages:     &messageRepo{s},
		Payments:     &paymentRepo{s},
		Cards:        &cardRepo{s},
		Staff:        &staffRepo{s},
		Documents:    &documentRepo{s},
		Compensation: &compensationRepo{s},
		Stats:        &statsRepo{s},
	}
}

func (s *Store) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func (s *Store) handleTaken(username string) bool {
	return s.userByName(username) != nil || s.memberByName(username) != nil
}

func (s *Store) userByName(username string) *domain.User {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (s *Store) memberByName(username string) *domain.StaffMember {
	for _, m := range s.members {
		if m.Username == username {
			return m
		}
	}
	return nil
}

func paginate[T any](items []T, page repository.Page) []T {
	limit, offset := page.Normalized()
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneChat(c *domain.Chat) *domain.Chat {
	cp := *c
	cp.StaffID = copyInt64(c.StaffID)
	cp.OrderPriceCents = copyInt64(c.OrderPriceCents)
	return &cp
}

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	cp.MemberID = copyInt64(u.MemberID)
	return &cp
}

func cloneMember(m *domain.StaffMember) *domain.StaffMember {
	cp := *m
	cp.UserID = copyInt64(m.UserID)
	return &cp
}

func clonePayment(p *domain.Payment) *domain.Payment {
	cp := *p
	cp.ResolvedBy = copyInt64(p.ResolvedBy)
	if p.ResolvedAt != nil {
		at := *p.ResolvedAt
		cp.ResolvedAt = &at
	}
	return &cp
}

package memory

import (
	"context"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type messageRepo struct{ s *Store }

func (s *Store) insertMessage(msg *domain.Message) {
	msg.ID = s.next("messages")
	msg.CreatedAt = s.now()
	stored := *msg
	if msg.Attachment != nil {
		att := *msg.Attachment
		stored.Attachment = &att
	}
	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], stored)
}

func (r *messageRepo) Append(_ context.Context, msg *domain.Message, fn func(chat *domain.Chat) error) (*domain.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.chats[msg.ChatID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	working := cloneChat(c)
	if fn != nil {
		if err := fn(working); err != nil {
			return nil, err
		}
	}
	r.s.insertMessage(msg)
	working.LastMessageAt = msg.CreatedAt
	r.s.chats[working.ID] = cloneChat(working)
	return working, nil
}

func (r *messageRepo) List(_ context.Context, chatID, afterID int64, limit int) ([]domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []domain.Message
	for _, m := range r.s.messages[chatID] {
		if m.ID <= afterID {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *messageRepo) GetByID(_ context.Context, chatID, messageID int64) (*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.messages[chatID] {
		if m.ID == messageID {
			found := m
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

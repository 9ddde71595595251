package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type chatRepo struct{ s *Store }

func (r *chatRepo) Create(_ context.Context, chat *domain.Chat, first *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	chat.ID = r.s.next("chats")
	chat.CreatedAt = now
	chat.LastMessageAt = now
	r.s.chats[chat.ID] = cloneChat(chat)

	if first != nil {
		first.ChatID = chat.ID
		r.s.insertMessage(first)
	}
	return nil
}

func (r *chatRepo) GetByID(_ context.Context, id int64) (*domain.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneChat(c), nil
}

func (r *chatRepo) Mutate(_ context.Context, id int64, fn func(chat *domain.Chat) error) (*domain.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	working := cloneChat(c)
	if err := fn(working); err != nil {
		return nil, err
	}
	r.s.chats[id] = cloneChat(working)
	return working, nil
}

func (r *chatRepo) List(_ context.Context, filter repository.ChatFilter) ([]domain.ChatSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.ChatSummary
	for _, c := range r.s.chats {
		if filter.ClientID != nil && c.ClientID != *filter.ClientID {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		summary := domain.ChatSummary{Chat: *cloneChat(c), LastActivityAt: c.LastMessageAt}
		if u, ok := r.s.users[c.ClientID]; ok {
			summary.ClientUsername = u.Username
		}
		thread := r.s.messages[c.ID]
		summary.MessageCount = len(thread)
		if len(thread) > 0 && thread[len(thread)-1].Text != nil {
			text := *thread[len(thread)-1].Text
			summary.LastMessage = &text
		}
		out = append(out, summary)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if filter.WaitingFirst {
			aw, bw := a.Status == domain.ChatStatusWaiting, b.Status == domain.ChatStatusWaiting
			if aw != bw {
				return aw
			}
		}
		if !a.LastMessageAt.Equal(b.LastMessageAt) {
			return a.LastMessageAt.After(b.LastMessageAt)
		}
		return a.ID > b.ID
	})
	return paginate(out, filter.Page), nil
}

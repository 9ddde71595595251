package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

func seedClient(t *testing.T, repos repository.Repositories, name string) *domain.User {
	t.Helper()
	u := &domain.User{Username: name, PasswordHash: "x", Role: domain.RoleClient}
	require.NoError(t, repos.Users.Create(context.Background(), u))
	return u
}

func TestChatCreateWithOpeningMessage(t *testing.T) {
	ctx := context.Background()
	repos := New()
	client := seedClient(t, repos, "alice")

	text := "need a landing page"
	chat := domain.NewChat(client.ID, "Website")
	first := &domain.Message{SenderID: client.ID, Text: &text}
	require.NoError(t, repos.Chats.Create(ctx, chat, first))

	assert.NotZero(t, chat.ID)
	assert.Equal(t, chat.ID, first.ChatID)

	msgs, err := repos.Messages.List(ctx, chat.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, text, *msgs[0].Text)
}

func TestMutateDiscardsFailedChanges(t *testing.T) {
	ctx := context.Background()
	repos := New()
	client := seedClient(t, repos, "alice")
	chat := domain.NewChat(client.ID, "Website")
	require.NoError(t, repos.Chats.Create(ctx, chat, nil))

	boom := errors.New("boom")
	_, err := repos.Chats.Mutate(ctx, chat.ID, func(c *domain.Chat) error {
		c.Status = domain.ChatStatusCancelled
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := repos.Chats.GetByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ChatStatusWaiting, stored.Status)

	_, err = repos.Chats.Mutate(ctx, 999, func(*domain.Chat) error { return nil })
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMessagesPageInIDOrder(t *testing.T) {
	ctx := context.Background()
	repos := New()
	client := seedClient(t, repos, "alice")
	chat := domain.NewChat(client.ID, "Website")
	require.NoError(t, repos.Chats.Create(ctx, chat, nil))

	var ids []int64
	for _, body := range []string{"one", "two", "three"} {
		msg, err := domain.NewMessage(chat.ID, client.ID, body, nil)
		require.NoError(t, err)
		_, err = repos.Messages.Append(ctx, msg, nil)
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}

	page, err := repos.Messages.List(ctx, chat.ID, ids[0], 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[1], page[0].ID)
	assert.Equal(t, ids[2], page[1].ID)
}

func TestChatListWaitingFirst(t *testing.T) {
	ctx := context.Background()
	repos := New()
	client := seedClient(t, repos, "alice")

	older := domain.NewChat(client.ID, "Logo")
	require.NoError(t, repos.Chats.Create(ctx, older, nil))
	active := domain.NewChat(client.ID, "Website")
	require.NoError(t, repos.Chats.Create(ctx, active, nil))
	_, err := repos.Chats.Mutate(ctx, active.ID, func(c *domain.Chat) error {
		c.Status = domain.ChatStatusInProgress
		return nil
	})
	require.NoError(t, err)

	list, err := repos.Chats.List(ctx, repository.ChatFilter{WaitingFirst: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[0].ID)
	assert.Equal(t, "alice", list[0].ClientUsername)
}

func TestSubmitRejectsSecondPendingPayment(t *testing.T) {
	ctx := context.Background()
	repos := New()
	client := seedClient(t, repos, "alice")
	chat := domain.NewChat(client.ID, "Website")
	require.NoError(t, repos.Chats.Create(ctx, chat, nil))

	build := func(c *domain.Chat) (*domain.Payment, error) {
		price := int64(1000)
		c.OrderPriceCents = &price
		return domain.NewPayment(c, "4111"), nil
	}
	_, _, err := repos.Payments.Submit(ctx, chat.ID, build)
	require.NoError(t, err)

	_, _, err = repos.Payments.Submit(ctx, chat.ID, build)
	assert.ErrorIs(t, err, repository.ErrPendingPaymentExists)
}

func TestReviewCollisionKeepsMemberPending(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	member := &domain.StaffMember{FirstName: "Bo", Username: "bo", PasswordHash: "h", Status: domain.StaffStatusPending, ContractHandle: "c.pdf"}
	require.NoError(t, repos.Staff.Create(ctx, member))

	// A client claims the handle after registration.
	store.mu.Lock()
	store.insertUser(&domain.User{Username: "bo", Role: domain.RoleClient})
	store.mu.Unlock()

	_, err := repos.Staff.Review(ctx, member.ID, func(m *domain.StaffMember) (*domain.User, error) {
		return m.Approve()
	})
	require.ErrorIs(t, err, repository.ErrHandleTaken)

	stored, err := repos.Staff.GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StaffStatusPending, stored.Status)
	assert.Nil(t, stored.UserID)
}

func TestCreditReverseRecompute(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	member := &domain.StaffMember{FirstName: "Bo", Username: "bo", Status: domain.StaffStatusApproved, ContractHandle: "c.pdf"}
	require.NoError(t, repos.Staff.Create(ctx, member))

	credit := func(amount int64) *domain.StaffPayment {
		entry, _, err := repos.Compensation.Credit(ctx, member.ID, func(m *domain.StaffMember) (*domain.StaffPayment, error) {
			return domain.NewStaffPayment(m, amount, "", 1)
		})
		require.NoError(t, err)
		return entry
	}
	credit(5000)
	second := credit(2500)

	_, updated, err := repos.Compensation.Reverse(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), updated.TotalEarnedCents)

	store.CorruptTotal(member.ID, 99)
	fixed, err := repos.Compensation.Recompute(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), fixed.TotalEarnedCents)

	_, _, err = repos.Compensation.Reverse(ctx, second.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteMemberReturnsHandles(t *testing.T) {
	ctx := context.Background()
	repos := New()
	member := &domain.StaffMember{FirstName: "Bo", Username: "bo", Status: domain.StaffStatusPending, ContractHandle: "contract.pdf"}
	require.NoError(t, repos.Staff.Create(ctx, member))
	require.NoError(t, repos.Documents.Create(ctx, &domain.StaffDocument{MemberID: member.ID, Name: "id", Handle: "id.png"}))

	handles, err := repos.Staff.Delete(ctx, member.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"contract.pdf", "id.png"}, handles)

	docs, err := repos.Documents.ListByMember(ctx, member.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)

	taken, err := repos.Users.HandleTaken(ctx, "bo")
	require.NoError(t, err)
	assert.False(t, taken)
}

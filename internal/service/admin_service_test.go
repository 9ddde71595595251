package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

func TestOverviewAggregates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.client(t, "alice")
	h.configureCard(t)

	_, err := h.chats.Create(ctx, client, CreateChatInput{ServiceName: "Logo"})
	require.NoError(t, err)
	chat := h.pricedChat(t, client, 15000)
	payment, _, err := h.payments.Submit(ctx, client, chat.ID)
	require.NoError(t, err)
	_, _, err = h.payments.Approve(ctx, h.adminUser, payment.ID)
	require.NoError(t, err)

	h.pendingMember(t, "sam")
	_, member := h.approvedStaff(t, "kim")
	_, _, err = h.comp.Credit(ctx, h.adminUser, member.ID, CreditInput{AmountCents: 700})
	require.NoError(t, err)

	overview, err := h.admin.Overview(ctx, h.adminUser)
	require.NoError(t, err)
	assert.EqualValues(t, 1, overview.ChatsByStatus[domain.ChatStatusWaiting])
	assert.EqualValues(t, 1, overview.ChatsByStatus[domain.ChatStatusInProgress])
	assert.EqualValues(t, 1, overview.ChatsByPaymentStatus[domain.PaymentStatusPaid])
	assert.EqualValues(t, 1, overview.CompletedPayments)
	assert.EqualValues(t, 15000, overview.CompletedPaymentsCents)
	assert.EqualValues(t, 700, overview.StaffEarnedCents)
	assert.EqualValues(t, 1, overview.PendingRegistrations)

	_, err = h.admin.Overview(ctx, client)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

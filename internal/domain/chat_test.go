package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pricedChat(t *testing.T, cents int64) *Chat {
	t.Helper()
	chat := NewChat(7, "Website")
	chat.ID = 1
	require.NoError(t, chat.SetPrice(cents))
	return chat
}

func TestNewChatDefaults(t *testing.T) {
	chat := NewChat(7, "Website")

	assert.Equal(t, ChatStatusWaiting, chat.Status)
	assert.Equal(t, PaymentStatusPending, chat.PaymentStatus)
	assert.Nil(t, chat.OrderPriceCents)
	assert.Nil(t, chat.StaffID)
}

func TestRegisterReply(t *testing.T) {
	chat := NewChat(7, "Website")

	assert.False(t, chat.RegisterReply(ClientActor(7)))
	assert.Equal(t, ChatStatusWaiting, chat.Status)

	assert.True(t, chat.RegisterReply(StaffActor(3, 11)))
	assert.Equal(t, ChatStatusInProgress, chat.Status)
	require.NotNil(t, chat.StaffID)
	assert.Equal(t, int64(3), *chat.StaffID)

	assert.False(t, chat.RegisterReply(AdminActor(1)))
	assert.Equal(t, int64(3), *chat.StaffID, "first operator stays assigned")
}

func TestRegisterReplyDoesNotReopenClosedChat(t *testing.T) {
	chat := NewChat(7, "Website")
	chat.Complete()

	assert.False(t, chat.RegisterReply(AdminActor(1)))
	assert.Equal(t, ChatStatusCompleted, chat.Status)
}

func TestSetPrice(t *testing.T) {
	chat := NewChat(7, "Website")

	assert.ErrorIs(t, chat.SetPrice(0), ErrInvalidPrice)
	assert.ErrorIs(t, chat.SetPrice(-100), ErrInvalidPrice)
	assert.Equal(t, ChatStatusWaiting, chat.Status)

	require.NoError(t, chat.SetPrice(15000))
	assert.Equal(t, ChatStatusInProgress, chat.Status)
	assert.Equal(t, int64(15000), *chat.OrderPriceCents)

	chat.PaymentStatus = PaymentStatusPaid
	assert.ErrorIs(t, chat.SetPrice(20000), ErrAlreadyPaid)
	assert.Equal(t, int64(15000), *chat.OrderPriceCents)
}

func TestSubmitPayment(t *testing.T) {
	chat := NewChat(7, "Website")
	assert.ErrorIs(t, chat.SubmitPayment(), ErrPriceUnset)

	chat = pricedChat(t, 5000)
	require.NoError(t, chat.SubmitPayment())
	assert.Equal(t, PaymentStatusAwaitingConfirmation, chat.PaymentStatus)
	assert.ErrorIs(t, chat.SubmitPayment(), ErrPaymentOutstanding)

	chat.PaymentStatus = PaymentStatusPaid
	assert.ErrorIs(t, chat.SubmitPayment(), ErrAlreadyPaid)
}

func TestOverrideStatus(t *testing.T) {
	chat := pricedChat(t, 5000)
	chat.Complete()

	require.NoError(t, chat.OverrideStatus(ChatStatusWaiting))
	assert.Equal(t, ChatStatusWaiting, chat.Status, "escape hatch may reopen")

	assert.ErrorIs(t, chat.OverrideStatus("archived"), ErrUnknownStatus)

	chat.PaymentStatus = PaymentStatusPaid
	assert.ErrorIs(t, chat.OverrideStatus(ChatStatusWaiting), ErrPaidChatReopen)

	require.NoError(t, chat.OverrideStatus(ChatStatusCancelled))
	assert.Equal(t, ChatStatusCancelled, chat.Status, "cancelling a paid chat is allowed")
}

func TestReconcilePromotesPaidWaitingChat(t *testing.T) {
	chat := &Chat{Status: ChatStatusWaiting, PaymentStatus: PaymentStatusPaid}
	chat.Reconcile()
	assert.Equal(t, ChatStatusInProgress, chat.Status)
}

func TestNewMessage(t *testing.T) {
	_, err := NewMessage(1, 2, "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	msg, err := NewMessage(1, 2, " hello ", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", *msg.Text)

	msg, err = NewMessage(1, 2, "", &Attachment{Type: AttachmentImage, Handle: "a.png", SizeBytes: 10})
	require.NoError(t, err)
	assert.Nil(t, msg.Text)
}

func TestClassifyAttachment(t *testing.T) {
	cases := map[string]AttachmentType{
		"photo.JPG":  AttachmentImage,
		"clip.mp4":   AttachmentVideo,
		"spec.pdf":   AttachmentFile,
		"noext":      AttachmentFile,
		"anim.webp":  AttachmentImage,
		"movie.webm": AttachmentVideo,
	}
	for name, want := range cases {
		assert.Equal(t, want, ClassifyAttachment(name), name)
	}
}

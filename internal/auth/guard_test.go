package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

func TestAuthorizeChatAccess(t *testing.T) {
	chat := &domain.Chat{ID: 1, ClientID: 10}
	target := ChatTarget(chat)

	assert.NoError(t, Authorize(domain.ClientActor(10), OpChatRead, target))
	assert.NoError(t, Authorize(domain.ClientActor(10), OpPaymentSubmit, target))
	assert.NoError(t, Authorize(domain.StaffActor(3, 30), OpChatWrite, target))
	assert.NoError(t, Authorize(domain.AdminActor(1), OpChatRead, target))

	assert.Error(t, Authorize(domain.ClientActor(11), OpChatRead, target))
	assert.Error(t, Authorize(domain.StaffActor(3, 30), OpPaymentSubmit, target))
	assert.Error(t, Authorize(domain.AdminActor(1), OpPaymentSubmit, target))
	assert.Error(t, Authorize(domain.StaffPendingActor(30), OpChatRead, target))
}

func TestAuthorizeStaffPendingCannotListChats(t *testing.T) {
	err := Authorize(domain.StaffPendingActor(5), OpChatList, Target{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestAuthorizeAdminOnlyOperations(t *testing.T) {
	ops := []Operation{
		OpPriceSet, OpStatusOverride, OpChatComplete, OpPaymentReview, OpPaymentList,
		OpPaymentCard, OpOverview, OpStaffReview, OpStaffList, OpLedgerWrite,
	}
	actors := []domain.Actor{
		domain.ClientActor(10),
		domain.StaffActor(3, 30),
		domain.StaffPendingActor(30),
	}
	for _, op := range ops {
		assert.NoError(t, Authorize(domain.AdminActor(1), op, Target{}), op)
		for _, a := range actors {
			assert.Error(t, Authorize(a, op, Target{}), "%s as %s", op, a.Role)
		}
	}
}

func TestAuthorizeMemberResources(t *testing.T) {
	own := MemberTarget(30)
	other := MemberTarget(31)

	for _, op := range []Operation{OpLedgerRead, OpMemberRead, OpDocumentAccess, OpDocumentUpload} {
		assert.NoError(t, Authorize(domain.StaffActor(3, 30), op, own), op)
		assert.NoError(t, Authorize(domain.StaffPendingActor(30), op, own), op)
		assert.Error(t, Authorize(domain.StaffActor(3, 30), op, other), op)
		assert.Error(t, Authorize(domain.ClientActor(30), op, own), op)
	}
	assert.NoError(t, Authorize(domain.AdminActor(1), OpDocumentAccess, other))
	assert.Error(t, Authorize(domain.AdminActor(1), OpDocumentUpload, other))
}

func TestAuthorizeUnknownRoleDenies(t *testing.T) {
	actor := domain.Actor{ID: 1, Role: "auditor"}
	for _, op := range []Operation{OpChatList, OpChatRead, OpOverview} {
		assert.Error(t, Authorize(actor, op, Target{}), op)
	}
}

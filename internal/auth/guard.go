package auth

import (
	"net/http"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

// Operation names a guarded core action.
type Operation string

const (
	OpChatCreate     Operation = "chat.create"
	OpChatList       Operation = "chat.list"
	OpChatRead       Operation = "chat.read"
	OpChatWrite      Operation = "chat.write"
	OpPaymentSubmit  Operation = "payment.submit"
	OpPriceSet       Operation = "chat.price"
	OpStatusOverride Operation = "chat.status"
	OpChatComplete   Operation = "chat.complete"
	OpPaymentReview  Operation = "payment.review"
	OpPaymentList    Operation = "payment.list"
	OpPaymentCard    Operation = "payment.card"
	OpOverview       Operation = "admin.overview"
	OpStaffReview    Operation = "staff.review"
	OpStaffList      Operation = "staff.list"
	OpLedgerWrite    Operation = "ledger.write"
	OpLedgerRead     Operation = "ledger.read"
	OpMemberRead     Operation = "staff.profile"
	OpDocumentUpload Operation = "staff.document.upload"
	OpDocumentAccess Operation = "staff.document.read"
)

// Target identifies the resource an operation touches. Zero values mean the
// operation has no owner to check.
type Target struct {
	ChatOwnerID int64
	MemberID    int64
}

// ChatTarget targets an existing chat.
func ChatTarget(chat *domain.Chat) Target {
	return Target{ChatOwnerID: chat.ClientID}
}

// MemberTarget targets a staff member profile.
func MemberTarget(memberID int64) Target {
	return Target{MemberID: memberID}
}

var adminOnly = map[Operation]struct{}{
	OpPriceSet:       {},
	OpStatusOverride: {},
	OpChatComplete:   {},
	OpPaymentReview:  {},
	OpPaymentList:    {},
	OpPaymentCard:    {},
	OpOverview:       {},
	OpStaffReview:    {},
	OpStaffList:      {},
	OpLedgerWrite:    {},
}

// Authorize decides whether actor may perform op on target. It is pure and
// denies anything it does not explicitly allow.
func Authorize(actor domain.Actor, op Operation, target Target) error {
	switch actor.Role {
	case domain.RoleAdmin:
		if _, ok := adminOnly[op]; ok {
			return nil
		}
		switch op {
		case OpChatList, OpChatRead, OpChatWrite, OpLedgerRead, OpMemberRead, OpDocumentAccess:
			return nil
		}
	case domain.RoleStaff:
		switch op {
		case OpChatList, OpChatRead, OpChatWrite:
			return nil
		case OpLedgerRead, OpMemberRead, OpDocumentUpload, OpDocumentAccess:
			if actor.OwnsMember(target.MemberID) {
				return nil
			}
		}
	case domain.RoleStaffPending:
		switch op {
		case OpLedgerRead, OpMemberRead, OpDocumentUpload, OpDocumentAccess:
			if actor.OwnsMember(target.MemberID) {
				return nil
			}
		}
	case domain.RoleClient:
		switch op {
		case OpChatCreate, OpChatList:
			return nil
		case OpChatRead, OpChatWrite, OpPaymentSubmit:
			if target.ChatOwnerID == actor.ID {
				return nil
			}
		}
	}
	return deny(actor, op)
}

func deny(actor domain.Actor, op Operation) error {
	return apperrors.NewDomainError(apperrors.CodeForbidden, "operation not permitted", http.StatusForbidden, map[string]any{
		"role":      string(actor.Role),
		"operation": string(op),
	})
}

package domain

import "errors"

// State-machine rejections. Services wrap them as INVALID_STATE errors.
var (
	ErrInvalidPrice        = errors.New("price must be positive")
	ErrAlreadyPaid         = errors.New("chat already paid")
	ErrPriceUnset          = errors.New("price has not been set")
	ErrPaymentOutstanding  = errors.New("a payment attempt is already awaiting confirmation")
	ErrPaymentResolved     = errors.New("payment already resolved")
	ErrUnknownStatus       = errors.New("unknown chat status")
	ErrPaidChatReopen      = errors.New("paid chat cannot return to waiting")
	ErrEmptyMessage        = errors.New("message requires text or attachment")
	ErrMemberNotPending    = errors.New("staff member is not pending review")
	ErrMemberNotApproved   = errors.New("staff member is not approved")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrCardNotConfigured   = errors.New("payment card is not configured")
	ErrLedgerEntryMismatch = errors.New("ledger entry does not belong to member")
)

package service

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/storage"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

// Upload is a client-supplied file.
type Upload struct {
	Name string
	Size int64
	Body io.Reader
}

// Page bounds a listing request.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) repo() repository.Page {
	return repository.Page{Limit: p.Limit, Offset: p.Offset}
}

var invalidState = []error{
	domain.ErrInvalidPrice,
	domain.ErrAlreadyPaid,
	domain.ErrPriceUnset,
	domain.ErrPaymentOutstanding,
	domain.ErrPaymentResolved,
	domain.ErrPaidChatReopen,
	domain.ErrMemberNotPending,
	domain.ErrMemberNotApproved,
	domain.ErrInvalidAmount,
	domain.ErrCardNotConfigured,
	domain.ErrLedgerEntryMismatch,
}

// mapError converts repository and domain failures into DomainErrors.
func mapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrHandleTaken):
		return apperrors.NewConflict("username already taken", nil)
	case errors.Is(err, repository.ErrPendingPaymentExists):
		return apperrors.NewInvalidState(domain.ErrPaymentOutstanding, nil)
	case errors.Is(err, domain.ErrEmptyMessage), errors.Is(err, domain.ErrUnknownStatus):
		return &apperrors.DomainError{
			Code:       apperrors.CodeValidation,
			Message:    err.Error(),
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.NewInternalError(err)
	}
	for _, target := range invalidState {
		if errors.Is(err, target) {
			return apperrors.NewInvalidState(target, nil)
		}
	}
	return apperrors.NewInternalError(err)
}

type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// publish hands the event to the dispatcher after the unit of work committed.
// Delivery failures never reach the caller.
func (p publisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("publish event failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("chat_id", event.ChatID),
			zap.Error(err))
	}
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

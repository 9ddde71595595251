package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

// PaymentService handles client payment attempts and their review.
type PaymentService struct {
	chats    repository.ChatRepository
	payments repository.PaymentRepository
	cards    repository.PaymentCardRepository
	logger   *zap.Logger
	events   publisher
	now      func() time.Time
}

// PaymentDependencies bundles repositories for the payment service.
type PaymentDependencies struct {
	ChatRepo    repository.ChatRepository
	PaymentRepo repository.PaymentRepository
	CardRepo    repository.PaymentCardRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewPaymentService constructs the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	logger := nopIfNil(deps.Logger)
	return &PaymentService{
		chats:    deps.ChatRepo,
		payments: deps.PaymentRepo,
		cards:    deps.CardRepo,
		logger:   logger,
		events:   publisher{dispatcher: deps.Dispatcher, logger: logger},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PaymentListFilter narrows the admin payment listing.
type PaymentListFilter struct {
	Status *domain.PaymentAttemptStatus
	ChatID *int64
	Page   Page
}

// SetCardInput is the destination card an admin configures.
type SetCardInput struct {
	CardNumber string
	CardHolder string
}

// Submit opens a payment attempt for the chat's current price.
func (s *PaymentService) Submit(ctx context.Context, actor domain.Actor, chatID int64) (*domain.Payment, *domain.Chat, error) {
	if _, err := loadChat(ctx, s.chats, actor, chatID, auth.OpPaymentSubmit); err != nil {
		return nil, nil, err
	}
	card, err := s.destination(ctx)
	if err != nil {
		return nil, nil, err
	}
	snapshot := fmt.Sprintf("%s / %s", card.CardNumber, card.CardHolder)

	payment, chat, err := s.payments.Submit(ctx, chatID, func(chat *domain.Chat) (*domain.Payment, error) {
		if err := chat.SubmitPayment(); err != nil {
			return nil, err
		}
		return domain.NewPayment(chat, snapshot), nil
	})
	if err != nil {
		return nil, nil, mapError(err, "chat")
	}

	s.logger.Info("payment submitted",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("chat_id", chat.ID),
		zap.Int64("amount_cents", payment.AmountCents))
	s.events.publish(ctx, events.NewEvent(events.EventPaymentSubmitted, chat.ID, actor, attemptPayload(payment)))
	return payment, chat, nil
}

// Approve completes a pending attempt and marks the chat paid.
func (s *PaymentService) Approve(ctx context.Context, actor domain.Actor, paymentID int64) (*domain.Payment, *domain.Chat, error) {
	if err := auth.Authorize(actor, auth.OpPaymentReview, auth.Target{}); err != nil {
		return nil, nil, err
	}
	payment, chat, err := s.payments.Resolve(ctx, paymentID, func(p *domain.Payment, chat *domain.Chat) error {
		return p.Approve(chat, actor.ID, s.now())
	})
	if err != nil {
		return nil, nil, mapError(err, "payment")
	}
	s.logger.Info("payment approved", zap.Int64("payment_id", payment.ID), zap.Int64("admin_id", actor.ID))
	s.events.publish(ctx, events.NewEvent(events.EventPaymentCompleted, chat.ID, actor, events.PaymentCompletedPayload{ChatID: chat.ID}))
	return payment, chat, nil
}

// Reject declines a pending attempt; the client may submit again.
func (s *PaymentService) Reject(ctx context.Context, actor domain.Actor, paymentID int64) (*domain.Payment, *domain.Chat, error) {
	if err := auth.Authorize(actor, auth.OpPaymentReview, auth.Target{}); err != nil {
		return nil, nil, err
	}
	payment, chat, err := s.payments.Resolve(ctx, paymentID, func(p *domain.Payment, chat *domain.Chat) error {
		return p.Reject(chat, actor.ID, s.now())
	})
	if err != nil {
		return nil, nil, mapError(err, "payment")
	}
	s.logger.Info("payment rejected", zap.Int64("payment_id", payment.ID), zap.Int64("admin_id", actor.ID))
	s.events.publish(ctx, events.NewEvent(events.EventPaymentRejected, chat.ID, actor, attemptPayload(payment)))
	return payment, chat, nil
}

// List returns payment attempts, newest first.
func (s *PaymentService) List(ctx context.Context, actor domain.Actor, filter PaymentListFilter) ([]domain.PaymentRecord, error) {
	if err := auth.Authorize(actor, auth.OpPaymentList, auth.Target{}); err != nil {
		return nil, err
	}
	records, err := s.payments.List(ctx, repository.PaymentFilter{
		Status: filter.Status,
		ChatID: filter.ChatID,
		Page:   filter.Page.repo(),
	})
	if err != nil {
		return nil, mapError(err, "payment")
	}
	return records, nil
}

// Card returns the configured destination card.
func (s *PaymentService) Card(ctx context.Context, actor domain.Actor) (*domain.PaymentCard, error) {
	if err := auth.Authorize(actor, auth.OpPaymentCard, auth.Target{}); err != nil {
		return nil, err
	}
	card, err := s.cards.Current(ctx)
	if err != nil {
		return nil, mapError(err, "payment card")
	}
	return card, nil
}

// SetCard stores the destination card for the calling admin.
func (s *PaymentService) SetCard(ctx context.Context, actor domain.Actor, input SetCardInput) (*domain.PaymentCard, error) {
	if err := auth.Authorize(actor, auth.OpPaymentCard, auth.Target{}); err != nil {
		return nil, err
	}
	number := strings.Join(strings.Fields(input.CardNumber), "")
	holder := strings.TrimSpace(input.CardHolder)
	details := map[string]any{}
	if !validCardNumber(number) {
		details["card_number"] = "must be 12-19 digits"
	}
	if holder == "" {
		details["card_holder"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid payment card", details)
	}

	card := &domain.PaymentCard{AdminID: actor.ID, CardNumber: number, CardHolder: holder, UpdatedAt: s.now()}
	if err := s.cards.Upsert(ctx, card); err != nil {
		return nil, mapError(err, "payment card")
	}
	s.logger.Info("payment card updated", zap.Int64("admin_id", actor.ID))
	return card, nil
}

// DestinationCard shows the owning client where to send money for the chat.
func (s *PaymentService) DestinationCard(ctx context.Context, actor domain.Actor, chatID int64) (*domain.PaymentCard, error) {
	if _, err := loadChat(ctx, s.chats, actor, chatID, auth.OpChatRead); err != nil {
		return nil, err
	}
	return s.destination(ctx)
}

func (s *PaymentService) destination(ctx context.Context) (*domain.PaymentCard, error) {
	card, err := s.cards.Current(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInvalidState(domain.ErrCardNotConfigured, nil)
	}
	if err != nil {
		return nil, mapError(err, "payment card")
	}
	return card, nil
}

func validCardNumber(number string) bool {
	if len(number) < 12 || len(number) > 19 {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func attemptPayload(p *domain.Payment) events.PaymentAttemptPayload {
	return events.PaymentAttemptPayload{
		PaymentID: p.ID,
		ChatID:    p.ChatID,
		Amount:    domain.UnitsFromCents(p.AmountCents),
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/storage"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

// ChatService coordinates the chat lifecycle and its message log.
type ChatService struct {
	chats    repository.ChatRepository
	messages repository.MessageRepository
	blobs    storage.BlobStore
	cfg      config.StorageConfig
	logger   *zap.Logger
	events   publisher
}

// ChatDependencies bundles repositories for chat service.
type ChatDependencies struct {
	ChatRepo    repository.ChatRepository
	MessageRepo repository.MessageRepository
	Blobs       storage.BlobStore
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewChatService constructs the service.
func NewChatService(cfg config.StorageConfig, deps ChatDependencies) *ChatService {
	logger := nopIfNil(deps.Logger)
	return &ChatService{
		chats:    deps.ChatRepo,
		messages: deps.MessageRepo,
		blobs:    deps.Blobs,
		cfg:      cfg,
		logger:   logger,
		events:   publisher{dispatcher: deps.Dispatcher, logger: logger},
	}
}

// CreateChatInput describes a new support request.
type CreateChatInput struct {
	ServiceName string
	Description string
}

// ChatListFilter narrows chat listings.
type ChatListFilter struct {
	Status *domain.ChatStatus
	Page   Page
}

// AppendInput is a new message. Text, Upload or both must be present.
type AppendInput struct {
	Text   string
	Upload *Upload
}

// Create opens a chat in waiting state. A non-empty description becomes the
// first message in the same unit.
func (s *ChatService) Create(ctx context.Context, actor domain.Actor, input CreateChatInput) (*domain.Chat, error) {
	if err := auth.Authorize(actor, auth.OpChatCreate, auth.Target{}); err != nil {
		return nil, err
	}
	serviceName := strings.TrimSpace(input.ServiceName)
	if serviceName == "" {
		return nil, apperrors.NewValidationError("service name is required", map[string]any{"service_name": "required"})
	}

	chat := domain.NewChat(actor.ID, serviceName)
	var first *domain.Message
	if strings.TrimSpace(input.Description) != "" {
		msg, err := domain.NewMessage(0, actor.ID, input.Description, nil)
		if err != nil {
			return nil, mapError(err, "message")
		}
		first = msg
	}
	if err := s.chats.Create(ctx, chat, first); err != nil {
		return nil, mapError(err, "chat")
	}
	s.logger.Info("chat created", zap.Int64("chat_id", chat.ID), zap.Int64("client_id", actor.ID))
	return chat, nil
}

// List returns the caller's visible chats. Clients see their own; operators
// see everything with waiting chats first.
func (s *ChatService) List(ctx context.Context, actor domain.Actor, filter ChatListFilter) ([]domain.ChatSummary, error) {
	if err := auth.Authorize(actor, auth.OpChatList, auth.Target{}); err != nil {
		return nil, err
	}
	repoFilter := repository.ChatFilter{Status: filter.Status, Page: filter.Page.repo()}
	if actor.Role == domain.RoleClient {
		id := actor.ID
		repoFilter.ClientID = &id
	} else {
		repoFilter.WaitingFirst = true
	}
	chats, err := s.chats.List(ctx, repoFilter)
	if err != nil {
		return nil, mapError(err, "chat")
	}
	return chats, nil
}

// Get returns a chat the actor may read.
func (s *ChatService) Get(ctx context.Context, actor domain.Actor, chatID int64) (*domain.Chat, error) {
	return s.loadChat(ctx, actor, chatID, auth.OpChatRead)
}

// Messages pages through the log in ascending id order.
func (s *ChatService) Messages(ctx context.Context, actor domain.Actor, chatID, afterID int64, limit int) ([]domain.Message, error) {
	if _, err := s.loadChat(ctx, actor, chatID, auth.OpChatRead); err != nil {
		return nil, err
	}
	msgs, err := s.messages.List(ctx, chatID, afterID, limit)
	if err != nil {
		return nil, mapError(err, "message")
	}
	return msgs, nil
}

// Append stores a message and broadcasts it after commit. An operator reply
// moves a waiting chat to in_progress in the same unit.
func (s *ChatService) Append(ctx context.Context, actor domain.Actor, chatID int64, input AppendInput) (*domain.Message, error) {
	if _, err := s.loadChat(ctx, actor, chatID, auth.OpChatWrite); err != nil {
		return nil, err
	}

	var attachment *domain.Attachment
	if input.Upload != nil {
		att, err := s.storeAttachment(ctx, actor, input.Upload)
		if err != nil {
			return nil, err
		}
		attachment = att
	}

	msg, err := domain.NewMessage(chatID, actor.ID, input.Text, attachment)
	if err != nil {
		s.discardBlob(ctx, attachment)
		return nil, mapError(err, "message")
	}

	chat, err := s.messages.Append(ctx, msg, func(chat *domain.Chat) error {
		chat.RegisterReply(actor)
		return nil
	})
	if err != nil {
		s.discardBlob(ctx, attachment)
		return nil, mapError(err, "chat")
	}

	s.events.publish(ctx, events.NewEvent(events.EventNewMessage, chat.ID, actor, events.NewMessagePayloadFrom(msg)))
	return msg, nil
}

// PostText appends a text-only message.
func (s *ChatService) PostText(ctx context.Context, actor domain.Actor, chatID int64, text string) (*domain.Message, error) {
	return s.Append(ctx, actor, chatID, AppendInput{Text: text})
}

// OpenAttachment streams a message attachment to a reader of the chat.
func (s *ChatService) OpenAttachment(ctx context.Context, actor domain.Actor, chatID, messageID int64) (io.ReadCloser, *domain.Attachment, error) {
	if _, err := s.loadChat(ctx, actor, chatID, auth.OpChatRead); err != nil {
		return nil, nil, err
	}
	msg, err := s.messages.GetByID(ctx, chatID, messageID)
	if err != nil {
		return nil, nil, mapError(err, "message")
	}
	if msg.Attachment == nil {
		return nil, nil, apperrors.NewNotFound("attachment", nil)
	}
	rc, err := s.blobs.Open(ctx, msg.Attachment.Handle)
	if err != nil {
		return nil, nil, mapError(err, "attachment")
	}
	return rc, msg.Attachment, nil
}

// SetPrice records the order price and announces it to the room.
func (s *ChatService) SetPrice(ctx context.Context, actor domain.Actor, chatID, cents int64) (*domain.Chat, error) {
	if err := auth.Authorize(actor, auth.OpPriceSet, auth.Target{}); err != nil {
		return nil, err
	}
	chat, err := s.chats.Mutate(ctx, chatID, func(chat *domain.Chat) error {
		return chat.SetPrice(cents)
	})
	if err != nil {
		return nil, mapError(err, "chat")
	}
	s.events.publish(ctx, events.NewEvent(events.EventPriceUpdated, chat.ID, actor, events.PriceUpdatedPayload{
		ChatID: chat.ID,
		Price:  domain.UnitsFromCents(cents),
	}))
	return chat, nil
}

// OverrideStatus is the administrative escape hatch for the status axis.
func (s *ChatService) OverrideStatus(ctx context.Context, actor domain.Actor, chatID int64, status domain.ChatStatus) (*domain.Chat, error) {
	if err := auth.Authorize(actor, auth.OpStatusOverride, auth.Target{}); err != nil {
		return nil, err
	}
	chat, err := s.chats.Mutate(ctx, chatID, func(chat *domain.Chat) error {
		return chat.OverrideStatus(status)
	})
	if err != nil {
		return nil, mapError(err, "chat")
	}
	s.logger.Info("chat status overridden",
		zap.Int64("chat_id", chat.ID),
		zap.String("status", string(chat.Status)),
		zap.Int64("admin_id", actor.ID))
	s.events.publish(ctx, events.NewEvent(events.EventStatusUpdated, chat.ID, actor, events.StatusUpdatedPayload{
		ChatID:    chat.ID,
		NewStatus: chat.Status,
	}))
	return chat, nil
}

// Complete closes the chat. Repeating it is harmless.
func (s *ChatService) Complete(ctx context.Context, actor domain.Actor, chatID int64) (*domain.Chat, error) {
	if err := auth.Authorize(actor, auth.OpChatComplete, auth.Target{}); err != nil {
		return nil, err
	}
	chat, err := s.chats.Mutate(ctx, chatID, func(chat *domain.Chat) error {
		chat.Complete()
		return nil
	})
	if err != nil {
		return nil, mapError(err, "chat")
	}
	s.events.publish(ctx, events.NewEvent(events.EventChatCompleted, chat.ID, actor, events.ChatCompletedPayload{ChatID: chat.ID}))
	return chat, nil
}

// loadChat applies the guard and resolves the chat. Roles the operation
// never admits are refused before the read; clients asking for a chat they
// do not own get NotFound.
func (s *ChatService) loadChat(ctx context.Context, actor domain.Actor, chatID int64, op auth.Operation) (*domain.Chat, error) {
	return loadChat(ctx, s.chats, actor, chatID, op)
}

func loadChat(ctx context.Context, chats repository.ChatRepository, actor domain.Actor, chatID int64, op auth.Operation) (*domain.Chat, error) {
	if err := auth.Authorize(actor, op, auth.Target{ChatOwnerID: actor.ID}); err != nil {
		return nil, err
	}
	chat, err := chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, mapError(err, "chat")
	}
	if actor.Role == domain.RoleClient && chat.ClientID != actor.ID {
		return nil, apperrors.NewNotFound("chat", nil)
	}
	if err := auth.Authorize(actor, op, auth.ChatTarget(chat)); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *ChatService) storeAttachment(ctx context.Context, actor domain.Actor, up *Upload) (*domain.Attachment, error) {
	if s.blobs == nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("blob store not configured"))
	}
	if !storage.AllowedExtension(up.Name, s.cfg.AttachmentExts) {
		return nil, apperrors.NewValidationError("file type not allowed", map[string]any{"filename": up.Name})
	}
	if s.cfg.MaxUploadBytes > 0 && up.Size > s.cfg.MaxUploadBytes {
		return nil, apperrors.NewValidationError("file too large", map[string]any{"max_bytes": s.cfg.MaxUploadBytes})
	}
	handle, size, err := s.blobs.Save(ctx, up.Body, fmt.Sprintf("u%d/%s", actor.ID, up.Name))
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, apperrors.NewValidationError("file too large", map[string]any{"max_bytes": s.cfg.MaxUploadBytes})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.Attachment{
		Type:      domain.ClassifyAttachment(up.Name),
		Handle:    handle,
		SizeBytes: size,
	}, nil
}

func (s *ChatService) discardBlob(ctx context.Context, att *domain.Attachment) {
	if att == nil {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), att.Handle); err != nil {
		s.logger.Warn("orphaned attachment", zap.String("handle", att.Handle), zap.Error(err))
	}
}

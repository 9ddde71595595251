package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

// ChatsHandler manages chat, message and client payment endpoints.
type ChatsHandler struct {
	chats    *service.ChatService
	payments *service.PaymentService
}

// NewChatsHandler constructs handler.
func NewChatsHandler(chatService *service.ChatService, paymentService *service.PaymentService) *ChatsHandler {
	return &ChatsHandler{chats: chatService, payments: paymentService}
}

// CreateChat POST /chats.
func (h *ChatsHandler) CreateChat(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	chat, err := h.chats.Create(c.UserContext(), actor, service.CreateChatInput{
		ServiceName: req.ServiceName,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewChatResponse(chat)})
}

// ListChats GET /chats.
func (h *ChatsHandler) ListChats(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter := service.ChatListFilter{Page: pageFrom(c)}
	if s := c.Query("status"); s != "" {
		status := domain.ChatStatus(s)
		if !status.Valid() {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": s})
		}
		filter.Status = &status
	}
	chats, err := h.chats.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChatSummaries(chats)})
}

// GetChat GET /chats/:id.
func (h *ChatsHandler) GetChat(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	chat, err := h.chats.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChatResponse(chat)})
}

// ListMessages GET /chats/:id/messages?after_id=&limit=.
func (h *ChatsHandler) ListMessages(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var afterID int64
	if raw := c.Query("after_id"); raw != "" {
		afterID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.NewValidationError("invalid after_id", nil)
		}
	}
	msgs, err := h.chats.Messages(c.UserContext(), actor, id, afterID, parseInt(c.Query("limit"), 100))
	if err != nil {
		return err
	}
	items := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, dto.NewMessageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddMessage POST /chats/:id/messages. Accepts JSON text or a multipart form
// with "text" and/or "file".
func (h *ChatsHandler) AddMessage(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input service.AppendInput
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		upload, closeUpload, err := formUpload(c, "file")
		if err != nil {
			return err
		}
		defer closeUpload()
		input = service.AppendInput{Text: c.FormValue("text"), Upload: upload}
	} else {
		var req dto.SendMessageRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		input = service.AppendInput{Text: req.Text}
	}

	msg, err := h.chats.Append(c.UserContext(), actor, id, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewMessageResponse(msg)})
}

// DownloadAttachment GET /chats/:id/messages/:messageId/attachment.
func (h *ChatsHandler) DownloadAttachment(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	chatID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	msgID, err := paramID(c, "messageId")
	if err != nil {
		return err
	}
	rc, att, err := h.chats.OpenAttachment(c.UserContext(), actor, chatID, msgID)
	if err != nil {
		return err
	}
	return sendFile(c, rc, att.Handle)
}

// SubmitPayment POST /chats/:id/payments.
func (h *ChatsHandler) SubmitPayment(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	payment, chat, err := h.payments.Submit(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"payment": dto.NewPaymentResponse(payment),
		"chat":    dto.NewChatResponse(chat),
	}})
}

// PaymentCard GET /chats/:id/payment-card.
func (h *ChatsHandler) PaymentCard(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	card, err := h.payments.DestinationCard(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPaymentCardResponse(card)})
}

// SetPrice POST /chats/:id/price.
func (h *ChatsHandler) SetPrice(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.SetPriceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	chat, err := h.chats.SetPrice(c.UserContext(), actor, id, domain.CentsFromUnits(req.Price))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChatResponse(chat)})
}

// OverrideStatus PUT /chats/:id/status.
func (h *ChatsHandler) OverrideStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.OverrideStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	chat, err := h.chats.OverrideStatus(c.UserContext(), actor, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChatResponse(chat)})
}

// Complete POST /chats/:id/complete.
func (h *ChatsHandler) Complete(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	chat, err := h.chats.Complete(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChatResponse(chat)})
}

package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

// AdminHandler exposes payment review, onboarding review, payouts and the overview.
type AdminHandler struct {
	payments     *service.PaymentService
	staff        *service.StaffService
	compensation *service.CompensationService
	admin        *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(payments *service.PaymentService, staff *service.StaffService, compensation *service.CompensationService, admin *service.AdminService) *AdminHandler {
	return &AdminHandler{payments: payments, staff: staff, compensation: compensation, admin: admin}
}

// ListPayments GET /admin/payments?status=&chat_id=.
func (h *AdminHandler) ListPayments(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter := service.PaymentListFilter{Page: pageFrom(c)}
	if s := c.Query("status"); s != "" {
		status := domain.PaymentAttemptStatus(s)
		filter.Status = &status
	}
	if raw := c.QueryInt("chat_id", 0); raw > 0 {
		chatID := int64(raw)
		filter.ChatID = &chatID
	}
	records, err := h.payments.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPaymentRecords(records)})
}

// ApprovePayment POST /admin/payments/:id/approve.
func (h *AdminHandler) ApprovePayment(c *fiber.Ctx) error {
	return h.resolvePayment(c, h.payments.Approve)
}

// RejectPayment POST /admin/payments/:id/reject.
func (h *AdminHandler) RejectPayment(c *fiber.Ctx) error {
	return h.resolvePayment(c, h.payments.Reject)
}

type paymentResolver func(ctx context.Context, actor domain.Actor, paymentID int64) (*domain.Payment, *domain.Chat, error)

func (h *AdminHandler) resolvePayment(c *fiber.Ctx, resolve paymentResolver) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	payment, chat, err := resolve(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"payment": dto.NewPaymentResponse(payment),
		"chat":    dto.NewChatResponse(chat),
	}})
}

// GetPaymentCard GET /admin/payment-card.
func (h *AdminHandler) GetPaymentCard(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	card, err := h.payments.Card(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPaymentCardResponse(card)})
}

// SetPaymentCard PUT /admin/payment-card.
func (h *AdminHandler) SetPaymentCard(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.PaymentCardRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	card, err := h.payments.SetCard(c.UserContext(), actor, service.SetCardInput{
		CardNumber: req.CardNumber,
		CardHolder: req.CardHolder,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPaymentCardResponse(card)})
}

// Overview GET /admin/overview.
func (h *AdminHandler) Overview(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	overview, err := h.admin.Overview(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOverviewResponse(overview)})
}

// ListStaff GET /admin/staff?status=.
func (h *AdminHandler) ListStaff(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter := service.StaffListFilter{Page: pageFrom(c)}
	if s := c.Query("status"); s != "" {
		status := domain.StaffStatus(s)
		filter.Status = &status
	}
	members, err := h.staff.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.StaffMemberResponse, 0, len(members))
	for i := range members {
		items = append(items, dto.NewStaffMemberResponse(&members[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ApproveStaff POST /admin/staff/:id/approve.
func (h *AdminHandler) ApproveStaff(c *fiber.Ctx) error {
	return h.reviewStaff(c, h.staff.Approve)
}

// RejectStaff POST /admin/staff/:id/reject.
func (h *AdminHandler) RejectStaff(c *fiber.Ctx) error {
	return h.reviewStaff(c, h.staff.Reject)
}

func (h *AdminHandler) reviewStaff(c *fiber.Ctx, review func(context.Context, domain.Actor, int64) (*domain.StaffMember, error)) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	member, err := review(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffMemberResponse(member)})
}

// DeleteStaff DELETE /admin/staff/:id.
func (h *AdminHandler) DeleteStaff(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.staff.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreditStaff POST /admin/staff/:id/payouts.
func (h *AdminHandler) CreditStaff(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.StaffCreditRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, member, err := h.compensation.Credit(c.UserContext(), actor, id, service.CreditInput{
		AmountCents: domain.CentsFromUnits(req.Amount),
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"payment": dto.NewStaffPaymentResponse(entry),
		"member":  dto.NewStaffMemberResponse(member),
	}})
}

// ReversePayout DELETE /admin/payouts/:id.
func (h *AdminHandler) ReversePayout(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	entry, member, err := h.compensation.Reverse(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"payment": dto.NewStaffPaymentResponse(entry),
		"member":  dto.NewStaffMemberResponse(member),
	}})
}

// RecomputeStaff POST /admin/staff/:id/recompute.
func (h *AdminHandler) RecomputeStaff(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	member, err := h.compensation.Recompute(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffMemberResponse(member)})
}

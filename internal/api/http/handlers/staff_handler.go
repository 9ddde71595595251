package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

// StaffHandler exposes self-service endpoints for staff and registrants.
type StaffHandler struct {
	staff        *service.StaffService
	compensation *service.CompensationService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService, compensation *service.CompensationService) *StaffHandler {
	return &StaffHandler{staff: staffService, compensation: compensation}
}

func ownMemberID(actor domain.Actor) (int64, error) {
	if actor.MemberID == nil {
		return 0, apperrors.NewForbidden("staff profile required")
	}
	return *actor.MemberID, nil
}

// Me handles GET /staff/me.
func (h *StaffHandler) Me(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	memberID, err := ownMemberID(actor)
	if err != nil {
		return err
	}
	member, err := h.staff.Profile(c.UserContext(), actor, memberID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffMemberResponse(member)})
}

// Payouts handles GET /staff/:id/payouts.
func (h *StaffHandler) Payouts(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	memberID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ledger, err := h.compensation.Ledger(c.UserContext(), actor, memberID)
	if err != nil {
		return err
	}
	entries := make([]dto.StaffPaymentResponse, 0, len(ledger.Entries))
	for i := range ledger.Entries {
		entries = append(entries, dto.NewStaffPaymentResponse(&ledger.Entries[i]))
	}
	return c.JSON(fiber.Map{"data": dto.LedgerResponse{
		Member:  dto.NewStaffMemberResponse(ledger.Member),
		Entries: entries,
	}})
}

// UploadDocument handles POST /staff/me/documents (multipart "file").
func (h *StaffHandler) UploadDocument(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	memberID, err := ownMemberID(actor)
	if err != nil {
		return err
	}
	file, closeFile, err := formUpload(c, "file")
	if err != nil {
		return err
	}
	defer closeFile()

	doc, err := h.staff.UploadDocument(c.UserContext(), actor, memberID, service.UploadDocumentInput{
		Name:         c.FormValue("name"),
		DocumentType: c.FormValue("document_type"),
		Description:  c.FormValue("description"),
		File:         file,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewStaffDocumentResponse(doc)})
}

// ListDocuments handles GET /staff/:id/documents.
func (h *StaffHandler) ListDocuments(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	memberID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	docs, err := h.staff.ListDocuments(c.UserContext(), actor, memberID)
	if err != nil {
		return err
	}
	items := make([]dto.StaffDocumentResponse, 0, len(docs))
	for i := range docs {
		items = append(items, dto.NewStaffDocumentResponse(&docs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DownloadDocument handles GET /staff/documents/:docId.
func (h *StaffHandler) DownloadDocument(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	docID, err := paramID(c, "docId")
	if err != nil {
		return err
	}
	rc, doc, err := h.staff.OpenDocument(c.UserContext(), actor, docID)
	if err != nil {
		return err
	}
	return sendFile(c, rc, doc.Handle)
}

package service

import (
	"context"
	"crypto/subtle"
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

// StaffService manages staff onboarding, profiles and documents.
type StaffService struct {
	staff      repository.StaffRepository
	documents  repository.StaffDocumentRepository
	blobs      storage.BlobStore
	tokenMgr   *auth.TokenManager
	storageCfg config.StorageConfig
	regCode    string
	bcryptCost int
	logger     *zap.Logger
	events     publisher
}

// StaffDependencies encapsulates repositories required for staff management.
type StaffDependencies struct {
	StaffRepo    repository.StaffRepository
	DocumentRepo repository.StaffDocumentRepository
	Blobs        storage.BlobStore
	Tokens       *auth.TokenManager
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, deps StaffDependencies) *StaffService {
	logger := nopIfNil(deps.Logger)
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	}
	return &StaffService{
		staff:      deps.StaffRepo,
		documents:  deps.DocumentRepo,
		blobs:      deps.Blobs,
		tokenMgr:   tokens,
		storageCfg: cfg.Storage,
		regCode:    cfg.Onboarding.RegistrationCode,
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
		events:     publisher{dispatcher: deps.Dispatcher, logger: logger},
	}
}

// RegisterStaffInput carries the onboarding form.
type RegisterStaffInput struct {
	FirstName        string
	LastName         string
	Position         string
	Username         string
	Email            string
	Password         string
	RegistrationCode string
	Contract         *Upload
}

// StaffListFilter narrows the member listing.
type StaffListFilter struct {
	Status *domain.StaffStatus
	Page   Page
}

// UploadDocumentInput is an extra document for a member profile.
type UploadDocumentInput struct {
	Name         string
	DocumentType string
	Description  string
	File         *Upload
}

// Register stores a pending registrant and signs it in as staff_pending.
func (s *StaffService) Register(ctx context.Context, input RegisterStaffInput) (*domain.StaffMember, *AuthToken, error) {
	if s.regCode != "" && subtle.ConstantTimeCompare([]byte(s.regCode), []byte(input.RegistrationCode)) != 1 {
		return nil, nil, apperrors.NewForbidden("invalid registration code")
	}
	username := strings.TrimSpace(input.Username)
	if err := validateCredentials(username, input.Password); err != nil {
		return nil, nil, err
	}
	details := map[string]any{}
	if strings.TrimSpace(input.FirstName) == "" {
		details["first_name"] = "required"
	}
	if strings.TrimSpace(input.Position) == "" {
		details["position"] = "required"
	}
	if input.Contract == nil {
		details["contract"] = "required"
	} else if !storage.AllowedExtension(input.Contract.Name, s.storageCfg.DocumentExts) {
		details["contract"] = "file type not allowed"
	}
	if len(details) > 0 {
		return nil, nil, apperrors.NewValidationError("invalid registration", details)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	handle, err := s.saveBlob(ctx, "contract", input.Contract)
	if err != nil {
		return nil, nil, err
	}

	member := &domain.StaffMember{
		FirstName:      strings.TrimSpace(input.FirstName),
		LastName:       strings.TrimSpace(input.LastName),
		Position:       strings.TrimSpace(input.Position),
		ContractHandle: handle,
		Username:       username,
		Email:          strings.TrimSpace(input.Email),
		PasswordHash:   hash,
		Status:         domain.StaffStatusPending,
	}
	if err := s.staff.Create(ctx, member); err != nil {
		s.discard(ctx, handle)
		return nil, nil, mapError(err, "staff member")
	}

	actor := domain.StaffPendingActor(member.ID)
	token, exp, err := s.tokenMgr.GenerateToken(actor)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("staff registered", zap.Int64("member_id", member.ID), zap.String("username", member.Username))
	s.events.publish(ctx, events.NewEvent(events.EventStaffRegistered, 0, actor, events.StaffReviewedPayload{
		MemberID: member.ID,
		Username: member.Username,
		Status:   member.Status,
	}))
	return member, &AuthToken{Token: token, ExpiresAt: exp, Actor: actor}, nil
}

// Approve creates the staff identity and marks the member approved in one unit.
func (s *StaffService) Approve(ctx context.Context, actor domain.Actor, memberID int64) (*domain.StaffMember, error) {
	return s.review(ctx, actor, memberID, func(m *domain.StaffMember) (*domain.User, error) {
		return m.Approve()
	})
}

// Reject closes a pending registration.
func (s *StaffService) Reject(ctx context.Context, actor domain.Actor, memberID int64) (*domain.StaffMember, error) {
	return s.review(ctx, actor, memberID, func(m *domain.StaffMember) (*domain.User, error) {
		return nil, m.Reject()
	})
}

func (s *StaffService) review(ctx context.Context, actor domain.Actor, memberID int64, fn func(*domain.StaffMember) (*domain.User, error)) (*domain.StaffMember, error) {
	if err := auth.Authorize(actor, auth.OpStaffReview, auth.Target{}); err != nil {
		return nil, err
	}
	member, err := s.staff.Review(ctx, memberID, fn)
	if err != nil {
		if errors.Is(err, repository.ErrHandleTaken) {
			return nil, apperrors.NewConflict("username already taken", map[string]any{"member_id": memberID})
		}
		return nil, mapError(err, "staff member")
	}
	s.logger.Info("staff reviewed",
		zap.Int64("member_id", member.ID),
		zap.String("status", string(member.Status)),
		zap.Int64("admin_id", actor.ID))
	s.events.publish(ctx, events.NewEvent(events.EventStaffReviewed, 0, actor, events.StaffReviewedPayload{
		MemberID: member.ID,
		Username: member.Username,
		Status:   member.Status,
	}))
	return member, nil
}

// Delete removes a member with its documents and ledger, then cleans up the
// blobs they referenced.
func (s *StaffService) Delete(ctx context.Context, actor domain.Actor, memberID int64) error {
	if err := auth.Authorize(actor, auth.OpStaffReview, auth.Target{}); err != nil {
		return err
	}
	handles, err := s.staff.Delete(ctx, memberID)
	if err != nil {
		return mapError(err, "staff member")
	}
	for _, h := range handles {
		s.discard(ctx, h)
	}
	s.logger.Info("staff deleted", zap.Int64("member_id", memberID), zap.Int("blobs", len(handles)))
	return nil
}

// List returns members, newest first.
func (s *StaffService) List(ctx context.Context, actor domain.Actor, filter StaffListFilter) ([]domain.StaffMember, error) {
	if err := auth.Authorize(actor, auth.OpStaffList, auth.Target{}); err != nil {
		return nil, err
	}
	members, err := s.staff.List(ctx, repository.StaffFilter{Status: filter.Status, Page: filter.Page.repo()})
	if err != nil {
		return nil, mapError(err, "staff member")
	}
	return members, nil
}

// Profile returns a member profile visible to its owner or an admin.
func (s *StaffService) Profile(ctx context.Context, actor domain.Actor, memberID int64) (*domain.StaffMember, error) {
	if err := auth.Authorize(actor, auth.OpMemberRead, auth.MemberTarget(memberID)); err != nil {
		return nil, err
	}
	member, err := s.staff.GetByID(ctx, memberID)
	if err != nil {
		return nil, mapError(err, "staff member")
	}
	return member, nil
}

// UploadDocument attaches a document to the caller's own profile.
func (s *StaffService) UploadDocument(ctx context.Context, actor domain.Actor, memberID int64, input UploadDocumentInput) (*domain.StaffDocument, error) {
	if err := auth.Authorize(actor, auth.OpDocumentUpload, auth.MemberTarget(memberID)); err != nil {
		return nil, err
	}
	if input.File == nil {
		return nil, apperrors.NewValidationError("document file is required", map[string]any{"file": "required"})
	}
	if !storage.AllowedExtension(input.File.Name, s.storageCfg.DocumentExts) {
		return nil, apperrors.NewValidationError("file type not allowed", map[string]any{"filename": input.File.Name})
	}
	if _, err := s.staff.GetByID(ctx, memberID); err != nil {
		return nil, mapError(err, "staff member")
	}

	handle, err := s.saveBlob(ctx, fmt.Sprintf("m%d", memberID), input.File)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = input.File.Name
	}
	doc := &domain.StaffDocument{
		MemberID:     memberID,
		Name:         name,
		DocumentType: strings.TrimSpace(input.DocumentType),
		Handle:       handle,
		Description:  strings.TrimSpace(input.Description),
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		s.discard(ctx, handle)
		return nil, mapError(err, "staff document")
	}
	return doc, nil
}

// ListDocuments returns a member's documents.
func (s *StaffService) ListDocuments(ctx context.Context, actor domain.Actor, memberID int64) ([]domain.StaffDocument, error) {
	if err := auth.Authorize(actor, auth.OpDocumentAccess, auth.MemberTarget(memberID)); err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByMember(ctx, memberID)
	if err != nil {
		return nil, mapError(err, "staff document")
	}
	return docs, nil
}

// OpenDocument streams a stored document to its owner or an admin.
func (s *StaffService) OpenDocument(ctx context.Context, actor domain.Actor, documentID int64) (io.ReadCloser, *domain.StaffDocument, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, nil, mapError(err, "staff document")
	}
	if err := auth.Authorize(actor, auth.OpDocumentAccess, auth.MemberTarget(doc.MemberID)); err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, doc.Handle)
	if err != nil {
		return nil, nil, mapError(err, "staff document")
	}
	return rc, doc, nil
}

func (s *StaffService) saveBlob(ctx context.Context, prefix string, up *Upload) (string, error) {
	if s.blobs == nil {
		return "", apperrors.NewInternalError(errors.New("blob store not configured"))
	}
	if s.storageCfg.MaxUploadBytes > 0 && up.Size > s.storageCfg.MaxUploadBytes {
		return "", apperrors.NewValidationError("file too large", map[string]any{"max_bytes": s.storageCfg.MaxUploadBytes})
	}
	handle, _, err := s.blobs.Save(ctx, up.Body, prefix+"/"+up.Name)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return "", apperrors.NewValidationError("file too large", map[string]any{"max_bytes": s.storageCfg.MaxUploadBytes})
		}
		return "", apperrors.NewInternalError(err)
	}
	return handle, nil
}

func (s *StaffService) discard(ctx context.Context, handle string) {
	if handle == "" || s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), handle); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("blob cleanup failed", zap.String("handle", handle), zap.Error(err))
	}
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

// AuthToken is an issued bearer token.
type AuthToken struct {
	Token     string
	ExpiresAt time.Time
	Actor     domain.Actor
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	staff      repository.StaffRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo  repository.UserRepository
	StaffRepo repository.StaffRepository
	Tokens    *auth.TokenManager
	Logger    *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	}
	return &AuthService{
		users:      deps.UserRepo,
		staff:      deps.StaffRepo,
		tokenMgr:   tokens,
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     nopIfNil(deps.Logger),
	}
}

// RegisterClientInput carries client sign-up fields.
type RegisterClientInput struct {
	Username string
	Email    string
	Password string
}

func validateCredentials(username, password string) error {
	details := map[string]any{}
	if n := len(username); n < 3 || n > 64 {
		details["username"] = "must be 3-64 characters"
	}
	if strings.ContainsAny(username, " \t\n/") {
		details["username"] = "must not contain spaces or slashes"
	}
	if len(password) < 6 {
		details["password"] = "must be at least 6 characters"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid credentials", details)
	}
	return nil
}

// RegisterClient creates a client account and signs it in.
func (s *AuthService) RegisterClient(ctx context.Context, input RegisterClientInput) (*domain.User, *AuthToken, error) {
	username := strings.TrimSpace(input.Username)
	if err := validateCredentials(username, input.Password); err != nil {
		return nil, nil, err
	}
	taken, err := s.users.HandleTaken(ctx, username)
	if err != nil {
		return nil, nil, mapError(err, "user")
	}
	if taken {
		return nil, nil, apperrors.NewConflict("username already taken", nil)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		Role:         domain.RoleClient,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, mapError(err, "user")
	}

	token, err := s.issue(user.Actor())
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// Login authenticates any user-backed identity (client, staff, admin).
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, *AuthToken, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, mapError(err, "user")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	token, err := s.issue(user.Actor())
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// LoginStaff signs in a registrant. Approved members get a staff token;
// pending and rejected registrants keep the provisional staff_pending role.
func (s *AuthService) LoginStaff(ctx context.Context, username, password string) (*domain.StaffMember, *AuthToken, error) {
	member, err := s.staff.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, mapError(err, "staff member")
	}
	if err := auth.ComparePassword(member.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	actor := domain.StaffPendingActor(member.ID)
	if member.Status == domain.StaffStatusApproved {
		if member.UserID == nil {
			return nil, nil, apperrors.NewInternalError(errors.New("approved member without user"))
		}
		actor = domain.StaffActor(*member.UserID, member.ID)
	}

	token, err := s.issue(actor)
	if err != nil {
		return nil, nil, err
	}
	return member, token, nil
}

// EnsureAdmin creates the bootstrap admin when no admin exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if password == "" {
		return nil
	}
	count, err := s.users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.User{Username: username, PasswordHash: hash, Role: domain.RoleAdmin}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("username", username), zap.Int64("user_id", admin.ID))
	return nil
}

// IssueToken signs a token for an already-resolved actor.
func (s *AuthService) IssueToken(actor domain.Actor) (*AuthToken, error) {
	return s.issue(actor)
}

func (s *AuthService) issue(actor domain.Actor) (*AuthToken, error) {
	token, exp, err := s.tokenMgr.GenerateToken(actor)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthToken{Token: token, ExpiresAt: exp, Actor: actor}, nil
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

const actorKey = "auth_actor"

// AuthMiddleware validates bearer tokens and resolves actors.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
	staff  repository.StaffRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, staff repository.StaffRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, staff: staff}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	actor, err := m.Resolve(c.UserContext(), parts[1])
	if err != nil {
		return err
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

// Resolve parses a token and confirms the identity still exists in the
// role it was issued for. A staff_pending token stops working once the
// registration is approved; rejected registrants keep it.
func (m *AuthMiddleware) Resolve(ctx context.Context, token string) (domain.Actor, error) {
	actor, err := m.tokens.ParseToken(token)
	if err != nil {
		return domain.Actor{}, apperrors.NewUnauthorized("invalid token")
	}

	switch actor.Role {
	case domain.RoleStaffPending:
		member, err := m.staff.GetByID(ctx, actor.ID)
		if err != nil {
			return domain.Actor{}, lookupError(err, "staff member not found")
		}
		if member.Status == domain.StaffStatusApproved {
			return domain.Actor{}, apperrors.NewUnauthorized("registration approved; sign in again")
		}
		return domain.StaffPendingActor(member.ID), nil
	case domain.RoleClient, domain.RoleStaff, domain.RoleAdmin:
		user, err := m.users.GetByID(ctx, actor.ID)
		if err != nil {
			return domain.Actor{}, lookupError(err, "user not found")
		}
		if user.Role != actor.Role {
			return domain.Actor{}, apperrors.NewUnauthorized("role changed; sign in again")
		}
		return user.Actor(), nil
	default:
		return domain.Actor{}, apperrors.NewUnauthorized("unknown role")
	}
}

func lookupError(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewUnauthorized(message)
	}
	return apperrors.NewInternalError(err)
}

// ActorFromContext retrieves the authenticated actor.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, bool) {
	actor, ok := c.Locals(actorKey).(domain.Actor)
	return actor, ok
}

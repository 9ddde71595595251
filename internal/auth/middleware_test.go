package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository/memory"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

func newTestApp(t *testing.T) (*fiber.App, *TokenManager, *AuthMiddleware) {
	t.Helper()
	repos := memory.New()
	tokens := NewTokenManager("secret", time.Minute)
	mw := NewAuthMiddleware(tokens, repos.Users, repos.Staff)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperrors.ToDomainError(err).HTTPStatus).SendString(err.Error())
		},
	})
	app.Get("/me", mw.Handle, RequireRole(domain.RoleClient), func(c *fiber.Ctx) error {
		actor, _ := ActorFromContext(c)
		return c.JSON(fiber.Map{"id": actor.ID})
	})

	user := &domain.User{Username: "alice", PasswordHash: "x", Role: domain.RoleClient}
	require.NoError(t, repos.Users.Create(context.Background(), user))
	return app, tokens, mw
}

func TestAuthMiddleware(t *testing.T) {
	app, tokens, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, _, err := tokens.GenerateToken(domain.ClientActor(1))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Role in token must match the stored identity.
	token, _, err = tokens.GenerateToken(domain.AdminActor(1))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestResolveUnknownUser(t *testing.T) {
	_, tokens, mw := newTestApp(t)
	token, _, err := tokens.GenerateToken(domain.ClientActor(42))
	require.NoError(t, err)

	_, err = mw.Resolve(context.Background(), token)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestResolveProvisionalTokenFollowsReview(t *testing.T) {
	ctx := context.Background()
	repos := memory.New()
	tokens := NewTokenManager("secret", time.Minute)
	mw := NewAuthMiddleware(tokens, repos.Users, repos.Staff)

	rejected := &domain.StaffMember{Username: "sam", PasswordHash: "x", Status: domain.StaffStatusPending}
	approved := &domain.StaffMember{Username: "kim", PasswordHash: "x", Status: domain.StaffStatusPending}
	require.NoError(t, repos.Staff.Create(ctx, rejected))
	require.NoError(t, repos.Staff.Create(ctx, approved))

	_, err := repos.Staff.Review(ctx, rejected.ID, func(m *domain.StaffMember) (*domain.User, error) {
		return nil, m.Reject()
	})
	require.NoError(t, err)
	_, err = repos.Staff.Review(ctx, approved.ID, func(m *domain.StaffMember) (*domain.User, error) {
		return m.Approve()
	})
	require.NoError(t, err)

	token, _, err := tokens.GenerateToken(domain.StaffPendingActor(rejected.ID))
	require.NoError(t, err)
	actor, err := mw.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaffPending, actor.Role)
	assert.Equal(t, rejected.ID, actor.ID)

	token, _, err = tokens.GenerateToken(domain.StaffPendingActor(approved.ID))
	require.NoError(t, err)
	_, err = mw.Resolve(ctx, token)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

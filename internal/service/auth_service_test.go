package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

func TestRegisterAndLoginClient(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	user, token, err := h.auth.RegisterClient(ctx, RegisterClientInput{Username: "alice", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, user.Role)
	assert.NotEmpty(t, token.Token)

	actor, err := h.auth.TokenManager().ParseToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.ID)

	_, _, err = h.auth.Login(ctx, "alice", "wrong-pass")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, _, err = h.auth.Login(ctx, "nobody", "secret1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, login, err := h.auth.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, login.Actor.Role)
}

func TestRegisterClientRejectsTakenAndInvalid(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.client(t, "alice")
	h.pendingMember(t, "sam")

	_, _, err := h.auth.RegisterClient(ctx, RegisterClientInput{Username: "alice", Password: "secret1"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	_, _, err = h.auth.RegisterClient(ctx, RegisterClientInput{Username: "sam", Password: "secret1"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	_, _, err = h.auth.RegisterClient(ctx, RegisterClientInput{Username: "x", Password: "1"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestLoginStaffPending(t *testing.T) {
	h := newHarness(t)
	member := h.pendingMember(t, "sam")

	got, token, err := h.auth.LoginStaff(context.Background(), "sam", "secret1")
	require.NoError(t, err)
	assert.Equal(t, member.ID, got.ID)
	assert.Equal(t, domain.StaffPendingActor(member.ID), token.Actor)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.auth.EnsureAdmin(ctx, "boss", "secret1"))
	_, _, err := h.auth.Login(ctx, "boss", "secret1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized), "harness admin already exists")

	count, err := h.repos.Users.CountByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

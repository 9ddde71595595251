package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/errorutil"
)

// AuthHandler exposes registration and login endpoints.
type AuthHandler struct {
	auth  *service.AuthService
	staff *service.StaffService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, staffService *service.StaffService) *AuthHandler {
	return &AuthHandler{auth: authService, staff: staffService}
}

func authResponse(token *service.AuthToken) dto.AuthResponse {
	return dto.AuthResponse{Token: token.Token, ExpiresAt: token.ExpiresAt, Role: token.Actor.Role}
}

// RegisterClient handles POST /auth/clients/register.
func (h *AuthHandler) RegisterClient(c *fiber.Ctx) error {
	var req dto.ClientRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, token, err := h.auth.RegisterClient(c.UserContext(), service.RegisterClientInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": authResponse(token),
		},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}
	user, token, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": authResponse(token),
		},
	})
}

// RegisterStaff handles POST /auth/staff/register (multipart with a contract file).
func (h *AuthHandler) RegisterStaff(c *fiber.Ctx) error {
	contract, closeContract, err := formUpload(c, "contract")
	if err != nil {
		return err
	}
	defer closeContract()

	member, token, err := h.staff.Register(c.UserContext(), service.RegisterStaffInput{
		FirstName:        c.FormValue("first_name"),
		LastName:         c.FormValue("last_name"),
		Position:         c.FormValue("position"),
		Username:         c.FormValue("username"),
		Email:            c.FormValue("email"),
		Password:         c.FormValue("password"),
		RegistrationCode: c.FormValue("registration_code"),
		Contract:         contract,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"staff": dto.NewStaffMemberResponse(member),
			"auth":  authResponse(token),
		},
	})
}

// LoginStaff handles POST /auth/staff/login.
func (h *AuthHandler) LoginStaff(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}
	member, token, err := h.auth.LoginStaff(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"staff": dto.NewStaffMemberResponse(member),
			"auth":  authResponse(token),
		},
	})
}

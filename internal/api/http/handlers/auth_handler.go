package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/listing-service/internal/api/dto"
	"github.com/spec-kit/listing-service/internal/domain"
	"github.com/spec-kit/listing-service/internal/service"
	apperrors "github.com/spec-kit/listing-service/pkg/util/errorutil"
)

// AuthHandler exposes signup, signin and account endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Signup handles POST /auth/signup/:userType.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	userType := domain.UserType(strings.ToUpper(c.Params("userType")))
	if !userType.Valid() {
		return apperrors.NewValidationError("invalid user type", map[string]any{"userType": c.Params("userType")})
	}
	var req dto.SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, token, exp, err := h.auth.Signup(c.UserContext(), service.SignupInput{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Password:   req.Password,
		ProductKey: req.ProductKey,
	}, userType)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Signin handles POST /auth/signin.
func (h *AuthHandler) Signin(c *fiber.Ctx) error {
	var req dto.SigninRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, token, exp, err := h.auth.Signin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// ProductKey handles POST /auth/key.
func (h *AuthHandler) ProductKey(c *fiber.Ctx) error {
	var req dto.ProductKeyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	key, err := h.auth.GenerateProductKey(req.Email, domain.UserType(req.UserType))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ProductKeyResponse{ProductKey: key}})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Me(c.UserContext(), caller.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/listing-service/internal/auth"
	"github.com/spec-kit/listing-service/internal/domain"
	apperrors "github.com/spec-kit/listing-service/pkg/util/errorutil"
	"github.com/spec-kit/listing-service/pkg/util/validation"
)

// bind decodes the JSON body into req and validates its tags.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", validation.ToDetails(err))
	}
	if err := validation.Struct(req); err != nil {
		return apperrors.NewValidationError("validation failed", validation.ToDetails(err))
	}
	return nil
}

// pathID parses a positive integer route parameter.
func pathID(c *fiber.Ctx, name string) (int64, error) {
	raw := c.Params(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{name: raw})
	}
	return id, nil
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal.User, nil
}

package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/listing-service/internal/domain"
	apperrors "github.com/spec-kit/listing-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User *domain.User
}

// ID returns the caller's user id.
func (p *Principal) ID() int64 {
	return p.User.ID
}

// Require guards a route: the request proceeds only when the caller's role is one of roles.
// Credential failures answer 401, authenticated callers without a permitted role answer 403.
func (g *Guard) Require(roles ...domain.UserType) fiber.Handler {
	declared := append([]domain.UserType(nil), roles...)

	return func(c *fiber.Ctx) error {
		decision := g.Decide(c.UserContext(), declared, c.Get(fiber.HeaderAuthorization))
		if !decision.Allowed() {
			g.logger.Debug("access denied",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("reason", string(decision.Reason)))
			if decision.Reason.Authenticated() {
				return apperrors.NewForbidden("insufficient role")
			}
			return apperrors.NewUnauthorized("unauthorized")
		}
		if decision.User != nil {
			c.Locals(principalKey, &Principal{User: decision.User})
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal.User != nil
}

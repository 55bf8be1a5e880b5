package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/listing-service/internal/config"
	"github.com/spec-kit/listing-service/internal/domain"
)

const bearerPrefix = "Bearer "

// DenyReason explains why a decision did not allow access.
type DenyReason string

const (
	ReasonNone               DenyReason = ""
	ReasonNoRolesDeclared    DenyReason = "no_roles_declared"
	ReasonMissingCredentials DenyReason = "missing_credentials"
	ReasonInvalidToken       DenyReason = "invalid_token"
	ReasonUnknownUser        DenyReason = "unknown_user"
	ReasonDirectoryError     DenyReason = "directory_error"
	ReasonRoleNotPermitted   DenyReason = "role_not_permitted"
)

// Authenticated reports whether the reason happened after the caller proved its identity.
func (r DenyReason) Authenticated() bool {
	return r == ReasonNone || r == ReasonRoleNotPermitted || r == ReasonNoRolesDeclared
}

// Decision is the outcome of one access check. It is recomputed for every request.
type Decision struct {
	Allow  bool
	Reason DenyReason
	User   *domain.User
}

// Allowed collapses the decision to the boolean the router acts on.
func (d Decision) Allowed() bool {
	return d.Allow
}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// UserDirectory resolves token subjects to users.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Guard decides whether a bearer credential may invoke an operation declaring a set of roles.
type Guard struct {
	tokens     *TokenManager
	users      UserDirectory
	undeclared config.UndeclaredRolesPolicy
	logger     *zap.Logger
}

// NewGuard constructs the guard. An empty policy means deny.
func NewGuard(tokens *TokenManager, users UserDirectory, undeclared config.UndeclaredRolesPolicy, logger *zap.Logger) *Guard {
	if undeclared == "" {
		undeclared = config.UndeclaredRolesDeny
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{tokens: tokens, users: users, undeclared: undeclared, logger: logger}
}

// Decide runs the access check. It never returns an error: every failure becomes a deny
// carrying the reason.
func (g *Guard) Decide(ctx context.Context, required []domain.UserType, authorizationHeader string) Decision {
	if len(required) == 0 {
		if g.undeclared == config.UndeclaredRolesAllow {
			return Decision{Allow: true}
		}
		return deny(ReasonNoRolesDeclared)
	}

	token, ok := BearerToken(authorizationHeader)
	if !ok {
		return deny(ReasonMissingCredentials)
	}

	payload, err := g.tokens.ParseToken(token)
	if err != nil {
		return deny(ReasonInvalidToken)
	}

	user, err := g.users.GetByID(ctx, payload.SubjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return deny(ReasonUnknownUser)
		}
		g.logger.Warn("user lookup failed during access check",
			zap.Int64("subject_id", payload.SubjectID), zap.Error(err))
		return deny(ReasonDirectoryError)
	}
	if user == nil {
		return deny(ReasonUnknownUser)
	}

	for _, role := range required {
		if user.UserType == role {
			return Decision{Allow: true, User: user}
		}
	}
	return Decision{Reason: ReasonRoleNotPermitted, User: user}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

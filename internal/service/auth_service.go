package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/listing-service/internal/auth"
	"github.com/spec-kit/listing-service/internal/config"
	"github.com/spec-kit/listing-service/internal/domain"
	"github.com/spec-kit/listing-service/internal/repository"
	apperrors "github.com/spec-kit/listing-service/pkg/util/errorutil"
)

const uniqueViolation = "23505"

// AuthService coordinates signup, signin and product key flows.
type AuthService struct {
	users            repository.UserRepository
	tokenMgr         *auth.TokenManager
	bcryptCost       int
	productKeySecret string
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
}

// SignupInput describes a new account.
type SignupInput struct {
	Name       string
	Phone      string
	Email      string
	Password   string
	ProductKey string
}

// NewAuthService builds the service. A nil TokenManager is built from cfg.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	}
	return &AuthService{
		users:            deps.UserRepo,
		tokenMgr:         tokens,
		bcryptCost:       cfg.Auth.BcryptCost,
		productKeySecret: cfg.Auth.ProductKeySecret,
	}
}

// Signup creates an account of the given type. Realtors and admins must present a product key
// issued for their email and type.
func (s *AuthService) Signup(ctx context.Context, input SignupInput, userType domain.UserType) (*domain.User, string, time.Time, error) {
	if !userType.Valid() {
		return nil, "", time.Time{}, apperrors.NewValidationError("invalid user type", map[string]any{"userType": userType})
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if userType != domain.UserTypeBuyer {
		if input.ProductKey == "" || !auth.VerifyProductKey(input.ProductKey, email, userType, s.productKeySecret) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid product key")
		}
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, "", time.Time{}, apperrors.NewValidationError("password must be at most 72 bytes", nil)
		}
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		UserType:     userType,
	}
	if err := s.users.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, "", time.Time{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Name)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// Signin authenticates a user by email and password.
func (s *AuthService) Signin(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Name)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// GenerateProductKey issues a signup key for a realtor or admin.
func (s *AuthService) GenerateProductKey(email string, userType domain.UserType) (string, error) {
	if !userType.Valid() {
		return "", apperrors.NewValidationError("invalid user type", map[string]any{"userType": userType})
	}
	key, err := auth.GenerateProductKey(strings.ToLower(strings.TrimSpace(email)), userType, s.productKeySecret, s.bcryptCost)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return key, nil
}

// Me returns the stored profile of the caller.
func (s *AuthService) Me(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

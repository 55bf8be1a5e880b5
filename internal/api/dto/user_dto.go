package dto

import (
	"time"

	"github.com/spec-kit/listing-service/internal/domain"
)

// SignupRequest payload for new accounts. ProductKey is required for realtors and admins.
type SignupRequest struct {
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"omitempty,min=7,max=20"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,pwd"`
	ProductKey string `json:"productKey"`
}

// SigninRequest payload for login.
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProductKeyRequest asks for a signup key bound to an email and user type.
type ProductKeyRequest struct {
	Email    string `json:"email" validate:"required,email"`
	UserType string `json:"userType" validate:"required,oneof=BUYER REALTOR ADMIN"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ProductKeyResponse carries an issued product key.
type ProductKeyResponse struct {
	ProductKey string `json:"productKey"`
}

// UserResponse is the public profile of a user.
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	UserType  string    `json:"userType"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUserResponse maps a domain user, leaving out the password hash.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		UserType:  string(u.UserType),
		CreatedAt: u.CreatedAt,
	}
}

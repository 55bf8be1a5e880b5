package domain

import "time"

// UserType is the coarse-grained role used for access control.
type UserType string

const (
	UserTypeBuyer   UserType = "BUYER"
	UserTypeRealtor UserType = "REALTOR"
	UserTypeAdmin   UserType = "ADMIN"
)

// Valid reports whether t is a known user type.
func (t UserType) Valid() bool {
	switch t {
	case UserTypeBuyer, UserTypeRealtor, UserTypeAdmin:
		return true
	}
	return false
}

// User is the domain model for buyers, realtors and admins.
type User struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	UserType     UserType
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/listing-service/internal/domain"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// productKeyMaterial is the plaintext a product key is a bcrypt hash of. The email and type are
// MACed with the secret first, so the secret always reaches bcrypt whatever the email length and
// the input stays under bcrypt's 72 byte limit.
func productKeyMaterial(email string, userType domain.UserType, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%s-%s", email, userType)))
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateProductKey issues the key that lets email sign up as userType.
func GenerateProductKey(email string, userType domain.UserType, secret string, cost int) (string, error) {
	return HashPassword(productKeyMaterial(email, userType, secret), cost)
}

// VerifyProductKey reports whether key was issued for email and userType.
func VerifyProductKey(key, email string, userType domain.UserType, secret string) bool {
	return ComparePassword(key, productKeyMaterial(email, userType, secret)) == nil
}

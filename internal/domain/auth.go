package domain

import "time"

// TokenPayload is the decoded content of a session token.
type TokenPayload struct {
	SubjectID int64
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

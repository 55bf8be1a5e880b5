package events

import (
	"time"

	"github.com/spec-kit/listing-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventHomeCreated  EventType = "home_created"
	EventHomeUpdated  EventType = "home_updated"
	EventHomeDeleted  EventType = "home_deleted"
	EventHomeInquired EventType = "home_inquired"
)

// Actor identifies the user that caused an event.
type Actor struct {
	UserID   int64           `json:"user_id"`
	UserType domain.UserType `json:"user_type"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	HomeID    int64       `json:"home_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// HomeCreatedPayload payload.
type HomeCreatedPayload struct {
	City         string              `json:"city"`
	Price        float64             `json:"price"`
	PropertyType domain.PropertyType `json:"property_type"`
	ImageCount   int                 `json:"image_count"`
}

// HomeUpdatedPayload lists the fields that changed.
type HomeUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// HomeInquiredPayload payload.
type HomeInquiredPayload struct {
	MessageID    int64  `json:"message_id"`
	RealtorID    int64  `json:"realtor_id"`
	RealtorEmail string `json:"realtor_email"`
	BuyerID      int64  `json:"buyer_id"`
	BodyPreview  string `json:"body_preview"`
}

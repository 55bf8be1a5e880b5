package dto

import (
	"time"

	"github.com/spec-kit/listing-service/internal/domain"
)

// ImageRequest is an image attached to a new listing.
type ImageRequest struct {
	URL string `json:"url" validate:"required"`
}

// CreateHomeRequest payload for new listings.
type CreateHomeRequest struct {
	Address           string         `json:"address" validate:"required"`
	NumberOfBedrooms  int            `json:"numberOfBedrooms" validate:"gte=0"`
	NumberOfBathrooms float64        `json:"numberOfBathrooms" validate:"gte=0"`
	City              string         `json:"city" validate:"required"`
	Price             float64        `json:"price" validate:"gt=0"`
	LandSize          float64        `json:"landSize" validate:"gt=0"`
	PropertyType      string         `json:"propertyType" validate:"required,oneof=RESIDENTIAL CONDO"`
	Images            []ImageRequest `json:"images" validate:"dive"`
}

// UpdateHomeRequest payload for partial listing updates.
type UpdateHomeRequest struct {
	Address           *string  `json:"address" validate:"omitempty,min=1"`
	NumberOfBedrooms  *int     `json:"numberOfBedrooms" validate:"omitempty,gte=0"`
	NumberOfBathrooms *float64 `json:"numberOfBathrooms" validate:"omitempty,gte=0"`
	City              *string  `json:"city" validate:"omitempty,min=1"`
	Price             *float64 `json:"price" validate:"omitempty,gt=0"`
	LandSize          *float64 `json:"landSize" validate:"omitempty,gt=0"`
	PropertyType      *string  `json:"propertyType" validate:"omitempty,oneof=RESIDENTIAL CONDO"`
}

// InquireRequest carries a buyer's message to the listing realtor.
type InquireRequest struct {
	Message string `json:"message" validate:"required"`
}

// ImageResponse is a stored image.
type ImageResponse struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// HomeSummary is one entry of the public listing, carrying only the first image.
type HomeSummary struct {
	ID                int64     `json:"id"`
	Address           string    `json:"address"`
	City              string    `json:"city"`
	Price             float64   `json:"price"`
	PropertyType      string    `json:"propertyType"`
	NumberOfBedrooms  int       `json:"numberOfBedrooms"`
	NumberOfBathrooms float64   `json:"numberOfBathrooms"`
	LandSize          float64   `json:"landSize"`
	ListedDate        time.Time `json:"listedDate"`
	RealtorID         int64     `json:"realtorId"`
	Image             string    `json:"image,omitempty"`
}

// HomeResponse is a single listing with all of its images.
type HomeResponse struct {
	ID                int64           `json:"id"`
	Address           string          `json:"address"`
	City              string          `json:"city"`
	Price             float64         `json:"price"`
	PropertyType      string          `json:"propertyType"`
	NumberOfBedrooms  int             `json:"numberOfBedrooms"`
	NumberOfBathrooms float64         `json:"numberOfBathrooms"`
	LandSize          float64         `json:"landSize"`
	ListedDate        time.Time       `json:"listedDate"`
	RealtorID         int64           `json:"realtorId"`
	Images            []ImageResponse `json:"images"`
}

// MessageResponse is a stored inquiry.
type MessageResponse struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	HomeID    int64     `json:"homeId"`
	RealtorID int64     `json:"realtorId"`
	BuyerID   int64     `json:"buyerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContactResponse is the buyer's contact card shown to the realtor.
type ContactResponse struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// InquiryResponse is an inquiry as listed for the realtor.
type InquiryResponse struct {
	Message string          `json:"message"`
	Buyer   ContactResponse `json:"buyer"`
}

func NewHomeSummary(h domain.Home) HomeSummary {
	summary := HomeSummary{
		ID:                h.ID,
		Address:           h.Address,
		City:              h.City,
		Price:             h.Price,
		PropertyType:      string(h.PropertyType),
		NumberOfBedrooms:  h.NumberOfBedrooms,
		NumberOfBathrooms: h.NumberOfBathrooms,
		LandSize:          h.LandSize,
		ListedDate:        h.ListedDate,
		RealtorID:         h.RealtorID,
	}
	if len(h.Images) > 0 {
		summary.Image = h.Images[0].URL
	}
	return summary
}

func NewHomeResponse(h *domain.Home) HomeResponse {
	images := make([]ImageResponse, 0, len(h.Images))
	for _, img := range h.Images {
		images = append(images, ImageResponse{ID: img.ID, URL: img.URL})
	}
	return HomeResponse{
		ID:                h.ID,
		Address:           h.Address,
		City:              h.City,
		Price:             h.Price,
		PropertyType:      string(h.PropertyType),
		NumberOfBedrooms:  h.NumberOfBedrooms,
		NumberOfBathrooms: h.NumberOfBathrooms,
		LandSize:          h.LandSize,
		ListedDate:        h.ListedDate,
		RealtorID:         h.RealtorID,
		Images:            images,
	}
}

func NewMessageResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Message:   m.Message,
		HomeID:    m.HomeID,
		RealtorID: m.RealtorID,
		BuyerID:   m.BuyerID,
		CreatedAt: m.CreatedAt,
	}
}

func NewInquiryResponse(m domain.MessageWithBuyer) InquiryResponse {
	return InquiryResponse{
		Message: m.Message,
		Buyer: ContactResponse{
			Name:  m.Buyer.Name,
			Phone: m.Buyer.Phone,
			Email: m.Buyer.Email,
		},
	}
}

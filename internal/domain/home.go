package domain

import "time"

// PropertyType classifies a listing.
type PropertyType string

const (
	PropertyTypeResidential PropertyType = "RESIDENTIAL"
	PropertyTypeCondo       PropertyType = "CONDO"
)

// Valid reports whether p is a known property type.
func (p PropertyType) Valid() bool {
	return p == PropertyTypeResidential || p == PropertyTypeCondo
}

// Home is a property listing owned by a realtor.
type Home struct {
	ID                int64
	Address           string
	City              string
	Price             float64
	LandSize          float64
	PropertyType      PropertyType
	NumberOfBedrooms  int
	NumberOfBathrooms float64
	ListedDate        time.Time
	RealtorID         int64
	Images            []Image
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Image is a picture attached to a home.
type Image struct {
	ID        int64
	URL       string
	HomeID    int64
	CreatedAt time.Time
}

package domain

import "time"

// Message is a buyer inquiry about a home, addressed to its realtor.
type Message struct {
	ID        int64
	Message   string
	HomeID    int64
	RealtorID int64
	BuyerID   int64
	CreatedAt time.Time
}

// MessageWithBuyer pairs an inquiry with the buyer's contact details.
type MessageWithBuyer struct {
	Message string
	Buyer   Contact
}

// Contact is the public contact card of a user.
type Contact struct {
	Name  string
	Phone string
	Email string
}

package domain

import (
	"time"
)

// ListingStatus is the lifecycle state of a listing. The transition is
// one-way: selling -> sold. There is no way back to selling.
type ListingStatus string

const (
	StatusSelling ListingStatus = "selling"
	StatusSold    ListingStatus = "sold"
)

// Listing represents a second-hand book post in the marketplace.
// OwnerID is set at creation and never reassigned.
type Listing struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"owner_id"`
	OwnerEmail  string        `json:"owner_email,omitempty"`
	Title       string        `json:"title"`
	Author      string        `json:"author"`
	Publisher   string        `json:"publisher"`
	Price       int64         `json:"price"`
	Condition   string        `json:"condition"`
	Description string        `json:"description"`
	Status      ListingStatus `json:"status"`
	Files       []MediaFile   `json:"files"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ListingSummary is the restricted projection returned by the multi-field
// keyword search. Media files are deliberately not part of this shape.
type ListingSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// Owner is the user a listing belongs to. Only a read-back reference;
// account management lives elsewhere.
type Owner struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Validate checks the creation invariants: a title, a non-negative price,
// and an owner are required.
func (l *Listing) Validate() error {
	if l.Title == "" {
		return ErrTitleRequired
	}
	if l.Price < 0 {
		return ErrNegativePrice
	}
	if l.OwnerID == "" {
		return ErrOwnerRequired
	}
	return nil
}

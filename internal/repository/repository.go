package repository

import (
	"context"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/domain"
)

// UpdateFields carries the mutable listing attributes for an owner-scoped
// update. Nil pointers mean "leave unchanged".
type UpdateFields struct {
	Title       *string
	Author      *string
	Publisher   *string
	Price       *int64
	Condition   *string
	Description *string
}

// ListingRepository defines the interface for listing persistence operations.
type ListingRepository interface {
	// Create inserts a new listing. Status defaults to selling.
	Create(ctx context.Context, listing *domain.Listing) error

	// GetByID retrieves a listing with its media files and owner email.
	GetByID(ctx context.Context, id string) (*domain.Listing, error)

	// ListAll returns every listing with media files attached.
	ListAll(ctx context.Context) ([]domain.Listing, error)

	// ListByOwner returns the owner's listings in the given status.
	// No matches is an empty slice, not an error.
	ListByOwner(ctx context.Context, ownerID string, status domain.ListingStatus) ([]domain.Listing, error)

	// Update applies fields to the listing identified by (id, ownerID) and
	// returns the number of rows affected. Zero means no listing matched
	// both the id and the owner.
	Update(ctx context.Context, id, ownerID string, fields UpdateFields) (int64, error)

	// Delete removes the listing identified by (id, ownerID) and returns the
	// number of rows affected. Media rows go with it via the FK cascade.
	Delete(ctx context.Context, id, ownerID string) (int64, error)

	// MarkSold flips the listing into the sold state under the same
	// ownership predicate and returns the updated row.
	MarkSold(ctx context.Context, id, ownerID string) (*domain.Listing, error)

	// Search matches the keyword as a substring of title, author or
	// publisher and returns the summary projection.
	Search(ctx context.Context, keyword string) ([]domain.ListingSummary, error)

	// SearchByTitle matches the keyword as a substring of the title and
	// returns full listings with files, newest first.
	SearchByTitle(ctx context.Context, keyword string) ([]domain.Listing, error)
}

// MediaRepository defines the interface for media file persistence operations.
type MediaRepository interface {
	// Create inserts a new media file record.
	Create(ctx context.Context, media *domain.MediaFile) error

	// ListByListing returns the media files attached to a listing.
	ListByListing(ctx context.Context, listingID string) ([]domain.MediaFile, error)

	// DeleteByListing removes every media file record for a listing and
	// returns the number of rows removed.
	DeleteByListing(ctx context.Context, listingID string) (int64, error)
}

// OwnerRepository resolves listing owners from the users table.
type OwnerRepository interface {
	// GetByID retrieves an owner by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Owner, error)
}

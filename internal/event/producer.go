package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/domain"
	pkgkafka "github.com/ShinYou-bin/epilogue-Book-platform/pkg/kafka"
)

// Kafka topic constants for listing domain events.
const (
	TopicListingCreated = "epilogue.listing.created"
	TopicListingSold    = "epilogue.listing.sold"
	TopicListingDeleted = "epilogue.listing.deleted"
	TopicMediaUploaded  = "epilogue.media.uploaded"
)

// Aggregate type constant.
const AggregateTypeListing = "listing"

// Source identifier for events originating from the listing service.
const SourceListingService = "listing-service"

// ListingCreatedData is the payload for a listing.created event.
type ListingCreatedData struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Publisher string `json:"publisher"`
	Price     int64  `json:"price"`
	Status    string `json:"status"`
	FileCount int    `json:"file_count"`
}

// ListingSoldData is the payload for a listing.sold event.
type ListingSoldData struct {
	ListingID string `json:"listing_id"`
	OwnerID   string `json:"owner_id"`
}

// ListingDeletedData is the payload for a listing.deleted event.
type ListingDeletedData struct {
	ListingID string `json:"listing_id"`
	OwnerID   string `json:"owner_id"`
}

// MediaUploadedData is the payload for a media.uploaded event.
type MediaUploadedData struct {
	MediaID   string `json:"media_id"`
	ListingID string `json:"listing_id"`
	FileType  string `json:"file_type"`
	URL       string `json:"url"`
}

// Producer publishes listing domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the listing service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishListingCreated publishes a listing.created event.
func (p *Producer) PublishListingCreated(ctx context.Context, listing *domain.Listing) error {
	data := ListingCreatedData{
		ID:        listing.ID,
		OwnerID:   listing.OwnerID,
		Title:     listing.Title,
		Author:    listing.Author,
		Publisher: listing.Publisher,
		Price:     listing.Price,
		Status:    string(listing.Status),
		FileCount: len(listing.Files),
	}

	event, err := pkgkafka.NewEvent(TopicListingCreated, listing.ID, AggregateTypeListing, SourceListingService, data)
	if err != nil {
		return fmt.Errorf("create listing.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicListingCreated, event); err != nil {
		return fmt.Errorf("publish listing.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published listing.created event",
		slog.String("listing_id", listing.ID),
		slog.String("owner_id", listing.OwnerID),
	)

	return nil
}

// PublishListingSold publishes a listing.sold event.
func (p *Producer) PublishListingSold(ctx context.Context, listingID, ownerID string) error {
	data := ListingSoldData{ListingID: listingID, OwnerID: ownerID}

	event, err := pkgkafka.NewEvent(TopicListingSold, listingID, AggregateTypeListing, SourceListingService, data)
	if err != nil {
		return fmt.Errorf("create listing.sold event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicListingSold, event); err != nil {
		return fmt.Errorf("publish listing.sold event: %w", err)
	}

	p.logger.DebugContext(ctx, "published listing.sold event",
		slog.String("listing_id", listingID),
	)

	return nil
}

// PublishListingDeleted publishes a listing.deleted event.
func (p *Producer) PublishListingDeleted(ctx context.Context, listingID, ownerID string) error {
	data := ListingDeletedData{ListingID: listingID, OwnerID: ownerID}

	event, err := pkgkafka.NewEvent(TopicListingDeleted, listingID, AggregateTypeListing, SourceListingService, data)
	if err != nil {
		return fmt.Errorf("create listing.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicListingDeleted, event); err != nil {
		return fmt.Errorf("publish listing.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published listing.deleted event",
		slog.String("listing_id", listingID),
	)

	return nil
}

// PublishMediaUploaded publishes a media.uploaded event.
func (p *Producer) PublishMediaUploaded(ctx context.Context, media *domain.MediaFile) error {
	data := MediaUploadedData{
		MediaID:   media.ID,
		ListingID: media.ListingID,
		FileType:  string(media.FileType),
		URL:       media.URL,
	}

	event, err := pkgkafka.NewEvent(TopicMediaUploaded, media.ListingID, AggregateTypeListing, SourceListingService, data)
	if err != nil {
		return fmt.Errorf("create media.uploaded event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicMediaUploaded, event); err != nil {
		return fmt.Errorf("publish media.uploaded event: %w", err)
	}

	p.logger.DebugContext(ctx, "published media.uploaded event",
		slog.String("media_id", media.ID),
		slog.String("listing_id", media.ListingID),
	)

	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/domain"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/event"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/repository"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/storage"
	apperrors "github.com/ShinYou-bin/epilogue-Book-platform/pkg/errors"
)

const defaultStorageTimeout = 30 * time.Second

// ListingService implements the listing lifecycle: create with media,
// browse, modify, delete and sold-out.
type ListingService struct {
	listings       repository.ListingRepository
	media          repository.MediaRepository
	owners         repository.OwnerRepository
	store          storage.FileStore
	producer       *event.Producer
	logger         *slog.Logger
	storageTimeout time.Duration
}

// NewListingService creates a new listing service. storageTimeout bounds
// every single persistence and file-store call; zero or negative falls back
// to the default.
func NewListingService(
	listings repository.ListingRepository,
	media repository.MediaRepository,
	owners repository.OwnerRepository,
	store storage.FileStore,
	producer *event.Producer,
	logger *slog.Logger,
	storageTimeout time.Duration,
) *ListingService {
	if storageTimeout <= 0 {
		storageTimeout = defaultStorageTimeout
	}
	return &ListingService{
		listings:       listings,
		media:          media,
		owners:         owners,
		store:          store,
		producer:       producer,
		logger:         logger,
		storageTimeout: storageTimeout,
	}
}

// CreateListingInput holds the attributes for creating a listing.
type CreateListingInput struct {
	OwnerID     string
	Title       string
	Author      string
	Publisher   string
	Price       int64
	Condition   string
	Description string
}

// MediaUpload is one file submitted with a create-with-media request.
type MediaUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// CreateWithMedia creates a listing and stores the submitted media batch.
// The owner is resolved and the batch validated before anything is written.
// The media files are pushed through the file store concurrently; a single
// failure fails the whole call and the just-created listing is removed so
// no orphan survives.
func (s *ListingService) CreateWithMedia(ctx context.Context, input *CreateListingInput, uploads []MediaUpload) (*domain.Listing, error) {
	owner, err := s.resolveOwner(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}

	for _, up := range uploads {
		if err := validateUpload(up); err != nil {
			return nil, err
		}
	}

	listing, err := s.insertListing(ctx, owner.ID, input)
	if err != nil {
		return nil, err
	}

	stored := make([]*storage.StoredObject, len(uploads))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.verifyOwnership(gctx, listing.ID, owner.ID)
	})

	for i, up := range uploads {
		g.Go(func() error {
			obj, err := s.storeFile(gctx, storage.ObjectRef{
				ListingID: listing.ID,
				FileName:  up.FileName,
			}, up)
			if err != nil {
				return err
			}
			stored[i] = obj

			media := &domain.MediaFile{
				ID:        uuid.New().String(),
				ListingID: listing.ID,
				FileType:  domain.FileTypeImage,
				URL:       obj.URL,
				CreatedAt: time.Now().UTC(),
			}
			qctx, qcancel := s.boundCall(gctx)
			defer qcancel()
			if err := s.media.Create(qctx, media); err != nil {
				return callErr("create media record", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.compensateCreate(ctx, listing, stored)
		return nil, err
	}

	created, err := s.reloadListing(ctx, listing.ID)
	if err != nil {
		return nil, err
	}

	s.publishCreated(ctx, created)

	s.logger.InfoContext(ctx, "listing created with media",
		slog.String("listing_id", created.ID),
		slog.String("owner_id", created.OwnerID),
		slog.Int("file_count", len(created.Files)),
	)

	return created, nil
}

// SimpleCreate creates a listing with exactly one media record pointing at
// the caller-supplied URL. The media record is only written once the listing
// exists; if it cannot be written the listing is removed and the call fails.
func (s *ListingService) SimpleCreate(ctx context.Context, input *CreateListingInput, fileURL string) (*domain.Listing, error) {
	if fileURL == "" {
		return nil, apperrors.InvalidInput("file url is required")
	}

	owner, err := s.resolveOwner(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}

	listing, err := s.insertListing(ctx, owner.ID, input)
	if err != nil {
		return nil, err
	}

	media := &domain.MediaFile{
		ID:        uuid.New().String(),
		ListingID: listing.ID,
		FileType:  domain.FileTypeImage,
		URL:       fileURL,
		CreatedAt: time.Now().UTC(),
	}
	mctx, mcancel := s.boundCall(ctx)
	err = s.media.Create(mctx, media)
	mcancel()
	if err != nil {
		s.compensateCreate(ctx, listing, nil)
		return nil, callErr("create media record", err)
	}

	created, err := s.reloadListing(ctx, listing.ID)
	if err != nil {
		return nil, err
	}

	s.publishCreated(ctx, created)

	s.logger.InfoContext(ctx, "listing created",
		slog.String("listing_id", created.ID),
		slog.String("owner_id", created.OwnerID),
	)

	return created, nil
}

// StoreImage pushes a single standalone image through the file store and
// returns its URL. Used by the pre-upload endpoint; the media record is
// created later when the listing referencing the URL is submitted.
func (s *ListingService) StoreImage(ctx context.Context, ownerID string, up MediaUpload) (string, error) {
	if err := validateUpload(up); err != nil {
		return "", err
	}

	obj, err := s.storeFile(ctx, storage.ObjectRef{
		ListingID: ownerID,
		FileName:  up.FileName,
	}, up)
	if err != nil {
		return "", err
	}

	return obj.URL, nil
}

// Get retrieves a listing with its media files and owner email.
func (s *ListingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	qctx, cancel := s.boundCall(ctx)
	defer cancel()

	listing, err := s.listings.GetByID(qctx, id)
	if err != nil {
		return nil, callErr("get listing by id", err)
	}
	return listing, nil
}

// ListAll returns every listing.
func (s *ListingService) ListAll(ctx context.Context) ([]domain.Listing, error) {
	qctx, cancel := s.boundCall(ctx)
	defer cancel()

	listings, err := s.listings.ListAll(qctx)
	if err != nil {
		return nil, callErr("list listings", err)
	}
	return listings, nil
}

// ListByOwner returns the owner's listings in the given status.
func (s *ListingService) ListByOwner(ctx context.Context, ownerID string, status domain.ListingStatus) ([]domain.Listing, error) {
	qctx, cancel := s.boundCall(ctx)
	defer cancel()

	listings, err := s.listings.ListByOwner(qctx, ownerID, status)
	if err != nil {
		return nil, callErr("list listings by owner", err)
	}
	return listings, nil
}

// Modify applies the given fields to the caller's listing. A listing that
// does not exist, or that belongs to someone else, surfaces as not found.
func (s *ListingService) Modify(ctx context.Context, id, ownerID string, fields repository.UpdateFields) error {
	qctx, cancel := s.boundCall(ctx)
	defer cancel()

	affected, err := s.listings.Update(qctx, id, ownerID, fields)
	if err != nil {
		return callErr("update listing", err)
	}
	if affected == 0 {
		return apperrors.NotFound("listing", id)
	}

	s.logger.InfoContext(ctx, "listing modified",
		slog.String("listing_id", id),
		slog.String("owner_id", ownerID),
	)

	return nil
}

// Delete removes the caller's listing. The row deletion, including the media
// row cascade, completes before the call returns; stored objects are cleaned
// up best effort afterwards.
func (s *ListingService) Delete(ctx context.Context, id, ownerID string) error {
	lctx, lcancel := s.boundCall(ctx)
	files, err := s.media.ListByListing(lctx, id)
	lcancel()
	if err != nil {
		s.logger.WarnContext(ctx, "failed to list media before delete",
			slog.String("listing_id", id),
			slog.String("error", err.Error()),
		)
	}

	qctx, cancel := s.boundCall(ctx)
	defer cancel()

	affected, err := s.listings.Delete(qctx, id, ownerID)
	if err != nil {
		return callErr("delete listing", err)
	}
	if affected == 0 {
		return apperrors.NotFound("listing", id)
	}

	for _, f := range files {
		s.deleteStoredObject(ctx, objectKey(f))
	}

	if err := s.producer.PublishListingDeleted(ctx, id, ownerID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish listing.deleted event",
			slog.String("listing_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "listing deleted",
		slog.String("listing_id", id),
		slog.String("owner_id", ownerID),
	)

	return nil
}

// MarkSold flips the caller's listing into the sold state. A second call on
// an already sold listing succeeds without changing anything.
func (s *ListingService) MarkSold(ctx context.Context, id, ownerID string) (*domain.Listing, error) {
	qctx, cancel := s.boundCall(ctx)
	defer cancel()

	listing, err := s.listings.MarkSold(qctx, id, ownerID)
	if err != nil {
		return nil, callErr("mark listing sold", err)
	}

	if err := s.producer.PublishListingSold(ctx, id, ownerID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish listing.sold event",
			slog.String("listing_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "listing marked sold",
		slog.String("listing_id", id),
		slog.String("owner_id", ownerID),
	)

	return listing, nil
}

// resolveOwner looks up the owner row behind the authenticated identity.
// A missing owner means the token refers to nobody we know.
func (s *ListingService) resolveOwner(ctx context.Context, ownerID string) (*domain.Owner, error) {
	if ownerID == "" {
		return nil, apperrors.Unauthorized("missing owner identity")
	}

	qctx, cancel := s.boundCall(ctx)
	defer cancel()

	owner, err := s.owners.GetByID(qctx, ownerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("unknown owner")
		}
		return nil, callErr("resolve owner", err)
	}

	return owner, nil
}

// insertListing validates and persists a fresh listing row.
func (s *ListingService) insertListing(ctx context.Context, ownerID string, input *CreateListingInput) (*domain.Listing, error) {
	now := time.Now().UTC()
	listing := &domain.Listing{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Title:       input.Title,
		Author:      input.Author,
		Publisher:   input.Publisher,
		Price:       input.Price,
		Condition:   input.Condition,
		Description: input.Description,
		Status:      domain.StatusSelling,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := listing.Validate(); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	qctx, cancel := s.boundCall(ctx)
	defer cancel()

	if err := s.listings.Create(qctx, listing); err != nil {
		return nil, callErr("create listing", err)
	}

	return listing, nil
}

// reloadListing re-reads the full listing row with its files attached.
func (s *ListingService) reloadListing(ctx context.Context, id string) (*domain.Listing, error) {
	qctx, cancel := s.boundCall(ctx)
	defer cancel()

	listing, err := s.listings.GetByID(qctx, id)
	if err != nil {
		return nil, callErr("reload created listing", err)
	}
	return listing, nil
}

// verifyOwnership re-reads the persisted row and confirms the owner
// association took.
func (s *ListingService) verifyOwnership(ctx context.Context, listingID, ownerID string) error {
	qctx, cancel := s.boundCall(ctx)
	defer cancel()

	persisted, err := s.listings.GetByID(qctx, listingID)
	if err != nil {
		return callErr("verify owner association", err)
	}
	if persisted.OwnerID != ownerID {
		return fmt.Errorf("verify owner association: listing %s not associated with owner %s", listingID, ownerID)
	}
	return nil
}

// boundCall derives the bounded context a single persistence or file-store
// call runs under.
func (s *ListingService) boundCall(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storageTimeout)
}

// callErr wraps a failed call, surfacing deadline expiry as a timeout.
func callErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// storeFile runs one file-store write under the configured timeout.
func (s *ListingService) storeFile(ctx context.Context, ref storage.ObjectRef, up MediaUpload) (*storage.StoredObject, error) {
	sctx, cancel := s.boundCall(ctx)
	defer cancel()

	obj, err := s.store.Store(sctx, ref, storage.Upload{
		ContentType: up.ContentType,
		Size:        up.Size,
		Data:        up.Data,
	})
	if err != nil {
		return nil, callErr("store media file", err)
	}

	return obj, nil
}

// compensateCreate undoes a partially completed create: stored objects are
// removed best effort, the media rows go, then the listing row.
func (s *ListingService) compensateCreate(ctx context.Context, listing *domain.Listing, stored []*storage.StoredObject) {
	for _, obj := range stored {
		if obj == nil {
			continue
		}
		s.deleteStoredObject(ctx, obj.Key)
	}

	mctx, mcancel := s.boundCall(ctx)
	_, err := s.media.DeleteByListing(mctx, listing.ID)
	mcancel()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to remove media rows after partial create",
			slog.String("listing_id", listing.ID),
			slog.String("error", err.Error()),
		)
	}

	qctx, cancel := s.boundCall(ctx)
	defer cancel()

	if _, err := s.listings.Delete(qctx, listing.ID, listing.OwnerID); err != nil {
		s.logger.ErrorContext(ctx, "failed to remove listing after partial create",
			slog.String("listing_id", listing.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.WarnContext(ctx, "rolled back partially created listing",
		slog.String("listing_id", listing.ID),
	)
}

// deleteStoredObject removes one object from the file store, logging instead
// of failing; object cleanup is always best effort.
func (s *ListingService) deleteStoredObject(ctx context.Context, key string) {
	if key == "" {
		return
	}

	dctx, cancel := s.boundCall(ctx)
	defer cancel()

	if err := s.store.Delete(dctx, key); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete stored object",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// publishCreated emits the creation events; failures are logged, never
// surfaced to the caller.
func (s *ListingService) publishCreated(ctx context.Context, listing *domain.Listing) {
	if err := s.producer.PublishListingCreated(ctx, listing); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish listing.created event",
			slog.String("listing_id", listing.ID),
			slog.String("error", err.Error()),
		)
	}

	for i := range listing.Files {
		if err := s.producer.PublishMediaUploaded(ctx, &listing.Files[i]); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish media.uploaded event",
				slog.String("media_id", listing.Files[i].ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// validateUpload checks one submitted file against the accepted content
// types and the size bound.
func validateUpload(up MediaUpload) error {
	if up.FileName == "" {
		return apperrors.InvalidInput("file name is required")
	}
	if _, ok := domain.AllowedImageTypes[up.ContentType]; !ok {
		return apperrors.InvalidInput(fmt.Sprintf("content type %q is not allowed", up.ContentType))
	}
	if up.Size <= 0 {
		return apperrors.InvalidInput("file size must be greater than zero")
	}
	if up.Size > domain.MaxUploadSize {
		return apperrors.InvalidInput(fmt.Sprintf("file size %d exceeds maximum of %d bytes", up.Size, domain.MaxUploadSize))
	}
	return nil
}

// objectKey recovers the file-store key from a media record. Store-managed
// URLs always end with the two-segment key (<prefix>/<name>); the prefix is
// the listing id for batch uploads and the owner id for pre-uploaded images.
// URLs with fewer segments were never store-managed and yield no key.
func objectKey(f domain.MediaFile) string {
	u, err := url.Parse(f.URL)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) < 2 {
		return ""
	}
	return segs[len(segs)-2] + "/" + segs[len(segs)-1]
}

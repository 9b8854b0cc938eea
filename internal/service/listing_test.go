package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/domain"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/event"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/repository"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/storage/memory"
	apperrors "github.com/ShinYou-bin/epilogue-Book-platform/pkg/errors"
	pkgkafka "github.com/ShinYou-bin/epilogue-Book-platform/pkg/kafka"
)

// --- Mock Repositories ---

type mockListingRepository struct {
	mock.Mock
}

func (m *mockListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *mockListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *mockListingRepository) ListAll(ctx context.Context) ([]domain.Listing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Listing), args.Error(1)
}

func (m *mockListingRepository) ListByOwner(ctx context.Context, ownerID string, status domain.ListingStatus) ([]domain.Listing, error) {
	args := m.Called(ctx, ownerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Listing), args.Error(1)
}

func (m *mockListingRepository) Update(ctx context.Context, id, ownerID string, fields repository.UpdateFields) (int64, error) {
	args := m.Called(ctx, id, ownerID, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockListingRepository) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockListingRepository) MarkSold(ctx context.Context, id, ownerID string) (*domain.Listing, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *mockListingRepository) Search(ctx context.Context, keyword string) ([]domain.ListingSummary, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ListingSummary), args.Error(1)
}

func (m *mockListingRepository) SearchByTitle(ctx context.Context, keyword string) ([]domain.Listing, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Listing), args.Error(1)
}

type mockMediaRepository struct {
	mock.Mock
}

func (m *mockMediaRepository) Create(ctx context.Context, media *domain.MediaFile) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *mockMediaRepository) ListByListing(ctx context.Context, listingID string) ([]domain.MediaFile, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MediaFile), args.Error(1)
}

func (m *mockMediaRepository) DeleteByListing(ctx context.Context, listingID string) (int64, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).(int64), args.Error(1)
}

type mockOwnerRepository struct {
	mock.Mock
}

func (m *mockOwnerRepository) GetByID(ctx context.Context, id string) (*domain.Owner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Owner), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type serviceFixture struct {
	listings *mockListingRepository
	media    *mockMediaRepository
	owners   *mockOwnerRepository
	store    *memory.FileStore
	svc      *ListingService
}

func newFixture() *serviceFixture {
	logger := newTestLogger()
	// A Kafka producer pointed at nothing; publish failures only get logged.
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}), logger)
	producer := event.NewProducer(kafkaProducer, logger)

	f := &serviceFixture{
		listings: new(mockListingRepository),
		media:    new(mockMediaRepository),
		owners:   new(mockOwnerRepository),
		store:    memory.New("http://cdn.test"),
	}
	f.svc = NewListingService(f.listings, f.media, f.owners, f.store, producer, logger, time.Second)
	return f
}

func validInput() *CreateListingInput {
	return &CreateListingInput{
		OwnerID:     "owner-1",
		Title:       "Go in Action",
		Author:      "William Kennedy",
		Publisher:   "Manning",
		Price:       18000,
		Condition:   "good",
		Description: "Lightly used",
	}
}

func jpegUpload(name string) MediaUpload {
	return MediaUpload{
		FileName:    name,
		ContentType: "image/jpeg",
		Size:        1024,
		Data:        strings.NewReader("jpeg bytes"),
	}
}

func expectOwner(f *serviceFixture) {
	f.owners.On("GetByID", mock.Anything, "owner-1").
		Return(&domain.Owner{ID: "owner-1", Email: "seller@example.com"}, nil)
}

// persistedListing mirrors what GetByID would return after a successful
// create: owner email resolved and one media row per stored file.
func persistedListing(fileCount int) *domain.Listing {
	l := &domain.Listing{
		OwnerID:    "owner-1",
		OwnerEmail: "seller@example.com",
		Title:      "Go in Action",
		Author:     "William Kennedy",
		Publisher:  "Manning",
		Price:      18000,
		Status:     domain.StatusSelling,
		Files:      []domain.MediaFile{},
	}
	for i := 0; i < fileCount; i++ {
		l.Files = append(l.Files, domain.MediaFile{
			ID:        "media-" + string(rune('1'+i)),
			FileType:  domain.FileTypeImage,
			URL:       "http://cdn.test/uploads/listing-1/file.jpg",
			CreatedAt: time.Now().UTC(),
		})
	}
	return l
}

// --- CreateWithMedia ---

func TestCreateWithMedia_Success(t *testing.T) {
	f := newFixture()
	expectOwner(f)

	var createdID string
	f.listings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Listing")).
		Run(func(args mock.Arguments) {
			l := args.Get(1).(*domain.Listing)
			createdID = l.ID
		}).
		Return(nil)
	f.listings.On("GetByID", mock.Anything, mock.AnythingOfType("string")).
		Return(persistedListing(2), nil)
	f.media.On("Create", mock.Anything, mock.AnythingOfType("*domain.MediaFile")).Return(nil)

	result, err := f.svc.CreateWithMedia(context.Background(), validInput(), []MediaUpload{
		jpegUpload("front.jpg"),
		jpegUpload("back.jpg"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, createdID)
	assert.Equal(t, "owner-1", result.OwnerID)
	require.Len(t, result.Files, 2)
	for _, file := range result.Files {
		assert.NotEmpty(t, file.URL)
	}
	assert.Equal(t, 2, f.store.Len())
	f.media.AssertNumberOfCalls(t, "Create", 2)
}

func TestCreateWithMedia_UnknownOwner(t *testing.T) {
	f := newFixture()
	f.owners.On("GetByID", mock.Anything, "owner-1").Return(nil, apperrors.ErrNotFound)

	_, err := f.svc.CreateWithMedia(context.Background(), validInput(), []MediaUpload{jpegUpload("a.jpg")})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	f.listings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateWithMedia_RejectsBadContentType(t *testing.T) {
	f := newFixture()
	expectOwner(f)

	up := jpegUpload("malware.exe")
	up.ContentType = "application/octet-stream"

	_, err := f.svc.CreateWithMedia(context.Background(), validInput(), []MediaUpload{up})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.listings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.store.Len())
}

func TestCreateWithMedia_RejectsInvalidListing(t *testing.T) {
	f := newFixture()
	expectOwner(f)

	input := validInput()
	input.Price = -500

	_, err := f.svc.CreateWithMedia(context.Background(), input, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.listings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateWithMedia_MediaInsertFailureRollsBack(t *testing.T) {
	f := newFixture()
	expectOwner(f)

	f.listings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Listing")).Return(nil)
	f.listings.On("GetByID", mock.Anything, mock.AnythingOfType("string")).
		Return(persistedListing(0), nil)
	f.media.On("Create", mock.Anything, mock.AnythingOfType("*domain.MediaFile")).
		Return(errors.New("insert media file: connection lost"))
	f.media.On("DeleteByListing", mock.Anything, mock.AnythingOfType("string")).
		Return(int64(0), nil)
	f.listings.On("Delete", mock.Anything, mock.AnythingOfType("string"), "owner-1").
		Return(int64(1), nil)

	_, err := f.svc.CreateWithMedia(context.Background(), validInput(), []MediaUpload{jpegUpload("a.jpg")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create media record")

	f.media.AssertCalled(t, "DeleteByListing", mock.Anything, mock.AnythingOfType("string"))
	f.listings.AssertCalled(t, "Delete", mock.Anything, mock.AnythingOfType("string"), "owner-1")
	assert.Equal(t, 0, f.store.Len(), "stored object must be cleaned up")
}

func TestCreateWithMedia_StorageTimeoutRollsBack(t *testing.T) {
	f := newFixture()
	expectOwner(f)
	f.store.StoreErr = context.DeadlineExceeded

	f.listings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Listing")).Return(nil)
	f.listings.On("GetByID", mock.Anything, mock.AnythingOfType("string")).
		Return(persistedListing(0), nil)
	f.media.On("DeleteByListing", mock.Anything, mock.AnythingOfType("string")).
		Return(int64(0), nil)
	f.listings.On("Delete", mock.Anything, mock.AnythingOfType("string"), "owner-1").
		Return(int64(1), nil)

	_, err := f.svc.CreateWithMedia(context.Background(), validInput(), []MediaUpload{jpegUpload("a.jpg")})
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	f.listings.AssertCalled(t, "Delete", mock.Anything, mock.AnythingOfType("string"), "owner-1")
}

// --- SimpleCreate ---

func TestSimpleCreate_RoundTrip(t *testing.T) {
	f := newFixture()
	expectOwner(f)

	const fileURL = "http://cdn.test/uploads/owner-1/cover.jpg"

	var insertedListing *domain.Listing
	var insertedMedia *domain.MediaFile

	f.listings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Listing")).
		Run(func(args mock.Arguments) {
			insertedListing = args.Get(1).(*domain.Listing)
		}).
		Return(nil)
	f.media.On("Create", mock.Anything, mock.AnythingOfType("*domain.MediaFile")).
		Run(func(args mock.Arguments) {
			insertedMedia = args.Get(1).(*domain.MediaFile)
		}).
		Return(nil)
	f.listings.On("GetByID", mock.Anything, mock.AnythingOfType("string")).
		Return(persistedListing(1), nil)

	input := validInput()
	_, err := f.svc.SimpleCreate(context.Background(), input, fileURL)
	require.NoError(t, err)

	require.NotNil(t, insertedListing)
	assert.Equal(t, input.Title, insertedListing.Title)
	assert.Equal(t, input.Author, insertedListing.Author)
	assert.Equal(t, input.Publisher, insertedListing.Publisher)
	assert.Equal(t, input.Price, insertedListing.Price)
	assert.Equal(t, input.Condition, insertedListing.Condition)
	assert.Equal(t, input.Description, insertedListing.Description)
	assert.Equal(t, domain.StatusSelling, insertedListing.Status)

	require.NotNil(t, insertedMedia)
	assert.Equal(t, fileURL, insertedMedia.URL)
	assert.Equal(t, insertedListing.ID, insertedMedia.ListingID)
	assert.Equal(t, domain.FileTypeImage, insertedMedia.FileType)
}

func TestSimpleCreate_MissingURL(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SimpleCreate(context.Background(), validInput(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.owners.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestSimpleCreate_MediaInsertFailureRollsBack(t *testing.T) {
	f := newFixture()
	expectOwner(f)

	f.listings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Listing")).Return(nil)
	f.media.On("Create", mock.Anything, mock.AnythingOfType("*domain.MediaFile")).
		Return(errors.New("insert media file: constraint"))
	f.media.On("DeleteByListing", mock.Anything, mock.AnythingOfType("string")).
		Return(int64(0), nil)
	f.listings.On("Delete", mock.Anything, mock.AnythingOfType("string"), "owner-1").
		Return(int64(1), nil)

	_, err := f.svc.SimpleCreate(context.Background(), validInput(), "http://cdn.test/x.jpg")
	require.Error(t, err)
	f.media.AssertCalled(t, "DeleteByListing", mock.Anything, mock.AnythingOfType("string"))
	f.listings.AssertCalled(t, "Delete", mock.Anything, mock.AnythingOfType("string"), "owner-1")
}

// --- StoreImage ---

func TestStoreImage_Success(t *testing.T) {
	f := newFixture()

	url, err := f.svc.StoreImage(context.Background(), "owner-1", jpegUpload("cover.jpg"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://cdn.test/uploads/owner-1/"))
	assert.Equal(t, 1, f.store.Len())
}

func TestStoreImage_RejectsOversize(t *testing.T) {
	f := newFixture()

	up := jpegUpload("huge.jpg")
	up.Size = domain.MaxUploadSize + 1

	_, err := f.svc.StoreImage(context.Background(), "owner-1", up)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, 0, f.store.Len())
}

// --- Modify / Delete / MarkSold ---

func TestModify_NoMatchingRow(t *testing.T) {
	f := newFixture()

	title := "new title"
	f.listings.On("Update", mock.Anything, "listing-1", "intruder", mock.AnythingOfType("repository.UpdateFields")).
		Return(int64(0), nil)

	err := f.svc.Modify(context.Background(), "listing-1", "intruder", repository.UpdateFields{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestModify_Success(t *testing.T) {
	f := newFixture()

	price := int64(9000)
	f.listings.On("Update", mock.Anything, "listing-1", "owner-1", mock.AnythingOfType("repository.UpdateFields")).
		Return(int64(1), nil)

	err := f.svc.Modify(context.Background(), "listing-1", "owner-1", repository.UpdateFields{Price: &price})
	assert.NoError(t, err)
}

func TestDelete_Success(t *testing.T) {
	f := newFixture()

	f.media.On("ListByListing", mock.Anything, "listing-1").
		Return([]domain.MediaFile{
			{ID: "media-1", ListingID: "listing-1", URL: "http://cdn.test/uploads/listing-1/a.jpg"},
		}, nil)
	f.listings.On("Delete", mock.Anything, "listing-1", "owner-1").Return(int64(1), nil)

	err := f.svc.Delete(context.Background(), "listing-1", "owner-1")
	assert.NoError(t, err)
	f.listings.AssertCalled(t, "Delete", mock.Anything, "listing-1", "owner-1")
}

func TestDelete_CleansUpPreUploadedImage(t *testing.T) {
	f := newFixture()

	// The /img flow stores the object under the owner id before any listing
	// exists; the record's URL is the only trail back to the object.
	fileURL, err := f.svc.StoreImage(context.Background(), "owner-1", jpegUpload("cover.jpg"))
	require.NoError(t, err)
	require.Equal(t, 1, f.store.Len())

	f.media.On("ListByListing", mock.Anything, "listing-1").
		Return([]domain.MediaFile{
			{ID: "media-1", ListingID: "listing-1", URL: fileURL},
		}, nil)
	f.listings.On("Delete", mock.Anything, "listing-1", "owner-1").Return(int64(1), nil)

	err = f.svc.Delete(context.Background(), "listing-1", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 0, f.store.Len(), "pre-uploaded object must be removed")
}

func TestDelete_IgnoresExternalURL(t *testing.T) {
	f := newFixture()

	f.media.On("ListByListing", mock.Anything, "listing-1").
		Return([]domain.MediaFile{
			{ID: "media-1", ListingID: "listing-1", URL: "https://covers.example.com/a.jpg"},
		}, nil)
	f.listings.On("Delete", mock.Anything, "listing-1", "owner-1").Return(int64(1), nil)

	err := f.svc.Delete(context.Background(), "listing-1", "owner-1")
	assert.NoError(t, err)
}

func TestDelete_NoMatchingRow(t *testing.T) {
	f := newFixture()

	f.media.On("ListByListing", mock.Anything, "listing-1").Return([]domain.MediaFile{}, nil)
	f.listings.On("Delete", mock.Anything, "listing-1", "intruder").Return(int64(0), nil)

	err := f.svc.Delete(context.Background(), "listing-1", "intruder")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMarkSold_Idempotent(t *testing.T) {
	f := newFixture()

	sold := &domain.Listing{ID: "listing-1", OwnerID: "owner-1", Status: domain.StatusSold}
	f.listings.On("MarkSold", mock.Anything, "listing-1", "owner-1").Return(sold, nil)

	first, err := f.svc.MarkSold(context.Background(), "listing-1", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSold, first.Status)

	second, err := f.svc.MarkSold(context.Background(), "listing-1", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSold, second.Status)
}

func TestMarkSold_WrongOwner(t *testing.T) {
	f := newFixture()

	f.listings.On("MarkSold", mock.Anything, "listing-1", "intruder").
		Return(nil, apperrors.ErrNotFound)

	_, err := f.svc.MarkSold(context.Background(), "listing-1", "intruder")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGet_QueryDeadlineExpiry(t *testing.T) {
	f := newFixture()

	f.listings.On("GetByID", mock.Anything, "listing-1").
		Return(nil, fmt.Errorf("query listings: %w", context.DeadlineExceeded))

	_, err := f.svc.Get(context.Background(), "listing-1")
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
}

func TestModify_QueryDeadlineExpiry(t *testing.T) {
	f := newFixture()

	title := "new title"
	f.listings.On("Update", mock.Anything, "listing-1", "owner-1", mock.AnythingOfType("repository.UpdateFields")).
		Return(int64(0), fmt.Errorf("exec update: %w", context.DeadlineExceeded))

	err := f.svc.Modify(context.Background(), "listing-1", "owner-1", repository.UpdateFields{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
}

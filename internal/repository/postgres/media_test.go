package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/domain"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/database"
	apperrors "github.com/ShinYou-bin/epilogue-Book-platform/pkg/errors"
)

func setupMediaRepo(t *testing.T) (*MediaRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewMediaRepository(mock)
	return repo, mock
}

func sampleMediaFile() domain.MediaFile {
	return domain.MediaFile{
		ID:        "media-1",
		ListingID: "listing-1",
		FileType:  domain.FileTypeImage,
		URL:       "https://cdn.example.com/listing-1/cover.jpg",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMediaRepository_Create_Success(t *testing.T) {
	repo, mock := setupMediaRepo(t)
	defer mock.Close()

	m := sampleMediaFile()

	mock.ExpectExec("INSERT INTO media_files").
		WithArgs(m.ID, m.ListingID, m.FileType, m.URL, m.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), &m)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaRepository_Create_ExecError(t *testing.T) {
	repo, mock := setupMediaRepo(t)
	defer mock.Close()

	m := sampleMediaFile()

	mock.ExpectExec("INSERT INTO media_files").
		WithArgs(m.ID, m.ListingID, m.FileType, m.URL, m.CreatedAt).
		WillReturnError(errors.New("db connection lost"))

	err := repo.Create(context.Background(), &m)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert media file")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaRepository_ListByListing_Success(t *testing.T) {
	repo, mock := setupMediaRepo(t)
	defer mock.Close()

	m := sampleMediaFile()

	mock.ExpectQuery("SELECT .+ FROM media_files WHERE listing_id").
		WithArgs(m.ListingID).
		WillReturnRows(
			pgxmock.NewRows(mediaRowColumns).
				AddRow(m.ID, m.ListingID, m.FileType, m.URL, m.CreatedAt),
		)

	files, err := repo.ListByListing(context.Background(), m.ListingID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, m.URL, files[0].URL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaRepository_ListByListing_Empty(t *testing.T) {
	repo, mock := setupMediaRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM media_files WHERE listing_id").
		WithArgs("listing-bare").
		WillReturnRows(pgxmock.NewRows(mediaRowColumns))

	files, err := repo.ListByListing(context.Background(), "listing-bare")
	require.NoError(t, err)
	assert.Equal(t, []domain.MediaFile{}, files)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaRepository_DeleteByListing(t *testing.T) {
	repo, mock := setupMediaRepo(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM media_files WHERE listing_id").
		WithArgs("listing-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	removed, err := repo.DeleteByListing(context.Background(), "listing-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOwnerRepository_GetByID(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewOwnerRepository(mock)

	mock.ExpectQuery("SELECT id, email FROM users").
		WithArgs("owner-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email"}).AddRow("owner-1", "seller@example.com"))

	owner, err := repo.GetByID(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "seller@example.com", owner.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOwnerRepository_GetByID_NotFound(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewOwnerRepository(mock)

	mock.ExpectQuery("SELECT id, email FROM users").
		WithArgs("owner-missing").
		WillReturnError(pgx.ErrNoRows)

	owner, err := repo.GetByID(context.Background(), "owner-missing")
	assert.Nil(t, owner)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

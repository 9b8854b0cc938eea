package postgres

import (
	"context"
	"fmt"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/domain"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/database"
)

// MediaRepository implements repository.MediaRepository using PostgreSQL.
type MediaRepository struct {
	pool database.DBTX
}

// NewMediaRepository creates a new PostgreSQL-backed media repository.
func NewMediaRepository(pool database.DBTX) *MediaRepository {
	return &MediaRepository{pool: pool}
}

// Create inserts a new media file record into the database.
func (r *MediaRepository) Create(ctx context.Context, m *domain.MediaFile) error {
	query := `
		INSERT INTO media_files (id, listing_id, file_type, url, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		m.ID,
		m.ListingID,
		m.FileType,
		m.URL,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert media file: %w", err)
	}

	return nil
}

// ListByListing returns the media files attached to a listing, oldest first.
func (r *MediaRepository) ListByListing(ctx context.Context, listingID string) ([]domain.MediaFile, error) {
	query := `
		SELECT id, listing_id, file_type, url, created_at
		FROM media_files
		WHERE listing_id = $1
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("list media files: %w", err)
	}
	defer rows.Close()

	files := []domain.MediaFile{}
	for rows.Next() {
		var f domain.MediaFile
		if err := rows.Scan(&f.ID, &f.ListingID, &f.FileType, &f.URL, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan media file row: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media file rows: %w", err)
	}

	return files, nil
}

// DeleteByListing removes every media file record for a listing and returns
// the number of rows removed. Zero is not an error; a listing may have no
// media.
func (r *MediaRepository) DeleteByListing(ctx context.Context, listingID string) (int64, error) {
	query := `DELETE FROM media_files WHERE listing_id = $1`

	ct, err := r.pool.Exec(ctx, query, listingID)
	if err != nil {
		return 0, fmt.Errorf("delete media files: %w", err)
	}

	return ct.RowsAffected(), nil
}

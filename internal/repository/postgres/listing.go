package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/domain"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/repository"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/database"
	apperrors "github.com/ShinYou-bin/epilogue-Book-platform/pkg/errors"
)

// ListingRepository implements repository.ListingRepository using PostgreSQL.
type ListingRepository struct {
	pool database.DBTX
}

// NewListingRepository creates a new PostgreSQL-backed listing repository.
func NewListingRepository(pool database.DBTX) *ListingRepository {
	return &ListingRepository{pool: pool}
}

const listingColumns = `l.id, l.owner_id, l.title, l.author, l.publisher, l.price, l.condition, l.description, l.status, l.created_at, l.updated_at`

// Create inserts a new listing into the database.
func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	query := `
		INSERT INTO listings (id, owner_id, title, author, publisher, price, condition, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		l.ID,
		l.OwnerID,
		l.Title,
		l.Author,
		l.Publisher,
		l.Price,
		l.Condition,
		l.Description,
		l.Status,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("owner", l.OwnerID)
		}
		return fmt.Errorf("insert listing: %w", err)
	}

	return nil
}

// GetByID retrieves a listing by its ID with owner email and media files attached.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	query := `
		SELECT ` + listingColumns + `, u.email
		FROM listings l
		JOIN users u ON u.id = l.owner_id
		WHERE l.id = $1`

	var l domain.Listing
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&l.ID,
		&l.OwnerID,
		&l.Title,
		&l.Author,
		&l.Publisher,
		&l.Price,
		&l.Condition,
		&l.Description,
		&l.Status,
		&l.CreatedAt,
		&l.UpdatedAt,
		&l.OwnerEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan listing: %w", err)
	}

	listings := []domain.Listing{l}
	if err := r.attachFiles(ctx, listings); err != nil {
		return nil, err
	}

	return &listings[0], nil
}

// ListAll returns every listing with media files attached, newest first.
func (r *ListingRepository) ListAll(ctx context.Context) ([]domain.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings l
		ORDER BY l.created_at DESC`

	listings, err := r.queryListings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}

	if err := r.attachFiles(ctx, listings); err != nil {
		return nil, err
	}

	return listings, nil
}

// ListByOwner returns the owner's listings in the given status, newest first.
func (r *ListingRepository) ListByOwner(ctx context.Context, ownerID string, status domain.ListingStatus) ([]domain.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings l
		WHERE l.owner_id = $1 AND l.status = $2
		ORDER BY l.created_at DESC`

	listings, err := r.queryListings(ctx, query, ownerID, status)
	if err != nil {
		return nil, fmt.Errorf("list listings by owner: %w", err)
	}

	if err := r.attachFiles(ctx, listings); err != nil {
		return nil, err
	}

	return listings, nil
}

// Update applies the given fields to the listing identified by (id, ownerID)
// and returns the number of rows affected.
func (r *ListingRepository) Update(ctx context.Context, id, ownerID string, fields repository.UpdateFields) (int64, error) {
	var (
		sets     []string
		args     []any
		argIndex = 1
	)

	set := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if fields.Title != nil {
		set("title", *fields.Title)
	}
	if fields.Author != nil {
		set("author", *fields.Author)
	}
	if fields.Publisher != nil {
		set("publisher", *fields.Publisher)
	}
	if fields.Price != nil {
		set("price", *fields.Price)
	}
	if fields.Condition != nil {
		set("condition", *fields.Condition)
	}
	if fields.Description != nil {
		set("description", *fields.Description)
	}

	if len(sets) == 0 {
		return 0, apperrors.InvalidInput("no fields to update")
	}

	set("updated_at", time.Now().UTC())

	query := fmt.Sprintf(
		"UPDATE listings SET %s WHERE id = $%d AND owner_id = $%d",
		strings.Join(sets, ", "), argIndex, argIndex+1,
	)
	args = append(args, id, ownerID)

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update listing: %w", err)
	}

	return ct.RowsAffected(), nil
}

// Delete removes the listing identified by (id, ownerID) and returns the
// number of rows affected. Media file rows are removed by the FK cascade.
func (r *ListingRepository) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	query := `DELETE FROM listings WHERE id = $1 AND owner_id = $2`

	ct, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete listing: %w", err)
	}

	return ct.RowsAffected(), nil
}

// MarkSold flips the listing into the sold state under the ownership
// predicate and returns the updated row. Flipping an already sold listing
// matches and succeeds, which keeps the operation idempotent.
func (r *ListingRepository) MarkSold(ctx context.Context, id, ownerID string) (*domain.Listing, error) {
	query := `
		UPDATE listings l
		SET status = $1, updated_at = $2
		WHERE l.id = $3 AND l.owner_id = $4
		RETURNING ` + listingColumns

	var l domain.Listing
	err := r.pool.QueryRow(ctx, query, domain.StatusSold, time.Now().UTC(), id, ownerID).Scan(
		&l.ID,
		&l.OwnerID,
		&l.Title,
		&l.Author,
		&l.Publisher,
		&l.Price,
		&l.Condition,
		&l.Description,
		&l.Status,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("mark listing sold: %w", err)
	}

	return &l, nil
}

// Search matches the keyword as a substring of title, author or publisher
// and returns the summary projection. The match is case-sensitive.
func (r *ListingRepository) Search(ctx context.Context, keyword string) ([]domain.ListingSummary, error) {
	query := `
		SELECT id, title, price, created_at
		FROM listings
		WHERE title LIKE $1 OR author LIKE $1 OR publisher LIKE $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, "%"+keyword+"%")
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	defer rows.Close()

	summaries := []domain.ListingSummary{}
	for rows.Next() {
		var s domain.ListingSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Price, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan listing summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listing summary rows: %w", err)
	}

	return summaries, nil
}

// SearchByTitle matches the keyword as a substring of the title and returns
// full listings with media files, newest first.
func (r *ListingRepository) SearchByTitle(ctx context.Context, keyword string) ([]domain.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings l
		WHERE l.title LIKE $1
		ORDER BY l.created_at DESC`

	listings, err := r.queryListings(ctx, query, "%"+keyword+"%")
	if err != nil {
		return nil, fmt.Errorf("search listings by title: %w", err)
	}

	if err := r.attachFiles(ctx, listings); err != nil {
		return nil, err
	}

	return listings, nil
}

// queryListings runs a multi-row listing query and scans the standard column set.
func (r *ListingRepository) queryListings(ctx context.Context, query string, args ...any) ([]domain.Listing, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []domain.Listing{}
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(
			&l.ID,
			&l.OwnerID,
			&l.Title,
			&l.Author,
			&l.Publisher,
			&l.Price,
			&l.Condition,
			&l.Description,
			&l.Status,
			&l.CreatedAt,
			&l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan listing row: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listing rows: %w", err)
	}

	return listings, nil
}

// attachFiles loads the media files for the given listings in one query and
// distributes them in place.
func (r *ListingRepository) attachFiles(ctx context.Context, listings []domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	ids := make([]string, len(listings))
	index := make(map[string]*domain.Listing, len(listings))
	for i := range listings {
		ids[i] = listings[i].ID
		listings[i].Files = []domain.MediaFile{}
		index[listings[i].ID] = &listings[i]
	}

	query := `
		SELECT id, listing_id, file_type, url, created_at
		FROM media_files
		WHERE listing_id = ANY($1)
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("load media files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f domain.MediaFile
		if err := rows.Scan(&f.ID, &f.ListingID, &f.FileType, &f.URL, &f.CreatedAt); err != nil {
			return fmt.Errorf("scan media file row: %w", err)
		}
		if l, ok := index[f.ListingID]; ok {
			l.Files = append(l.Files, f)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate media file rows: %w", err)
	}

	return nil
}

// isForeignKeyViolation checks if the error is a PostgreSQL foreign key
// constraint violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23503")
}

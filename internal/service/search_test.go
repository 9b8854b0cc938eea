package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/domain"
	apperrors "github.com/ShinYou-bin/epilogue-Book-platform/pkg/errors"
)

func newSearchService() (*SearchService, *mockListingRepository) {
	repo := new(mockListingRepository)
	return NewSearchService(repo, newTestLogger(), time.Second), repo
}

func TestSearch_BlankKeyword(t *testing.T) {
	svc, repo := newSearchService()

	for _, keyword := range []string{"", "   ", "\t\n"} {
		_, err := svc.Search(context.Background(), keyword)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "keyword %q", keyword)
	}

	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestSearch_TrimsKeyword(t *testing.T) {
	svc, repo := newSearchService()

	repo.On("Search", mock.Anything, "Go").
		Return([]domain.ListingSummary{{ID: "listing-1", Title: "Go in Action", Price: 18000}}, nil)

	results, err := svc.Search(context.Background(), "  Go  ")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Go in Action", results[0].Title)
}

func TestSearchScoped_UnknownScope(t *testing.T) {
	svc, repo := newSearchService()

	_, err := svc.SearchScoped(context.Background(), "Go", "isbn")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "SearchByTitle", mock.Anything, mock.Anything)
}

func TestSearchScoped_UnsupportedScope(t *testing.T) {
	svc, repo := newSearchService()

	_, err := svc.SearchScoped(context.Background(), "Kennedy", "author")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "SearchByTitle", mock.Anything, mock.Anything)
}

func TestSearchScoped_TitleNewestFirst(t *testing.T) {
	svc, repo := newSearchService()

	newer := domain.Listing{ID: "listing-2", Title: "Go in Action", CreatedAt: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)}
	older := domain.Listing{ID: "listing-1", Title: "Go in Action", CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}

	repo.On("SearchByTitle", mock.Anything, "Go in Action").
		Return([]domain.Listing{newer, older}, nil)

	results, err := svc.SearchScoped(context.Background(), "Go in Action", "title")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "listing-2", results[0].ID)
	assert.True(t, results[0].CreatedAt.After(results[1].CreatedAt))
}

func TestSearch_QueryDeadlineExpiry(t *testing.T) {
	svc, repo := newSearchService()

	repo.On("Search", mock.Anything, "Go").
		Return(nil, fmt.Errorf("query listings: %w", context.DeadlineExceeded))

	_, err := svc.Search(context.Background(), "Go")
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
}

func TestSearchScoped_NoMatchesIsEmptySlice(t *testing.T) {
	svc, repo := newSearchService()

	repo.On("SearchByTitle", mock.Anything, "xyz123notfound").
		Return([]domain.Listing{}, nil)

	results, err := svc.SearchScoped(context.Background(), "xyz123notfound", "title")
	require.NoError(t, err)
	assert.Equal(t, []domain.Listing{}, results)
}

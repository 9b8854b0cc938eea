package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/domain"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/repository"
	apperrors "github.com/ShinYou-bin/epilogue-Book-platform/pkg/errors"
)

// SearchService implements the keyword search surface over listings.
type SearchService struct {
	listings     repository.ListingRepository
	logger       *slog.Logger
	queryTimeout time.Duration
}

// NewSearchService creates a new search service. queryTimeout bounds every
// single search query; zero or negative falls back to the default.
func NewSearchService(listings repository.ListingRepository, logger *slog.Logger, queryTimeout time.Duration) *SearchService {
	if queryTimeout <= 0 {
		queryTimeout = defaultStorageTimeout
	}
	return &SearchService{
		listings:     listings,
		logger:       logger,
		queryTimeout: queryTimeout,
	}
}

// Search matches the keyword across title, author and publisher and returns
// the summary projection. A blank keyword is rejected before any query runs.
func (s *SearchService) Search(ctx context.Context, keyword string) ([]domain.ListingSummary, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, apperrors.InvalidInput("search keyword is required")
	}

	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	summaries, err := s.listings.Search(qctx, keyword)
	if err != nil {
		return nil, callErr("search listings", err)
	}

	return summaries, nil
}

// SearchScoped matches the keyword against a single field named by scope.
// An unrecognized or unsupported scope is an input error, not an empty
// result. No matches is an empty slice.
func (s *SearchService) SearchScoped(ctx context.Context, keyword, scope string) ([]domain.Listing, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, apperrors.InvalidInput("search keyword is required")
	}

	parsed, ok := domain.ParseSearchScope(scope)
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown search scope %q", scope))
	}

	switch parsed {
	case domain.ScopeTitle:
		qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()

		listings, err := s.listings.SearchByTitle(qctx, keyword)
		if err != nil {
			return nil, callErr("search listings by title", err)
		}
		return listings, nil
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("search scope %q is not supported", scope))
	}
}

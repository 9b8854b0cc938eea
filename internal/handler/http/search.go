package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/domain"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/service"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/httputil"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/validator"
)

// SearchHandler handles HTTP requests for the search endpoints.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// SearchRequest is the JSON request body for the multi-field search.
type SearchRequest struct {
	Keyword string `json:"keyword" validate:"required"`
}

// ScopedSearchRequest selects which field the path keyword matches against.
// An absent option means title.
type ScopedSearchRequest struct {
	SearchOption string `json:"search_option"`
}

// Search handles POST /api/v1/posts/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	summaries, err := h.service.Search(r.Context(), req.Keyword)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summaries})
}

// SearchScoped handles POST /api/v1/posts/search/{keyword}.
func (h *SearchHandler) SearchScoped(w http.ResponseWriter, r *http.Request) {
	keyword := chi.URLParam(r, "keyword")

	scope := string(domain.ScopeTitle)
	if r.ContentLength > 0 {
		var req ScopedSearchRequest
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
		if req.SearchOption != "" {
			scope = req.SearchOption
		}
	}

	listings, err := h.service.SearchScoped(r.Context(), keyword, scope)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: listings})
}

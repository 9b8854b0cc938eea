package http

import (
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/domain"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/repository"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/service"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/httputil"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/middleware"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/validator"
)

// ListingHandler handles HTTP requests for listing endpoints.
type ListingHandler struct {
	service *service.ListingService
	logger  *slog.Logger
}

// NewListingHandler creates a new listing HTTP handler.
func NewListingHandler(svc *service.ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateListingRequest is the JSON request body for the simple create.
type CreateListingRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author"`
	Publisher   string `json:"publisher"`
	Price       int64  `json:"price" validate:"gte=0"`
	Condition   string `json:"condition"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url" validate:"required,url"`
}

// ModifyListingRequest is the JSON request body for updating a listing.
// Absent fields are left unchanged.
type ModifyListingRequest struct {
	ID          string  `json:"id" validate:"required,uuid"`
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Publisher   *string `json:"publisher"`
	Price       *int64  `json:"price" validate:"omitempty,gte=0"`
	Condition   *string `json:"condition"`
	Description *string `json:"description"`
}

// DeleteListingRequest is the JSON request body for deleting a listing.
type DeleteListingRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

// --- Handlers ---

// ListAll handles GET /api/v1/posts/list.
func (h *ListingHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.ListAll(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: listings})
}

// ListSelling handles GET /api/v1/posts/list/sale.
func (h *ListingHandler) ListSelling(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, domain.StatusSelling)
}

// ListSold handles GET /api/v1/posts/list/done.
func (h *ListingHandler) ListSold(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, domain.StatusSold)
}

func (h *ListingHandler) listByStatus(w http.ResponseWriter, r *http.Request, status domain.ListingStatus) {
	ownerID := middleware.UserIDFromContext(r.Context())

	listings, err := h.service.ListByOwner(r.Context(), ownerID, status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: listings})
}

// Get handles GET /api/v1/posts/{id}.
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	listing, err := h.service.Get(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: listing})
}

// MarkSold handles POST /api/v1/posts/soldout/{id}.
func (h *ListingHandler) MarkSold(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	ownerID := middleware.UserIDFromContext(r.Context())

	listing, err := h.service.MarkSold(r.Context(), id.String(), ownerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: listing})
}

// UploadImage handles POST /api/v1/posts/img (multipart/form-data). It stores
// one image and returns its URL for a later create call.
func (h *ListingHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	up, cleanup, ok := h.formFile(w, r, "file")
	if !ok {
		return
	}
	defer cleanup()

	ownerID := middleware.UserIDFromContext(r.Context())

	url, err := h.service.StoreImage(r.Context(), ownerID, up)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: map[string]string{"url": url}})
}

// SimpleCreate handles POST /api/v1/posts/upload.
func (h *ListingHandler) SimpleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.CreateListingInput{
		OwnerID:     middleware.UserIDFromContext(r.Context()),
		Title:       req.Title,
		Author:      req.Author,
		Publisher:   req.Publisher,
		Price:       req.Price,
		Condition:   req.Condition,
		Description: req.Description,
	}

	listing, err := h.service.SimpleCreate(r.Context(), input, req.ImageURL)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: listing})
}

// CreateWithMedia handles POST /api/v1/posts/upload/s3 (multipart/form-data).
// Listing fields come as form values, the media batch as repeated "files"
// parts.
func (h *ListingHandler) CreateWithMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10*domain.MaxUploadSize)

	if err := r.ParseMultipartForm(domain.MaxUploadSize); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to parse multipart form: " + err.Error()},
		})
		return
	}

	price := int64(0)
	if v := r.FormValue("price"); v != "" {
		p, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "price must be a valid integer"},
			})
			return
		}
		price = p
	}

	input := &service.CreateListingInput{
		OwnerID:     middleware.UserIDFromContext(r.Context()),
		Title:       r.FormValue("title"),
		Author:      r.FormValue("author"),
		Publisher:   r.FormValue("publisher"),
		Price:       price,
		Condition:   r.FormValue("condition"),
		Description: r.FormValue("description"),
	}

	var (
		uploads []service.MediaUpload
		opened  []multipart.File
	)
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			file, err := header.Open()
			if err != nil {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to open uploaded file: " + err.Error()},
				})
				return
			}
			opened = append(opened, file)

			uploads = append(uploads, service.MediaUpload{
				FileName:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Data:        file,
			})
		}
	}

	listing, err := h.service.CreateWithMedia(r.Context(), input, uploads)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: listing})
}

// Modify handles POST /api/v1/posts/modify.
func (h *ListingHandler) Modify(w http.ResponseWriter, r *http.Request) {
	var req ModifyListingRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ownerID := middleware.UserIDFromContext(r.Context())

	err := h.service.Modify(r.Context(), req.ID, ownerID, repository.UpdateFields{
		Title:       req.Title,
		Author:      req.Author,
		Publisher:   req.Publisher,
		Price:       req.Price,
		Condition:   req.Condition,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": req.ID}})
}

// Delete handles POST /api/v1/posts/delete. The deletion is fully applied
// before the acknowledgement is written.
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteListingRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ownerID := middleware.UserIDFromContext(r.Context())

	if err := h.service.Delete(r.Context(), req.ID, ownerID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": req.ID}})
}

// formFile pulls a single multipart file out of the request. The returned
// cleanup must be called once the upload has been consumed.
func (h *ListingHandler) formFile(w http.ResponseWriter, r *http.Request, field string) (service.MediaUpload, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxUploadSize+(1<<20))

	if err := r.ParseMultipartForm(domain.MaxUploadSize); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to parse multipart form: " + err.Error()},
		})
		return service.MediaUpload{}, nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: field + " is required: " + err.Error()},
		})
		return service.MediaUpload{}, nil, false
	}

	return service.MediaUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        file,
	}, func() { file.Close() }, true
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/service"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/health"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/middleware"
)

// NewRouter creates a chi router with all listing service routes registered.
func NewRouter(
	listingService *service.ListingService,
	searchService *service.SearchService,
	validateToken middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("listing"))
	r.Use(middleware.Tracing("listing-service"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	listingHandler := NewListingHandler(listingService, logger)
	searchHandler := NewSearchHandler(searchService, logger)

	r.Route("/api/v1/posts", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public browse and search
		r.Get("/list", listingHandler.ListAll)
		r.Post("/search", searchHandler.Search)
		r.Post("/search/{keyword}", searchHandler.SearchScoped)
		r.Get("/{id}", listingHandler.Get)

		// Owner-scoped operations
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validateToken))

			r.Get("/list/sale", listingHandler.ListSelling)
			r.Get("/list/done", listingHandler.ListSold)
			r.Post("/soldout/{id}", listingHandler.MarkSold)
			r.Post("/img", listingHandler.UploadImage)
			r.Post("/upload", listingHandler.SimpleCreate)
			r.Post("/upload/s3", listingHandler.CreateWithMedia)
			r.Post("/modify", listingHandler.Modify)
			r.Post("/delete", listingHandler.Delete)
		})
	})

	return r
}

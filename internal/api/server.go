package api

import (
	"net/http"
	"time"

	"github.com/futig/docqa-backend/internal/api/docs"
	documentapi "github.com/futig/docqa-backend/internal/api/document"
	"github.com/futig/docqa-backend/internal/api/middleware"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Version        string
	RequestTimeout time.Duration
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(documentHandler *documentapi.Handler, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)   // Recover from panics
	r.Use(chimiddleware.RequestID)   // Add request ID
	r.Use(middleware.Logger(logger)) // Log requests
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, &entity.HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
		})
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	documentapi.RegisterRoutes(r, documentHandler)

	return r
}

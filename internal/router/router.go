package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imagematch/match-api/internal/handler"
	"github.com/imagematch/match-api/pkg/utils/httputil"
)

// Config carries the toggles of the HTTP router.
type Config struct {
	AuthToken  string
	EnableCORS bool
}

// NewChiRouter initialize the chi.Router with all middlewares and routes.
// The technical endpoints (health, metrics) are mounted outside the shared
// token check so that probes and scrapers need no credentials.
func NewChiRouter(config Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(CustomZapLogger)
	r.Use(middleware.Recoverer)
	if config.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(protected chi.Router) {
		protected.Use(TokenAuthMiddleware(config.AuthToken))

		protected.Post("/add", handler.AddImage)
		protected.Delete("/delete", handler.DeleteImage)
		protected.Post("/search", handler.SearchImage)
		protected.Post("/compare", handler.CompareImages)
		protected.Get("/count", handler.CountImages)
		protected.Post("/count", handler.CountImages)
		protected.Get("/list", handler.ListImages)
		protected.Post("/list", handler.ListImages)
		protected.Get("/ping", handler.Ping)
		protected.Post("/ping", handler.Ping)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, r, map[string]interface{}{"status": "up"})
}

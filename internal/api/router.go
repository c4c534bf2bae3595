package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/petalertfrance/petalert-be/internal/api/handlers"
	"github.com/petalertfrance/petalert-be/internal/auth"
	"github.com/petalertfrance/petalert-be/internal/config"
)

// Handlers bundles the HTTP handlers mounted by the router.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Pets      *handlers.PetHandler
	Alerts    *handlers.AlertHandler
	Geocoding *handlers.GeocodingHandler
	Health    *handlers.HealthHandler
	Feed      *handlers.WebSocketHandler
}

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg *config.Config, authService *auth.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	allowedOrigins := []string{"http://localhost:5173", "http://localhost:5174"}
	if cfg.IsProduction() {
		allowedOrigins = []string{cfg.CORSOrigin}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireAuth := authService.Middleware()

	r.Route("/api", func(r chi.Router) {
		// 100 requests per 15 minutes per client IP, as on the original
		// deployment.
		r.Use(httprate.LimitByIP(100, 15*time.Minute))

		r.Get("/health", h.Health.Get)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.With(requireAuth).Get("/me", h.Auth.GetMe)
		})

		r.Route("/pets", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/my-pets", h.Pets.ListMine)
			r.Post("/", h.Pets.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Pets.Get)
				r.Put("/", h.Pets.Update)
				r.Delete("/", h.Pets.Delete)
			})
		})

		r.Route("/alerts", func(r chi.Router) {
			// Active alerts are public so anyone can help find a lost pet.
			r.Get("/", h.Alerts.ListActive)
			r.Get("/feed", h.Feed.Serve)
			r.With(requireAuth).Get("/my-alerts", h.Alerts.ListMine)
			r.With(requireAuth).Post("/", h.Alerts.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Alerts.Get)
				r.With(requireAuth).Put("/", h.Alerts.Update)
				r.With(requireAuth).Put("/close", h.Alerts.Close)
				r.With(requireAuth).Delete("/", h.Alerts.Delete)
			})
		})

		r.Route("/geocoding", func(r chi.Router) {
			r.Get("/search", h.Geocoding.Search)
			r.Post("/geocode", h.Geocoding.Geocode)
			r.Post("/reverse", h.Geocoding.Reverse)
		})

		// Unmatched API routes echo the requested path.
		r.NotFound(apiNotFound)
	})

	// Uploaded photos are served statically.
	fileServer(r, "/uploads", http.Dir(cfg.UploadDir))

	// The static web client.
	fileServer(r, "/", http.Dir("./web"))

	return r
}

func apiNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "API route not found",
		"path":  r.URL.Path,
	})
}

// fileServer mounts a static file server under path.
func fileServer(r chi.Router, path string, root http.FileSystem) {
	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		rctx := chi.RouteContext(req.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))
		fs.ServeHTTP(w, req)
	})
}

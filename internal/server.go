package internal

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vichambarde/serverroom/internal/auth"
	"github.com/vichambarde/serverroom/internal/cache"
	"github.com/vichambarde/serverroom/internal/config"
	"github.com/vichambarde/serverroom/internal/handlers"
	"github.com/vichambarde/serverroom/internal/stock"
)

//go:embed openapi
var openapiFS embed.FS

type Server struct {
	Router      *chi.Mux
	Store       stock.Store
	Workflow    *stock.Workflow
	Cache       *cache.ItemCache
	JWTManager  *auth.JWTManager
	Credentials *auth.Credentials
	Metrics     *Metrics
	Imports     *handlers.ImportsHandler

	cfg *config.Config
}

// NewServer wires the HTTP routes. itemCache may be nil; metrics defaults to
// a fresh registry when nil.
func NewServer(cfg *config.Config, store stock.Store, workflow *stock.Workflow, itemCache *cache.ItemCache, metrics *Metrics) (*Server, error) {
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
	if err := jwtManager.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("jwt configuration: %w", err)
	}

	creds, err := auth.NewCredentials(cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return nil, err
	}

	if metrics == nil {
		metrics = NewMetrics()
	}

	s := &Server{
		Router:      chi.NewRouter(),
		Store:       store,
		Workflow:    workflow,
		Cache:       itemCache,
		JWTManager:  jwtManager,
		Credentials: creds,
		Metrics:     metrics,
		Imports:     handlers.NewImportsHandler(store.Catalog(), itemCache, cfg.ImportMapping),
		cfg:         cfg,
	}

	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.RealIP)
	s.Router.Use(middleware.Logger)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(newCORS(cfg.CORSAllowedOrigins))

	if cfg.EnableMetrics {
		s.Router.Use(s.Metrics.Middleware())
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router.Get("/dbping", s.dbPing)
	s.mountDocs(s.Router)

	s.Router.Route("/api/form", s.mountFormRoutes)
	// Older form builds post to the root paths.
	s.mountFormRoutes(s.Router)

	s.Router.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", s.adminLogin)
		r.Group(func(r chi.Router) {
			r.Use(auth.AdminOnly(s.JWTManager, s.Credentials))
			s.mountAdminRoutes(r)
		})
	})

	return s, nil
}

// Handler returns the router, wrapped for tracing when enabled.
func (s *Server) Handler() http.Handler {
	if !s.cfg.TracingEnabled {
		return s.Router
	}
	return otelhttp.NewHandler(s.Router, "serverroom",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Close releases the store and cache.
func (s *Server) Close(ctx context.Context) error {
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			log.Printf("[Server] cache close: %v", err)
		}
	}
	if s.Store != nil {
		s.Store.Close()
	}
	return nil
}

func (s *Server) dbPing(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		log.Printf("[Server] db ping: %v", err)
		http.Error(w, "db: unavailable", http.StatusServiceUnavailable)
		return
	}
	if _, err := w.Write([]byte("db: ok")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) mountFormRoutes(r chi.Router) {
	r.Post("/submit", s.submitEntry)
	r.Get("/items", s.listAvailableItems)
}

func (s *Server) mountAdminRoutes(r chi.Router) {
	r.Get("/entries", s.listEntries)
	r.Get("/export", s.exportEntries)
	r.Get("/items", s.listAllItems)
	r.Post("/items", s.addStock)
	r.Post("/items/import", s.Imports.UploadExcel)
	r.Get("/qr", s.formQRCode)
}

// mountDocs serves the OpenAPI document and Swagger UI
func (s *Server) mountDocs(mux *chi.Mux) {
	if !s.cfg.EnableSwagger {
		return
	}

	mux.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		data, err := openapiFS.ReadFile("openapi/openapi.yaml")
		if err != nil {
			http.Error(w, "Failed to read OpenAPI spec", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/x-yaml")
		if _, err := w.Write(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	mux.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(swaggerPage))
	})
}

const swaggerPage = `<!doctype html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Server Room Inventory API - Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css">
    <style>
        body { margin: 0; background: #f7f7f7; }
        .swagger-ui .topbar { background: #1f2937; border-bottom: 3px solid #3b82f6; }
        .swagger-ui .topbar .download-url-wrapper { display: none; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: '/openapi.yaml',
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [SwaggerUIBundle.presets.apis],
                tryItOutEnabled: true
            });
        };
    </script>
</body>
</html>`

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] encode response: %v", err)
	}
}

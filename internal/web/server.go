// Package web provides the HTTP server and handlers for the PropScrub UI and
// its JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/propscrub/internal/config"
	"github.com/JonMunkholm/propscrub/internal/core"
	"github.com/JonMunkholm/propscrub/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the scrubbing application.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	stopCleanup chan struct{}
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service:     service,
		cfg:         cfg,
		router:      chi.NewRouter(),
		stopCleanup: make(chan struct{}),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(timeoutUnlessLongRunning(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
	s.router.Use(middleware.CORS(s.cfg.Security.AllowedOrigins))

	if s.cfg.Rate.Enabled {
		limiter := middleware.NewRateLimiter(s.cfg.Rate.RequestsPerMinute)
		go limiter.Cleanup(s.stopCleanup)
		s.router.Use(limiter.Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/", s.handleIndex)
	s.router.Get("/health", s.handleHealth)

	// Imports and scrubs are expensive, so they share a tighter bucket.
	heavy := func(next http.Handler) http.Handler { return next }
	if s.cfg.Rate.Enabled {
		uploads := middleware.NewRateLimiter(s.cfg.Rate.UploadLimit)
		go uploads.Cleanup(s.stopCleanup)
		heavy = uploads.Middleware
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))

		r.With(heavy).Post("/import", s.handleImport)

		r.Route("/session/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleResetSession)
			r.Get("/mapping/suggest", s.handleSuggestMapping)
			r.With(heavy).Post("/scrub", s.handleStartScrub)
			r.Get("/progress", s.handleScrubProgress)
			r.Post("/cancel", s.handleCancelScrub)
			r.Get("/rows", s.handleRows)
			r.Put("/settings", s.handleUpdateSettings)
			r.Get("/export.csv", s.handleExportCSV)
			r.Post("/export/ghl", s.handleExportGHL)
			r.Post("/template", s.handleSaveSessionTemplate)
		})

		// Import templates
		r.Get("/templates", s.handleListTemplates)
		r.Get("/templates/match", s.handleMatchTemplates)
		r.Post("/templates", s.handleCreateTemplate)
		r.Get("/templates/{id}", s.handleGetTemplate)
		r.Put("/templates/{id}", s.handleUpdateTemplate)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)

		// Balance and history
		r.Get("/balance", s.handleBalance)
		r.Post("/balance/purchase", s.handlePurchase)
		r.Get("/history", s.handleHistory)

		// Integrations
		r.HandleFunc("/validatePhone", s.handleValidatePhone)
		r.Post("/exportToGHL", s.handleExportToGHL)
		r.Get("/ghl/options", s.handleGHLOptions)
		r.Post("/ghl/setup-fields", s.handleGHLSetupFields)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.stopCleanup:
	default:
		close(s.stopCleanup)
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// timeoutUnlessLongRunning applies chi's Timeout to everything except the
// progress stream, which stays open for the whole scrub, and CRM exports,
// which are paced one contact at a time.
func timeoutUnlessLongRunning(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	timeout := chimw.Timeout(d)
	return func(next http.Handler) http.Handler {
		limited := timeout(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isLongRunning(r) {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

func isLongRunning(r *http.Request) bool {
	p := r.URL.Path
	return strings.HasSuffix(p, "/progress") ||
		strings.HasSuffix(p, "/export/ghl") ||
		strings.HasSuffix(p, "/exportToGHL") ||
		strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
			}

			// Control referrer information
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

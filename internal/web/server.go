// Package web provides the HTTP server and handlers for the UDI editor.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/UDIEditor/internal/config"
	"github.com/JonMunkholm/UDIEditor/internal/core"
	"github.com/JonMunkholm/UDIEditor/internal/metrics"
	mw "github.com/JonMunkholm/UDIEditor/internal/web/middleware"
	"github.com/JonMunkholm/UDIEditor/internal/websocket"
)

// Server is the HTTP server for the editor.
type Server struct {
	service *core.Service
	cfg     *config.Config
	hub     *websocket.Hub
	metrics *metrics.Registry

	limiter       *mw.RateLimiter
	uploadLimiter *mw.RateLimiter

	router *chi.Mux
	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithHub serves live change events on /ws.
func WithHub(h *websocket.Hub) Option {
	return func(s *Server) { s.hub = h }
}

// WithMetrics records HTTP metrics and serves /metrics.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Server) { s.metrics = reg }
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Rate.Enabled {
		s.limiter = mw.NewRateLimiter(cfg.Rate.RequestsPerMinute)
		s.uploadLimiter = mw.NewRateLimiter(cfg.Rate.UploadLimit)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.Use(mw.Metrics(s.metrics))
	}
	if s.limiter != nil {
		s.router.Use(s.limiter.Middleware)
	}
	s.router.Use(s.securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
	// Long-lived connections stay outside the timeout and compression group.
	if s.hub != nil {
		s.router.Handle("/ws", s.hub)
	}

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
		r.Use(middleware.Compress(5))

		uploads := r.With(s.uploadLimit)

		// Pages
		r.Get("/", s.handleEditor)
		r.Get("/history/{id}", s.handleHistoryPage)

		// Form actions, redirect back to the editor
		r.Post("/cell/edit", s.handleCellEditForm)
		r.Post("/cell/commit", s.handleCellCommitForm)
		r.Post("/cell/cancel", s.handleCellCancelForm)
		r.Post("/records/{id}/lock", s.handleToggleLockForm)
		r.Post("/validate", s.handleValidateForm)
		r.Post("/lock-all", s.handleLockAllForm(true))
		r.Post("/unlock-all", s.handleLockAllForm(false))
		r.Post("/filters", s.handleFilterForm)
		r.Post("/filters/clear", s.handleClearFiltersForm)
		r.Post("/filters/{column}/clear", s.handleClearFilterForm)
		r.Post("/bulk-edit", s.handleBulkEditForm)
		r.Post("/import", s.handleImportForm)
		r.Post("/clear", s.handleClearForm)
		r.Post("/history/clear", s.handleClearHistoryForm)
		r.Post("/ingest/cancel", s.handleCancelIngestForm)
		uploads.Post("/upload", s.handleUploadForm)
		uploads.Post("/demo", s.handleDemoForm)

		r.Route("/api", func(r chi.Router) {
			if s.cfg.Security.RequireAPIKey {
				r.Use(mw.APIKeyAuth(s.cfg.Security))
			}

			// Records
			r.Get("/records", s.handleSnapshot)
			r.Get("/records/{id}", s.handleGetRecord)
			r.Get("/columns", s.handleColumns)
			r.Get("/summary", s.handleSummary)
			r.Post("/records/validate", s.handleValidateAll)
			r.Post("/records/lock-all", s.handleSetAllLocked(true))
			r.Post("/records/unlock-all", s.handleSetAllLocked(false))
			r.Post("/records/{id}/lock", s.handleToggleLock)

			// Cell editing
			r.Get("/edit", s.handleCursor)
			r.Post("/edit/start", s.handleStartEdit)
			r.Put("/edit/pending", s.handleSetPending)
			r.Post("/edit/commit", s.handleCommitEdit)
			r.Post("/edit/cancel", s.handleCancelEdit)

			// Filters
			r.Get("/filters", s.handleListFilters)
			r.Post("/filters", s.handleApplyFilter)
			r.Delete("/filters", s.handleClearFilters)
			r.Delete("/filters/{column}", s.handleClearFilter)
			r.Get("/filters/{column}/values", s.handleUniqueValues)

			// Bulk edit
			r.Post("/bulk-edit", s.handleBulkEdit)
			r.Get("/bulk-edit/preview", s.handleBulkEditPreview)

			// Ingest
			r.With(s.uploadLimit).Post("/upload", s.handleUpload)
			r.With(s.uploadLimit).Post("/demo", s.handleDemo)
			r.Get("/ingest", s.handleIngestStatus)
			r.Get("/ingest/{id}", s.handleIngestStatusOf)
			r.Delete("/ingest", s.handleCancelIngest)

			// Import, export, clear
			r.Post("/import", s.handleImport)
			r.Get("/export/json", s.handleExportJSON)
			r.Get("/export/xlsx", s.handleExportXLSX)
			r.Post("/clear", s.handleClear)

			// Upload history
			r.Get("/history", s.handleListHistory)
			r.Get("/history/{id}", s.handleGetHistory)
			r.Delete("/history", s.handleClearHistory)

			// GMDN sheet
			r.Get("/gmdn", s.handleListGMDN)
			r.Post("/gmdn", s.handleAddGMDN)
			r.Post("/gmdn/{id}/edit", s.handleEditGMDN)
			r.Put("/gmdn/save", s.handleSaveGMDN)
			r.Post("/gmdn/cancel", s.handleCancelGMDN)
			r.Delete("/gmdn/{id}", s.handleDeleteGMDN)
			r.Post("/gmdn/{id}/lock", s.handleToggleGMDNLock)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	sc := s.cfg.Server
	s.server = &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}

	slog.Info("starting server", "addr", sc.Addr())
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// RunMaintenance sweeps idle rate limiter entries until ctx is done.
func (s *Server) RunMaintenance(ctx context.Context) {
	if s.limiter == nil {
		return
	}
	go s.uploadLimiter.Cleanup(ctx, time.Minute)
	s.limiter.Cleanup(ctx, time.Minute)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// uploadLimit applies the stricter per-IP limit to ingest endpoints.
func (s *Server) uploadLimit(next http.Handler) http.Handler {
	if s.uploadLimiter == nil {
		return next
	}
	return s.uploadLimiter.Middleware(next)
}

const contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:; img-src 'self' data:; font-src 'self'"

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"records": s.service.Summary().Total,
		"ingest":  s.service.IngestStatus().Phase,
		"slots":   s.service.IngestCapacity(),
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// applied is the response for operations that may be a no-op.
type applied struct {
	Applied bool `json:"applied"`
}

// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"famspend/internal/cache"
	"famspend/internal/ledger"
	applog "famspend/internal/log"
)

type Server struct {
	http.Server

	svc           *ledger.Service
	logger        *applog.Logger
	rateLimiter   *rateLimiter
	summaryCache  *cache.LRUCache[ledger.Summary]
	defaultFamily string

	cleanupCancel context.CancelFunc
	shutdownOnce  sync.Once
}

type ServerOption func(*Server)

// WithDefaultFamily sets the family used when a request names none, for
// single-family deployments.
func WithDefaultFamily(familyID string) ServerOption {
	return func(s *Server) { s.defaultFamily = familyID }
}

func NewServer(addr string, svc *ledger.Service, logger *applog.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		svc:          svc,
		logger:       logger.WithComponent(applog.ComponentHTTP),
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRUCache[ledger.Summary](256, 5*time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}

	cleanupCtx, cancel := context.WithCancel(context.Background())
	s.cleanupCancel = cancel
	s.summaryCache.StartCleanup(cleanupCtx, 10*time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/entries", s.handleCreateEntry)
	mux.HandleFunc("GET /api/entries", s.handleListEntries)
	mux.HandleFunc("PUT /api/entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/sync/status", s.handleSyncStatus)
	mux.HandleFunc("POST /api/sync/replay", s.handleReplay)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	handler := securityHeaders(s.withRequestID(s.withRateLimit(mux)))
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// InvalidateFamily drops all cached summaries for a family. Called locally
// after writes and by the event consumer when another process commits.
func (s *Server) InvalidateFamily(familyID string) {
	s.invalidateFamily(familyID)
}

func (s *Server) invalidateFamily(familyID string) {
	if familyID == "" {
		return
	}
	s.summaryCache.DeletePrefix(familyID + ":")
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.allow(clientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = generateRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops background cleanup before draining in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.cleanupCancel != nil {
			s.cleanupCancel()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Package server exposes the tracker over HTTP. Read routes and client
// actions are open; developer actions sit behind HTTP basic auth with the
// configured credential pair. The engine is not goroutine-safe, so every
// handler serializes through one mutex.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"wt/internal/auth"
	"wt/internal/workflow"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
	requestTimeout = 25 * time.Second
)

// Server wraps the workflow engine behind an HTTP API.
type Server struct {
	engine    *workflow.Engine
	creds     auth.Credentials
	attachDir string
	log       *zap.Logger

	mu sync.Mutex
}

// New creates a server over the given engine. The credential pair guards the
// developer routes; when it is empty those routes refuse all requests.
func New(engine *workflow.Engine, creds auth.Credentials, attachDir string, log *zap.Logger) *Server {
	return &Server{
		engine:    engine,
		creds:     creds,
		attachDir: attachDir,
		log:       log,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", s.handleHealth)

	r.Get("/items", s.handleListItems)
	r.Get("/items/{id}", s.handleGetItem)
	r.Post("/items", s.handleCreateItem)

	r.Get("/export/csv", s.handleExportCSV)
	r.Get("/export/json", s.handleExportJSON)
	r.Get("/attachments/{name}", s.handleAttachment)

	// Client actions need no credential: the client side of the workflow is
	// driven by whoever holds the URL.
	r.Post("/items/{id}/approve", s.handleApprove)
	r.Post("/items/{id}/request-changes", s.handleRequestChanges)
	r.Post("/items/{id}/comments", s.handleClientComment)
	r.Post("/items/mark-paid", s.handleMarkPaid)

	// Developer actions.
	r.Group(func(r chi.Router) {
		r.Use(s.requireDev)

		r.Post("/items/{id}/start", s.handleStart)
		r.Post("/items/{id}/reopen", s.handleReopen)
		r.Post("/items/{id}/complete", s.handleComplete)
		r.Post("/items/{id}/respond", s.handleRespond)
		r.Post("/items/{id}/dev-comments", s.handleDevComment)
		r.Post("/items/confirm-payment", s.handleConfirmPayment)
		r.Delete("/items/{id}", s.handleDelete)
		r.Patch("/items/{id}", s.handleEdit)
	})

	return r
}

// ListenAndServe serves the API on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	s.log.Info("server starting", zap.String("addr", addr))

	return srv.ListenAndServe()
}

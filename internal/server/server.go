// Package server implements the msgdesk backend daemon: a thin HTTP row API
// over the messages table. It deliberately has no notion of dedup keys or
// client correlation ids; all merge semantics live in the console.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tOgg1/msgdesk/internal/db"
	"github.com/tOgg1/msgdesk/internal/logging"
)

// Config holds daemon settings.
type Config struct {
	// Addr is the listen address, e.g. :8000.
	Addr string

	// DBPath is the SQLite database file path.
	DBPath string

	// DefaultTable is used when a request names no table.
	DefaultTable string
}

// Server is the daemon HTTP server.
type Server struct {
	cfg    Config
	store  *db.DB
	repo   *db.MessageRepository
	logger zerolog.Logger
	http   *http.Server
}

// New creates a Server over an opened database.
func New(cfg Config, store *db.DB) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}
	if cfg.DefaultTable == "" {
		cfg.DefaultTable = "messages"
	}
	s := &Server{
		cfg:    cfg,
		store:  store,
		repo:   db.NewMessageRepository(store),
		logger: logging.Component("server"),
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes builds the router with all middleware applied.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/db-test", s.handleDBTest).Methods(http.MethodPost)
	r.HandleFunc("/api/messages/query", s.handleQuery).Methods(http.MethodPost)
	r.HandleFunc("/api/messages/send", s.handleSend).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.Use(requestIDMiddleware)
	r.Use(s.accessLogMiddleware)
	r.Use(metricsMiddleware)

	return r
}

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.cfg.Addr).Msg("daemon listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("daemon shutting down")
	return s.http.Shutdown(ctx)
}

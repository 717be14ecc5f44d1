// Package server is the HTTP/JSON API layer. It frames requests and
// responses; all rules live in the session manager and game engine.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/liarsdeck/liarsdeck/internal/session"
)

// Server serves the game API plus the static web interface.
type Server struct {
	sessions  *session.Manager
	logger    *log.Logger
	staticDir string
	http      *http.Server
}

// Option customises a Server.
type Option func(*Server)

// WithStaticDir serves files from dir at the root path. Empty disables
// static serving.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// NewServer creates an API server for one game.
func NewServer(addr string, sessions *session.Manager, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		logger:   logger.WithPrefix("server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.http = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	return s
}

// Routes builds the router. Exposed so tests can drive handlers through
// httptest without a listener.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/game/join", s.handleJoin).Methods(http.MethodPost)
	r.HandleFunc("/game/start", s.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/game/play", s.handlePlay).Methods(http.MethodPost)
	r.HandleFunc("/game/challenge", s.handleChallenge).Methods(http.MethodPost)
	r.HandleFunc("/game/reset", s.handleReset).Methods(http.MethodPost)
	r.HandleFunc("/game/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	}
	return r
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("API server listening", "addr", s.http.Addr, "game", s.sessions.GameID())
	return s.http.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

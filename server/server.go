// Package server exposes a running simulation over HTTP: control endpoints,
// state and history queries, and live updates over WebSocket and SSE.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/drawsim/sim"
	"github.com/inference-sim/drawsim/sim/history"
)

// DefaultMaxUploadBytes bounds the size of an uploaded draw history.
const DefaultMaxUploadBytes = 10 << 20

// Engine is the simulation surface the server drives. *sim.Controller implements it.
type Engine interface {
	Play()
	Pause()
	Reset()
	LoadData(in io.Reader) error
	Snapshot() sim.Snapshot
	Logs(since int) []string
	Subscribe(buffer int) (<-chan sim.Update, func())
}

// Config holds server configuration
type Config struct {
	Addr           string
	Engine         Engine
	History        history.Store // optional
	MaxUploadBytes int64
	AllowedOrigins []string
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            *logrus.Entry
	engine         Engine
	history        history.Store
	maxUploadBytes int64
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		router:         chi.NewRouter(),
		log:            logrus.WithField("component", "server"),
		engine:         cfg.Engine,
		history:        cfg.History,
		maxUploadBytes: cfg.MaxUploadBytes,
	}

	s.setupMiddleware(cfg.AllowedOrigins)
	s.setupRoutes()

	// No WriteTimeout: stream connections stay open.
	s.server = &http.Server{
		Addr:        cfg.Addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Handler returns the root handler, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/state", s.handleState)
			r.Post("/play", s.handlePlay)
			r.Post("/pause", s.handlePause)
			r.Post("/reset", s.handleReset)
			r.Post("/data", s.handleLoadData)
			r.Get("/generations", s.handleGenerations)
			r.Get("/logs", s.handleLogs)

			r.Route("/runs", func(r chi.Router) {
				r.Get("/", s.handleListRuns)
				r.Get("/{runID}/generations", s.handleRunGenerations)
			})
		})

		r.Get("/stream", s.handleWebSocket)
		r.Get("/events", s.handleEvents)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.WithField("addr", s.server.Addr).Info("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}

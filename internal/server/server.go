// Package server provides the HTTP server for the abhinaya cursor controller.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ayusman/abhinaya/internal/config"
	"github.com/ayusman/abhinaya/internal/server/api"
)

const shutdownTimeout = 5 * time.Second

// Config holds the server configuration. Routes whose backing component is
// nil are not mounted.
type Config struct {
	StaticDir  string
	Controller api.Controller
	Settings   *config.Live
	Events     api.EventSource
	Frames     FrameSource
	Logger     zerolog.Logger
}

// Server represents the HTTP server for the abhinaya application.
type Server struct {
	config Config
	router *chi.Mux
	hub    *Hub
	logger zerolog.Logger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger.With().Str("component", "server").Logger()
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		hub:    NewHub(logger),
		logger: logger,
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/frames", s.hub.ServeHTTP)

		if s.config.Controller != nil {
			api.NewControlHandler(s.config.Controller, s.logger).RegisterHTTP(r)
		}
		if s.config.Settings != nil {
			api.NewSettingsHandler(s.config.Settings).RegisterHTTP(r)
		}
		if s.config.Events != nil {
			api.NewEventsHandler(s.config.Events, s.logger).RegisterHTTP(r)
		}
		if s.config.Frames != nil {
			r.Get("/stream", NewStreamHandler(s.config.Frames).ServeHTTP)
		}
	})

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hub returns the websocket hub that broadcasts frame results.
func (s *Server) Hub() *Hub {
	return s.hub
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uptime":  time.Since(s.start).Round(time.Second).String(),
		"clients": s.hub.Clients(),
	})
}

// Run serves on addr until ctx is cancelled, then shuts down. Streaming
// requests end with ctx.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.hub.Close()
	err := srv.Shutdown(shutdownCtx)
	if e := <-errCh; e != nil && !errors.Is(e, http.ErrServerClosed) && err == nil {
		err = e
	}
	return err
}

// requestLogger logs each request through zerolog.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			// Streams and websockets run for the whole session.
			if r.URL.Path == "/api/stream" || r.URL.Path == "/api/frames" {
				return
			}
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/panelcore/internal/config"
	"github.com/saltyorg/panelcore/internal/core"
	"github.com/saltyorg/panelcore/internal/database"
	"github.com/saltyorg/panelcore/internal/web/handlers"
	"github.com/saltyorg/panelcore/internal/web/middleware"
)

//go:embed templates/*
var templatesFS embed.FS

// Options configures the web server
type Options struct {
	Port       int
	Bind       string
	AllowedNet *net.IPNet
}

// Server represents the web server
type Server struct {
	manager  *database.Manager
	reporter core.Reporter
	opts     Options
	router   *chi.Mux
	handlers *handlers.Handlers
}

// NewServer creates a new web server
func NewServer(manager *database.Manager, reporter core.Reporter, opts Options) (*Server, error) {
	errorPage, err := template.ParseFS(templatesFS, "templates/dberror.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse error page template: %w", err)
	}

	s := &Server{
		manager:  manager,
		reporter: reporter,
		opts:     opts,
		router:   chi.NewRouter(),
		handlers: handlers.New(reporter, errorPage),
	}
	s.setupRoutes()
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(chimiddleware.RequestID)
	// AllowSubnet must come BEFORE RealIP so we check the actual connection source
	r.Use(middleware.AllowSubnet(s.opts.AllowedNet))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.GetTimeouts().HTTPRequest))

	r.Get("/healthz", s.handlers.Health)

	r.Route("/api/core", func(r chi.Router) {
		r.Use(middleware.Database(s.manager))

		r.Get("/version", s.handlers.Version)
		r.Get("/apiversion", s.handlers.APIVersion)
		r.Get("/update", s.handlers.Update)
		r.Get("/system", s.handlers.System)
	})
}

// Start starts the web server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	var addr string
	if s.opts.Bind != "" {
		addr = fmt.Sprintf("%s:%d", s.opts.Bind, s.opts.Port)
	} else {
		addr = fmt.Sprintf(":%d", s.opts.Port)
	}

	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
		// ReadTimeout is for reading request body
		ReadTimeout:  15 * time.Second,
		WriteTimeout: config.GetTimeouts().HTTPRequest + 5*time.Second,
		// IdleTimeout for keep-alive connections between requests
		IdleTimeout: 120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Package server wires the application together and owns its lifecycle.
//
// This is the composition root: New builds the storage, services, handlers
// and middleware in one place, and Start runs the HTTP server until a
// shutdown signal, then drains in-flight requests and closes the database.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/herwingx/secret-santa/internal/auth"
	"github.com/herwingx/secret-santa/internal/config"
	"github.com/herwingx/secret-santa/internal/handler"
	"github.com/herwingx/secret-santa/internal/metrics"
	"github.com/herwingx/secret-santa/internal/middleware"
	"github.com/herwingx/secret-santa/internal/repository/jsonfile"
	sqliteRepo "github.com/herwingx/secret-santa/internal/repository/sqlite"
	"github.com/herwingx/secret-santa/internal/service"
)

// Server holds the router and the resources it must release on shutdown.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	limiter *middleware.RateLimiter
}

// New assembles the full dependency chain:
//
//	sqlite.DB + jsonfile.Directory
//	  → RaffleService / AdminService (+ auth.Guard, metrics.Collector)
//	    → RaffleHandler / AdminHandler
//	      → chi routes
//
// Each layer receives interfaces, not concretions, so everything below the
// handlers is swappable in tests.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	// Roster file: create it from the seeded shuffle on first run, then the
	// file itself is the source of truth.
	if err := jsonfile.Bootstrap(cfg.ParticipantsFile, jsonfile.DefaultNames, cfg.ShuffleSeed); err != nil {
		return nil, fmt.Errorf("bootstrapping roster: %w", err)
	}
	directory := jsonfile.New(cfg.ParticipantsFile)

	if dir := filepath.Dir(cfg.DBPath); cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	admin, err := auth.NewAdmin(cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring admin credential: %w", err)
	}

	// Session tokens are optional; without JWT_SECRET the admin endpoints
	// simply require the body password on every call.
	var tokens *auth.TokenService
	if cfg.JWTSecret != "" {
		tokens, err = auth.NewTokenService(cfg.JWTSecret)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring session tokens: %w", err)
		}
	} else {
		logger.Warn("JWT_SECRET not set, admin session login is disabled")
	}
	guard := auth.NewGuard(admin, tokens)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	raffleService := service.NewRaffleService(directory, db, db, collector, logger)
	adminService := service.NewAdminService(directory, db, db, guard, collector, logger)

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		limiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
	s.setupRoutes(raffleService, adminService, guard, registry)
	return s, nil
}

func (s *Server) setupRoutes(
	raffleService *service.RaffleService,
	adminService *service.AdminService,
	guard *auth.Guard,
	registry *prometheus.Registry,
) {
	// Global middleware, in order: request IDs for tracing, real client IPs
	// (the rate limiter keys on them), panic recovery, then our logger.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	raffleHandler := handler.NewRaffleHandler(raffleService, s.logger)
	adminHandler := handler.NewAdminHandler(adminService, guard, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware())

		r.Get("/participants", raffleHandler.HandleParticipants)
		r.Get("/status/{id}", raffleHandler.HandleStatus)
		r.Post("/spin", raffleHandler.HandleSpin)
		r.Post("/reset", raffleHandler.HandleReset)

		r.Route("/admin", func(r chi.Router) {
			if guard.SessionsEnabled() {
				r.Post("/login", adminHandler.HandleLogin)
			}
			r.Post("/matches", adminHandler.HandleMatches)
			r.Post("/add-participant", adminHandler.HandleAddParticipant)
			r.Post("/history", adminHandler.HandleHistory)
		})
	})

	// Prometheus scrapes bypass the rate limiter; a scraper on a tight
	// interval must not contend with party traffic.
	s.router.Handle("/metrics", metrics.Handler(registry))

	// Optionally serve the built wheel client from this process, with an
	// index.html fallback so client-side routes survive a refresh.
	if s.config.StaticDir != "" {
		s.router.NotFound(spaHandler(s.config.StaticDir))
	}
}

// spaHandler serves files from dir, falling back to index.html for paths
// that don't exist on disk.
func spaHandler(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, give in-flight requests 30 seconds, stop the
// rate limiter's cleanup goroutine, and close the database so the WAL is
// flushed and the file lock released.
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.limiter.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("roster", s.config.ParticipantsFile),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the wiring layer: it connects handlers, middleware and
// routes, and owns the process lifecycle.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → sqlstore.Open          → *sqlstore.Store (all three repositories)
//	              → catalog.New            → service.CatalogSource
//	Store + PasswordService + Metrics      → UserService, FavoriteService, ExerciseService
//	services + TokenService                → handlers → routes
//
// This is the "composition root" pattern: every dependency is built in one
// place (New/newServer) rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/xjohnsondev/primal-backend/internal/auth"
	"github.com/xjohnsondev/primal-backend/internal/catalog"
	"github.com/xjohnsondev/primal-backend/internal/config"
	"github.com/xjohnsondev/primal-backend/internal/handler"
	"github.com/xjohnsondev/primal-backend/internal/metrics"
	"github.com/xjohnsondev/primal-backend/internal/middleware"
	"github.com/xjohnsondev/primal-backend/internal/repository/sqlstore"
	"github.com/xjohnsondev/primal-backend/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection. It is closed when Start returns
// so pending WAL writes are flushed and file locks released.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   *sqlstore.Store
	metrics *metrics.Metrics
	tokens  *auth.TokenService
}

// New opens the database, builds the catalog client and wires every route.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	source, err := catalog.New(catalog.Config{
		URL:         cfg.Catalog.URL,
		APIKey:      cfg.Catalog.APIKey,
		APIHost:     cfg.Catalog.APIHost,
		BearerToken: cfg.Catalog.BearerToken,
		Limit:       cfg.Catalog.Limit,
		Timeout:     cfg.Catalog.Timeout,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating catalog client: %w", err)
	}

	s, err := newServer(cfg, store, source, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// newServer wires an already open store. Tests use it to swap the catalog
// source for a stub.
func newServer(cfg *config.Config, store *sqlstore.Store, source service.CatalogSource, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		metrics: metrics.New(),
		tokens:  tokens,
	}
	s.setupRoutes(source)
	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                     → database ping
//	GET    /metrics                     → Prometheus exposition
//	POST   /auth/token                  → login
//	POST   /auth/register               → self-registration (never admin)
//	POST   /users                       → create user            [elevated]
//	GET    /users                       → list users             [authenticated]
//	PATCH  /users                       → update caller          [authenticated]
//	GET    /users/{username}            → get user               [self or elevated]
//	PATCH  /users/{username}            → update user            [self or elevated]
//	DELETE /users/{username}            → delete user            [self or elevated]
//	GET    /exercises                   → distinct targets
//	GET    /exercises/all               → whole catalog
//	GET    /exercises/{id}              → one exercise
//	GET    /exercises/target/{target}   → exercises for a target
//	POST   /exercises/data/refresh      → reload catalog         [elevated]
//	POST   /exercises/favorite          → toggle a favorite      [authenticated]
//	POST   /exercises/user-favorite     → list favorites         [authenticated]
//
// MIDDLEWARE ORDER MATTERS:
// RequestID first so every later layer can log it, then RealIP, then our
// logger, then Recoverer. Recoverer turns a panic into a 500 before control
// returns to the logger, so panicking requests are still logged and counted.
func (s *Server) setupRoutes(source service.CatalogSource) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger, s.metrics))
	s.router.Use(chimiddleware.Recoverer)

	passwords := auth.NewPasswordService(s.config.BcryptCost)
	userService := service.NewUserService(s.store, passwords, s.metrics, s.logger)
	favoriteService := service.NewFavoriteService(s.store, s.store, s.store, s.metrics, s.logger)
	exerciseService := service.NewExerciseService(s.store, source, s.metrics, s.logger)

	authHandler := handler.NewAuthHandler(userService, s.tokens, s.logger)
	userHandler := handler.NewUserHandler(userService, s.tokens, s.logger)
	exerciseHandler := handler.NewExerciseHandler(exerciseService, favoriteService, userService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.HandleToken)
		r.Post("/register", authHandler.HandleRegister)
	})

	s.router.Route("/users", func(r chi.Router) {
		r.Use(auth.Authenticate(s.tokens))

		r.With(auth.Elevated()).Post("/", userHandler.HandleCreate)
		r.Get("/", userHandler.HandleList)
		r.Patch("/", userHandler.HandleUpdateSelf)

		r.Route("/{username}", func(r chi.Router) {
			r.Use(auth.SelfOrElevated("username"))
			r.Get("/", userHandler.HandleGet)
			r.Patch("/", userHandler.HandleUpdate)
			r.Delete("/", userHandler.HandleDelete)
		})
	})

	s.router.Route("/exercises", func(r chi.Router) {
		r.Get("/", exerciseHandler.HandleTargets)
		r.Get("/all", exerciseHandler.HandleList)
		r.Get("/target/{target}", exerciseHandler.HandleByTarget)
		r.Get("/{id}", exerciseHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(s.tokens))
			r.Post("/favorite", exerciseHandler.HandleToggleFavorite)
			r.Post("/user-favorite", exerciseHandler.HandleUserFavorites)
			r.With(auth.Elevated()).Post("/data/refresh", exerciseHandler.HandleRefresh)
		})
	})
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the database connection
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", string(s.store.Dialect())),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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

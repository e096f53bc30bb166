// Package server is the composition root: it builds the services and
// handlers on top of an opened store, mounts the routes and runs the HTTP
// server until SIGINT or SIGTERM.
//
// DEPENDENCY FLOW:
//
//	main.go: config → zap logger → repository.Store
//	server.New: Store → services → handlers → chi router
//
// Handlers never touch the store and services never touch HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/auth"
	"github.com/sakif/devmarket/internal/config"
	"github.com/sakif/devmarket/internal/handler"
	"github.com/sakif/devmarket/internal/jobboard"
	"github.com/sakif/devmarket/internal/metrics"
	"github.com/sakif/devmarket/internal/middleware"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
	"github.com/sakif/devmarket/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and the store. The store is closed when Start
// returns.
type Server struct {
	router    *chi.Mux
	config    *config.Config
	store     repository.Store
	logger    *zap.Logger
	metrics   *metrics.Metrics
	passwords *auth.PasswordService
}

// Option customises a Server before its routes are built.
type Option func(*Server)

// WithPasswordService replaces the default bcrypt cost. Tests use it to
// keep hashing fast.
func WithPasswordService(p *auth.PasswordService) Option {
	return func(s *Server) { s.passwords = p }
}

// New wires every service and handler onto store.
func New(cfg *config.Config, store repository.Store, logger *zap.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		store:     store,
		logger:    logger,
		metrics:   metrics.New(),
		passwords: auth.NewPasswordService(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes mounts the middleware chain and every route.
//
// MIDDLEWARE ORDER:
//  1. RequestID, RealIP
//  2. Logger and Metrics
//  3. Recoverer, inside them so a panic is logged and counted as a 500
//  4. CORS, which answers preflight requests itself
//
// Route gates are applied per group: public, authenticated, and
// authenticated plus a role.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	// === Services ===
	activitySvc := service.NewActivityService(s.store.Activities(), s.logger.Named("activity"))
	authSvc := service.NewAuthService(s.store.Users(), tokens, s.passwords, s.metrics, s.logger.Named("auth"))
	userSvc := service.NewUserService(s.store.Users(), s.passwords, s.logger.Named("user"))
	projectSvc := service.NewProjectService(
		s.store.Projects(), s.store.Users(), activitySvc, s.metrics, s.logger.Named("project"), s.config.MaxFileBytes,
	)
	hackathonSvc := service.NewHackathonService(s.store.Hackathons(), s.metrics, s.logger.Named("hackathon"))
	postSvc := service.NewPostService(
		s.store.Jobs(), s.store.Internships(), s.store.Problems(), s.metrics, s.logger.Named("post"),
	)
	board := jobboard.New(s.config.JobBoardBaseURL, s.config.JobBoardAppID, s.config.JobBoardAppKey, s.logger.Named("jobboard"))

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}

	// === Handlers ===
	hlog := s.logger.Named("http")
	authH := handler.NewAuthHandler(authSvc, github, s.config.TokenTTL, hlog)
	userH := handler.NewUserHandler(authSvc, userSvc, activitySvc, hlog)
	projectH := handler.NewProjectHandler(projectSvc, hlog, s.config.MaxUploadBytes, s.config.MaxFileBytes)
	hackathonH := handler.NewHackathonHandler(hackathonSvc, hlog)
	jobsH := handler.NewJobsHandler(board, postSvc, hlog)
	activityH := handler.NewActivityHandler(activitySvc, hlog)
	healthH := handler.NewHealthHandler(s.store, hlog)

	// === Global middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger.Named("access")))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins: s.config.CORSAllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions, http.MethodHead,
		},
		AllowedHeaders: []string{
			"Authorization", "Content-Type", "X-Requested-With", "Accept", "Origin",
			"Access-Control-Request-Method", "Access-Control-Request-Headers",
		},
		AllowCredentials: true,
		MaxAge:           3600,
	}).Handler)

	s.router.Get("/healthz", healthH.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	requireAuth := auth.RequireAuth(tokens)
	role := auth.RequireRole

	s.router.Route("/api", func(r chi.Router) {
		// === Public ===
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))

			r.Post("/auth/register", authH.HandleRegister)
			r.Post("/auth/login", authH.HandleLogin)
			r.Post("/auth/logout", authH.HandleLogout)
			if github != nil {
				r.Get("/auth/github/login", authH.HandleGitHubLogin)
				r.Get("/auth/github/callback", authH.HandleGitHubCallback)
			}

			r.Post("/users/buyer", userH.HandleRegisterBuyer)
			r.Get("/users/public/{userId}", userH.HandleGetPublic)

			r.Get("/projects/public/{id}", projectH.HandleGetPublic)
			r.Get("/projects/public/{id}/details", projectH.HandleDetails)
			r.Post("/projects/public/{id}/view", projectH.HandleRecordView)
			r.Get("/projects/public/{projectId}/files/{filename}/download", projectH.HandleDownload)

			r.Get("/hackathons", hackathonH.HandleList)
			r.Get("/hackathons/{id}", hackathonH.HandleGet)
		})

		// === Authenticated ===
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/users/current", userH.HandleCurrent)
			r.Get("/users/buyers/current", userH.HandleCurrentBuyer)
			r.Get("/users/profile", userH.HandleProfile)
			r.Put("/users/profile", userH.HandleUpdateProfile)
			r.Get("/users/{userId}", userH.HandleGet)

			r.Get("/projects", projectH.HandleList)
			r.Get("/projects/search", projectH.HandleSearch)

			r.Get("/jobs", jobsH.HandleSearchJobs)
			r.Get("/jobs/internships", jobsH.HandleSearchInternships)

			r.Get("/activities/user/{userId}", activityH.HandleUser)
			r.Get("/activities/user/{userId}/streaks", activityH.HandleUserStreaks)
			r.Get("/activities/user/{userId}/action/{action}", activityH.HandleUserAction)
			r.Get("/activities/project/{projectId}", activityH.HandleProject)
			r.Get("/activities/project/{projectId}/action/{action}", activityH.HandleProjectAction)

			// ADMIN
			r.Group(func(r chi.Router) {
				r.Use(role(model.RoleAdmin))
				r.Post("/users/admin", userH.HandleRegisterAdmin)
				r.Put("/users/{userId}/status", userH.HandleUpdateStatus)
				r.Get("/users/developers", userH.HandleDevelopers)
				r.Get("/users/buyers", userH.HandleBuyers)
				r.Get("/users/recent-activities", userH.HandleRecentActivities)
			})

			// DEVELOPER
			r.Group(func(r chi.Router) {
				r.Use(role(model.RoleDeveloper))
				r.Post("/projects", projectH.HandleCreate)
				r.Get("/projects/developer/{email}", projectH.HandleListByDeveloper)
				r.Post("/hackathons/{id}/register", hackathonH.HandleRegister)
			})

			// BUYER
			r.Group(func(r chi.Router) {
				r.Use(role(model.RoleBuyer))
				r.Post("/projects/{projectId}/purchase", projectH.HandlePurchase)
				r.Post("/hackathons", hackathonH.HandleCreate)
				r.Post("/jobs/post-job", jobsH.HandlePostJob)
				r.Post("/jobs/post-internship", jobsH.HandlePostInternship)
				r.Post("/jobs/post-problem", jobsH.HandlePostProblem)
				r.Get("/jobs/manage-posts", jobsH.HandleManagePosts)
				r.Delete("/jobs/manage-posts/{postId}", jobsH.HandleDeletePost)
			})

			r.With(role(model.RoleDeveloper, model.RoleAdmin)).Put("/projects/{id}", projectH.HandleUpdate)
			r.With(role(model.RoleDeveloper, model.RoleAdmin)).Get("/projects/{id}", projectH.HandleGet)
			r.With(role(model.RoleBuyer, model.RoleAdmin)).Put("/hackathons/{id}", hackathonH.HandleUpdate)
		})
	})

	return nil
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests
// for up to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.store.Close(ctx); err != nil {
			s.logger.Error("closing store", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     zap.NewStdLog(s.logger.Named("http.server")),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			zap.Int("port", s.config.Port),
			zap.String("store", s.config.StoreDriver),
			zap.Bool("github", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}

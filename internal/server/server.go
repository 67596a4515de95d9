package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ecoloopkenya/ecoloop/internal/handler"
	"github.com/ecoloopkenya/ecoloop/internal/model"
	"github.com/ecoloopkenya/ecoloop/internal/openapi"
	"github.com/ecoloopkenya/ecoloop/internal/server/middleware"
	"github.com/ecoloopkenya/ecoloop/internal/service"
	"github.com/ecoloopkenya/ecoloop/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RateLimit       int
	RateWindow      time.Duration
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		RateLimit:       100,
		RateWindow:      time.Minute,
	}
}

// Server is the top-level HTTP server for the marketplace. It owns the
// Chi router, the store and the authentication service.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	authSvc    *service.AuthService
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, st *store.Store, authSvc *service.AuthService, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		authSvc: authSvc,
		logger:  logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))
	if s.cfg.RateLimit > 0 {
		r.Use(middleware.RateLimit(s.cfg.RateLimit, s.cfg.RateWindow))
	}

	authHandler := handler.NewAuthHandler(s.store, s.authSvc, s.logger)
	sellerHandler := handler.NewSellerHandler(s.store, s.logger)
	productHandler := handler.NewProductHandler(s.store, s.logger)
	orderHandler := handler.NewOrderHandler(s.store, s.logger)
	messageHandler := handler.NewMessageHandler(s.store, s.logger)
	adminHandler := handler.NewAdminHandler(s.store, s.authSvc, s.logger)

	// --- Health checks (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	// --- OpenAPI spec (no auth required) ---
	r.Get("/openapi.json", openapi.Handler())

	r.Route("/api", func(r chi.Router) {

		// Public endpoints. Login and registration get a tighter
		// per-endpoint budget on top of the global limit.
		r.Group(func(r chi.Router) {
			if s.cfg.RateLimit > 0 {
				r.Use(middleware.LoginRateLimit(s.cfg.RateLimit/5+1, s.cfg.RateWindow))
			}
			r.Post("/user/register", authHandler.RegisterBuyer)
			r.Post("/seller/register", authHandler.RegisterSeller)
			r.Post("/user/login", authHandler.Login)
			r.Post("/admin/setup", adminHandler.Setup)
		})

		r.Get("/products", productHandler.List)
		r.Get("/products/{productId}", productHandler.Get)

		// Authenticated endpoints.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.authSvc))

			r.Get("/user/session", authHandler.Session)
			r.Post("/user/logout", authHandler.Logout)

			r.Route("/seller", func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleSeller))
				r.Get("/profile", sellerHandler.Profile)
				r.Get("/statistics", sellerHandler.Statistics)
				r.Get("/notifications", sellerHandler.Notifications)
				r.Post("/reset-password", sellerHandler.ResetPassword)
				r.Get("/products", sellerHandler.ListProducts)
				r.Post("/products", sellerHandler.CreateProduct)
			})

			r.Post("/orders", orderHandler.Create)
			r.Get("/orders", orderHandler.List)

			r.Route("/messages", func(r chi.Router) {
				r.Get("/conversations", messageHandler.Conversations)
				r.Get("/conversation/{otherEmail}", messageHandler.Conversation)
				r.Post("/send", messageHandler.Send)
				r.Post("/read/{conversationId}", messageHandler.MarkRead)
				r.Get("/unread", messageHandler.Unread)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin))

				r.Get("/sellers", adminHandler.Sellers)
				r.Post("/sellers/{sellerId}/approve", adminHandler.ApproveSeller)
				r.Post("/sellers/{sellerId}/reject", adminHandler.RejectSeller)

				r.Get("/products", adminHandler.Products)
				r.Post("/products/{productId}/approve", adminHandler.ApproveProduct)
				r.Post("/products/{productId}/reject", adminHandler.RejectProduct)

				r.Get("/users", adminHandler.Users)
				r.Get("/orders", adminHandler.Orders)
				r.Post("/orders/{orderId}/status", adminHandler.UpdateOrderStatus)

				r.Get("/stats", adminHandler.Stats)
				r.Get("/settings", adminHandler.Settings)
				r.Post("/settings", adminHandler.UpdateSettings)
				r.Get("/activity", adminHandler.Activity)
				r.Post("/migrate-passwords", adminHandler.MigratePasswords)
			})
		})
	})

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the store is
// reachable, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]string{"store": "ok"}

	if err := s.store.Ping(r.Context()); err != nil {
		checks["store"] = "error: " + err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before closing the store.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in background goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := s.store.Close(); err != nil {
		s.logger.Warn("store close failed", "error", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

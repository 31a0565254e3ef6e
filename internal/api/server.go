package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/mailpanel/internal/api/handler"
	mw "github.com/edvin/mailpanel/internal/api/middleware"
	"github.com/edvin/mailpanel/internal/config"
	"github.com/edvin/mailpanel/internal/core"
	"github.com/edvin/mailpanel/internal/mailcow"
)

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	pool     *pgxpool.Pool
	cfg      *config.Config
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, cfg *config.Config) *Server {
	gateway := mailcow.NewClient(cfg.MailcowBaseURL(), cfg.MailcowAPIKey)
	credKey := cfg.CredentialsKeyBytes()
	services := core.NewServices(pool, gateway, credKey, cfg.JWTSecret, cfg.JWTIssuer, logger)

	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
		pool:     pool,
		cfg:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(chimw.Recoverer)
	s.router.Use(mw.Metrics)
	s.router.Use(mw.CORS(s.cfg.CORSOrigins))
}

func (s *Server) setupRoutes() {
	// Prometheus metrics
	s.router.Handle("/metrics", promhttp.Handler())

	// Health checks
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Public: account creation, login and the pricing catalog.
		auth := handler.NewAuth(s.services.Auth)
		r.Post("/auth/register", auth.Register)
		r.Post("/auth/login", auth.Login)

		pkg := handler.NewPackage(s.services.Package)
		r.Get("/packages", pkg.List)
		r.Get("/packages/{id}", pkg.Get)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(s.services.Auth))

			me := handler.NewMe(s.services.User)
			r.Get("/me", me.Get)
			r.Get("/me/stats", me.Stats)

			order := handler.NewOrder(s.services.Order)
			r.Post("/orders", order.Create)
			r.Get("/orders", order.ListMine)

			domain := handler.NewDomain(s.services.Domain)
			r.Get("/domains", domain.List)
			r.Post("/domains", domain.Create)
			r.Get("/domains/{id}", domain.Get)
			r.Put("/domains/{id}", domain.Update)
			r.Delete("/domains/{id}", domain.Delete)

			resources := handler.NewResources(s.services.Mailbox)
			r.Get("/domains/{id}/resources", resources.List)
			r.Post("/domains/{id}/mailboxes", resources.CreateMailbox)
			r.Delete("/domains/{id}/mailboxes/{address}", resources.DeleteMailbox)
			r.Post("/domains/{id}/aliases", resources.CreateAlias)
			r.Delete("/domains/{id}/aliases/{aliasId}", resources.DeleteAlias)

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireAdmin)

				r.Post("/packages", pkg.Create)
				r.Put("/packages/{id}", pkg.Update)
				r.Delete("/packages/{id}", pkg.Delete)

				users := handler.NewUsers(s.services.User)
				r.Get("/admin/users", users.List)

				r.Get("/admin/orders", order.ListAll)
				r.Post("/admin/orders/{id}/approve", order.Approve)
				r.Post("/admin/orders/{id}/reject", order.Reject)
			})
		})
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

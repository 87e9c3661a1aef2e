// File: internal/infra/http/server.go
package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/config"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/adapter"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/usecase"
)

// Server carries the API surface: public listing/checkout endpoints, the
// provider webhook, and the JWT-protected admin ledger.
type Server struct {
	cfg         *config.Config
	listingUC   usecase.ListingUseCase
	pricingUC   usecase.PricingUseCase
	checkoutUC  usecase.CheckoutUseCase
	reconcileUC usecase.ReconcileUseCase
	provider    adapter.CheckoutProvider
	auth        *AuthManager
	ledger      *LedgerHandler
	server      *http.Server
	log         *zerolog.Logger
}

func NewServer(
	cfg *config.Config,
	listingUC usecase.ListingUseCase,
	pricingUC usecase.PricingUseCase,
	checkoutUC usecase.CheckoutUseCase,
	reconcileUC usecase.ReconcileUseCase,
	provider adapter.CheckoutProvider,
	auth *AuthManager,
	ledger *LedgerHandler,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "HTTPServer").Logger()
	return &Server{
		cfg:         cfg,
		listingUC:   listingUC,
		pricingUC:   pricingUC,
		checkoutUC:  checkoutUC,
		reconcileUC: reconcileUC,
		provider:    provider,
		auth:        auth,
		ledger:      ledger,
		log:         &l,
	}
}

// RegisterRoutes mounts every route on the given router. Separated from Start
// so tests can drive the mux directly with httptest.
func (s *Server) RegisterRoutes(r *chi.Mux) {
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/tiers", s.handleTiers)

		r.Post("/listings", s.handleCreateListing)
		r.Get("/listings/{id}", s.handleGetListing)
		r.Post("/listings/{id}/checkout", s.handleCheckout)
		r.Post("/listings/{id}/upgrade", s.handleUpgrade)

		r.Post("/webhooks/{provider}", s.handleWebhook)

		r.Post("/admin/login", s.handleAdminLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)
			r.Get("/admin/listings/{id}/payments", s.ledger.handleListingPayments)
			r.Get("/admin/payments/pending", s.ledger.handleStalePending)
			r.Post("/admin/listings/{id}/archive", s.handleArchiveListing)
		})
	})
}

func (s *Server) Start() error {
	r := chi.NewRouter()
	s.RegisterRoutes(r)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler: r,
	}
	s.log.Info().Int("port", s.cfg.Server.Port).Msg("HTTP server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

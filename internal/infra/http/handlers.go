// File: internal/infra/http/handlers.go
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
)

type tierResponse struct {
	Tier   string `json:"tier"`
	Amount int64  `json:"amount"`
	Price  string `json:"price"`
}

type listingResponse struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Tier        string     `json:"tier"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type checkoutResponse struct {
	PaymentID   string `json:"payment_id"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	Price       string `json:"price"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

func toListingResponse(l *model.Listing) listingResponse {
	return listingResponse{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		Title:       l.Title,
		Status:      string(l.Status),
		Tier:        string(l.Tier),
		PublishedAt: l.PublishedAt,
		ExpiresAt:   l.ExpiresAt,
		PaidAt:      l.PaidAt,
		CreatedAt:   l.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps sentinel domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrIneligibleUpgrade):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrProviderDown):
		http.Error(w, "payment provider unavailable", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	prices := s.pricingUC.Tiers()
	items := make([]tierResponse, 0, len(prices))
	for _, tp := range prices {
		items = append(items, tierResponse{
			Tier:   string(tp.Tier),
			Amount: tp.Amount,
			Price:  model.FormatAmount(tp.Amount),
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Items     []tierResponse `json:"items"`
		CycleDays int            `json:"cycle_days"`
	}{Items: items, CycleDays: s.pricingUC.CycleDays()})
}

type createListingRequest struct {
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	listing, err := s.listingUC.CreateDraft(r.Context(), req.OwnerID, req.Title)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingResponse(listing))
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.listingUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

type checkoutRequest struct {
	PayerID string `json:"payer_id"`
	Tier    string `json:"tier"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	s.startPayment(w, r, false)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	s.startPayment(w, r, true)
}

func (s *Server) startPayment(w http.ResponseWriter, r *http.Request, upgrade bool) {
	listingID := chi.URLParam(r, "id")
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	tier, err := model.ParseTier(req.Tier)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		p   *model.PaymentRecord
		url string
	)
	if upgrade {
		p, url, err = s.checkoutUC.InitiateUpgrade(r.Context(), listingID, req.PayerID, tier)
	} else {
		p, url, err = s.checkoutUC.InitiateCheckout(r.Context(), listingID, req.PayerID, tier)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Development shortcut: with the in-memory provider there is no external
	// checkout page, so the completion event is applied synchronously.
	if s.cfg.Runtime.Dev {
		if settler, ok := s.provider.(completionSettler); ok && p.ProviderPaymentID != nil {
			if ev, found := settler.CompletionEvent(*p.ProviderPaymentID); found {
				if _, err := s.reconcileUC.HandleEvent(r.Context(), ev); err != nil {
					s.log.Error().Err(err).Str("payment_id", p.ID).Msg("dev settlement failed")
				}
			}
		}
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		PaymentID:   p.ID,
		Status:      string(p.Status),
		Amount:      p.Amount,
		Price:       model.FormatAmount(p.Amount),
		CheckoutURL: url,
	})
}

// completionSettler is implemented by providers that can settle their own
// sessions without an external round trip.
type completionSettler interface {
	CompletionEvent(sessionID string) (*model.PaymentEvent, bool)
}

func (s *Server) handleArchiveListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.listingUC.Archive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

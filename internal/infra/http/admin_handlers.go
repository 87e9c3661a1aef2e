// File: internal/infra/http/admin_handlers.go
package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/repository"
)

// LedgerHandler serves the read-only payment ledger for operators.
type LedgerHandler struct {
	payments repository.PaymentRepository
	log      *zerolog.Logger
}

func NewLedgerHandler(payments repository.PaymentRepository, logger *zerolog.Logger) *LedgerHandler {
	l := logger.With().Str("component", "LedgerHandler").Logger()
	return &LedgerHandler{payments: payments, log: &l}
}

type paymentResponse struct {
	ID                string     `json:"id"`
	ListingID         string     `json:"listing_id"`
	PayerID           string     `json:"payer_id"`
	Amount            int64      `json:"amount"`
	Price             string     `json:"price"`
	Tier              string     `json:"tier"`
	Kind              string     `json:"kind"`
	Provider          string     `json:"provider"`
	ProviderPaymentID *string    `json:"provider_payment_id,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

func toPaymentResponse(p *model.PaymentRecord) paymentResponse {
	return paymentResponse{
		ID:                p.ID,
		ListingID:         p.ListingID,
		PayerID:           p.PayerID,
		Amount:            p.Amount,
		Price:             model.FormatAmount(p.Amount),
		Tier:              string(p.Tier),
		Kind:              string(p.Kind),
		Provider:          p.Provider,
		ProviderPaymentID: p.ProviderPaymentID,
		Status:            string(p.Status),
		CreatedAt:         p.CreatedAt,
		CompletedAt:       p.CompletedAt,
	}
}

func (h *LedgerHandler) handleListingPayments(w http.ResponseWriter, r *http.Request) {
	records, err := h.payments.ListByListing(r.Context(), nil, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	items := make([]paymentResponse, 0, len(records))
	for _, p := range records {
		items = append(items, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, struct {
		Items []paymentResponse `json:"items"`
	}{Items: items})
}

// handleStalePending lists pending records older than ?age (default 30m), the
// manual reconciliation queue.
func (h *LedgerHandler) handleStalePending(w http.ResponseWriter, r *http.Request) {
	age := 30 * time.Minute
	if raw := r.URL.Query().Get("age"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			http.Error(w, "invalid age", http.StatusBadRequest)
			return
		}
		age = parsed
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.payments.ListPendingOlderThan(r.Context(), nil, time.Now().Add(-age), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	items := make([]paymentResponse, 0, len(records))
	for _, p := range records {
		items = append(items, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, struct {
		Items []paymentResponse `json:"items"`
	}{Items: items})
}

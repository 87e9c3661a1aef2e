// File: internal/infra/http/webhook.go
package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/infra/metrics"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/usecase"
)

const (
	signatureHeader  = "X-Webhook-Signature"
	maxWebhookBody   = 64 << 10 // 64 KiB
	outcomeRejected  = "rejected"
	outcomeMalformed = "malformed"
)

// handleWebhook receives at-least-once provider deliveries. The contract with
// the provider's retry machinery: 2xx acknowledges (including duplicates and
// benign anomalies), 400 rejects deliveries that can never succeed, 5xx asks
// for a retry.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	if providerName != s.provider.Name() {
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}

	ev, err := s.provider.ParseWebhook(body, r.Header.Get(signatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSignatureInvalid):
			metrics.IncReconciliation(outcomeRejected)
			s.log.Warn().Str("provider", providerName).Msg("webhook rejected: bad signature")
			http.Error(w, "invalid signature", http.StatusBadRequest)
		case errors.Is(err, domain.ErrMalformedEvent):
			metrics.IncReconciliation(outcomeMalformed)
			s.log.Warn().Err(err).Str("provider", providerName).Msg("webhook rejected: malformed payload")
			http.Error(w, "malformed payload", http.StatusBadRequest)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Server.WebhookTimeout)
	defer cancel()

	res, err := s.reconcileUC.HandleEvent(ctx, ev)
	if res != nil {
		metrics.IncReconciliation(string(res.Outcome))
	}
	if err != nil {
		// Unmatched and transient failures both come back as 5xx so the
		// provider redelivers once the pending record lands.
		http.Error(w, "reconciliation failed", http.StatusInternalServerError)
		return
	}

	if res.Outcome == usecase.OutcomeApplied {
		metrics.IncPayment(string(model.PaymentStatusCompleted))
		metrics.AddPaymentRevenue(res.Payment.Amount)
		switch res.Payment.Kind {
		case model.PaymentKindInitial:
			metrics.IncListingPublished(string(res.Payment.Tier))
		case model.PaymentKindUpgrade:
			metrics.IncListingUpgraded(string(res.Payment.Tier))
		}
	}

	w.WriteHeader(http.StatusOK)
}

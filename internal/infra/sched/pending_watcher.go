package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/repository"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/infra/metrics"
)

// PendingWatcher surfaces payments that have sat pending past the stale
// threshold. It never mutates them; abandoned checkouts are a support
// decision, not an automatic one.
type PendingWatcher struct {
	interval   time.Duration
	staleAfter time.Duration
	payments   repository.PaymentRepository
	log        *zerolog.Logger
}

func NewPendingWatcher(interval, staleAfter time.Duration, payments repository.PaymentRepository, logger *zerolog.Logger) *PendingWatcher {
	l := logger.With().Str("component", "PendingWatcher").Logger()
	return &PendingWatcher{
		interval:   interval,
		staleAfter: staleAfter,
		payments:   payments,
		log:        &l,
	}
}

func (w *PendingWatcher) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting pending payment watcher")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping pending payment watcher")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *PendingWatcher) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.payments.ListPendingOlderThan(ctx, nil, cutoff, 500)
	if err != nil {
		w.log.Error().Err(err).Msg("pending watcher query failed")
		return
	}
	metrics.SetPendingStalePayments(len(stale))
	for _, p := range stale {
		w.log.Warn().
			Str("payment_id", p.ID).
			Str("listing_id", p.ListingID).
			Str("amount", model.FormatAmount(p.Amount)).
			Time("created_at", p.CreatedAt).
			Msg("payment pending past stale threshold")
	}
}

package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/infra/metrics"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/usecase"
)

// ExpiryWorker periodically flips published listings past their paid window.
type ExpiryWorker struct {
	interval  time.Duration
	listingUC usecase.ListingUseCase
	log       *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, listingUC usecase.ListingUseCase, logger *zerolog.Logger) *ExpiryWorker {
	l := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval:  interval,
		listingUC: listingUC,
		log:       &l,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.listingUC.ExpireDue(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry worker error")
			}
			if n > 0 {
				metrics.IncListingsExpired(n)
				w.log.Info().Int64("count", n).Msg("expired listings demoted")
			}
		}
	}
}

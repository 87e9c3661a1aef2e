// File: internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/adapter"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/repository"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

// WebhookDeduper is an optional fast-path cache of already-processed provider
// event ids. It only short-circuits work; the guarded database update remains
// the idempotency authority.
type WebhookDeduper interface {
	Seen(ctx context.Context, provider, eventID string) bool
	MarkSeen(ctx context.Context, provider, eventID string)
}

// ReconcileOutcome classifies what a delivery did, for logging and metrics at
// the transport layer.
type ReconcileOutcome string

const (
	OutcomeApplied    ReconcileOutcome = "applied"    // payment completed, listing transitioned
	OutcomeDuplicate  ReconcileOutcome = "duplicate"  // already completed, no-op
	OutcomeIgnored    ReconcileOutcome = "ignored"    // irrelevant event type
	OutcomeIneligible ReconcileOutcome = "ineligible" // stale upgrade lost the race
	OutcomeUnmatched  ReconcileOutcome = "unmatched"  // no payment record resolved
	OutcomeError      ReconcileOutcome = "error"
)

// ReconcileResult reports the outcome plus the affected records when a
// transition was applied.
type ReconcileResult struct {
	Outcome ReconcileOutcome
	Payment *model.PaymentRecord
	Listing *model.Listing
}

type ReconcileUseCase interface {
	// HandleEvent turns an at-least-once provider notification into an
	// at-most-once lifecycle transition. A non-nil error means the delivery
	// should be retried by the provider; benign conditions (duplicates,
	// irrelevant event types, stale upgrades) return a result and nil.
	HandleEvent(ctx context.Context, ev *model.PaymentEvent) (*ReconcileResult, error)
}

type reconcileUC struct {
	payments  repository.PaymentRepository
	listings  repository.ListingRepository
	tm        repository.TransactionManager
	dedup     WebhookDeduper   // may be nil
	notifier  adapter.Notifier // may be nil
	cycleDays int
	log       *zerolog.Logger
}

func NewReconcileUseCase(
	payments repository.PaymentRepository,
	listings repository.ListingRepository,
	tm repository.TransactionManager,
	dedup WebhookDeduper,
	notifier adapter.Notifier,
	cycleDays int,
	logger *zerolog.Logger,
) *reconcileUC {
	l := logger.With().Str("component", "ReconcileUC").Logger()
	return &reconcileUC{
		payments:  payments,
		listings:  listings,
		tm:        tm,
		dedup:     dedup,
		notifier:  notifier,
		cycleDays: cycleDays,
		log:       &l,
	}
}

func (u *reconcileUC) HandleEvent(ctx context.Context, ev *model.PaymentEvent) (*ReconcileResult, error) {
	if ev == nil {
		return &ReconcileResult{Outcome: OutcomeError}, domain.ErrInvalidArgument
	}
	evLog := u.log.With().
		Str("provider", ev.Provider).
		Str("event_id", ev.EventID).
		Str("provider_payment_id", ev.ProviderPaymentID).
		Str("listing_id", ev.ListingID).
		Logger()

	if ev.Type != model.EventTypePaymentCompleted {
		evLog.Info().Str("event_type", ev.RawType).Msg("ignoring non-completion event")
		return &ReconcileResult{Outcome: OutcomeIgnored}, nil
	}

	if u.dedup != nil && ev.EventID != "" && u.dedup.Seen(ctx, ev.Provider, ev.EventID) {
		evLog.Info().Msg("duplicate delivery suppressed by event cache")
		return &ReconcileResult{Outcome: OutcomeDuplicate}, nil
	}

	var (
		payment *model.PaymentRecord
		listing *model.Listing
		applied bool
	)

	// Mark-completed and the lifecycle transition are one transaction: a crash
	// between the two halves must never be observable.
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByProviderPaymentID(ctx, tx, ev.Provider, ev.ProviderPaymentID)
		if errors.Is(err, domain.ErrNotFound) && ev.ListingID != "" {
			// The provider id may not have been persisted before the webhook
			// raced ahead; fall back to the most recent pending record.
			p, err = u.payments.FindPendingForListing(ctx, tx, ev.ListingID)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: provider=%s payment_id=%s listing_id=%s amount=%s",
				domain.ErrReconciliationFail, ev.Provider, ev.ProviderPaymentID, ev.ListingID, model.FormatAmount(ev.Amount))
		}
		if err != nil {
			return err
		}
		payment = p

		if p.Status == model.PaymentStatusCompleted {
			// Duplicate delivery: acknowledge, do not re-apply.
			return nil
		}
		if p.Status != model.PaymentStatusPending {
			return fmt.Errorf("%w: completed event for %s payment %s", domain.ErrInvalidTransition, p.Status, p.ID)
		}

		l, err := u.listings.FindByID(ctx, tx, p.ListingID)
		if err != nil {
			return err
		}
		listing = l

		// Re-validate upgrade eligibility at apply time: a concurrent upgrade
		// may have raised the tier since this checkout was quoted.
		if p.Kind == model.PaymentKindUpgrade && p.Tier.Rank() <= l.Tier.Rank() {
			return fmt.Errorf("%w: payment %s targets %s but listing %s is already %s",
				domain.ErrIneligibleUpgrade, p.ID, p.Tier, l.ID, l.Tier)
		}

		now := time.Now()
		ok, err := u.payments.MarkCompletedIfPending(ctx, tx, p.ID, ev.ProviderPaymentID, now)
		if err != nil {
			return err
		}
		if !ok {
			// Another delivery completed it between our read and the guarded
			// update; nothing left to do.
			return nil
		}
		if err := p.MarkCompleted(ev.ProviderPaymentID, now); err != nil {
			return err
		}

		switch p.Kind {
		case model.PaymentKindInitial:
			err = l.ApplyInitialPayment(p, now, u.cycleDays)
		case model.PaymentKindUpgrade:
			err = l.ApplyUpgradePayment(p, now, u.cycleDays)
		default:
			err = fmt.Errorf("%w: payment kind %q", domain.ErrInvalidArgument, p.Kind)
		}
		if err != nil {
			return err
		}

		if err := u.listings.Save(ctx, tx, l); err != nil {
			return err
		}
		applied = true
		return nil
	})

	switch {
	case err == nil:
		if u.dedup != nil && ev.EventID != "" {
			u.dedup.MarkSeen(ctx, ev.Provider, ev.EventID)
		}
		if !applied {
			evLog.Info().Msg("duplicate delivery, payment already completed")
			return &ReconcileResult{Outcome: OutcomeDuplicate, Payment: payment}, nil
		}
		evLog.Info().
			Str("payment_id", payment.ID).
			Str("kind", string(payment.Kind)).
			Str("tier", string(listing.Tier)).
			Str("amount", model.FormatAmount(payment.Amount)).
			Msg("payment applied to listing")
		if u.notifier != nil {
			// Fire-and-forget, outside the transactional core.
			u.notifier.PaymentCompleted(ctx, listing, payment)
		}
		return &ReconcileResult{Outcome: OutcomeApplied, Payment: payment, Listing: listing}, nil

	case errors.Is(err, domain.ErrIneligibleUpgrade):
		// The race loser. Close the ledger entry and surface the anomaly for
		// manual reconciliation; retrying the delivery cannot succeed.
		u.failStalePayment(ctx, payment)
		evLog.Error().Err(err).Msg("stale upgrade rejected at apply time, manual reconciliation required")
		return &ReconcileResult{Outcome: OutcomeIneligible, Payment: payment, Listing: listing}, nil

	case errors.Is(err, domain.ErrInvalidTransition):
		evLog.Error().Err(err).Msg("event targets a payment outside the pending state")
		return &ReconcileResult{Outcome: OutcomeError, Payment: payment}, nil

	case errors.Is(err, domain.ErrReconciliationFail):
		evLog.Error().Err(err).Msg("no payment record matched completed event")
		return &ReconcileResult{Outcome: OutcomeUnmatched}, err

	default:
		evLog.Error().Err(err).Msg("reconciliation transaction failed")
		return &ReconcileResult{Outcome: OutcomeError}, err
	}
}

// failStalePayment closes a pending record whose upgrade lost the race, in its
// own transaction; leaving it pending forever would hide the support case.
func (u *reconcileUC) failStalePayment(ctx context.Context, p *model.PaymentRecord) {
	if p == nil {
		return
	}
	if err := u.payments.UpdateStatus(ctx, nil, p.ID, model.PaymentStatusFailed); err != nil {
		u.log.Error().Err(err).Str("payment_id", p.ID).Msg("failed to close stale payment")
	}
}

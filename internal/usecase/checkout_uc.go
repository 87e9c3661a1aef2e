// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/adapter"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/repository"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutUseCase interface {
	// InitiateCheckout starts the initial payment for a draft listing and
	// returns the pending record plus the provider redirect URL.
	InitiateCheckout(ctx context.Context, listingID, payerID string, tier model.Tier) (*model.PaymentRecord, string, error)
	// InitiateUpgrade starts a prorated tier upgrade for a published listing,
	// gated by the tier eligibility check.
	InitiateUpgrade(ctx context.Context, listingID, payerID string, target model.Tier) (*model.PaymentRecord, string, error)
}

type checkoutUC struct {
	listings repository.ListingRepository
	payments repository.PaymentRepository
	pricing  PricingUseCase
	provider adapter.CheckoutProvider
	log      *zerolog.Logger
}

func NewCheckoutUseCase(
	listings repository.ListingRepository,
	payments repository.PaymentRepository,
	pricing PricingUseCase,
	provider adapter.CheckoutProvider,
	logger *zerolog.Logger,
) *checkoutUC {
	l := logger.With().Str("component", "CheckoutUC").Logger()
	return &checkoutUC{listings: listings, payments: payments, pricing: pricing, provider: provider, log: &l}
}

func (u *checkoutUC) InitiateCheckout(ctx context.Context, listingID, payerID string, tier model.Tier) (*model.PaymentRecord, string, error) {
	if !tier.Valid() {
		return nil, "", fmt.Errorf("%w: tier %q", domain.ErrInvalidArgument, tier)
	}
	listing, err := u.listings.FindByID(ctx, nil, listingID)
	if err != nil {
		return nil, "", err
	}
	if listing.Status != model.ListingStatusDraft {
		return nil, "", fmt.Errorf("%w: listing %s is %s, only drafts can be published", domain.ErrInvalidState, listing.ID, listing.Status)
	}

	amount := u.pricing.PriceOf(tier)
	return u.createPending(ctx, listing, payerID, tier, model.PaymentKindInitial, amount)
}

func (u *checkoutUC) InitiateUpgrade(ctx context.Context, listingID, payerID string, target model.Tier) (*model.PaymentRecord, string, error) {
	if !target.Valid() {
		return nil, "", fmt.Errorf("%w: tier %q", domain.ErrInvalidArgument, target)
	}
	listing, err := u.listings.FindByID(ctx, nil, listingID)
	if err != nil {
		return nil, "", err
	}
	if listing.Status != model.ListingStatusPublished {
		return nil, "", fmt.Errorf("%w: listing %s is %s, only published listings can upgrade", domain.ErrInvalidState, listing.ID, listing.Status)
	}
	if !u.pricing.CanUpgrade(listing.Tier, target) {
		return nil, "", fmt.Errorf("%w: listing %s is already at tier %s", domain.ErrIneligibleUpgrade, listing.ID, listing.Tier)
	}

	remaining := model.RemainingDays(time.Now(), listing.ExpiresAt, u.pricing.CycleDays())
	amount, err := u.pricing.UpgradePrice(listing.Tier, target, remaining)
	if err != nil {
		return nil, "", err
	}
	return u.createPending(ctx, listing, payerID, target, model.PaymentKindUpgrade, amount)
}

// createPending opens the provider session first and persists the pending
// ledger entry after; a provider failure must leave no local state behind.
func (u *checkoutUC) createPending(ctx context.Context, listing *model.Listing, payerID string, tier model.Tier, kind model.PaymentKind, amount int64) (*model.PaymentRecord, string, error) {
	session, err := u.provider.CreateCheckout(ctx, adapter.CheckoutRequest{
		ListingID:   listing.ID,
		Tier:        tier,
		Amount:      amount,
		Description: fmt.Sprintf("%s payment for listing %q (%s tier)", kind, listing.Title, tier),
		PayerID:     payerID,
	})
	if err != nil {
		return nil, "", err
	}

	p, err := model.NewPaymentRecord(uuid.NewString(), listing.ID, payerID, amount, tier, kind, u.provider.Name())
	if err != nil {
		return nil, "", err
	}
	if session.SessionID != "" {
		sid := session.SessionID
		p.ProviderPaymentID = &sid
	}
	if err := u.payments.Save(ctx, nil, p); err != nil {
		return nil, "", err
	}

	u.log.Info().
		Str("payment_id", p.ID).
		Str("listing_id", listing.ID).
		Str("kind", string(kind)).
		Str("tier", string(tier)).
		Str("amount", model.FormatAmount(amount)).
		Msg("checkout initiated")
	return p, session.URL, nil
}

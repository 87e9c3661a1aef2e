// File: internal/usecase/pricing_uc.go
package usecase

import (
	"fmt"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
)

// Compile-time check
var _ PricingUseCase = (*pricingUC)(nil)

// TierPrice is one row of the public price list.
type TierPrice struct {
	Tier   model.Tier
	Amount int64 // minor units
}

type PricingUseCase interface {
	// PriceOf returns the full-cycle price of a tier; the catalog is validated
	// at construction so lookups cannot fail.
	PriceOf(tier model.Tier) int64
	// Tiers returns the catalog in ascending tier order, for display.
	Tiers() []TierPrice
	// CanUpgrade reports whether target strictly exceeds current in tier order.
	CanUpgrade(current, target model.Tier) bool
	// UpgradePrice quotes the prorated cost of moving current -> target with
	// remainingDays left of the billing cycle. Rounded half-up to the cent.
	UpgradePrice(current, target model.Tier, remainingDays int) (int64, error)
	CycleDays() int
}

type pricingUC struct {
	prices    map[model.Tier]int64
	cycleDays int
}

// NewPricingUseCase builds the catalog from configuration. Every tier must be
// priced and prices must strictly increase with tier rank.
func NewPricingUseCase(tierPrices map[string]int64, cycleDays int) (*pricingUC, error) {
	if cycleDays <= 0 {
		return nil, fmt.Errorf("%w: cycle days must be positive", domain.ErrInvalidArgument)
	}
	prices := make(map[model.Tier]int64, len(model.AllTiers))
	var prev int64 = -1
	for _, tier := range model.AllTiers {
		p, ok := tierPrices[string(tier)]
		if !ok {
			return nil, fmt.Errorf("%w: no price configured for tier %q", domain.ErrInvalidArgument, tier)
		}
		if p <= prev {
			return nil, fmt.Errorf("%w: tier prices must strictly increase with tier", domain.ErrInvalidArgument)
		}
		prices[tier] = p
		prev = p
	}
	return &pricingUC{prices: prices, cycleDays: cycleDays}, nil
}

func (u *pricingUC) PriceOf(tier model.Tier) int64 { return u.prices[tier] }

func (u *pricingUC) CycleDays() int { return u.cycleDays }

func (u *pricingUC) Tiers() []TierPrice {
	out := make([]TierPrice, 0, len(model.AllTiers))
	for _, tier := range model.AllTiers {
		out = append(out, TierPrice{Tier: tier, Amount: u.prices[tier]})
	}
	return out
}

func (u *pricingUC) CanUpgrade(current, target model.Tier) bool {
	return current.Valid() && target.Valid() && target.Rank() > current.Rank()
}

func (u *pricingUC) UpgradePrice(current, target model.Tier, remainingDays int) (int64, error) {
	if !u.CanUpgrade(current, target) {
		return 0, fmt.Errorf("%w: %s -> %s", domain.ErrIneligibleUpgrade, current, target)
	}
	if remainingDays < 0 {
		remainingDays = 0
	}
	if remainingDays > u.cycleDays {
		remainingDays = u.cycleDays
	}
	diff := u.prices[target] - u.prices[current]
	return divRoundHalfUp(diff*int64(remainingDays), int64(u.cycleDays)), nil
}

// divRoundHalfUp divides non-negative n by positive d, rounding half-up.
// Currency rounding for the prorated quote; must stay half-up, it is money.
func divRoundHalfUp(n, d int64) int64 {
	return (2*n + d) / (2 * d)
}

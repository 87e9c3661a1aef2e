package model

import (
	"fmt"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain"
)

// Tier is the paid visibility level of a listing.
// Stored as its wire string; never compare tiers with < directly, use Rank.
type Tier string

const (
	TierRegular  Tier = "regular"
	TierFeatured Tier = "featured"
	TierTop      Tier = "top"
)

// AllTiers lists the tiers in ascending rank order.
var AllTiers = []Tier{TierRegular, TierFeatured, TierTop}

// Rank gives the total order over tiers (Regular < Featured < Top).
// Unknown tiers rank below everything so they can never pass an upgrade check.
func (t Tier) Rank() int {
	switch t {
	case TierRegular:
		return 1
	case TierFeatured:
		return 2
	case TierTop:
		return 3
	default:
		return 0
	}
}

func (t Tier) Valid() bool { return t.Rank() > 0 }

func (t Tier) String() string { return string(t) }

// ParseTier maps a wire/DB string onto a Tier, rejecting unknown values
// instead of silently carrying them.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierRegular, TierFeatured, TierTop:
		return Tier(s), nil
	default:
		return "", fmt.Errorf("%w: unknown tier %q", domain.ErrInvalidArgument, s)
	}
}

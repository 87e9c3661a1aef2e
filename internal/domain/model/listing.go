package model

import (
	"fmt"
	"time"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain"
)

type ListingStatus string

const (
	ListingStatusDraft     ListingStatus = "draft"
	ListingStatusPublished ListingStatus = "published"
	ListingStatusExpired   ListingStatus = "expired"
	ListingStatusArchived  ListingStatus = "archived"
)

func ParseListingStatus(s string) (ListingStatus, error) {
	switch ListingStatus(s) {
	case ListingStatusDraft, ListingStatusPublished, ListingStatusExpired, ListingStatusArchived:
		return ListingStatus(s), nil
	default:
		return "", fmt.Errorf("%w: unknown listing status %q", domain.ErrInvalidArgument, s)
	}
}

// Listing is a job position's publication record. It owns the publication
// lifecycle: paid status, tier, and expiration.
type Listing struct {
	ID             string // UUID
	OwnerID        string // UUID of the company user managing the listing
	Title          string
	Status         ListingStatus
	Tier           Tier
	PublishedAt    *time.Time
	ExpiresAt      *time.Time
	PaidAt         *time.Time
	LastPaymentRef *string // provider payment id of the payment that last touched the lifecycle
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewListing constructs a draft listing.
func NewListing(id, ownerID, title string) (*Listing, error) {
	if id == "" || ownerID == "" || title == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Listing{
		ID:        id,
		OwnerID:   ownerID,
		Title:     title,
		Status:    ListingStatusDraft,
		Tier:      TierRegular,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// RemainingDays counts the whole days left until expiresAt, clamped at zero.
// A nil expiry counts as a full cycle. Both the proration quote and the
// upgrade extension math go through this one helper; the two must never drift.
func RemainingDays(now time.Time, expiresAt *time.Time, cycleDays int) int {
	if expiresAt == nil {
		return cycleDays
	}
	d := int(expiresAt.Sub(now).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// ApplyInitialPayment publishes a draft listing for one full cycle.
// The listing must be in draft; anything else is a state-machine violation.
func (l *Listing) ApplyInitialPayment(p *PaymentRecord, now time.Time, cycleDays int) error {
	if p == nil || cycleDays <= 0 {
		return domain.ErrInvalidArgument
	}
	if l.Status != ListingStatusDraft {
		return fmt.Errorf("%w: initial payment on %s listing %s", domain.ErrInvalidState, l.Status, l.ID)
	}
	expires := now.Add(time.Duration(cycleDays) * 24 * time.Hour)
	l.Status = ListingStatusPublished
	l.Tier = p.Tier
	l.PublishedAt = &now
	l.ExpiresAt = &expires
	l.PaidAt = &now
	l.LastPaymentRef = p.ProviderPaymentID
	l.UpdatedAt = now
	return nil
}

// ApplyUpgradePayment raises the tier of a published listing, preserving the
// paid-for duration: the new expiry is now + remaining days, never a fresh
// cycle. Eligibility is re-checked here because another upgrade may have
// completed between checkout and webhook arrival.
func (l *Listing) ApplyUpgradePayment(p *PaymentRecord, now time.Time, cycleDays int) error {
	if p == nil || cycleDays <= 0 {
		return domain.ErrInvalidArgument
	}
	if l.Status != ListingStatusPublished {
		return fmt.Errorf("%w: upgrade payment on %s listing %s", domain.ErrInvalidState, l.Status, l.ID)
	}
	if p.Tier.Rank() <= l.Tier.Rank() {
		return fmt.Errorf("%w: %s -> %s on listing %s", domain.ErrIneligibleUpgrade, l.Tier, p.Tier, l.ID)
	}
	remaining := RemainingDays(now, l.ExpiresAt, cycleDays)
	expires := now.Add(time.Duration(remaining) * 24 * time.Hour)
	l.Tier = p.Tier
	l.ExpiresAt = &expires
	l.PaidAt = &now
	l.LastPaymentRef = p.ProviderPaymentID
	l.UpdatedAt = now
	return nil
}

// Expire flips a published listing past its expiry. Tier and dates are kept
// untouched as the historical record.
func (l *Listing) Expire(now time.Time) error {
	if l.Status != ListingStatusPublished {
		return fmt.Errorf("%w: expire on %s listing %s", domain.ErrInvalidState, l.Status, l.ID)
	}
	l.Status = ListingStatusExpired
	l.UpdatedAt = now
	return nil
}

// Archive takes a listing out of circulation regardless of its state.
func (l *Listing) Archive(now time.Time) {
	l.Status = ListingStatusArchived
	l.UpdatedAt = now
}

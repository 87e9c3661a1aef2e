package model

import (
	"fmt"
	"time"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // created at checkout initiation; money not confirmed
	PaymentStatusCompleted PaymentStatus = "completed" // provider confirmed; lifecycle transition applied
	PaymentStatusFailed    PaymentStatus = "failed"    // provider failure or reconciliation anomaly
	PaymentStatusRefunded  PaymentStatus = "refunded"  // money returned; no listing effect
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return PaymentStatus(s), nil
	default:
		return "", fmt.Errorf("%w: unknown payment status %q", domain.ErrInvalidArgument, s)
	}
}

type PaymentKind string

const (
	PaymentKindInitial PaymentKind = "initial" // first payment, draft -> published
	PaymentKindUpgrade PaymentKind = "upgrade" // raises the tier of a published listing
)

func ParsePaymentKind(s string) (PaymentKind, error) {
	switch PaymentKind(s) {
	case PaymentKindInitial, PaymentKindUpgrade:
		return PaymentKind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown payment kind %q", domain.ErrInvalidArgument, s)
	}
}

// PaymentRecord is one ledger entry for a payment attempt against a listing.
// Rows are append-mostly: only status, provider payment id and the timestamps
// change after creation, and never backwards.
type PaymentRecord struct {
	ID                string // UUID
	ListingID         string // UUID, weak reference; Listing stays the aggregate root
	PayerID           string // UUID of the acting user
	Amount            int64  // minor units (cents), integer to avoid float errors
	Tier              Tier   // tier being bought or upgraded to
	Kind              PaymentKind
	Provider          string  // e.g. "hostedpay", "noop"
	ProviderPaymentID *string // provider correlation id, absent until the provider reports one
	Status            PaymentStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
}

// NewPaymentRecord creates a pending ledger entry at checkout-initiation time.
func NewPaymentRecord(id, listingID, payerID string, amount int64, tier Tier, kind PaymentKind, provider string) (*PaymentRecord, error) {
	if id == "" || listingID == "" || payerID == "" || provider == "" {
		return nil, domain.ErrInvalidArgument
	}
	if amount < 0 || !tier.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &PaymentRecord{
		ID:        id,
		ListingID: listingID,
		PayerID:   payerID,
		Amount:    amount,
		Tier:      tier,
		Kind:      kind,
		Provider:  provider,
		Status:    PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// canTransition encodes the monotonic status edges:
// pending -> completed|failed, completed -> refunded.
func (p *PaymentRecord) canTransition(to PaymentStatus) bool {
	switch p.Status {
	case PaymentStatusPending:
		return to == PaymentStatusCompleted || to == PaymentStatusFailed
	case PaymentStatusCompleted:
		return to == PaymentStatusRefunded
	default:
		return false
	}
}

// MarkCompleted records provider confirmation. Only a pending record may
// complete, and exactly once.
func (p *PaymentRecord) MarkCompleted(providerPaymentID string, now time.Time) error {
	if !p.canTransition(PaymentStatusCompleted) {
		return fmt.Errorf("%w: payment %s %s -> completed", domain.ErrInvalidTransition, p.ID, p.Status)
	}
	p.Status = PaymentStatusCompleted
	p.ProviderPaymentID = &providerPaymentID
	p.CompletedAt = &now
	p.UpdatedAt = now
	return nil
}

// MarkFailed closes a pending record without a listing effect.
func (p *PaymentRecord) MarkFailed(now time.Time) error {
	if !p.canTransition(PaymentStatusFailed) {
		return fmt.Errorf("%w: payment %s %s -> failed", domain.ErrInvalidTransition, p.ID, p.Status)
	}
	p.Status = PaymentStatusFailed
	p.UpdatedAt = now
	return nil
}

// MarkRefunded records a refund of a completed payment. The listing is left
// untouched; there is deliberately no rollback policy.
func (p *PaymentRecord) MarkRefunded(now time.Time) error {
	if !p.canTransition(PaymentStatusRefunded) {
		return fmt.Errorf("%w: payment %s %s -> refunded", domain.ErrInvalidTransition, p.ID, p.Status)
	}
	p.Status = PaymentStatusRefunded
	p.UpdatedAt = now
	return nil
}

// FormatAmount renders minor units as a 2-decimal string, e.g. 2500 -> "25.00".
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

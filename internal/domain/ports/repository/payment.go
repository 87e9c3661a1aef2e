package repository

import (
	"context"
	"time"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PaymentRecord) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentRecord, error)
	// FindByProviderPaymentID is the primary webhook match path.
	FindByProviderPaymentID(ctx context.Context, tx Tx, provider, providerPaymentID string) (*model.PaymentRecord, error)
	// FindPendingForListing returns the most recent pending record for a
	// listing; fallback match when the provider id was not persisted before
	// the webhook raced ahead.
	FindPendingForListing(ctx context.Context, tx Tx, listingID string) (*model.PaymentRecord, error)
	// MarkCompletedIfPending atomically completes a record only when it is
	// still pending; reports whether a row actually changed. The guard makes
	// duplicate deliveries harmless at the SQL level.
	MarkCompletedIfPending(ctx context.Context, tx Tx, id, providerPaymentID string, completedAt time.Time) (bool, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.PaymentStatus) error
	ListByListing(ctx context.Context, tx Tx, listingID string) ([]*model.PaymentRecord, error)
	// ListPendingOlderThan feeds the stale-pending watcher.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.PaymentRecord, error)
}

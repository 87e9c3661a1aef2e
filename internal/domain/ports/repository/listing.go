package repository

import (
	"context"
	"time"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
)

type ListingRepository interface {
	Save(ctx context.Context, tx Tx, l *model.Listing) error
	// FindByID loads a listing; inside a transaction the row is locked
	// (SELECT ... FOR UPDATE) so concurrent reconciliations for the same
	// listing serialize.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Listing, error)
	ListByOwner(ctx context.Context, tx Tx, ownerID string) ([]*model.Listing, error)
	// ExpireDue flips published listings whose expiry has passed and returns
	// how many rows changed.
	ExpireDue(ctx context.Context, tx Tx, now time.Time) (int64, error)
}

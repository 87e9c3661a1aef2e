// File: internal/usecase/listing_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/repository"
)

// Compile-time check
var _ ListingUseCase = (*listingUC)(nil)

type ListingUseCase interface {
	// CreateDraft opens a new unpublished listing for an owner.
	CreateDraft(ctx context.Context, ownerID, title string) (*model.Listing, error)
	Get(ctx context.Context, id string) (*model.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Listing, error)
	// ExpireDue flips published listings past their expiry; returns how many.
	ExpireDue(ctx context.Context) (int64, error)
	// Archive takes a listing out of circulation (owner/admin action).
	Archive(ctx context.Context, id string) (*model.Listing, error)
}

type listingUC struct {
	listings repository.ListingRepository
	log      *zerolog.Logger
}

func NewListingUseCase(listings repository.ListingRepository, logger *zerolog.Logger) *listingUC {
	l := logger.With().Str("component", "ListingUC").Logger()
	return &listingUC{listings: listings, log: &l}
}

func (u *listingUC) CreateDraft(ctx context.Context, ownerID, title string) (*model.Listing, error) {
	listing, err := model.NewListing(uuid.NewString(), ownerID, title)
	if err != nil {
		return nil, err
	}
	if err := u.listings.Save(ctx, nil, listing); err != nil {
		return nil, err
	}
	u.log.Debug().Str("listing_id", listing.ID).Str("owner_id", ownerID).Msg("draft listing created")
	return listing, nil
}

func (u *listingUC) Get(ctx context.Context, id string) (*model.Listing, error) {
	return u.listings.FindByID(ctx, nil, id)
}

func (u *listingUC) ListByOwner(ctx context.Context, ownerID string) ([]*model.Listing, error) {
	return u.listings.ListByOwner(ctx, nil, ownerID)
}

func (u *listingUC) ExpireDue(ctx context.Context) (int64, error) {
	return u.listings.ExpireDue(ctx, nil, time.Now())
}

func (u *listingUC) Archive(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := u.listings.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	listing.Archive(time.Now())
	if err := u.listings.Save(ctx, nil, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/repository"
)

var _ repository.ListingRepository = (*listingRepo)(nil)

type listingRepo struct{ pool *pgxpool.Pool }

func NewListingRepo(pool *pgxpool.Pool) *listingRepo {
	return &listingRepo{pool: pool}
}

const listingColumns = `id, owner_id, title, status, tier, published_at, expires_at, paid_at, last_payment_ref, created_at, updated_at`

func (r *listingRepo) Save(ctx context.Context, tx repository.Tx, l *model.Listing) error {
	const q = `
INSERT INTO listings (
  id, owner_id, title, status, tier, published_at, expires_at, paid_at, last_payment_ref, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (id) DO UPDATE SET
  owner_id=$2, title=$3, status=$4, tier=$5, published_at=$6, expires_at=$7, paid_at=$8, last_payment_ref=$9, updated_at=$11;`

	_, err := execSQL(ctx, r.pool, tx, q,
		l.ID, l.OwnerID, l.Title, string(l.Status), string(l.Tier),
		l.PublishedAt, l.ExpiresAt, l.PaidAt, l.LastPaymentRef, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *listingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Listing, error) {
	q := `SELECT ` + listingColumns + ` FROM listings WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanListing(row)
}

func (r *listingRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string) ([]*model.Listing, error) {
	const q = `SELECT ` + listingColumns + ` FROM listings WHERE owner_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, ownerID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *listingRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `UPDATE listings SET status='expired', updated_at=$1 WHERE status='published' AND expires_at IS NOT NULL AND expires_at < $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}

// scanListing maps a row onto the domain model, parsing the enum strings
// explicitly so an unknown stored value surfaces instead of drifting.
func scanListing(row pgx.Row) (*model.Listing, error) {
	l := &model.Listing{}
	var status, tier string
	if err := row.Scan(&l.ID, &l.OwnerID, &l.Title, &status, &tier,
		&l.PublishedAt, &l.ExpiresAt, &l.PaidAt, &l.LastPaymentRef, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	var err error
	if l.Status, err = model.ParseListingStatus(status); err != nil {
		return nil, err
	}
	if l.Tier, err = model.ParseTier(tier); err != nil {
		return nil, err
	}
	return l, nil
}

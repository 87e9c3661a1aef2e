package adapter

import (
	"context"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
)

// Notifier is the fire-and-forget downstream notification port. Delivery is a
// separate collaborator; the reconciliation core only signals it after the
// transactional work committed.
type Notifier interface {
	PaymentCompleted(ctx context.Context, listing *model.Listing, payment *model.PaymentRecord)
}

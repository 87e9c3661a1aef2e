package payment

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*LogNotifier)(nil)

// LogNotifier records completed payments to the structured log. It stands in
// for an email or messaging integration until one is wired.
type LogNotifier struct {
	log *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	l := logger.With().Str("component", "Notifier").Logger()
	return &LogNotifier{log: &l}
}

func (n *LogNotifier) PaymentCompleted(ctx context.Context, listing *model.Listing, payment *model.PaymentRecord) {
	n.log.Info().
		Str("listing_id", listing.ID).
		Str("owner_id", listing.OwnerID).
		Str("payment_id", payment.ID).
		Str("kind", string(payment.Kind)).
		Str("tier", string(payment.Tier)).
		Str("amount", model.FormatAmount(payment.Amount)).
		Msg("payment completed")
}

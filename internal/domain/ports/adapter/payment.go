package adapter

import (
	"context"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
)

// CheckoutRequest carries everything a provider needs to open a hosted
// checkout session. ListingID and Tier travel as correlation metadata and come
// back on the webhook.
type CheckoutRequest struct {
	ListingID   string
	Tier        model.Tier
	Amount      int64 // minor units
	Description string
	PayerID     string
}

// CheckoutSession is the provider's answer: where to send the user and the
// provider-side id we correlate on later.
type CheckoutSession struct {
	SessionID string
	URL       string
}

// CheckoutProvider is the hex port for payment providers. One implementation
// is selected at process startup from configuration and injected; it is never
// re-resolved per request.
type CheckoutProvider interface {
	Name() string

	// CreateCheckout initiates a payment and returns the session to redirect to.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)

	// ParseWebhook verifies the payload signature and parses it into a typed
	// event. Returns domain.ErrSignatureInvalid on a bad signature and
	// domain.ErrMalformedEvent on undecodable payloads; no business logic may
	// run on a payload that failed here.
	ParseWebhook(body []byte, signature string) (*model.PaymentEvent, error)
}

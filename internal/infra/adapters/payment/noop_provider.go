package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/adapter"
)

var _ adapter.CheckoutProvider = (*NoopProvider)(nil)

// NoopProvider is a simple in-memory provider for development and tests. It
// accepts any webhook whose signature equals "noop" and decodes the body as a
// PaymentEvent directly.
type NoopProvider struct {
	mu       sync.Mutex
	seq      int64
	sessions map[string]adapter.CheckoutRequest // session id -> originating request
}

func NewNoopProvider() *NoopProvider {
	return &NoopProvider{sessions: make(map[string]adapter.CheckoutRequest)}
}

func (g *NoopProvider) Name() string { return "noop" }

func (g *NoopProvider) CreateCheckout(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("noop-%d", g.seq)
	g.sessions[id] = req
	return adapter.CheckoutSession{SessionID: id, URL: "https://example.test/pay/" + id}, nil
}

func (g *NoopProvider) ParseWebhook(body []byte, signature string) (*model.PaymentEvent, error) {
	if signature != "noop" {
		return nil, domain.ErrSignatureInvalid
	}
	var ev model.PaymentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}
	ev.Provider = g.Name()
	return &ev, nil
}

// CompletionEvent builds the event a real provider would deliver for the given
// session. Development mode uses it to settle checkouts synchronously.
func (g *NoopProvider) CompletionEvent(sessionID string) (*model.PaymentEvent, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	req, ok := g.sessions[sessionID]
	if !ok {
		return nil, false
	}
	g.seq++
	return &model.PaymentEvent{
		Type:              model.EventTypePaymentCompleted,
		EventID:           fmt.Sprintf("noop-evt-%d", g.seq),
		Provider:          g.Name(),
		ProviderPaymentID: sessionID,
		ListingID:         req.ListingID,
		Tier:              req.Tier,
		Amount:            req.Amount,
		RawType:           "payment.completed",
	}, true
}

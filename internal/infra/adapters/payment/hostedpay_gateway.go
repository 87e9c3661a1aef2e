// File: internal/infra/adapters/payment/hostedpay_gateway.go
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/config"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/adapter"
)

var _ adapter.CheckoutProvider = (*HostedPayGateway)(nil)

// HostedPayGateway talks to a hosted-checkout provider over its JSON REST API.
// Checkout sessions carry listing id and tier as metadata; the provider echoes
// the metadata back on the webhook, which is how deliveries are correlated.
type HostedPayGateway struct {
	merchantID    string
	apiKey        string
	baseURL       string
	webhookSecret []byte
	successURL    string
	cancelURL     string
	client        *http.Client
}

func NewHostedPayGateway(cfg *config.HostedPayConfig) (*HostedPayGateway, error) {
	if cfg.MerchantID == "" {
		return nil, errors.New("merchant id empty")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("webhook secret empty")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	return &HostedPayGateway{
		merchantID:    cfg.MerchantID,
		apiKey:        cfg.APIKey,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		webhookSecret: []byte(cfg.WebhookSecret),
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		client:        &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *HostedPayGateway) Name() string { return "hostedpay" }

// CreateCheckout calls /v1/checkout/sessions and returns the hosted page URL.
func (g *HostedPayGateway) CreateCheckout(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutSession, error) {
	payload := map[string]any{
		"merchant_id": g.merchantID,
		"amount":      req.Amount,
		"description": req.Description,
		"success_url": g.successURL,
		"cancel_url":  g.cancelURL,
		"metadata": map[string]string{
			"listing_id": req.ListingID,
			"tier":       string(req.Tier),
			"payer_id":   req.PayerID,
		},
	}
	b, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/checkout/sessions", bytes.NewReader(b))
	if err != nil {
		return adapter.CheckoutSession{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return adapter.CheckoutSession{}, fmt.Errorf("%w: %v", domain.ErrProviderDown, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return adapter.CheckoutSession{}, fmt.Errorf("%w: checkout http %d", domain.ErrProviderDown, resp.StatusCode)
	}

	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.CheckoutSession{}, fmt.Errorf("%w: %v", domain.ErrProviderDown, err)
	}
	if out.ID == "" || out.URL == "" {
		return adapter.CheckoutSession{}, fmt.Errorf("%w: empty checkout session", domain.ErrProviderDown)
	}
	return adapter.CheckoutSession{SessionID: out.ID, URL: out.URL}, nil
}

// webhookEnvelope is the provider's delivery format.
type webhookEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		PaymentID string `json:"payment_id"`
		Amount    int64  `json:"amount"`
		Metadata  struct {
			ListingID string `json:"listing_id"`
			Tier      string `json:"tier"`
		} `json:"metadata"`
	} `json:"data"`
}

// ParseWebhook checks the HMAC-SHA256 hex signature over the raw body before
// decoding anything. A payload that fails the check never reaches the decoder.
func (g *HostedPayGateway) ParseWebhook(body []byte, signature string) (*model.PaymentEvent, error) {
	if !g.validSignature(body, signature) {
		return nil, domain.ErrSignatureInvalid
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}
	if env.ID == "" || env.Type == "" {
		return nil, fmt.Errorf("%w: missing event id or type", domain.ErrMalformedEvent)
	}

	ev := &model.PaymentEvent{
		EventID:  env.ID,
		Provider: g.Name(),
		RawType:  env.Type,
	}
	if env.Type != "payment.completed" {
		ev.Type = model.EventTypeOther
		return ev, nil
	}

	if env.Data.PaymentID == "" {
		return nil, fmt.Errorf("%w: completion event without payment id", domain.ErrMalformedEvent)
	}
	tier, err := model.ParseTier(env.Data.Metadata.Tier)
	if err != nil && env.Data.Metadata.Tier != "" {
		return nil, fmt.Errorf("%w: unknown tier %q", domain.ErrMalformedEvent, env.Data.Metadata.Tier)
	}

	ev.Type = model.EventTypePaymentCompleted
	ev.ProviderPaymentID = env.Data.PaymentID
	ev.ListingID = env.Data.Metadata.ListingID
	ev.Tier = tier
	ev.Amount = env.Data.Amount
	return ev, nil
}

func (g *HostedPayGateway) validSignature(body []byte, signature string) bool {
	sig, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(sig) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, g.webhookSecret)
	mac.Write(body)
	return hmac.Equal(sig, mac.Sum(nil))
}

// SignPayload produces the signature the provider would attach to body.
// Exposed for tooling and tests that simulate deliveries.
func (g *HostedPayGateway) SignPayload(body []byte) string {
	mac := hmac.New(sha256.New, g.webhookSecret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

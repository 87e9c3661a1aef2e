//go:build !integration

package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/repository"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/usecase"
)

func TestTiersEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/tiers", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Items []struct {
			Tier   string `json:"tier"`
			Amount int64  `json:"amount"`
			Price  string `json:"price"`
		} `json:"items"`
		CycleDays int `json:"cycle_days"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 3 || body.CycleDays != 30 {
		t.Fatalf("catalog mismatch: %+v", body)
	}
	if body.Items[0].Tier != "regular" || body.Items[0].Price != "49.00" {
		t.Errorf("first tier mismatch: %+v", body.Items[0])
	}
	if body.Items[2].Tier != "top" || body.Items[2].Amount != 19900 {
		t.Errorf("last tier mismatch: %+v", body.Items[2])
	}
}

func TestCreateAndGetListing(t *testing.T) {
	r, deps := newTestServer(t)

	draft, _ := model.NewListing("lst-1", "owner-1", "Backend Engineer")
	deps.listings.CreateDraftFunc = func(ctx context.Context, ownerID, title string) (*model.Listing, error) {
		if ownerID != "owner-1" || title != "Backend Engineer" {
			t.Errorf("unexpected args: %s %s", ownerID, title)
		}
		return draft, nil
	}
	deps.listings.GetFunc = func(ctx context.Context, id string) (*model.Listing, error) {
		if id == "lst-1" {
			return draft, nil
		}
		return nil, domain.ErrNotFound
	}

	rec := doJSON(t, r, http.MethodPost, "/api/v1/listings", map[string]string{
		"owner_id": "owner-1", "title": "Backend Engineer",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d, body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/listings/lst-1", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var got struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Tier   string `json:"tier"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "lst-1" || got.Status != "draft" || got.Tier != "regular" {
		t.Errorf("listing mismatch: %+v", got)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/listings/missing", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("want 404, got %d", rec.Code)
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	r, deps := newTestServer(t)

	t.Run("pending payment returned with redirect", func(t *testing.T) {
		p, _ := model.NewPaymentRecord("pay-1", "lst-1", "payer-1", 9900, model.TierFeatured, model.PaymentKindInitial, "hostedpay")
		deps.checkout.InitiateCheckoutFunc = func(ctx context.Context, listingID, payerID string, tier model.Tier) (*model.PaymentRecord, string, error) {
			return p, "https://pay.example/sess-1", nil
		}

		rec := doJSON(t, r, http.MethodPost, "/api/v1/listings/lst-1/checkout", map[string]string{
			"payer_id": "payer-1", "tier": "featured",
		}, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("want 201, got %d, body=%s", rec.Code, rec.Body.String())
		}
		var got struct {
			PaymentID   string `json:"payment_id"`
			Status      string `json:"status"`
			Price       string `json:"price"`
			CheckoutURL string `json:"checkout_url"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.PaymentID != "pay-1" || got.Status != "pending" || got.Price != "99.00" || got.CheckoutURL == "" {
			t.Errorf("response mismatch: %+v", got)
		}
	})

	t.Run("unknown tier is a 400", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/v1/listings/lst-1/checkout", map[string]string{
			"payer_id": "payer-1", "tier": "platinum",
		}, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})

	t.Run("state conflict is a 409", func(t *testing.T) {
		deps.checkout.InitiateCheckoutFunc = func(ctx context.Context, listingID, payerID string, tier model.Tier) (*model.PaymentRecord, string, error) {
			return nil, "", fmt.Errorf("%w: already published", domain.ErrInvalidState)
		}
		rec := doJSON(t, r, http.MethodPost, "/api/v1/listings/lst-1/checkout", map[string]string{
			"payer_id": "payer-1", "tier": "regular",
		}, nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("want 409, got %d", rec.Code)
		}
	})

	t.Run("provider outage is a 502", func(t *testing.T) {
		deps.checkout.InitiateCheckoutFunc = func(ctx context.Context, listingID, payerID string, tier model.Tier) (*model.PaymentRecord, string, error) {
			return nil, "", domain.ErrProviderDown
		}
		rec := doJSON(t, r, http.MethodPost, "/api/v1/listings/lst-1/checkout", map[string]string{
			"payer_id": "payer-1", "tier": "regular",
		}, nil)
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("want 502, got %d", rec.Code)
		}
	})
}

func TestUpgradeEndpoint(t *testing.T) {
	r, deps := newTestServer(t)

	t.Run("ineligible upgrade is a 409", func(t *testing.T) {
		deps.checkout.InitiateUpgradeFunc = func(ctx context.Context, listingID, payerID string, tier model.Tier) (*model.PaymentRecord, string, error) {
			return nil, "", fmt.Errorf("%w: already top", domain.ErrIneligibleUpgrade)
		}
		rec := doJSON(t, r, http.MethodPost, "/api/v1/listings/lst-1/upgrade", map[string]string{
			"payer_id": "payer-1", "tier": "featured",
		}, nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("want 409, got %d", rec.Code)
		}
	})

	t.Run("prorated quote comes back on the record", func(t *testing.T) {
		p, _ := model.NewPaymentRecord("pay-2", "lst-1", "payer-1", 2500, model.TierFeatured, model.PaymentKindUpgrade, "hostedpay")
		deps.checkout.InitiateUpgradeFunc = func(ctx context.Context, listingID, payerID string, tier model.Tier) (*model.PaymentRecord, string, error) {
			return p, "https://pay.example/sess-2", nil
		}
		rec := doJSON(t, r, http.MethodPost, "/api/v1/listings/lst-1/upgrade", map[string]string{
			"payer_id": "payer-1", "tier": "featured",
		}, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("want 201, got %d", rec.Code)
		}
		var got struct {
			Amount int64  `json:"amount"`
			Price  string `json:"price"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Amount != 2500 || got.Price != "25.00" {
			t.Errorf("quote mismatch: %+v", got)
		}
	})
}

func TestWebhookEndpoint(t *testing.T) {
	completed := func() map[string]any {
		return map[string]any{
			"Type":              string(model.EventTypePaymentCompleted),
			"EventID":           "evt-1",
			"ProviderPaymentID": "sess-1",
			"ListingID":         "lst-1",
			"Tier":              "featured",
			"Amount":            9900,
			"RawType":           "payment.completed",
		}
	}

	t.Run("bad signature is a 400 and never reaches the core", func(t *testing.T) {
		r, deps := newTestServer(t)
		rec := doJSON(t, r, http.MethodPost, "/api/v1/webhooks/hostedpay", completed(), map[string]string{
			"X-Webhook-Signature": "evil",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
		if len(deps.reconcile.Events) != 0 {
			t.Error("unverified payload must not reach reconciliation")
		}
	})

	t.Run("unknown provider is a 404", func(t *testing.T) {
		r, _ := newTestServer(t)
		rec := doJSON(t, r, http.MethodPost, "/api/v1/webhooks/otherpay", completed(), map[string]string{
			"X-Webhook-Signature": "good",
		})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("want 404, got %d", rec.Code)
		}
	})

	t.Run("applied delivery is acknowledged", func(t *testing.T) {
		r, deps := newTestServer(t)
		rec := doJSON(t, r, http.MethodPost, "/api/v1/webhooks/hostedpay", completed(), map[string]string{
			"X-Webhook-Signature": "good",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		if len(deps.reconcile.Events) != 1 || deps.reconcile.Events[0].EventID != "evt-1" {
			t.Fatalf("events mismatch: %+v", deps.reconcile.Events)
		}
	})

	t.Run("duplicate delivery is still a 200", func(t *testing.T) {
		r, deps := newTestServer(t)
		deps.reconcile.HandleEventFunc = func(ctx context.Context, ev *model.PaymentEvent) (*usecase.ReconcileResult, error) {
			return &usecase.ReconcileResult{Outcome: usecase.OutcomeDuplicate}, nil
		}
		rec := doJSON(t, r, http.MethodPost, "/api/v1/webhooks/hostedpay", completed(), map[string]string{
			"X-Webhook-Signature": "good",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
	})

	t.Run("unmatched delivery is a 500 so the provider retries", func(t *testing.T) {
		r, deps := newTestServer(t)
		deps.reconcile.HandleEventFunc = func(ctx context.Context, ev *model.PaymentEvent) (*usecase.ReconcileResult, error) {
			return &usecase.ReconcileResult{Outcome: usecase.OutcomeUnmatched}, domain.ErrReconciliationFail
		}
		rec := doJSON(t, r, http.MethodPost, "/api/v1/webhooks/hostedpay", completed(), map[string]string{
			"X-Webhook-Signature": "good",
		})
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("want 500, got %d", rec.Code)
		}
	})

	t.Run("stale upgrade anomaly is acknowledged", func(t *testing.T) {
		r, deps := newTestServer(t)
		deps.reconcile.HandleEventFunc = func(ctx context.Context, ev *model.PaymentEvent) (*usecase.ReconcileResult, error) {
			return &usecase.ReconcileResult{Outcome: usecase.OutcomeIneligible}, nil
		}
		rec := doJSON(t, r, http.MethodPost, "/api/v1/webhooks/hostedpay", completed(), map[string]string{
			"X-Webhook-Signature": "good",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
	})
}

func TestAdminAPI(t *testing.T) {
	login := func(t *testing.T, r http.Handler, password string) (int, string) {
		t.Helper()
		rec := doJSON(t, r, http.MethodPost, "/api/v1/admin/login", map[string]string{"password": password}, nil)
		var body struct {
			Token string `json:"token"`
		}
		_ = json.NewDecoder(rec.Body).Decode(&body)
		return rec.Code, body.Token
	}

	t.Run("wrong password refused", func(t *testing.T) {
		r, _ := newTestServer(t)
		code, _ := login(t, r, "nope")
		if code != http.StatusForbidden {
			t.Fatalf("want 403, got %d", code)
		}
	})

	t.Run("ledger requires a token", func(t *testing.T) {
		r, _ := newTestServer(t)
		rec := doJSON(t, r, http.MethodGet, "/api/v1/admin/listings/lst-1/payments", nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("login token opens the ledger", func(t *testing.T) {
		r, deps := newTestServer(t)
		now := time.Now()
		deps.payments.ListByListingFunc = func(ctx context.Context, _ repository.Tx, listingID string) ([]*model.PaymentRecord, error) {
			p, _ := model.NewPaymentRecord("pay-1", listingID, "payer-1", 4900, model.TierRegular, model.PaymentKindInitial, "hostedpay")
			p.CreatedAt = now
			return []*model.PaymentRecord{p}, nil
		}

		code, token := login(t, r, "opensesame")
		if code != http.StatusOK || token == "" {
			t.Fatalf("login failed: %d %q", code, token)
		}

		rec := doJSON(t, r, http.MethodGet, "/api/v1/admin/listings/lst-1/payments", nil, map[string]string{
			"Authorization": "Bearer " + token,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		var body struct {
			Items []struct {
				ID    string `json:"id"`
				Price string `json:"price"`
			} `json:"items"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Items) != 1 || body.Items[0].ID != "pay-1" || body.Items[0].Price != "49.00" {
			t.Errorf("ledger mismatch: %+v", body.Items)
		}
	})

	t.Run("garbage token refused", func(t *testing.T) {
		r, _ := newTestServer(t)
		rec := doJSON(t, r, http.MethodGet, "/api/v1/admin/payments/pending", nil, map[string]string{
			"Authorization": "Bearer not.a.jwt",
		})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("want 403, got %d", rec.Code)
		}
	})
}

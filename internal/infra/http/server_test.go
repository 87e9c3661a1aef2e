//go:build !integration

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/config"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/adapter"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/repository"
	infrahttp "github.com/srdjanmarjanovic/laravelremote-sub000/internal/infra/http"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// ---------------- usecase stubs ----------------

type stubListingUC struct {
	CreateDraftFunc func(ctx context.Context, ownerID, title string) (*model.Listing, error)
	GetFunc         func(ctx context.Context, id string) (*model.Listing, error)
	ArchiveFunc     func(ctx context.Context, id string) (*model.Listing, error)
}

var _ usecase.ListingUseCase = (*stubListingUC)(nil)

func (s *stubListingUC) CreateDraft(ctx context.Context, ownerID, title string) (*model.Listing, error) {
	return s.CreateDraftFunc(ctx, ownerID, title)
}

func (s *stubListingUC) Get(ctx context.Context, id string) (*model.Listing, error) {
	return s.GetFunc(ctx, id)
}

func (s *stubListingUC) ListByOwner(ctx context.Context, ownerID string) ([]*model.Listing, error) {
	return nil, nil
}

func (s *stubListingUC) ExpireDue(ctx context.Context) (int64, error) { return 0, nil }

func (s *stubListingUC) Archive(ctx context.Context, id string) (*model.Listing, error) {
	return s.ArchiveFunc(ctx, id)
}

type stubCheckoutUC struct {
	InitiateCheckoutFunc func(ctx context.Context, listingID, payerID string, tier model.Tier) (*model.PaymentRecord, string, error)
	InitiateUpgradeFunc  func(ctx context.Context, listingID, payerID string, tier model.Tier) (*model.PaymentRecord, string, error)
}

var _ usecase.CheckoutUseCase = (*stubCheckoutUC)(nil)

func (s *stubCheckoutUC) InitiateCheckout(ctx context.Context, listingID, payerID string, tier model.Tier) (*model.PaymentRecord, string, error) {
	return s.InitiateCheckoutFunc(ctx, listingID, payerID, tier)
}

func (s *stubCheckoutUC) InitiateUpgrade(ctx context.Context, listingID, payerID string, tier model.Tier) (*model.PaymentRecord, string, error) {
	return s.InitiateUpgradeFunc(ctx, listingID, payerID, tier)
}

type stubReconcileUC struct {
	HandleEventFunc func(ctx context.Context, ev *model.PaymentEvent) (*usecase.ReconcileResult, error)
	Events          []*model.PaymentEvent
}

var _ usecase.ReconcileUseCase = (*stubReconcileUC)(nil)

func (s *stubReconcileUC) HandleEvent(ctx context.Context, ev *model.PaymentEvent) (*usecase.ReconcileResult, error) {
	s.Events = append(s.Events, ev)
	if s.HandleEventFunc != nil {
		return s.HandleEventFunc(ctx, ev)
	}
	return &usecase.ReconcileResult{Outcome: usecase.OutcomeApplied, Payment: &model.PaymentRecord{
		Kind: model.PaymentKindInitial, Tier: model.TierRegular,
	}}, nil
}

type stubPaymentRepo struct {
	ListByListingFunc func(ctx context.Context, tx repository.Tx, listingID string) ([]*model.PaymentRecord, error)
}

var _ repository.PaymentRepository = (*stubPaymentRepo)(nil)

func (s *stubPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentRecord) error {
	return nil
}

func (s *stubPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentRecord, error) {
	return nil, domain.ErrNotFound
}

func (s *stubPaymentRepo) FindByProviderPaymentID(ctx context.Context, tx repository.Tx, provider, providerPaymentID string) (*model.PaymentRecord, error) {
	return nil, domain.ErrNotFound
}

func (s *stubPaymentRepo) FindPendingForListing(ctx context.Context, tx repository.Tx, listingID string) (*model.PaymentRecord, error) {
	return nil, domain.ErrNotFound
}

func (s *stubPaymentRepo) MarkCompletedIfPending(ctx context.Context, tx repository.Tx, id, providerPaymentID string, completedAt time.Time) (bool, error) {
	return false, nil
}

func (s *stubPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) error {
	return nil
}

func (s *stubPaymentRepo) ListByListing(ctx context.Context, tx repository.Tx, listingID string) ([]*model.PaymentRecord, error) {
	if s.ListByListingFunc != nil {
		return s.ListByListingFunc(ctx, tx, listingID)
	}
	return nil, nil
}

func (s *stubPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentRecord, error) {
	return nil, nil
}

// ---------------- server fixture ----------------

type serverDeps struct {
	listings  *stubListingUC
	checkout  *stubCheckoutUC
	reconcile *stubReconcileUC
	payments  *stubPaymentRepo
	provider  *signatureProvider
}

// signatureProvider accepts deliveries signed "good" and decodes the body as
// the event itself.
type signatureProvider struct{}

var _ adapter.CheckoutProvider = (*signatureProvider)(nil)

func (p *signatureProvider) Name() string { return "hostedpay" }

func (p *signatureProvider) CreateCheckout(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutSession, error) {
	return adapter.CheckoutSession{SessionID: "sess-1", URL: "https://pay.example/sess-1"}, nil
}

func (p *signatureProvider) ParseWebhook(body []byte, signature string) (*model.PaymentEvent, error) {
	if signature != "good" {
		return nil, domain.ErrSignatureInvalid
	}
	var ev model.PaymentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, domain.ErrMalformedEvent
	}
	ev.Provider = p.Name()
	return &ev, nil
}

func newTestServer(t *testing.T) (*chi.Mux, *serverDeps) {
	t.Helper()
	pricing, err := usecase.NewPricingUseCase(map[string]int64{
		"regular": 4900, "featured": 9900, "top": 19900,
	}, 30)
	if err != nil {
		t.Fatalf("pricing: %v", err)
	}

	deps := &serverDeps{
		listings:  &stubListingUC{},
		checkout:  &stubCheckoutUC{},
		reconcile: &stubReconcileUC{},
		payments:  &stubPaymentRepo{},
		provider:  &signatureProvider{},
	}
	cfg := &config.Config{}
	cfg.Server.WebhookTimeout = 5 * time.Second
	cfg.Admin.Password = "opensesame"

	auth := infrahttp.NewAuthManager("test-secret", cfg.Admin.Password, time.Minute)
	ledger := infrahttp.NewLedgerHandler(deps.payments, newTestLogger())
	srv := infrahttp.NewServer(cfg, deps.listings, pricing, deps.checkout, deps.reconcile, deps.provider, auth, ledger, newTestLogger())

	r := chi.NewRouter()
	srv.RegisterRoutes(r)
	return r, deps
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

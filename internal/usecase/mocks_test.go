//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/adapter"
	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger so test output stays clean.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

type noTx struct{}

type MockTxManager struct{}

func (m *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, noTx{})
}

// -----------------------------
// In-memory repositories
// -----------------------------

type memListingRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Listing

	SaveFunc func(ctx context.Context, tx repository.Tx, l *model.Listing) error
	findErr  error
}

var _ repository.ListingRepository = (*memListingRepo)(nil)

func newMemListingRepo() *memListingRepo {
	return &memListingRepo{store: make(map[string]*model.Listing)}
}

func (m *memListingRepo) Save(ctx context.Context, tx repository.Tx, l *model.Listing) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, l); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.store[l.ID] = &cp
	return nil
}

func (m *memListingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Listing, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memListingRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string) ([]*model.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Listing
	for _, l := range m.store {
		if l.OwnerID == ownerID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memListingRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, l := range m.store {
		if l.Status == model.ListingStatusPublished && l.ExpiresAt != nil && l.ExpiresAt.Before(now) {
			l.Status = model.ListingStatusExpired
			l.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

type memPaymentRepo struct {
	mu    sync.RWMutex
	store map[string]*model.PaymentRecord

	SaveFunc             func(ctx context.Context, tx repository.Tx, p *model.PaymentRecord) error
	MarkCompletedFunc    func(ctx context.Context, tx repository.Tx, id, providerPaymentID string, completedAt time.Time) (bool, error)
	updateStatusErr      error
	findByProviderErr    error
	findPendingErr       error
	UpdateStatusCalls    []string
	MarkCompletedCallIDs []string
}

var _ repository.PaymentRepository = (*memPaymentRepo)(nil)

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[string]*model.PaymentRecord)}
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentRecord) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) FindByProviderPaymentID(ctx context.Context, tx repository.Tx, provider, providerPaymentID string) (*model.PaymentRecord, error) {
	if m.findByProviderErr != nil {
		return nil, m.findByProviderErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.Provider == provider && p.ProviderPaymentID != nil && *p.ProviderPaymentID == providerPaymentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) FindPendingForListing(ctx context.Context, tx repository.Tx, listingID string) (*model.PaymentRecord, error) {
	if m.findPendingErr != nil {
		return nil, m.findPendingErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.PaymentRecord
	for _, p := range m.store {
		if p.ListingID == listingID && p.Status == model.PaymentStatusPending {
			if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
				latest = p
			}
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memPaymentRepo) MarkCompletedIfPending(ctx context.Context, tx repository.Tx, id, providerPaymentID string, completedAt time.Time) (bool, error) {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(ctx, tx, id, providerPaymentID, completedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkCompletedCallIDs = append(m.MarkCompletedCallIDs, id)
	p, ok := m.store[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusCompleted
	if providerPaymentID != "" {
		pid := providerPaymentID
		p.ProviderPaymentID = &pid
	}
	ca := completedAt
	p.CompletedAt = &ca
	p.UpdatedAt = completedAt
	return true, nil
}

func (m *memPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) error {
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateStatusCalls = append(m.UpdateStatusCalls, id+":"+string(status))
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *memPaymentRepo) ListByListing(ctx context.Context, tx repository.Tx, listingID string) ([]*model.PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PaymentRecord
	for _, p := range m.store {
		if p.ListingID == listingID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PaymentRecord
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// -----------------------------
// Adapter mocks
// -----------------------------

type MockProvider struct {
	mu       sync.Mutex
	seq      int
	Requests []adapter.CheckoutRequest

	CreateCheckoutFunc func(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutSession, error)
}

var _ adapter.CheckoutProvider = (*MockProvider)(nil)

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) CreateCheckout(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutSession, error) {
	if m.CreateCheckoutFunc != nil {
		return m.CreateCheckoutFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.Requests = append(m.Requests, req)
	id := fmt.Sprintf("sess-%d", m.seq)
	return adapter.CheckoutSession{SessionID: id, URL: "https://example.test/pay/" + id}, nil
}

func (m *MockProvider) ParseWebhook(body []byte, signature string) (*model.PaymentEvent, error) {
	return nil, domain.ErrMalformedEvent
}

type MockDeduper struct {
	mu     sync.Mutex
	seen   map[string]bool
	Marked []string
}

func NewMockDeduper() *MockDeduper {
	return &MockDeduper{seen: make(map[string]bool)}
}

func (m *MockDeduper) Seen(ctx context.Context, provider, eventID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[provider+":"+eventID]
}

func (m *MockDeduper) MarkSeen(ctx context.Context, provider, eventID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[provider+":"+eventID] = true
	m.Marked = append(m.Marked, provider+":"+eventID)
}

type MockNotifier struct {
	mu    sync.Mutex
	Calls []string // payment ids
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) PaymentCompleted(ctx context.Context, listing *model.Listing, payment *model.PaymentRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, payment.ID)
}

//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ev-marketplace/internal/domain"
	"ev-marketplace/internal/domain/model"
	"ev-marketplace/internal/domain/ports/adapter"
	"ev-marketplace/internal/domain/ports/repository"
)

// =============================
// Repositories
// =============================

// ---- Mock ListingRepository ----

type MockListingRepo struct {
	mu    sync.Mutex
	store map[string]*model.Listing

	SaveFunc     func(ctx context.Context, tx repository.Tx, l *model.Listing) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Listing, error)
}

var _ repository.ListingRepository = (*MockListingRepo)(nil)

func NewMockListingRepo() *MockListingRepo {
	return &MockListingRepo{store: map[string]*model.Listing{}}
}

func (m *MockListingRepo) Save(ctx context.Context, tx repository.Tx, l *model.Listing) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, l)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.store[l.ID] = &cp
	return nil
}

func (m *MockListingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Listing, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *MockListingRepo) ListBySeller(ctx context.Context, tx repository.Tx, sellerID string) ([]*model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Listing
	for _, l := range m.store {
		if l.SellerID == sellerID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockListingRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.ListingStatus, limit, offset int) ([]*model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Listing
	for _, l := range m.store {
		if l.Status == status {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockListingRepo) ListExpiredActive(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Listing
	for _, l := range m.store {
		if l.Status == model.ListingStatusActive && l.ExpiresAt != nil && l.ExpiresAt.Before(cutoff) {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	mu    sync.Mutex
	store map[string]*model.PostPayment

	SaveFunc                  func(ctx context.Context, tx repository.Tx, p *model.PostPayment) error
	UpdateStatusIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayRef string, paidAt *time.Time) (bool, error)
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: map[string]*model.PostPayment{}}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PostPayment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PostPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// UpdateStatusIfPending mirrors the SQL compare-and-set the real repo
// runs, so idempotency tests exercise the same winning/losing semantics.
func (m *MockPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayRef string, paidAt *time.Time) (bool, error) {
	if m.UpdateStatusIfPendingFunc != nil {
		return m.UpdateStatusIfPendingFunc(ctx, tx, id, status, gatewayRef, paidAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if gatewayRef != "" {
		p.GatewayRef = gatewayRef
	}
	if paidAt != nil {
		p.PaidAt = paidAt
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentRepo) LatestCompletedByListing(ctx context.Context, tx repository.Tx, listingID string) (*model.PostPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.PostPayment
	for _, p := range m.store {
		if p.ListingID != listingID || p.Status != model.PaymentStatusCompleted {
			continue
		}
		if latest == nil || (p.PaidAt != nil && latest.PaidAt != nil && p.PaidAt.After(*latest.PaidAt)) {
			latest = p
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *MockPaymentRepo) ListByListing(ctx context.Context, tx repository.Tx, listingID string) ([]*model.PostPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PostPayment
	for _, p := range m.store {
		if p.ListingID == listingID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PostPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PostPayment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) SumCompletedByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, p := range m.store {
		if p.Status == model.PaymentStatusCompleted {
			sum += p.Amount
		}
	}
	return sum, nil
}

// ---- Mock PackageRepository ----

type MockPackageRepo struct {
	mu    sync.Mutex
	store map[string]*model.PostPackage
}

var _ repository.PackageRepository = (*MockPackageRepo)(nil)

func NewMockPackageRepo() *MockPackageRepo {
	return &MockPackageRepo{store: map[string]*model.PostPackage{}}
}

func (m *MockPackageRepo) Save(ctx context.Context, tx repository.Tx, p *model.PostPackage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PostPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPackageRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.PostPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PostPackage
	for _, p := range m.store {
		if p.IsActive() {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock PackageOptionRepository ----

type MockPackageOptionRepo struct {
	mu    sync.Mutex
	store map[string]*model.PackageOption
}

var _ repository.PackageOptionRepository = (*MockPackageOptionRepo)(nil)

func NewMockPackageOptionRepo() *MockPackageOptionRepo {
	return &MockPackageOptionRepo{store: map[string]*model.PackageOption{}}
}

func (m *MockPackageOptionRepo) Save(ctx context.Context, tx repository.Tx, o *model.PackageOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.store[o.ID] = &cp
	return nil
}

func (m *MockPackageOptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PackageOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockPackageOptionRepo) ListByPackage(ctx context.Context, tx repository.Tx, packageID string) ([]*model.PackageOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PackageOption
	for _, o := range m.store {
		if o.PackageID == packageID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	NameVal string

	CreatePaymentURLFunc func(ctx context.Context, paymentID string, amount int64, returnURL string) (string, error)
	VerifyCallbackFunc   func(params map[string]string) bool
	QueryPaymentFunc     func(ctx context.Context, paymentID string) (adapter.GatewayOutcome, error)
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string {
	if m.NameVal == "" {
		return "mockpay"
	}
	return m.NameVal
}

func (m *MockPaymentGateway) CreatePaymentURL(ctx context.Context, paymentID string, amount int64, returnURL string) (string, error) {
	if m.CreatePaymentURLFunc != nil {
		return m.CreatePaymentURLFunc(ctx, paymentID, amount, returnURL)
	}
	return "https://pay.example/" + paymentID, nil
}

func (m *MockPaymentGateway) VerifyCallback(params map[string]string) bool {
	if m.VerifyCallbackFunc != nil {
		return m.VerifyCallbackFunc(params)
	}
	return true
}

func (m *MockPaymentGateway) QueryPayment(ctx context.Context, paymentID string) (adapter.GatewayOutcome, error) {
	if m.QueryPaymentFunc != nil {
		return m.QueryPaymentFunc(ctx, paymentID)
	}
	return adapter.GatewayOutcomePending, nil
}

// =============================
// Infrastructure
// =============================

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs the function immediately with NoTX by default; tests that
// care about transaction behavior assign WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock Locker ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if _, taken := l.held[key]; taken {
		return "", domain.ErrCallbackBusy
	}
	l.held[key] = "token"
	return "token", nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// newTestLogger creates a silent zerolog.Logger so test output stays
// readable.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func strPtr(s string) *string { return &s }

//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ev-marketplace/internal/domain"
	"ev-marketplace/internal/domain/model"
	"ev-marketplace/internal/domain/ports/adapter"
	"ev-marketplace/internal/usecase"
)

// ucTestDeps bundles the mock dependencies shared by the use case tests.
type ucTestDeps struct {
	listings *MockListingRepo
	payments *MockPaymentRepo
	packages *MockPackageRepo
	options  *MockPackageOptionRepo
	gateway  *MockPaymentGateway
	gateways *usecase.Gateways
	tm       *MockTxManager
	locker   *MockLocker
}

func newUCDeps() *ucTestDeps {
	d := &ucTestDeps{
		listings: NewMockListingRepo(),
		payments: NewMockPaymentRepo(),
		packages: NewMockPackageRepo(),
		options:  NewMockPackageOptionRepo(),
		gateway:  &MockPaymentGateway{},
		gateways: usecase.NewGateways(),
		tm:       NewMockTxManager(),
		locker:   NewMockLocker(),
	}
	d.gateways.Register(model.PaymentMethodVNPay, d.gateway)
	return d
}

func (d *ucTestDeps) newPaymentUC() usecase.PaymentUseCase {
	return usecase.NewPaymentUseCase(d.payments, d.listings, d.packages, d.options, d.gateways, d.tm, d.locker, "https://shop.example/return", newTestLogger())
}

// seedCatalog installs a standard 30-day package and a priority addon
// with 7 and 30 day options.
func (d *ucTestDeps) seedCatalog(ctx context.Context, t *testing.T) {
	t.Helper()
	std, _ := model.NewPostPackage("pkg-std", model.PackageKindStandard, "Standard", 30, 150_000)
	addon, _ := model.NewPostPackage("pkg-prio", model.PackageKindPriority, "Priority", 30, 0)
	opt7, _ := model.NewPackageOption("opt-7", "pkg-prio", 7, 70_000)
	opt30, _ := model.NewPackageOption("opt-30", "pkg-prio", 30, 250_000)
	for _, p := range []*model.PostPackage{std, addon} {
		if err := d.packages.Save(ctx, nil, p); err != nil {
			t.Fatalf("seed package: %v", err)
		}
	}
	for _, o := range []*model.PackageOption{opt7, opt30} {
		if err := d.options.Save(ctx, nil, o); err != nil {
			t.Fatalf("seed option: %v", err)
		}
	}
}

func (d *ucTestDeps) seedListing(ctx context.Context, t *testing.T, sellerID string, status model.ListingStatus) *model.Listing {
	t.Helper()
	l, err := model.NewListing("", sellerID, "VinFast VF8 2023", 700_000_000)
	if err != nil {
		t.Fatalf("new listing: %v", err)
	}
	l.Status = status
	if err := d.listings.Save(ctx, nil, l); err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return l
}

func seller(t *testing.T, id string) *model.Account {
	t.Helper()
	a, err := model.NewAccount(id, id+"@example.com", model.RoleSeller)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	return a
}

func staff(t *testing.T, id string) *model.Account {
	t.Helper()
	a, err := model.NewAccount(id, id+"@example.com", model.RoleStaff)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	return a
}

func TestPaymentUseCase_CreatePaymentRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("should create a pending payment with a listing status snapshot", func(t *testing.T) {
		deps := newUCDeps()
		deps.seedCatalog(ctx, t)
		owner := seller(t, "seller-1")
		l := deps.seedListing(ctx, t, owner.ID, model.ListingStatusDraft)

		uc := deps.newPaymentUC()
		sel := usecase.PackageSelection{StandardPackageID: strPtr("pkg-std"), AddonOptionID: strPtr("opt-7")}
		p, err := uc.CreatePaymentRecord(ctx, owner, l.ID, sel, model.PaymentMethodVNPay)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if p.Status != model.PaymentStatusPending {
			t.Errorf("expected status pending, got %s", p.Status)
		}
		if p.Amount != 220_000 {
			t.Errorf("expected amount 220000, got %d", p.Amount)
		}
		if p.PrevListingStatus != model.ListingStatusDraft {
			t.Errorf("expected snapshot draft, got %s", p.PrevListingStatus)
		}
	})

	t.Run("should refuse a caller who does not own the listing", func(t *testing.T) {
		deps := newUCDeps()
		deps.seedCatalog(ctx, t)
		l := deps.seedListing(ctx, t, "seller-1", model.ListingStatusDraft)

		uc := deps.newPaymentUC()
		sel := usecase.PackageSelection{StandardPackageID: strPtr("pkg-std")}
		_, err := uc.CreatePaymentRecord(ctx, seller(t, "seller-2"), l.ID, sel, model.PaymentMethodVNPay)
		if !errors.Is(err, domain.ErrNotOwner) {
			t.Fatalf("expected ErrNotOwner, got: %v", err)
		}
	})

	t.Run("should reject an empty selection", func(t *testing.T) {
		deps := newUCDeps()
		deps.seedCatalog(ctx, t)
		owner := seller(t, "seller-1")
		l := deps.seedListing(ctx, t, owner.ID, model.ListingStatusDraft)

		uc := deps.newPaymentUC()
		_, err := uc.CreatePaymentRecord(ctx, owner, l.ID, usecase.PackageSelection{}, model.PaymentMethodVNPay)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})
}

func TestPaymentUseCase_HandleCallback(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, listingStatus model.ListingStatus, sel usecase.PackageSelection) (*ucTestDeps, usecase.PaymentUseCase, *model.Listing, *model.PostPayment) {
		deps := newUCDeps()
		deps.seedCatalog(ctx, t)
		owner := seller(t, "seller-1")
		l := deps.seedListing(ctx, t, owner.ID, listingStatus)
		uc := deps.newPaymentUC()
		p, err := uc.CreatePaymentRecord(ctx, owner, l.ID, sel, model.PaymentMethodVNPay)
		if err != nil {
			t.Fatalf("create payment: %v", err)
		}
		return deps, uc, l, p
	}

	t.Run("success moves a first-time listing to pending_review and books the fee", func(t *testing.T) {
		deps, uc, l, p := setup(t, model.ListingStatusPendingPayment,
			usecase.PackageSelection{StandardPackageID: strPtr("pkg-std")})

		if err := uc.HandleCallback(ctx, p.ID, true, "VNP123"); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		got, _ := deps.listings.FindByID(ctx, nil, l.ID)
		if got.Status != model.ListingStatusPendingReview {
			t.Errorf("expected pending_review, got %s", got.Status)
		}
		if got.PostingFee != 150_000 {
			t.Errorf("expected posting fee 150000, got %d", got.PostingFee)
		}
		gotPay, _ := deps.payments.FindByID(ctx, nil, p.ID)
		if gotPay.Status != model.PaymentStatusCompleted {
			t.Errorf("expected completed, got %s", gotPay.Status)
		}
		if gotPay.GatewayRef != "VNP123" {
			t.Errorf("expected gateway ref VNP123, got %q", gotPay.GatewayRef)
		}
	})

	t.Run("duplicate delivery is a no-op", func(t *testing.T) {
		deps, uc, l, p := setup(t, model.ListingStatusPendingPayment,
			usecase.PackageSelection{StandardPackageID: strPtr("pkg-std")})

		if err := uc.HandleCallback(ctx, p.ID, true, "VNP123"); err != nil {
			t.Fatalf("first delivery: %v", err)
		}
		if err := uc.HandleCallback(ctx, p.ID, true, "VNP123"); err != nil {
			t.Fatalf("second delivery: %v", err)
		}
		got, _ := deps.listings.FindByID(ctx, nil, l.ID)
		if got.PostingFee != 150_000 {
			t.Errorf("fee booked twice: got %d", got.PostingFee)
		}
	})

	t.Run("a late failure after success does not flip the payment", func(t *testing.T) {
		deps, uc, l, p := setup(t, model.ListingStatusPendingPayment,
			usecase.PackageSelection{StandardPackageID: strPtr("pkg-std")})

		if err := uc.HandleCallback(ctx, p.ID, true, "VNP123"); err != nil {
			t.Fatalf("success delivery: %v", err)
		}
		if err := uc.HandleCallback(ctx, p.ID, false, ""); err != nil {
			t.Fatalf("late failure delivery: %v", err)
		}
		gotPay, _ := deps.payments.FindByID(ctx, nil, p.ID)
		if gotPay.Status != model.PaymentStatusCompleted {
			t.Errorf("expected completed to stick, got %s", gotPay.Status)
		}
		got, _ := deps.listings.FindByID(ctx, nil, l.ID)
		if got.Status != model.ListingStatusPendingReview {
			t.Errorf("expected pending_review to stick, got %s", got.Status)
		}
	})

	t.Run("failure restores the snapshotted listing status", func(t *testing.T) {
		deps, uc, l, p := setup(t, model.ListingStatusPendingPayment,
			usecase.PackageSelection{StandardPackageID: strPtr("pkg-std")})

		if err := uc.HandleCallback(ctx, p.ID, false, ""); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		got, _ := deps.listings.FindByID(ctx, nil, l.ID)
		if got.Status != model.ListingStatusPendingPayment {
			t.Errorf("expected pending_payment restored, got %s", got.Status)
		}
		if got.PostingFee != 0 {
			t.Errorf("failed payment must not book a fee, got %d", got.PostingFee)
		}
	})

	t.Run("failed renewal leaves an active listing active", func(t *testing.T) {
		deps := newUCDeps()
		deps.seedCatalog(ctx, t)
		owner := seller(t, "seller-1")
		l := deps.seedListing(ctx, t, owner.ID, model.ListingStatusActive)
		payUC := deps.newPaymentUC()
		renewUC := usecase.NewRenewalUseCase(deps.listings, deps.payments, deps.packages, deps.options, payUC, deps.tm, newTestLogger())

		quote, err := renewUC.Renew(ctx, owner, l.ID, usecase.PackageSelection{StandardPackageID: strPtr("pkg-std")}, model.PaymentMethodVNPay)
		if err != nil {
			t.Fatalf("renew: %v", err)
		}
		if err := payUC.HandleCallback(ctx, quote.Payment.ID, false, ""); err != nil {
			t.Fatalf("failure delivery: %v", err)
		}
		got, _ := deps.listings.FindByID(ctx, nil, l.ID)
		if got.Status != model.ListingStatusActive {
			t.Errorf("expected active, got %s", got.Status)
		}
	})

	t.Run("held lock rejects the callback with ErrCallbackBusy", func(t *testing.T) {
		deps, uc, _, p := setup(t, model.ListingStatusPendingPayment,
			usecase.PackageSelection{StandardPackageID: strPtr("pkg-std")})

		if _, err := deps.locker.TryLock(ctx, "payment:cb:"+p.ID, time.Minute); err != nil {
			t.Fatalf("pre-hold lock: %v", err)
		}
		err := uc.HandleCallback(ctx, p.ID, true, "")
		if !errors.Is(err, domain.ErrCallbackBusy) {
			t.Fatalf("expected ErrCallbackBusy, got: %v", err)
		}
	})
}

func TestPaymentUseCase_ReconcilePending(t *testing.T) {
	ctx := context.Background()

	t.Run("applies the gateway-reported outcome to stale pendings", func(t *testing.T) {
		deps := newUCDeps()
		deps.seedCatalog(ctx, t)
		owner := seller(t, "seller-1")
		l := deps.seedListing(ctx, t, owner.ID, model.ListingStatusPendingPayment)
		uc := deps.newPaymentUC()

		p, err := uc.CreatePaymentRecord(ctx, owner, l.ID, usecase.PackageSelection{StandardPackageID: strPtr("pkg-std")}, model.PaymentMethodVNPay)
		if err != nil {
			t.Fatalf("create payment: %v", err)
		}
		deps.gateway.QueryPaymentFunc = func(ctx context.Context, paymentID string) (adapter.GatewayOutcome, error) {
			return adapter.GatewayOutcomeSuccess, nil
		}

		n, err := uc.ReconcilePending(ctx, time.Now().Add(time.Minute), 10)
		if err != nil {
			t.Fatalf("reconcile: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 settled payment, got %d", n)
		}
		gotPay, _ := deps.payments.FindByID(ctx, nil, p.ID)
		if gotPay.Status != model.PaymentStatusCompleted {
			t.Errorf("expected completed, got %s", gotPay.Status)
		}
	})

	t.Run("leaves still-pending payments alone", func(t *testing.T) {
		deps := newUCDeps()
		deps.seedCatalog(ctx, t)
		owner := seller(t, "seller-1")
		l := deps.seedListing(ctx, t, owner.ID, model.ListingStatusPendingPayment)
		uc := deps.newPaymentUC()

		p, err := uc.CreatePaymentRecord(ctx, owner, l.ID, usecase.PackageSelection{StandardPackageID: strPtr("pkg-std")}, model.PaymentMethodVNPay)
		if err != nil {
			t.Fatalf("create payment: %v", err)
		}

		n, err := uc.ReconcilePending(ctx, time.Now().Add(time.Minute), 10)
		if err != nil {
			t.Fatalf("reconcile: %v", err)
		}
		if n != 0 {
			t.Fatalf("expected 0 settled payments, got %d", n)
		}
		gotPay, _ := deps.payments.FindByID(ctx, nil, p.ID)
		if gotPay.Status != model.PaymentStatusPending {
			t.Errorf("expected pending, got %s", gotPay.Status)
		}
	})
}

func TestPaymentUseCase_RevenueByPeriod(t *testing.T) {
	ctx := context.Background()
	deps := newUCDeps()
	uc := deps.newPaymentUC()

	if _, err := uc.RevenueByPeriod(ctx, "decade"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got: %v", err)
	}
	if _, err := uc.RevenueByPeriod(ctx, "month"); err != nil {
		t.Fatalf("expected no error for month, got: %v", err)
	}
}

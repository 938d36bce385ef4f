package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ev-marketplace/internal/domain"
	"ev-marketplace/internal/domain/model"
	"ev-marketplace/internal/domain/ports/repository"
	"ev-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ ListingUseCase = (*listingUC)(nil)

type ListingUseCase interface {
	Create(ctx context.Context, caller *model.Account, title string, price int64) (*model.Listing, error)
	Get(ctx context.Context, id string) (*model.Listing, error)
	ListBySeller(ctx context.Context, caller *model.Account) ([]*model.Listing, error)
	// ChoosePackage moves a draft (or retried pending_payment) listing
	// into pending_payment and opens a pending ledger entry. Returns the
	// payment and the gateway redirect URL.
	ChoosePackage(ctx context.Context, caller *model.Account, listingID string, sel PackageSelection, method model.PaymentMethod) (*model.PostPayment, string, error)
	Hide(ctx context.Context, caller *model.Account, listingID string) (*model.Listing, error)
	Unhide(ctx context.Context, caller *model.Account, listingID string) (*model.Listing, error)
	MarkSold(ctx context.Context, caller *model.Account, listingID string) (*model.Listing, error)
	// FinishExpired marks active listings past their base window as
	// expired; called by the expiry worker.
	FinishExpired(ctx context.Context) (int, error)
}

type listingUC struct {
	listings repository.ListingRepository
	payments repository.PaymentRepository
	packages repository.PackageRepository
	options  repository.PackageOptionRepository
	payUC    PaymentUseCase
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewListingUseCase(
	listings repository.ListingRepository,
	payments repository.PaymentRepository,
	packages repository.PackageRepository,
	options repository.PackageOptionRepository,
	payUC PaymentUseCase,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *listingUC {
	l := logger.With().Str("component", "ListingUC").Logger()
	return &listingUC{
		listings: listings,
		payments: payments,
		packages: packages,
		options:  options,
		payUC:    payUC,
		tm:       tm,
		log:      &l,
	}
}

func (u *listingUC) Create(ctx context.Context, caller *model.Account, title string, price int64) (*model.Listing, error) {
	l, err := model.NewListing("", caller.ID, title, price)
	if err != nil {
		return nil, err
	}
	if err := u.listings.Save(ctx, nil, l); err != nil {
		return nil, err
	}
	metrics.IncListingTransition("", string(model.ListingStatusDraft))
	return l, nil
}

func (u *listingUC) Get(ctx context.Context, id string) (*model.Listing, error) {
	return u.listings.FindByID(ctx, nil, id)
}

func (u *listingUC) ListBySeller(ctx context.Context, caller *model.Account) ([]*model.Listing, error) {
	return u.listings.ListBySeller(ctx, nil, caller.ID)
}

func (u *listingUC) ChoosePackage(ctx context.Context, caller *model.Account, listingID string, sel PackageSelection, method model.PaymentMethod) (*model.PostPayment, string, error) {
	// A first-time purchase must include the base term; an addon alone
	// has nothing to ride on.
	if sel.StandardPackageID == nil {
		return nil, "", domain.ErrInvalidArgument
	}

	var p *model.PostPayment
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		l, err := u.listings.FindByID(ctx, tx, listingID)
		if err != nil {
			return fmt.Errorf("listing %s: %w", listingID, err)
		}
		if l.SellerID != caller.ID {
			return domain.ErrNotOwner
		}
		if !l.CanChoosePackage() {
			return domain.ErrInvalidState
		}
		from := l.Status
		p, err = createPaymentTx(ctx, tx, u.payments, u.packages, u.options, caller, l, sel, method)
		if err != nil {
			return err
		}
		l.Status = model.ListingStatusPendingPayment
		l.UpdatedAt = time.Now()
		if err := u.listings.Save(ctx, tx, l); err != nil {
			return err
		}
		metrics.IncListingTransition(string(from), string(l.Status))
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	// Gateway round-trip happens outside the transaction so a slow
	// provider never holds row locks.
	url, err := u.payUC.InitiateGatewayPayment(ctx, p)
	if err != nil {
		return nil, "", err
	}
	return p, url, nil
}

func (u *listingUC) Hide(ctx context.Context, caller *model.Account, listingID string) (*model.Listing, error) {
	return u.transition(ctx, caller, listingID, model.ListingStatusActive, model.ListingStatusHidden)
}

func (u *listingUC) Unhide(ctx context.Context, caller *model.Account, listingID string) (*model.Listing, error) {
	return u.transition(ctx, caller, listingID, model.ListingStatusHidden, model.ListingStatusActive)
}

func (u *listingUC) MarkSold(ctx context.Context, caller *model.Account, listingID string) (*model.Listing, error) {
	return u.transition(ctx, caller, listingID, model.ListingStatusActive, model.ListingStatusSold)
}

func (u *listingUC) transition(ctx context.Context, caller *model.Account, listingID string, from, to model.ListingStatus) (*model.Listing, error) {
	var out *model.Listing
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		l, err := u.listings.FindByID(ctx, tx, listingID)
		if err != nil {
			return fmt.Errorf("listing %s: %w", listingID, err)
		}
		if l.SellerID != caller.ID && !caller.CanVerify() {
			return domain.ErrNotOwner
		}
		if l.Status != from {
			return domain.ErrInvalidState
		}
		l.Status = to
		l.UpdatedAt = time.Now()
		if err := u.listings.Save(ctx, tx, l); err != nil {
			return err
		}
		metrics.IncListingTransition(string(from), string(to))
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *listingUC) FinishExpired(ctx context.Context) (int, error) {
	now := time.Now()
	lapsed, err := u.listings.ListExpiredActive(ctx, nil, now, 200)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range lapsed {
		err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			cur, err := u.listings.FindByID(ctx, tx, l.ID)
			if err != nil {
				return err
			}
			// re-check under lock; a renewal may have raced the sweep
			if cur.Status != model.ListingStatusActive || cur.ExpiresAt == nil || cur.ExpiresAt.After(now) {
				return nil
			}
			cur.Status = model.ListingStatusExpired
			cur.UpdatedAt = now
			if err := u.listings.Save(ctx, tx, cur); err != nil {
				return err
			}
			metrics.IncListingTransition(string(model.ListingStatusActive), string(model.ListingStatusExpired))
			n++
			return nil
		})
		if err != nil {
			u.log.Warn().Err(err).Str("listing_id", l.ID).Msg("expiry sweep failed for listing")
		}
	}
	return n, nil
}

package usecase

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ev-marketplace/internal/domain"
	"ev-marketplace/internal/domain/model"
	"ev-marketplace/internal/domain/ports/repository"
)

// Compile-time check
var _ RenewalUseCase = (*renewalUC)(nil)

// RenewalQuote is the priced outcome of a renewal request. Dates are
// never touched at quote time; extensions apply when the payment
// completes.
type RenewalQuote struct {
	Payment *model.PostPayment
	PayURL  string
	Total   int64
}

type RenewalUseCase interface {
	// Renew opens a renewal payment for an active or expired listing.
	// At least one of a standard package or an addon option must be
	// chosen; an addon bought together with a standard package must be
	// strictly shorter than the package's base duration.
	Renew(ctx context.Context, caller *model.Account, listingID string, sel PackageSelection, method model.PaymentMethod) (*RenewalQuote, error)
}

type renewalUC struct {
	listings repository.ListingRepository
	payments repository.PaymentRepository
	packages repository.PackageRepository
	options  repository.PackageOptionRepository
	payUC    PaymentUseCase
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewRenewalUseCase(
	listings repository.ListingRepository,
	payments repository.PaymentRepository,
	packages repository.PackageRepository,
	options repository.PackageOptionRepository,
	payUC PaymentUseCase,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *renewalUC {
	l := logger.With().Str("component", "RenewalUC").Logger()
	return &renewalUC{
		listings: listings,
		payments: payments,
		packages: packages,
		options:  options,
		payUC:    payUC,
		tm:       tm,
		log:      &l,
	}
}

func (u *renewalUC) Renew(ctx context.Context, caller *model.Account, listingID string, sel PackageSelection, method model.PaymentMethod) (*RenewalQuote, error) {
	var p *model.PostPayment
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		l, err := u.listings.FindByID(ctx, tx, listingID)
		if err != nil {
			return fmt.Errorf("listing %s: %w", listingID, err)
		}
		if l.SellerID != caller.ID {
			return domain.ErrNotOwner
		}
		if !l.IsRenewable() {
			return domain.ErrInvalidState
		}
		p, err = createPaymentTx(ctx, tx, u.payments, u.packages, u.options, caller, l, sel, method)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Defensive: a zero-amount quote completes on the spot, no gateway
	// round-trip.
	if p.Amount == 0 {
		if err := u.payUC.HandleCallback(ctx, p.ID, true, "zero-amount"); err != nil {
			return nil, err
		}
		p.Status = model.PaymentStatusCompleted
		return &RenewalQuote{Payment: p, Total: 0}, nil
	}

	url, err := u.payUC.InitiateGatewayPayment(ctx, p)
	if err != nil {
		return nil, err
	}
	return &RenewalQuote{Payment: p, PayURL: url, Total: p.Amount}, nil
}

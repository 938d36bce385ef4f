package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ev-marketplace/internal/domain"
	"ev-marketplace/internal/domain/model"
	"ev-marketplace/internal/domain/ports/adapter"
	"ev-marketplace/internal/domain/ports/repository"
	"ev-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// Locker is an optional cross-replica single-flight for callback
// processing. The status compare-and-set in the repository is the real
// idempotency guarantee; the lock only suppresses wasted work.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

type PaymentUseCase interface {
	// CreatePaymentRecord validates a package selection and persists a
	// pending ledger entry. It does not touch the listing's money totals.
	CreatePaymentRecord(ctx context.Context, caller *model.Account, listingID string, sel PackageSelection, method model.PaymentMethod) (*model.PostPayment, error)
	// InitiateGatewayPayment asks the provider for a redirect URL. Runs
	// outside any transaction; offline methods return an empty URL.
	InitiateGatewayPayment(ctx context.Context, p *model.PostPayment) (string, error)
	// HandleCallback applies a gateway outcome exactly once. Repeated
	// callbacks for a terminal payment are successful no-ops.
	HandleCallback(ctx context.Context, paymentID string, success bool, gatewayRef string) error
	// HistoryByListing returns the append-only ledger for a listing.
	HistoryByListing(ctx context.Context, caller *model.Account, listingID string) ([]*model.PostPayment, error)
	// RevenueByPeriod sums completed payments since the period start.
	RevenueByPeriod(ctx context.Context, period string) (int64, error)
	// ReconcilePending re-queries the gateway for stale pending payments
	// and feeds definitive outcomes back through HandleCallback.
	ReconcilePending(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

type paymentUC struct {
	payments  repository.PaymentRepository
	listings  repository.ListingRepository
	packages  repository.PackageRepository
	options   repository.PackageOptionRepository
	gateways  *Gateways
	tm        repository.TransactionManager
	locker    Locker
	returnURL string
	log       *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	listings repository.ListingRepository,
	packages repository.PackageRepository,
	options repository.PackageOptionRepository,
	gateways *Gateways,
	tm repository.TransactionManager,
	locker Locker,
	returnURL string,
	logger *zerolog.Logger,
) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		payments:  payments,
		listings:  listings,
		packages:  packages,
		options:   options,
		gateways:  gateways,
		tm:        tm,
		locker:    locker,
		returnURL: returnURL,
		log:       &l,
	}
}

// createPaymentTx builds and persists a pending ledger entry inside an
// existing transaction. Shared by ChoosePackage, Renew and the
// standalone CreatePaymentRecord.
func createPaymentTx(
	ctx context.Context,
	tx repository.Tx,
	payments repository.PaymentRepository,
	packages repository.PackageRepository,
	options repository.PackageOptionRepository,
	caller *model.Account,
	l *model.Listing,
	sel PackageSelection,
	method model.PaymentMethod,
) (*model.PostPayment, error) {
	res, err := resolveSelection(ctx, tx, packages, options, sel)
	if err != nil {
		return nil, err
	}
	p, err := model.NewPostPayment(caller.ID, l.ID, res.packageID(), res.optionID(), res.total(), method, l.Status)
	if err != nil {
		return nil, err
	}
	if err := payments.Save(ctx, tx, p); err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusPending))
	return p, nil
}

func (u *paymentUC) CreatePaymentRecord(ctx context.Context, caller *model.Account, listingID string, sel PackageSelection, method model.PaymentMethod) (*model.PostPayment, error) {
	var p *model.PostPayment
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		l, err := u.listings.FindByID(ctx, tx, listingID)
		if err != nil {
			return fmt.Errorf("listing %s: %w", listingID, err)
		}
		if l.SellerID != caller.ID {
			return domain.ErrNotOwner
		}
		p, err = createPaymentTx(ctx, tx, u.payments, u.packages, u.options, caller, l, sel, method)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (u *paymentUC) InitiateGatewayPayment(ctx context.Context, p *model.PostPayment) (string, error) {
	gw, ok := u.gateways.ForMethod(p.Method)
	if !ok {
		// offline method, settled out of band
		return "", nil
	}
	url, err := gw.CreatePaymentURL(ctx, p.ID, p.Amount, u.returnURL)
	if err != nil {
		u.log.Error().Err(err).Str("payment_id", p.ID).Str("gateway", gw.Name()).Msg("create payment url failed")
		return "", fmt.Errorf("%s: %w", gw.Name(), domain.ErrGatewayUnavailable)
	}
	return url, nil
}

func (u *paymentUC) HandleCallback(ctx context.Context, paymentID string, success bool, gatewayRef string) error {
	if u.locker != nil {
		key := "payment:cb:" + paymentID
		token, err := u.locker.TryLock(ctx, key, 30*time.Second)
		if err != nil {
			return domain.ErrCallbackBusy
		}
		defer func() { _ = u.locker.Unlock(ctx, key, token) }()
	}

	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return fmt.Errorf("payment %s: %w", paymentID, err)
		}
		if p.Status.Terminal() {
			u.log.Info().Str("payment_id", paymentID).Str("status", string(p.Status)).Msg("duplicate callback ignored")
			metrics.IncCallback("duplicate")
			return nil
		}
		l, err := u.listings.FindByID(ctx, tx, p.ListingID)
		if err != nil {
			return fmt.Errorf("listing %s: %w", p.ListingID, err)
		}

		now := time.Now()
		if !success {
			return u.applyFailure(ctx, tx, p, l, now)
		}
		return u.applySuccess(ctx, tx, p, l, gatewayRef, now)
	})
}

func (u *paymentUC) applyFailure(ctx context.Context, tx repository.Tx, p *model.PostPayment, l *model.Listing, now time.Time) error {
	ok, err := u.payments.UpdateStatusIfPending(ctx, tx, p.ID, model.PaymentStatusFailed, "", nil)
	if err != nil {
		return err
	}
	if !ok {
		metrics.IncCallback("duplicate")
		return nil
	}
	// Restore the snapshot taken when the payment was created so the
	// listing is never stranded: a failed renewal leaves an active
	// listing active, a failed first-time payment stays pending_payment.
	from := l.Status
	l.Status = p.PrevListingStatus
	l.UpdatedAt = now
	if err := u.listings.Save(ctx, tx, l); err != nil {
		return err
	}
	metrics.IncPayment(string(model.PaymentStatusFailed))
	metrics.IncCallback("applied")
	u.log.Info().
		Str("payment_id", p.ID).
		Str("listing_id", l.ID).
		Str("from", string(from)).
		Str("to", string(l.Status)).
		Msg("payment failed")
	return nil
}

func (u *paymentUC) applySuccess(ctx context.Context, tx repository.Tx, p *model.PostPayment, l *model.Listing, gatewayRef string, now time.Time) error {
	ok, err := u.payments.UpdateStatusIfPending(ctx, tx, p.ID, model.PaymentStatusCompleted, gatewayRef, &now)
	if err != nil {
		return err
	}
	if !ok {
		metrics.IncCallback("duplicate")
		return nil
	}

	l.PostingFee += p.Amount

	if p.IsRenewal() {
		// Renewal: dates extend immediately, no re-review.
		if p.PackageID != nil {
			pkg, err := u.packages.FindByID(ctx, tx, *p.PackageID)
			if err != nil {
				return fmt.Errorf("package %s: %w", *p.PackageID, err)
			}
			if pkg.Kind == model.PackageKindStandard {
				l.ExtendExpiry(now, model.BaseListingDays)
			}
		}
		if p.OptionID != nil {
			opt, err := u.options.FindByID(ctx, tx, *p.OptionID)
			if err != nil {
				return fmt.Errorf("option %s: %w", *p.OptionID, err)
			}
			l.ExtendFeatured(now, opt.DurationDays)
		}
		l.Status = model.ListingStatusActive
	} else {
		// First-time flow: staff verification gates activation; dates
		// are computed at approval time.
		l.Status = model.ListingStatusPendingReview
	}
	l.UpdatedAt = now

	if err := u.listings.Save(ctx, tx, l); err != nil {
		return err
	}
	metrics.IncPayment(string(model.PaymentStatusCompleted))
	metrics.AddRevenue(string(p.Method), p.Amount)
	metrics.IncCallback("applied")
	u.log.Info().
		Str("payment_id", p.ID).
		Str("listing_id", l.ID).
		Int64("amount", p.Amount).
		Str("to", string(l.Status)).
		Msg("payment completed")
	return nil
}

func (u *paymentUC) HistoryByListing(ctx context.Context, caller *model.Account, listingID string) ([]*model.PostPayment, error) {
	l, err := u.listings.FindByID(ctx, nil, listingID)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", listingID, err)
	}
	if l.SellerID != caller.ID && !caller.CanVerify() {
		return nil, domain.ErrForbidden
	}
	return u.payments.ListByListing(ctx, nil, listingID)
}

func (u *paymentUC) RevenueByPeriod(ctx context.Context, period string) (int64, error) {
	switch period {
	case "week", "month", "year":
	default:
		return 0, domain.ErrInvalidArgument
	}
	return u.payments.SumCompletedByPeriod(ctx, nil, period)
}

func (u *paymentUC) ReconcilePending(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	pending, err := u.payments.ListPendingOlderThan(ctx, nil, olderThan, limit)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	n := 0
	for _, p := range pending {
		gw, ok := u.gateways.ForMethod(p.Method)
		if !ok {
			continue
		}
		outcome, err := gw.QueryPayment(ctx, p.ID)
		if err != nil {
			u.log.Warn().Err(err).Str("payment_id", p.ID).Msg("reconcile query failed")
			continue
		}
		switch outcome {
		case adapter.GatewayOutcomeSuccess:
			err = u.HandleCallback(ctx, p.ID, true, "")
		case adapter.GatewayOutcomeFailed:
			err = u.HandleCallback(ctx, p.ID, false, "")
		default:
			continue
		}
		if err != nil {
			u.log.Warn().Err(err).Str("payment_id", p.ID).Msg("reconcile apply failed")
			continue
		}
		n++
	}
	return n, nil
}

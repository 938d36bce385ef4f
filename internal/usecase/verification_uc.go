package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ev-marketplace/internal/domain"
	"ev-marketplace/internal/domain/model"
	"ev-marketplace/internal/domain/ports/repository"
	"ev-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ VerificationUseCase = (*verificationUC)(nil)

// VerificationUseCase is the staff-only gate between pending_review and
// active/rejected. Approval requires a completed payment so staff can
// never activate an unpaid listing.
type VerificationUseCase interface {
	Approve(ctx context.Context, caller *model.Account, listingID string) (*model.Listing, error)
	Reject(ctx context.Context, caller *model.Account, listingID, reason string) (*model.Listing, error)
	ListPendingReview(ctx context.Context, caller *model.Account, limit, offset int) ([]*model.Listing, error)
}

type verificationUC struct {
	listings repository.ListingRepository
	payments repository.PaymentRepository
	options  repository.PackageOptionRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewVerificationUseCase(
	listings repository.ListingRepository,
	payments repository.PaymentRepository,
	options repository.PackageOptionRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *verificationUC {
	l := logger.With().Str("component", "VerificationUC").Logger()
	return &verificationUC{listings: listings, payments: payments, options: options, tm: tm, log: &l}
}

func (u *verificationUC) Approve(ctx context.Context, caller *model.Account, listingID string) (*model.Listing, error) {
	if !caller.CanVerify() {
		return nil, domain.ErrForbidden
	}
	var out *model.Listing
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		l, err := u.listings.FindByID(ctx, tx, listingID)
		if err != nil {
			return fmt.Errorf("listing %s: %w", listingID, err)
		}
		if l.Status != model.ListingStatusPendingReview {
			return domain.ErrInvalidState
		}
		pay, err := u.payments.LatestCompletedByListing(ctx, tx, listingID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrPaymentRequired
			}
			return err
		}
		featuredDays := 0
		if pay.OptionID != nil {
			opt, err := u.options.FindByID(ctx, tx, *pay.OptionID)
			if err != nil {
				return fmt.Errorf("option %s: %w", *pay.OptionID, err)
			}
			featuredDays = opt.DurationDays
		}
		l.Activate(caller.ID, time.Now(), featuredDays)
		if err := u.listings.Save(ctx, tx, l); err != nil {
			return err
		}
		metrics.IncListingTransition(string(model.ListingStatusPendingReview), string(model.ListingStatusActive))
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("listing_id", listingID).Str("staff_id", caller.ID).Msg("listing approved")
	return out, nil
}

func (u *verificationUC) Reject(ctx context.Context, caller *model.Account, listingID, reason string) (*model.Listing, error) {
	if !caller.CanVerify() {
		return nil, domain.ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}
	var out *model.Listing
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		l, err := u.listings.FindByID(ctx, tx, listingID)
		if err != nil {
			return fmt.Errorf("listing %s: %w", listingID, err)
		}
		if l.Status != model.ListingStatusPendingReview {
			return domain.ErrInvalidState
		}
		l.Reject(caller.ID, reason, time.Now())
		if err := u.listings.Save(ctx, tx, l); err != nil {
			return err
		}
		metrics.IncListingTransition(string(model.ListingStatusPendingReview), string(model.ListingStatusRejected))
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("listing_id", listingID).Str("staff_id", caller.ID).Str("reason", reason).Msg("listing rejected")
	return out, nil
}

func (u *verificationUC) ListPendingReview(ctx context.Context, caller *model.Account, limit, offset int) ([]*model.Listing, error) {
	if !caller.CanVerify() {
		return nil, domain.ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return u.listings.ListByStatus(ctx, nil, model.ListingStatusPendingReview, limit, offset)
}

package repository

import (
	"context"
	"time"

	"ev-marketplace/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PostPayment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PostPayment, error)
	// UpdateStatusIfPending is a compare-and-set: it flips the status only
	// when the row is still pending and reports whether a row changed.
	// This is the idempotency backbone for at-least-once callbacks.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, gatewayRef string, paidAt *time.Time) (bool, error)
	// LatestCompletedByListing returns the most recent completed payment
	// for a listing, or ErrNotFound.
	LatestCompletedByListing(ctx context.Context, tx Tx, listingID string) (*model.PostPayment, error)
	ListByListing(ctx context.Context, tx Tx, listingID string) ([]*model.PostPayment, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.PostPayment, error)
	// SumCompletedByPeriod sums completed amounts since the start of the
	// given period ("week", "month", "year").
	SumCompletedByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ev-marketplace/internal/domain"
	"ev-marketplace/internal/domain/model"
	"ev-marketplace/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

const paymentCols = `id, account_id, listing_id, package_id, option_id, amount, method, status, prev_listing_status, gateway_ref, created_at, updated_at, paid_at`

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PostPayment) error {
	const q = `
INSERT INTO post_payments (` + paymentCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  status=$8, gateway_ref=$10, updated_at=$12, paid_at=$13;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.AccountID, p.ListingID, p.PackageID, p.OptionID, p.Amount, p.Method,
		p.Status, p.PrevListingStatus, p.GatewayRef, p.CreatedAt, p.UpdatedAt, p.PaidAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PostPayment, error) {
	q := `SELECT ` + paymentCols + ` FROM post_payments WHERE id=$1`
	if inTx(tx) {
		q += ` FOR UPDATE`
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

// UpdateStatusIfPending flips the status only when the row is still
// pending; the row count tells the caller whether this delivery won.
func (r *paymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayRef string, paidAt *time.Time) (bool, error) {
	const q = `
UPDATE post_payments
   SET status=$2,
       gateway_ref=CASE WHEN $3 <> '' THEN $3 ELSE gateway_ref END,
       paid_at=COALESCE($4, paid_at),
       updated_at=NOW()
 WHERE id=$1 AND status='pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, status, gatewayRef, paidAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *paymentRepo) LatestCompletedByListing(ctx context.Context, tx repository.Tx, listingID string) (*model.PostPayment, error) {
	const q = `SELECT ` + paymentCols + ` FROM post_payments WHERE listing_id=$1 AND status='completed' ORDER BY paid_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, listingID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) ListByListing(ctx context.Context, tx repository.Tx, listingID string) ([]*model.PostPayment, error) {
	const q = `SELECT ` + paymentCols + ` FROM post_payments WHERE listing_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, listingID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PostPayment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentCols + ` FROM post_payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *paymentRepo) SumCompletedByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM post_payments WHERE status='completed' AND paid_at >= DATE_TRUNC($1, NOW());`
	row, err := pickRow(ctx, r.pool, tx, q, period)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}

func scanPayment(row pgx.Row) (*model.PostPayment, error) {
	p := &model.PostPayment{}
	err := row.Scan(&p.ID, &p.AccountID, &p.ListingID, &p.PackageID, &p.OptionID, &p.Amount,
		&p.Method, &p.Status, &p.PrevListingStatus, &p.GatewayRef, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func collectPayments(rows pgx.Rows) ([]*model.PostPayment, error) {
	var out []*model.PostPayment
	for rows.Next() {
		p := &model.PostPayment{}
		err := rows.Scan(&p.ID, &p.AccountID, &p.ListingID, &p.PackageID, &p.OptionID, &p.Amount,
			&p.Method, &p.Status, &p.PrevListingStatus, &p.GatewayRef, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}

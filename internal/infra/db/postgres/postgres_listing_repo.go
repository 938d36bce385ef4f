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

var _ repository.ListingRepository = (*listingRepo)(nil)

const listingCols = `id, seller_id, title, price, status, posting_fee, reject_reason, approved_by_id, expires_at, featured_end_at, created_at, updated_at`

type listingRepo struct{ pool *pgxpool.Pool }

func NewListingRepo(pool *pgxpool.Pool) *listingRepo {
	return &listingRepo{pool: pool}
}

func (r *listingRepo) Save(ctx context.Context, tx repository.Tx, l *model.Listing) error {
	const q = `
INSERT INTO listings (` + listingCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  title=$3, price=$4, status=$5, posting_fee=$6, reject_reason=$7,
  approved_by_id=$8, expires_at=$9, featured_end_at=$10, updated_at=$12;`

	_, err := execSQL(ctx, r.pool, tx, q,
		l.ID, l.SellerID, l.Title, l.Price, l.Status, l.PostingFee, l.RejectReason,
		l.ApprovedByID, l.ExpiresAt, l.FeaturedEndAt, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *listingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Listing, error) {
	q := `SELECT ` + listingCols + ` FROM listings WHERE id=$1`
	if inTx(tx) {
		q += ` FOR UPDATE`
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanListing(row)
}

func (r *listingRepo) ListBySeller(ctx context.Context, tx repository.Tx, sellerID string) ([]*model.Listing, error) {
	const q = `SELECT ` + listingCols + ` FROM listings WHERE seller_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, sellerID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectListings(rows)
}

func (r *listingRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.ListingStatus, limit, offset int) ([]*model.Listing, error) {
	const q = `SELECT ` + listingCols + ` FROM listings WHERE status=$1 ORDER BY updated_at ASC LIMIT $2 OFFSET $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, status, limit, offset)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectListings(rows)
}

func (r *listingRepo) ListExpiredActive(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Listing, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + listingCols + ` FROM listings WHERE status='active' AND expires_at IS NOT NULL AND expires_at < $1 ORDER BY expires_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, cutoff, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectListings(rows)
}

func scanListing(row pgx.Row) (*model.Listing, error) {
	l := &model.Listing{}
	err := row.Scan(&l.ID, &l.SellerID, &l.Title, &l.Price, &l.Status, &l.PostingFee,
		&l.RejectReason, &l.ApprovedByID, &l.ExpiresAt, &l.FeaturedEndAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return l, nil
}

func collectListings(rows pgx.Rows) ([]*model.Listing, error) {
	var out []*model.Listing
	for rows.Next() {
		l := &model.Listing{}
		err := rows.Scan(&l.ID, &l.SellerID, &l.Title, &l.Price, &l.Status, &l.PostingFee,
			&l.RejectReason, &l.ApprovedByID, &l.ExpiresAt, &l.FeaturedEndAt, &l.CreatedAt, &l.UpdatedAt)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, l)
	}
	return out, nil
}

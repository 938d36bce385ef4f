package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ev-marketplace/internal/domain"
	"ev-marketplace/internal/domain/model"
	"ev-marketplace/internal/domain/ports/repository"
)

var (
	_ repository.PackageRepository       = (*packageRepo)(nil)
	_ repository.PackageOptionRepository = (*packageOptionRepo)(nil)
)

type packageRepo struct{ pool *pgxpool.Pool }

func NewPackageRepo(pool *pgxpool.Pool) *packageRepo {
	return &packageRepo{pool: pool}
}

func (r *packageRepo) Save(ctx context.Context, tx repository.Tx, p *model.PostPackage) error {
	const q = `
INSERT INTO post_packages (id, kind, name, base_duration_days, price, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  kind=$2, name=$3, base_duration_days=$4, price=$5, status=$6;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Kind, p.Name, p.BaseDurationDays, p.Price, p.Status, p.CreatedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *packageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PostPackage, error) {
	const q = `SELECT id, kind, name, base_duration_days, price, status, created_at FROM post_packages WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p := &model.PostPackage{}
	if err := row.Scan(&p.ID, &p.Kind, &p.Name, &p.BaseDurationDays, &p.Price, &p.Status, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *packageRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.PostPackage, error) {
	const q = `SELECT id, kind, name, base_duration_days, price, status, created_at FROM post_packages WHERE status='active' ORDER BY kind, base_duration_days;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PostPackage
	for rows.Next() {
		p := &model.PostPackage{}
		if err := rows.Scan(&p.ID, &p.Kind, &p.Name, &p.BaseDurationDays, &p.Price, &p.Status, &p.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}

type packageOptionRepo struct{ pool *pgxpool.Pool }

func NewPackageOptionRepo(pool *pgxpool.Pool) *packageOptionRepo {
	return &packageOptionRepo{pool: pool}
}

func (r *packageOptionRepo) Save(ctx context.Context, tx repository.Tx, o *model.PackageOption) error {
	const q = `
INSERT INTO package_options (id, package_id, duration_days, price, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET duration_days=$3, price=$4;`

	_, err := execSQL(ctx, r.pool, tx, q, o.ID, o.PackageID, o.DurationDays, o.Price, o.CreatedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *packageOptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PackageOption, error) {
	const q = `SELECT id, package_id, duration_days, price, created_at FROM package_options WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	o := &model.PackageOption{}
	if err := row.Scan(&o.ID, &o.PackageID, &o.DurationDays, &o.Price, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return o, nil
}

func (r *packageOptionRepo) ListByPackage(ctx context.Context, tx repository.Tx, packageID string) ([]*model.PackageOption, error) {
	const q = `SELECT id, package_id, duration_days, price, created_at FROM package_options WHERE package_id=$1 ORDER BY duration_days;`
	rows, err := queryRows(ctx, r.pool, tx, q, packageID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PackageOption
	for rows.Next() {
		o := &model.PackageOption{}
		if err := rows.Scan(&o.ID, &o.PackageID, &o.DurationDays, &o.Price, &o.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, o)
	}
	return out, nil
}

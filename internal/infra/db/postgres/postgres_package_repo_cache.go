package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ev-marketplace/internal/domain/model"
	"ev-marketplace/internal/domain/ports/repository"
	"ev-marketplace/internal/infra/metrics"
	red "ev-marketplace/internal/infra/redis"
)

var _ repository.PackageRepository = (*packageRepoCacheDecorator)(nil)

// packageRepoCacheDecorator is a read-through cache over the package
// catalog. The catalog is read on every quote and only changes when
// staff edit it, so a short TTL plus write invalidation is enough.
type packageRepoCacheDecorator struct {
	inner repository.PackageRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPackageRepoCacheDecorator(inner repository.PackageRepository, cache red.RedisClient, ttl time.Duration) repository.PackageRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &packageRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *packageRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PostPackage, error) {
	// transactional reads bypass the cache; they want current rows
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	key := fmt.Sprintf("pkg:%s", id)
	if val, err := d.cache.Get(ctx, key); err == nil {
		metrics.IncCacheRequest("package", "hit")
		var p model.PostPackage
		if json.Unmarshal([]byte(val), &p) == nil {
			return &p, nil
		}
	} else if err != redis.Nil {
		// a real redis error; fall through to the database
	}

	metrics.IncCacheRequest("package", "miss")
	p, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return p, nil
}

func (d *packageRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.PostPackage) error {
	_ = d.cache.Del(ctx, fmt.Sprintf("pkg:%s", p.ID), "pkgs:active")
	return d.inner.Save(ctx, tx, p)
}

func (d *packageRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.PostPackage, error) {
	if tx != nil {
		return d.inner.ListActive(ctx, tx)
	}
	const key = "pkgs:active"
	if val, err := d.cache.Get(ctx, key); err == nil {
		metrics.IncCacheRequest("package_list", "hit")
		var pkgs []*model.PostPackage
		if json.Unmarshal([]byte(val), &pkgs) == nil {
			return pkgs, nil
		}
	}

	metrics.IncCacheRequest("package_list", "miss")
	pkgs, err := d.inner.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(pkgs) > 0 {
		if b, err := json.Marshal(pkgs); err == nil {
			_ = d.cache.Set(ctx, key, b, d.ttl)
		}
	}
	return pkgs, nil
}

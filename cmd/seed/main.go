package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"ev-marketplace/internal/config"
	"ev-marketplace/internal/domain/model"
	pg "ev-marketplace/internal/infra/db/postgres"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	role       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS listings (
	id              TEXT PRIMARY KEY,
	seller_id       TEXT NOT NULL REFERENCES accounts(id),
	title           TEXT NOT NULL,
	price           BIGINT NOT NULL,
	status          TEXT NOT NULL,
	posting_fee     BIGINT NOT NULL DEFAULT 0,
	reject_reason   TEXT,
	approved_by_id  TEXT,
	expires_at      TIMESTAMPTZ,
	featured_end_at TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);`,
	`CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings(seller_id);`,
	`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status, updated_at);`,
	`CREATE INDEX IF NOT EXISTS idx_listings_expiry ON listings(status, expires_at);`,
	`CREATE TABLE IF NOT EXISTS post_packages (
	id                 TEXT PRIMARY KEY,
	kind               TEXT NOT NULL,
	name               TEXT NOT NULL,
	base_duration_days INT NOT NULL,
	price              BIGINT NOT NULL,
	status             TEXT NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS package_options (
	id            TEXT PRIMARY KEY,
	package_id    TEXT NOT NULL REFERENCES post_packages(id),
	duration_days INT NOT NULL,
	price         BIGINT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS post_payments (
	id                  TEXT PRIMARY KEY,
	account_id          TEXT NOT NULL REFERENCES accounts(id),
	listing_id          TEXT NOT NULL REFERENCES listings(id),
	package_id          TEXT REFERENCES post_packages(id),
	option_id           TEXT REFERENCES package_options(id),
	amount              BIGINT NOT NULL,
	method              TEXT NOT NULL,
	status              TEXT NOT NULL,
	prev_listing_status TEXT NOT NULL,
	gateway_ref         TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL,
	paid_at             TIMESTAMPTZ
);`,
	`CREATE INDEX IF NOT EXISTS idx_payments_listing ON post_payments(listing_id, created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_payments_pending ON post_payments(status, created_at);`,
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("schema: %v", err)
		}
	}
	fmt.Println("schema ensured")

	packageRepo := pg.NewPackageRepo(pool)
	optionRepo := pg.NewPackageOptionRepo(pool)
	accountRepo := pg.NewAccountRepo(pool)

	// If the catalog already exists, do nothing.
	pkgs, err := packageRepo.ListActive(ctx, nil)
	if err != nil {
		log.Fatalf("list packages: %v", err)
	}
	if len(pkgs) > 0 {
		fmt.Printf("%d packages already present. No changes.\n", len(pkgs))
		return
	}

	seedPackages := []struct {
		ID    string
		Kind  model.PackageKind
		Name  string
		Days  int
		Price int64
	}{
		{"pkg-standard-30", model.PackageKindStandard, "Standard 30 days", 30, 150_000},
		{"pkg-priority", model.PackageKindPriority, "Priority placement", 30, 0},
		{"pkg-special", model.PackageKindSpecial, "Homepage spotlight", 30, 0},
	}
	for _, s := range seedPackages {
		p, err := model.NewPostPackage(s.ID, s.Kind, s.Name, s.Days, s.Price)
		if err != nil {
			log.Fatalf("package %q: %v", s.Name, err)
		}
		if err := packageRepo.Save(ctx, nil, p); err != nil {
			log.Fatalf("save package %q: %v", s.Name, err)
		}
		fmt.Printf("seeded package: %s (kind=%s, days=%d, price=%d VND)\n", p.Name, p.Kind, p.BaseDurationDays, p.Price)
	}

	seedOptions := []struct {
		ID        string
		PackageID string
		Days      int
		Price     int64
	}{
		{"opt-priority-7", "pkg-priority", 7, 70_000},
		{"opt-priority-15", "pkg-priority", 15, 130_000},
		{"opt-special-7", "pkg-special", 7, 120_000},
		{"opt-special-15", "pkg-special", 15, 220_000},
	}
	for _, s := range seedOptions {
		o, err := model.NewPackageOption(s.ID, s.PackageID, s.Days, s.Price)
		if err != nil {
			log.Fatalf("option %q: %v", s.ID, err)
		}
		if err := optionRepo.Save(ctx, nil, o); err != nil {
			log.Fatalf("save option %q: %v", s.ID, err)
		}
		fmt.Printf("seeded option: %s (package=%s, days=%d, price=%d VND)\n", o.ID, o.PackageID, o.DurationDays, o.Price)
	}

	staff, err := model.NewAccount("", "staff@example.com", model.RoleStaff)
	if err != nil {
		log.Fatalf("staff account: %v", err)
	}
	if err := accountRepo.Save(ctx, nil, staff); err != nil {
		log.Fatalf("save staff account: %v", err)
	}
	fmt.Printf("seeded staff account: %s (id=%s)\n", staff.Email, staff.ID)

	fmt.Println("seeding complete")
}

package repository

import (
	"context"

	"ev-marketplace/internal/domain/model"
)

// PackageRepository is the port for the pricing package catalog.
type PackageRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PostPackage) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PostPackage, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.PostPackage, error)
}

// PackageOptionRepository is the port for addon package options.
type PackageOptionRepository interface {
	Save(ctx context.Context, tx Tx, o *model.PackageOption) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PackageOption, error)
	ListByPackage(ctx context.Context, tx Tx, packageID string) ([]*model.PackageOption, error)
}

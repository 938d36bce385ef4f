package repository

import (
	"context"
	"time"

	"ev-marketplace/internal/domain/model"
)

// ListingRepository is the port for product listing persistence.
// FindByID takes a row lock when called with a live transaction handle so
// listing and payment mutations stay consistent under concurrent callbacks.
type ListingRepository interface {
	Save(ctx context.Context, tx Tx, l *model.Listing) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Listing, error)
	ListBySeller(ctx context.Context, tx Tx, sellerID string) ([]*model.Listing, error)
	ListByStatus(ctx context.Context, tx Tx, status model.ListingStatus, limit, offset int) ([]*model.Listing, error)
	// ListExpiredActive returns active listings whose base window lapsed
	// before the cutoff; used by the expiry sweep.
	ListExpiredActive(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.Listing, error)
}

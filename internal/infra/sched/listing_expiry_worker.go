package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ev-marketplace/internal/usecase"
)

// ListingExpiryWorker sweeps active listings whose base window has
// lapsed and marks them expired.
type ListingExpiryWorker struct {
	listingUC usecase.ListingUseCase
	interval  time.Duration
	log       *zerolog.Logger
}

func NewListingExpiryWorker(listingUC usecase.ListingUseCase, interval time.Duration, logger *zerolog.Logger) *ListingExpiryWorker {
	l := logger.With().Str("component", "ListingExpiryWorker").Logger()
	return &ListingExpiryWorker{listingUC: listingUC, interval: interval, log: &l}
}

// Run blocks until ctx is cancelled.
func (w *ListingExpiryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.log.Info().Dur("interval", w.interval).Msg("listing expiry worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("listing expiry worker stopped")
			return
		case <-ticker.C:
			n, err := w.listingUC.FinishExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep failed")
				continue
			}
			if n > 0 {
				w.log.Info().Int("expired", n).Msg("expiry sweep finished listings")
			}
		}
	}
}

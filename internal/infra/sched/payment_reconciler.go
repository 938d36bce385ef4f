package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ev-marketplace/internal/usecase"
)

// PaymentReconciler periodically re-queries the gateway for payments
// stuck in pending, typically because the payer abandoned checkout or a
// callback was lost.
type PaymentReconciler struct {
	payUC      usecase.PaymentUseCase
	interval   time.Duration
	staleAfter time.Duration
	log        *zerolog.Logger
}

func NewPaymentReconciler(payUC usecase.PaymentUseCase, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	l := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{payUC: payUC, interval: interval, staleAfter: staleAfter, log: &l}
}

// Run blocks until ctx is cancelled.
func (w *PaymentReconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.log.Info().Dur("interval", w.interval).Msg("payment reconciler started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("payment reconciler stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *PaymentReconciler) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	n, err := w.payUC.ReconcilePending(ctx, cutoff, 100)
	if err != nil {
		w.log.Error().Err(err).Msg("reconcile sweep failed")
		return
	}
	if n > 0 {
		w.log.Info().Int("settled", n).Msg("reconcile sweep applied outcomes")
	}
}

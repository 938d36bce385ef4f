package payment

import (
	"context"
	"fmt"

	"ev-marketplace/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway is a dev-mode gateway: every payment gets a fake URL and
// every query reports success, so flows can be exercised end to end
// without provider credentials.
type NoopGateway struct{}

func NewNoopGateway() *NoopGateway { return &NoopGateway{} }

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) CreatePaymentURL(ctx context.Context, paymentID string, amount int64, returnURL string) (string, error) {
	return fmt.Sprintf("https://pay.invalid/checkout/%s?amount=%d", paymentID, amount), nil
}

func (g *NoopGateway) VerifyCallback(params map[string]string) bool { return true }

func (g *NoopGateway) QueryPayment(ctx context.Context, paymentID string) (adapter.GatewayOutcome, error) {
	return adapter.GatewayOutcomeSuccess, nil
}

package adapter

import "context"

// GatewayOutcome is the provider-side status of a payment as reported by
// a callback or a reconciliation query.
type GatewayOutcome int

const (
	GatewayOutcomePending GatewayOutcome = iota
	GatewayOutcomeSuccess
	GatewayOutcomeFailed
)

// PaymentGateway is the capability port every concrete provider (VNPay,
// MoMo, noop) is reduced to. The core never sees provider wire formats.
type PaymentGateway interface {
	Name() string
	// CreatePaymentURL registers the payment with the provider and returns
	// the redirect URL for the payer.
	CreatePaymentURL(ctx context.Context, paymentID string, amount int64, returnURL string) (string, error)
	// VerifyCallback checks the provider signature over callback params.
	VerifyCallback(params map[string]string) bool
	// QueryPayment asks the provider for the current outcome; used by the
	// reconciler for payments whose callback never arrived.
	QueryPayment(ctx context.Context, paymentID string) (GatewayOutcome, error)
}

package usecase

import (
	"ev-marketplace/internal/domain/model"
	"ev-marketplace/internal/domain/ports/adapter"
)

// Gateways routes a payment method to its gateway. Offline methods
// (cash, bank transfer) have no gateway and therefore no redirect URL.
type Gateways struct {
	byMethod map[model.PaymentMethod]adapter.PaymentGateway
}

func NewGateways() *Gateways {
	return &Gateways{byMethod: make(map[model.PaymentMethod]adapter.PaymentGateway)}
}

func (g *Gateways) Register(m model.PaymentMethod, gw adapter.PaymentGateway) {
	g.byMethod[m] = gw
}

func (g *Gateways) ForMethod(m model.PaymentMethod) (adapter.PaymentGateway, bool) {
	gw, ok := g.byMethod[m]
	return gw, ok
}

// ForName finds a registered gateway by its provider name; used by the
// callback layer to verify signatures.
func (g *Gateways) ForName(name string) (adapter.PaymentGateway, bool) {
	for _, gw := range g.byMethod {
		if gw.Name() == name {
			return gw, true
		}
	}
	return nil, false
}

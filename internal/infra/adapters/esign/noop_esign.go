package esign

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ev-marketplace/internal/domain/model"
	"ev-marketplace/internal/domain/ports/adapter"
)

var _ adapter.ESignatureProvider = (*NoopProvider)(nil)

// NoopProvider satisfies the e-signature port for environments without
// provider credentials. The purchase-request flow gets stable fake URLs.
type NoopProvider struct{}

func NewNoopProvider() *NoopProvider { return &NoopProvider{} }

func (p *NoopProvider) CreateContract(ctx context.Context, buyerID, sellerID string, listing *model.Listing) (*adapter.Contract, error) {
	id := uuid.NewString()
	return &adapter.Contract{
		ContractID:  id,
		ContractURL: fmt.Sprintf("https://esign.invalid/contracts/%s", id),
		SignURLs: map[string]string{
			buyerID:  fmt.Sprintf("https://esign.invalid/contracts/%s/sign/%s", id, buyerID),
			sellerID: fmt.Sprintf("https://esign.invalid/contracts/%s/sign/%s", id, sellerID),
		},
	}, nil
}

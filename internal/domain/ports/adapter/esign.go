package adapter

import (
	"context"

	"ev-marketplace/internal/domain/model"
)

// Contract is the provider-side handle for a purchase contract.
type Contract struct {
	ContractID  string
	ContractURL string
	// SignURLs maps account ID to that party's signing URL.
	SignURLs map[string]string
}

// ESignatureProvider is consumed by the purchase-request flow; the core
// only guarantees listings expose the product and price data it needs.
type ESignatureProvider interface {
	CreateContract(ctx context.Context, buyerID, sellerID string, listing *model.Listing) (*Contract, error)
}

package model

import (
	"time"

	"ev-marketplace/internal/domain"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // record created; awaiting gateway outcome
	PaymentStatusCompleted PaymentStatus = "completed" // gateway confirmed; listing effects applied
	PaymentStatusFailed    PaymentStatus = "failed"    // gateway declined or user aborted
)

// Terminal reports whether further callbacks for this status are no-ops.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodMoMo         PaymentMethod = "momo"
	PaymentMethodZaloPay      PaymentMethod = "zalo_pay"
	PaymentMethodVNPay        PaymentMethod = "vnpay"
)

// PostPayment is one ledger entry for a package purchase on a listing.
// The ledger is append-only; entries transition pending -> completed or
// pending -> failed exactly once.
type PostPayment struct {
	ID        string
	AccountID string // payer
	ListingID string
	PackageID *string // at least one of PackageID/OptionID is set
	OptionID  *string
	Amount    int64 // VND
	Method    PaymentMethod
	Status    PaymentStatus
	// PrevListingStatus snapshots the listing status at creation time so a
	// failure callback can restore it instead of stranding the listing.
	PrevListingStatus ListingStatus
	GatewayRef        string // provider transaction reference, set on completion
	CreatedAt         time.Time
	UpdatedAt         time.Time
	PaidAt            *time.Time
}

func NewPostPayment(accountID, listingID string, packageID, optionID *string, amount int64, method PaymentMethod, prev ListingStatus) (*PostPayment, error) {
	if accountID == "" || listingID == "" || amount < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if packageID == nil && optionID == nil {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &PostPayment{
		ID:                uuid.NewString(),
		AccountID:         accountID,
		ListingID:         listingID,
		PackageID:         packageID,
		OptionID:          optionID,
		Amount:            amount,
		Method:            method,
		Status:            PaymentStatusPending,
		PrevListingStatus: prev,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// IsRenewal reports whether this payment was taken against an already
// published listing (renewal flow) rather than a first-time submission.
func (p *PostPayment) IsRenewal() bool {
	return p.PrevListingStatus == ListingStatusActive || p.PrevListingStatus == ListingStatusExpired
}

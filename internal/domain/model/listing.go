package model

import (
	"time"

	"ev-marketplace/internal/domain"

	"github.com/google/uuid"
)

type ListingStatus string

const (
	ListingStatusDraft          ListingStatus = "draft"
	ListingStatusPendingPayment ListingStatus = "pending_payment"
	ListingStatusPendingReview  ListingStatus = "pending_review"
	ListingStatusActive         ListingStatus = "active"
	ListingStatusRejected       ListingStatus = "rejected"
	ListingStatusExpired        ListingStatus = "expired"
	ListingStatusSold           ListingStatus = "sold"
	ListingStatusHidden         ListingStatus = "hidden"
)

// BaseListingDays is the base visibility window granted by a standard
// package purchase or a staff approval.
const BaseListingDays = 30

// Listing is a sellable product post (vehicle or battery).
type Listing struct {
	ID            string
	SellerID      string
	Title         string
	Price         int64 // VND
	Status        ListingStatus
	PostingFee    int64 // accumulated promotion spend, VND
	RejectReason  *string
	ApprovedByID  *string
	ExpiresAt     *time.Time
	FeaturedEndAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewListing(id, sellerID, title string, price int64) (*Listing, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if sellerID == "" || title == "" || price < 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Listing{
		ID:        id,
		SellerID:  sellerID,
		Title:     title,
		Price:     price,
		Status:    ListingStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (l *Listing) IsZero() bool { return l == nil || l.ID == "" }

// CanChoosePackage reports whether the listing may enter the first-time
// payment flow. Pending payment is included so a seller whose payment
// failed can retry.
func (l *Listing) CanChoosePackage() bool {
	return l.Status == ListingStatusDraft || l.Status == ListingStatusPendingPayment
}

// IsRenewable reports whether additional duration may be purchased.
func (l *Listing) IsRenewable() bool {
	return l.Status == ListingStatusActive || l.Status == ListingStatusExpired
}

// Activate applies a staff approval: the base window starts now and the
// featured window covers the purchased addon option, if any.
func (l *Listing) Activate(staffID string, now time.Time, featuredDays int) {
	l.Status = ListingStatusActive
	l.RejectReason = nil
	l.ApprovedByID = &staffID
	exp := now.AddDate(0, 0, BaseListingDays)
	l.ExpiresAt = &exp
	if featuredDays > 0 {
		feat := now.AddDate(0, 0, featuredDays)
		l.FeaturedEndAt = &feat
	} else {
		l.FeaturedEndAt = nil
	}
	l.UpdatedAt = now
}

// Reject applies a staff rejection. Dates are left untouched.
func (l *Listing) Reject(staffID, reason string, now time.Time) {
	l.Status = ListingStatusRejected
	l.RejectReason = &reason
	l.ApprovedByID = &staffID
	l.UpdatedAt = now
}

// ExtendExpiry pushes the base expiry forward by days, anchored at the
// later of now and the current expiry so remaining time is never lost.
func (l *Listing) ExtendExpiry(now time.Time, days int) {
	anchor := now
	if l.ExpiresAt != nil && l.ExpiresAt.After(now) {
		anchor = *l.ExpiresAt
	}
	exp := anchor.AddDate(0, 0, days)
	l.ExpiresAt = &exp
	l.UpdatedAt = now
}

// ExtendFeatured pushes the featured window forward by days, with the
// same max(now, current) anchoring as ExtendExpiry.
func (l *Listing) ExtendFeatured(now time.Time, days int) {
	anchor := now
	if l.FeaturedEndAt != nil && l.FeaturedEndAt.After(now) {
		anchor = *l.FeaturedEndAt
	}
	feat := anchor.AddDate(0, 0, days)
	l.FeaturedEndAt = &feat
	l.UpdatedAt = now
}

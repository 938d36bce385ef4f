//go:build !integration

package model_test

import (
	"errors"
	"testing"
	"time"

	"ev-marketplace/internal/domain"
	"ev-marketplace/internal/domain/model"
)

func TestNewListing(t *testing.T) {
	t.Run("starts in draft", func(t *testing.T) {
		l, err := model.NewListing("", "seller-1", "Nissan Leaf 2021", 400_000_000)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if l.Status != model.ListingStatusDraft {
			t.Errorf("expected draft, got %s", l.Status)
		}
		if l.ID == "" {
			t.Error("expected a generated id")
		}
	})

	t.Run("validates inputs", func(t *testing.T) {
		cases := []struct {
			name     string
			sellerID string
			title    string
			price    int64
		}{
			{"missing seller", "", "Nissan Leaf", 1},
			{"missing title", "seller-1", "", 1},
			{"negative price", "seller-1", "Nissan Leaf", -1},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := model.NewListing("", tc.sellerID, tc.title, tc.price); !errors.Is(err, domain.ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got: %v", err)
				}
			})
		}
	})
}

func TestListing_Guards(t *testing.T) {
	l := &model.Listing{}

	choosable := map[model.ListingStatus]bool{
		model.ListingStatusDraft:          true,
		model.ListingStatusPendingPayment: true,
	}
	renewable := map[model.ListingStatus]bool{
		model.ListingStatusActive:  true,
		model.ListingStatusExpired: true,
	}
	all := []model.ListingStatus{
		model.ListingStatusDraft, model.ListingStatusPendingPayment,
		model.ListingStatusPendingReview, model.ListingStatusActive,
		model.ListingStatusRejected, model.ListingStatusExpired,
		model.ListingStatusSold, model.ListingStatusHidden,
	}
	for _, st := range all {
		l.Status = st
		if got := l.CanChoosePackage(); got != choosable[st] {
			t.Errorf("CanChoosePackage(%s) = %v, want %v", st, got, choosable[st])
		}
		if got := l.IsRenewable(); got != renewable[st] {
			t.Errorf("IsRenewable(%s) = %v, want %v", st, got, renewable[st])
		}
	}
}

func TestListing_Activate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reason := "old"
	l := &model.Listing{Status: model.ListingStatusPendingReview, RejectReason: &reason}

	l.Activate("staff-1", now, 7)

	if l.Status != model.ListingStatusActive {
		t.Errorf("expected active, got %s", l.Status)
	}
	if l.RejectReason != nil {
		t.Error("expected reject reason cleared")
	}
	if want := now.AddDate(0, 0, model.BaseListingDays); !l.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, l.ExpiresAt)
	}
	if want := now.AddDate(0, 0, 7); !l.FeaturedEndAt.Equal(want) {
		t.Errorf("expected featured end %v, got %v", want, l.FeaturedEndAt)
	}

	l.Activate("staff-1", now, 0)
	if l.FeaturedEndAt != nil {
		t.Error("expected no featured window without an addon")
	}
}

func TestListing_ExtendExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("future expiry anchors at the expiry", func(t *testing.T) {
		exp := now.AddDate(0, 0, 10)
		l := &model.Listing{ExpiresAt: &exp}
		l.ExtendExpiry(now, 30)
		if want := exp.AddDate(0, 0, 30); !l.ExpiresAt.Equal(want) {
			t.Errorf("expected %v, got %v", want, l.ExpiresAt)
		}
	})

	t.Run("past expiry anchors at now", func(t *testing.T) {
		exp := now.AddDate(0, 0, -10)
		l := &model.Listing{ExpiresAt: &exp}
		l.ExtendExpiry(now, 30)
		if want := now.AddDate(0, 0, 30); !l.ExpiresAt.Equal(want) {
			t.Errorf("expected %v, got %v", want, l.ExpiresAt)
		}
	})

	t.Run("no expiry anchors at now", func(t *testing.T) {
		l := &model.Listing{}
		l.ExtendExpiry(now, 30)
		if want := now.AddDate(0, 0, 30); !l.ExpiresAt.Equal(want) {
			t.Errorf("expected %v, got %v", want, l.ExpiresAt)
		}
	})

	t.Run("extension never shortens the window", func(t *testing.T) {
		exp := now.AddDate(0, 0, 25)
		l := &model.Listing{ExpiresAt: &exp}
		l.ExtendExpiry(now, 1)
		if l.ExpiresAt.Before(exp) {
			t.Errorf("window shrank: %v -> %v", exp, l.ExpiresAt)
		}
	})
}

func TestListing_ExtendFeatured(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	feat := now.AddDate(0, 0, 3)
	l := &model.Listing{FeaturedEndAt: &feat}
	l.ExtendFeatured(now, 7)
	if want := feat.AddDate(0, 0, 7); !l.FeaturedEndAt.Equal(want) {
		t.Errorf("expected %v, got %v", want, l.FeaturedEndAt)
	}

	l = &model.Listing{}
	l.ExtendFeatured(now, 7)
	if want := now.AddDate(0, 0, 7); !l.FeaturedEndAt.Equal(want) {
		t.Errorf("expected %v, got %v", want, l.FeaturedEndAt)
	}
}

//go:build !integration

package payment

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"ev-marketplace/internal/config"
)

func testVNPay() *VNPayGateway {
	g := NewVNPayGateway(config.VNPayConfig{
		TmnCode:    "TESTCODE",
		HashSecret: "supersecret",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
	})
	g.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return g
}

func TestVNPayGateway_CreatePaymentURL(t *testing.T) {
	g := testVNPay()

	raw, err := g.CreatePaymentURL(context.Background(), "pay-123", 150_000, "https://shop.example/return")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	q := u.Query()
	if q.Get("vnp_TxnRef") != "pay-123" {
		t.Errorf("expected txn ref pay-123, got %q", q.Get("vnp_TxnRef"))
	}
	// VNPay takes the amount in hundredths of a dong.
	if q.Get("vnp_Amount") != "15000000" {
		t.Errorf("expected amount 15000000, got %q", q.Get("vnp_Amount"))
	}
	if q.Get("vnp_SecureHash") == "" {
		t.Error("expected a secure hash")
	}
	if !strings.HasPrefix(raw, "https://sandbox.vnpayment.vn/") {
		t.Errorf("unexpected base url: %s", raw)
	}
}

func TestVNPayGateway_VerifyCallback(t *testing.T) {
	g := testVNPay()

	params := map[string]string{
		"vnp_TxnRef":       "pay-123",
		"vnp_Amount":       "15000000",
		"vnp_ResponseCode": "00",
	}
	params["vnp_SecureHash"] = hmacSHA512(g.hashSecret, encodeSorted(params))

	t.Run("accepts a correctly signed callback", func(t *testing.T) {
		if !g.VerifyCallback(params) {
			t.Error("expected the signature to verify")
		}
	})

	t.Run("rejects a tampered amount", func(t *testing.T) {
		bad := make(map[string]string, len(params))
		for k, v := range params {
			bad[k] = v
		}
		bad["vnp_Amount"] = "100"
		if g.VerifyCallback(bad) {
			t.Error("expected the signature to fail")
		}
	})

	t.Run("rejects a missing hash", func(t *testing.T) {
		if g.VerifyCallback(map[string]string{"vnp_TxnRef": "pay-123"}) {
			t.Error("expected a missing hash to fail")
		}
	})

	t.Run("ignores non-vnp params when hashing", func(t *testing.T) {
		extra := make(map[string]string, len(params)+1)
		for k, v := range params {
			extra[k] = v
		}
		extra["utm_source"] = "mail"
		if !g.VerifyCallback(extra) {
			t.Error("expected non-vnp params to be excluded from the hash")
		}
	})
}

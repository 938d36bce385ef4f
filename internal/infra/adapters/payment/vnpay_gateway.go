package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"ev-marketplace/internal/config"
	"ev-marketplace/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*VNPayGateway)(nil)

// VNPayGateway builds signed pay URLs for the VNPay hosted checkout.
// VNPay signs with HMAC-SHA512 over the sorted, URL-encoded query.
type VNPayGateway struct {
	tmnCode    string
	hashSecret string
	payURL     string
	now        func() time.Time
}

func NewVNPayGateway(cfg config.VNPayConfig) *VNPayGateway {
	return &VNPayGateway{
		tmnCode:    cfg.TmnCode,
		hashSecret: cfg.HashSecret,
		payURL:     cfg.PayURL,
		now:        time.Now,
	}
}

func (g *VNPayGateway) Name() string { return "vnpay" }

func (g *VNPayGateway) CreatePaymentURL(ctx context.Context, paymentID string, amount int64, returnURL string) (string, error) {
	now := g.now()
	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    g.tmnCode,
		"vnp_Amount":     strconv.FormatInt(amount*100, 10), // VNPay wants amount x100
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     paymentID,
		"vnp_OrderInfo":  fmt.Sprintf("listing payment %s", paymentID),
		"vnp_OrderType":  "other",
		"vnp_Locale":     "vn",
		"vnp_ReturnUrl":  returnURL,
		"vnp_CreateDate": now.Format("20060102150405"),
		"vnp_ExpireDate": now.Add(15 * time.Minute).Format("20060102150405"),
	}

	query := encodeSorted(params)
	sig := hmacSHA512(g.hashSecret, query)
	return g.payURL + "?" + query + "&vnp_SecureHash=" + sig, nil
}

// VerifyCallback recomputes the secure hash over every vnp_ param except
// the hash fields themselves.
func (g *VNPayGateway) VerifyCallback(params map[string]string) bool {
	got := params["vnp_SecureHash"]
	if got == "" {
		return false
	}
	data := make(map[string]string, len(params))
	for k, v := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" || !strings.HasPrefix(k, "vnp_") {
			continue
		}
		data[k] = v
	}
	want := hmacSHA512(g.hashSecret, encodeSorted(data))
	return hmac.Equal([]byte(strings.ToLower(got)), []byte(want))
}

// QueryPayment: the querydr profile is not enabled for this merchant;
// outcomes arrive via callback only, so stale payments stay pending
// until VNPay's own expiry fails them.
func (g *VNPayGateway) QueryPayment(ctx context.Context, paymentID string) (adapter.GatewayOutcome, error) {
	return adapter.GatewayOutcomePending, nil
}

func encodeSorted(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

func hmacSHA512(secret, data string) string {
	h := hmac.New(sha512.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ev-marketplace/internal/config"
	"ev-marketplace/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*MoMoGateway)(nil)

// MoMoGateway talks to the MoMo create/query API. MoMo signs a
// "rawSignature" of &-joined key=value pairs with HMAC-SHA256.
type MoMoGateway struct {
	partnerCode string
	accessKey   string
	secretKey   string
	endpoint    string
	notifyURL   string
	client      *http.Client
}

func NewMoMoGateway(cfg config.MoMoConfig) *MoMoGateway {
	return &MoMoGateway{
		partnerCode: cfg.PartnerCode,
		accessKey:   cfg.AccessKey,
		secretKey:   cfg.SecretKey,
		endpoint:    cfg.Endpoint,
		notifyURL:   cfg.NotifyURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *MoMoGateway) Name() string { return "momo" }

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
}

func (g *MoMoGateway) CreatePaymentURL(ctx context.Context, paymentID string, amount int64, returnURL string) (string, error) {
	req := momoCreateRequest{
		PartnerCode: g.partnerCode,
		AccessKey:   g.accessKey,
		RequestID:   paymentID,
		Amount:      amount,
		OrderID:     paymentID,
		OrderInfo:   fmt.Sprintf("listing payment %s", paymentID),
		RedirectURL: returnURL,
		IpnURL:      g.notifyURL,
		RequestType: "captureWallet",
	}
	raw := fmt.Sprintf("accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		req.AccessKey, req.Amount, req.ExtraData, req.IpnURL, req.OrderID, req.OrderInfo, req.PartnerCode, req.RedirectURL, req.RequestID, req.RequestType)
	req.Signature = hmacSHA256(g.secretKey, raw)

	var resp momoCreateResponse
	if err := g.post(ctx, g.endpoint+"/v2/gateway/api/create", req, &resp); err != nil {
		return "", err
	}
	if resp.ResultCode != 0 {
		return "", fmt.Errorf("momo create: %s (code %d)", resp.Message, resp.ResultCode)
	}
	return resp.PayURL, nil
}

// VerifyCallback checks the IPN signature over the documented field order.
func (g *MoMoGateway) VerifyCallback(params map[string]string) bool {
	got := params["signature"]
	if got == "" {
		return false
	}
	raw := fmt.Sprintf("accessKey=%s&amount=%s&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%s&resultCode=%s&transId=%s",
		g.accessKey, params["amount"], params["extraData"], params["message"], params["orderId"],
		params["orderInfo"], params["orderType"], params["partnerCode"], params["payType"],
		params["requestId"], params["responseTime"], params["resultCode"], params["transId"])
	want := hmacSHA256(g.secretKey, raw)
	return hmac.Equal([]byte(got), []byte(want))
}

type momoQueryRequest struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	OrderID     string `json:"orderId"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type momoQueryResponse struct {
	ResultCode int `json:"resultCode"`
}

func (g *MoMoGateway) QueryPayment(ctx context.Context, paymentID string) (adapter.GatewayOutcome, error) {
	req := momoQueryRequest{
		PartnerCode: g.partnerCode,
		AccessKey:   g.accessKey,
		RequestID:   paymentID,
		OrderID:     paymentID,
		Lang:        "vi",
	}
	raw := fmt.Sprintf("accessKey=%s&orderId=%s&partnerCode=%s&requestId=%s",
		req.AccessKey, req.OrderID, req.PartnerCode, req.RequestID)
	req.Signature = hmacSHA256(g.secretKey, raw)

	var resp momoQueryResponse
	if err := g.post(ctx, g.endpoint+"/v2/gateway/api/query", req, &resp); err != nil {
		return adapter.GatewayOutcomePending, err
	}
	switch {
	case resp.ResultCode == 0:
		return adapter.GatewayOutcomeSuccess, nil
	case resp.ResultCode == 1000 || resp.ResultCode == 9000:
		// authorized or still processing
		return adapter.GatewayOutcomePending, nil
	default:
		return adapter.GatewayOutcomeFailed, nil
	}
}

func (g *MoMoGateway) post(ctx context.Context, url string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("momo: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func hmacSHA256(secret, data string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

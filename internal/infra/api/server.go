package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"ev-marketplace/internal/usecase"
)

// Server is the gateway-facing callback surface. Gateways redeliver on
// anything but an acknowledgment, so every handler answers 200 no
// matter what happened internally; failures are logged and picked up by
// the reconciler.
type Server struct {
	payUC    usecase.PaymentUseCase
	gateways *usecase.Gateways
	log      *zerolog.Logger
	server   *http.Server
}

func NewServer(payUC usecase.PaymentUseCase, gateways *usecase.Gateways, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "CallbackServer").Logger()
	return &Server{payUC: payUC, gateways: gateways, log: &l}
}

func (s *Server) Start(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/payments/vnpay/callback", s.handleVNPayCallback)
	mux.HandleFunc("/payments/momo/callback", s.handleMoMoCallback)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: Chain(mux, TraceID(), RequestLog(s.log), Recover(s.log)),
	}
	s.log.Info().Int("port", port).Msg("callback server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// VNPay sends the outcome as query params on a GET; response code "00"
// means the payer completed checkout.
func (s *Server) handleVNPayCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	params := make(map[string]string, len(q))
	for k := range q {
		params[k] = q.Get(k)
	}
	paymentID := params["vnp_TxnRef"]
	success := params["vnp_ResponseCode"] == "00"
	ref := params["vnp_TransactionNo"]

	s.apply(ctx, "vnpay", paymentID, success, ref, params)
	// VNPay wants RspCode 00 to stop redelivery.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"RspCode": "00", "Message": "Confirm Success"})
}

// MoMo posts a JSON IPN; resultCode 0 means paid.
func (s *Server) handleMoMoCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.log.Warn().Err(err).Msg("momo callback: bad body")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
		return
	}
	params := make(map[string]string, len(body))
	for k, v := range body {
		params[k] = fmt.Sprintf("%v", v)
	}
	paymentID := params["orderId"]
	success := params["resultCode"] == "0"
	ref := params["transId"]

	s.apply(ctx, "momo", paymentID, success, ref, params)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// apply verifies the signature and runs the core handler. Internal
// errors are swallowed here on purpose; the webhook must still ack.
func (s *Server) apply(ctx context.Context, gateway, paymentID string, success bool, ref string, params map[string]string) {
	if paymentID == "" {
		s.log.Warn().Str("gateway", gateway).Msg("callback missing payment reference")
		return
	}
	if gw, ok := s.gateways.ForName(gateway); ok && !gw.VerifyCallback(params) {
		s.log.Warn().Str("gateway", gateway).Str("payment_id", paymentID).Msg("callback signature rejected")
		return
	}
	if err := s.payUC.HandleCallback(ctx, paymentID, success, ref); err != nil {
		s.log.Error().Err(err).
			Str("gateway", gateway).
			Str("payment_id", paymentID).
			Bool("success", success).
			Msg("callback processing failed")
	}
}

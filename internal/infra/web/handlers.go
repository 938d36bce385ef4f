package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ev-marketplace/internal/domain"
	"ev-marketplace/internal/domain/model"
	"ev-marketplace/internal/usecase"
)

type loginRequest struct {
	Email        string `json:"email"`
	BootstrapKey string `json:"bootstrap_key"`
}

type createListingRequest struct {
	Title string `json:"title"`
	Price int64  `json:"price"`
}

type choosePackageRequest struct {
	StandardPackageID *string `json:"standard_package_id,omitempty"`
	AddonPackageID    *string `json:"addon_package_id,omitempty"`
	AddonOptionID     *string `json:"addon_option_id,omitempty"`
	Method            string  `json:"method"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type createPackageRequest struct {
	ID               string `json:"id"`
	Kind             string `json:"kind"`
	Name             string `json:"name"`
	BaseDurationDays int    `json:"base_duration_days"`
	Price            int64  `json:"price"`
}

type createOptionRequest struct {
	ID           string `json:"id"`
	DurationDays int    `json:"duration_days"`
	Price        int64  `json:"price"`
}

type listingResponse struct {
	ID            string     `json:"id"`
	SellerID      string     `json:"seller_id"`
	Title         string     `json:"title"`
	Price         int64      `json:"price"`
	Status        string     `json:"status"`
	PostingFee    int64      `json:"posting_fee"`
	RejectReason  *string    `json:"reject_reason,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	FeaturedEndAt *time.Time `json:"featured_end_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type paymentResponse struct {
	ID         string     `json:"id"`
	ListingID  string     `json:"listing_id"`
	PackageID  *string    `json:"package_id,omitempty"`
	OptionID   *string    `json:"option_id,omitempty"`
	Amount     int64      `json:"amount"`
	Method     string     `json:"method"`
	Status     string     `json:"status"`
	GatewayRef string     `json:"gateway_ref,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toListingResponse(l *model.Listing) listingResponse {
	return listingResponse{
		ID:            l.ID,
		SellerID:      l.SellerID,
		Title:         l.Title,
		Price:         l.Price,
		Status:        string(l.Status),
		PostingFee:    l.PostingFee,
		RejectReason:  l.RejectReason,
		ExpiresAt:     l.ExpiresAt,
		FeaturedEndAt: l.FeaturedEndAt,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func toPaymentResponse(p *model.PostPayment) paymentResponse {
	return paymentResponse{
		ID:         p.ID,
		ListingID:  p.ListingID,
		PackageID:  p.PackageID,
		OptionID:   p.OptionID,
		Amount:     p.Amount,
		Method:     string(p.Method),
		Status:     string(p.Status),
		GatewayRef: p.GatewayRef,
		PaidAt:     p.PaidAt,
		CreatedAt:  p.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrPaymentRequired):
		status = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrCallbackBusy):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrReasonRequired),
		errors.Is(err, domain.ErrIncompatibleDuration),
		errors.Is(err, domain.ErrPackageInactive):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrGatewayUnavailable):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// handleLogin exchanges a bootstrap key plus a known email for a session
// token. Full credential auth lives in the identity service; this
// surface only needs to know who is calling.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	if s.bootstrapKey == "" || req.BootstrapKey != s.bootstrapKey {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	acc, err := s.accounts.FindByEmail(r.Context(), nil, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := s.auth.Mint(w, acc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"token": token,
		"role":  string(acc.Role),
	})
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.packages.ListActive(r.Context(), nil)
	if err != nil {
		writeError(w, err)
		return
	}
	type pkgResponse struct {
		*model.PostPackage
		Options []*model.PackageOption `json:"options,omitempty"`
	}
	out := make([]pkgResponse, 0, len(pkgs))
	for _, p := range pkgs {
		resp := pkgResponse{PostPackage: p}
		if p.IsAddon() {
			opts, err := s.options.ListByPackage(r.Context(), nil, p.ID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				writeError(w, err)
				return
			}
			resp.Options = opts
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePackage(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r)
	if !caller.CanVerify() {
		writeError(w, domain.ErrForbidden)
		return
	}
	var req createPackageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	pkg, err := model.NewPostPackage(req.ID, model.PackageKind(req.Kind), req.Name, req.BaseDurationDays, req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.packages.Save(r.Context(), nil, pkg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pkg)
}

func (s *Server) handleCreateOption(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r)
	if !caller.CanVerify() {
		writeError(w, domain.ErrForbidden)
		return
	}
	var req createOptionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	opt, err := model.NewPackageOption(req.ID, chi.URLParam(r, "id"), req.DurationDays, req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.options.Save(r.Context(), nil, opt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, opt)
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	l, err := s.listingUC.Create(r.Context(), callerFrom(r), req.Title, req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingResponse(l))
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	l, err := s.listingUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(l))
}

func (s *Server) handleListMine(w http.ResponseWriter, r *http.Request) {
	ls, err := s.listingUC.ListBySeller(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]listingResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, toListingResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChoosePackage(w http.ResponseWriter, r *http.Request) {
	var req choosePackageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	sel := usecase.PackageSelection{
		StandardPackageID: req.StandardPackageID,
		AddonPackageID:    req.AddonPackageID,
		AddonOptionID:     req.AddonOptionID,
	}
	p, payURL, err := s.listingUC.ChoosePackage(r.Context(), callerFrom(r), chi.URLParam(r, "id"), sel, model.PaymentMethod(req.Method))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payment": toPaymentResponse(p),
		"pay_url": payURL,
	})
}

func (s *Server) handleRenew(w http.ResponseWriter, r *http.Request) {
	var req choosePackageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	sel := usecase.PackageSelection{
		StandardPackageID: req.StandardPackageID,
		AddonPackageID:    req.AddonPackageID,
		AddonOptionID:     req.AddonOptionID,
	}
	quote, err := s.renewalUC.Renew(r.Context(), callerFrom(r), chi.URLParam(r, "id"), sel, model.PaymentMethod(req.Method))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payment": toPaymentResponse(quote.Payment),
		"pay_url": quote.PayURL,
		"total":   quote.Total,
	})
}

func (s *Server) handleHide(w http.ResponseWriter, r *http.Request) {
	s.respondTransition(w, r, s.listingUC.Hide)
}

func (s *Server) handleUnhide(w http.ResponseWriter, r *http.Request) {
	s.respondTransition(w, r, s.listingUC.Unhide)
}

func (s *Server) handleMarkSold(w http.ResponseWriter, r *http.Request) {
	s.respondTransition(w, r, s.listingUC.MarkSold)
}

func (s *Server) respondTransition(
	w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, caller *model.Account, listingID string) (*model.Listing, error),
) {
	l, err := fn(r.Context(), callerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(l))
}

// handleCreateContract opens a purchase contract between the caller
// (buyer) and the seller of an active listing.
func (s *Server) handleCreateContract(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r)
	l, err := s.listingUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if l.Status != model.ListingStatusActive {
		writeError(w, domain.ErrInvalidState)
		return
	}
	if l.SellerID == caller.ID {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	contract, err := s.esign.CreateContract(r.Context(), caller.ID, l.SellerID, l)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"contract_id":  contract.ContractID,
		"contract_url": contract.ContractURL,
		"sign_urls":    contract.SignURLs,
	})
}

func (s *Server) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	ps, err := s.payUC.HistoryByListing(r.Context(), callerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]paymentResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListPendingReview(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	ls, err := s.verifyUC.ListPendingReview(r.Context(), callerFrom(r), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]listingResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, toListingResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	l, err := s.verifyUC.Approve(r.Context(), callerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(l))
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	l, err := s.verifyUC.Reject(r.Context(), callerFrom(r), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(l))
}

func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r)
	if !caller.CanVerify() {
		writeError(w, domain.ErrForbidden)
		return
	}
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "month"
	}
	total, err := s.payUC.RevenueByPeriod(r.Context(), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"period": period, "total": total})
}

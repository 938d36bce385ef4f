package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ev-marketplace/internal/domain/model"
	"ev-marketplace/internal/domain/ports/adapter"
	"ev-marketplace/internal/domain/ports/repository"
	"ev-marketplace/internal/usecase"
)

type ctxKey string

const ctxCaller ctxKey = "caller"

// Server is the seller/staff JSON API.
type Server struct {
	listingUC    usecase.ListingUseCase
	renewalUC    usecase.RenewalUseCase
	verifyUC     usecase.VerificationUseCase
	payUC        usecase.PaymentUseCase
	packages     repository.PackageRepository
	options      repository.PackageOptionRepository
	accounts     repository.AccountRepository
	esign        adapter.ESignatureProvider
	auth         *AuthManager
	bootstrapKey string
	log          *zerolog.Logger
	server       *http.Server
}

func NewServer(
	listingUC usecase.ListingUseCase,
	renewalUC usecase.RenewalUseCase,
	verifyUC usecase.VerificationUseCase,
	payUC usecase.PaymentUseCase,
	packages repository.PackageRepository,
	options repository.PackageOptionRepository,
	accounts repository.AccountRepository,
	esign adapter.ESignatureProvider,
	auth *AuthManager,
	bootstrapKey string,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		listingUC:    listingUC,
		renewalUC:    renewalUC,
		verifyUC:     verifyUC,
		payUC:        payUC,
		packages:     packages,
		options:      options,
		accounts:     accounts,
		esign:        esign,
		auth:         auth,
		bootstrapKey: bootstrapKey,
		log:          &l,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/v1/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Get("/api/v1/packages", s.handleListPackages)
		r.Post("/api/v1/packages", s.handleCreatePackage)
		r.Post("/api/v1/packages/{id}/options", s.handleCreateOption)

		r.Post("/api/v1/listings", s.handleCreateListing)
		r.Get("/api/v1/listings/{id}", s.handleGetListing)
		r.Get("/api/v1/listings", s.handleListMine)
		r.Post("/api/v1/listings/{id}/package", s.handleChoosePackage)
		r.Post("/api/v1/listings/{id}/renew", s.handleRenew)
		r.Post("/api/v1/listings/{id}/hide", s.handleHide)
		r.Post("/api/v1/listings/{id}/unhide", s.handleUnhide)
		r.Post("/api/v1/listings/{id}/sold", s.handleMarkSold)
		r.Get("/api/v1/listings/{id}/payments", s.handlePaymentHistory)
		r.Post("/api/v1/listings/{id}/contract", s.handleCreateContract)

		r.Get("/api/v1/review", s.handleListPendingReview)
		r.Post("/api/v1/review/{id}/approve", s.handleApprove)
		r.Post("/api/v1/review/{id}/reject", s.handleReject)

		r.Get("/api/v1/stats/revenue", s.handleRevenue)
	})

	return r
}

func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Routes(),
	}
	s.log.Info().Int("port", port).Msg("web server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// sessionMiddleware resolves the JWT to a full account and stashes it
// as the caller identity every handler passes into the use cases.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		acc, err := s.accounts.FindByID(r.Context(), nil, claims.Subject)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxCaller, acc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerFrom(r *http.Request) *model.Account {
	acc, _ := r.Context().Value(ctxCaller).(*model.Account)
	return acc
}

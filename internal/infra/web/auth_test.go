//go:build !integration

package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ev-marketplace/internal/domain/model"
)

func testAccount(t *testing.T, role model.Role) *model.Account {
	t.Helper()
	a, err := model.NewAccount("", "who@example.com", role)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	return a
}

func TestAuthManager_RoundTrip(t *testing.T) {
	am := NewAuthManager("test-secret", 30*time.Minute)
	acc := testAccount(t, model.RoleStaff)

	rec := httptest.NewRecorder()
	token, err := am.Mint(rec, acc)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		claims, err := am.ParseFromRequest(req)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if claims.Subject != acc.ID {
			t.Errorf("expected subject %s, got %s", acc.ID, claims.Subject)
		}
		if claims.Role != string(model.RoleStaff) {
			t.Errorf("expected role staff, got %s", claims.Role)
		}
	})

	t.Run("session cookie", func(t *testing.T) {
		cookies := rec.Result().Cookies()
		if len(cookies) == 0 {
			t.Fatal("expected a session cookie")
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookies[0])
		claims, err := am.ParseFromRequest(req)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if claims.Subject != acc.ID {
			t.Errorf("expected subject %s, got %s", acc.ID, claims.Subject)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if _, err := am.ParseFromRequest(req); err == nil {
			t.Error("expected an error without a token")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuthManager("different-secret", 30*time.Minute)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		if _, err := other.ParseFromRequest(req); err == nil {
			t.Error("expected an error with a mismatched secret")
		}
	})

	t.Run("expired token", func(t *testing.T) {
		short := NewAuthManager("test-secret", -time.Minute)
		rec := httptest.NewRecorder()
		stale, err := short.Mint(rec, acc)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+stale)
		if _, err := am.ParseFromRequest(req); err == nil {
			t.Error("expected an expired token to fail")
		}
	})
}

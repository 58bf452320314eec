package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/auth"
	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	"github.com/google/uuid"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

func mintTestToken(t *testing.T, cfg config.JWTConfig, role enums.Role, userID uuid.UUID) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{UserID: userID, Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, nil)(okHandler())

	for _, header := range []string{"Authorization", LegacyTokenHeader} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header == "Authorization" {
			req.Header.Set(header, "Bearer invalid")
		} else {
			req.Header.Set(header, "invalid")
		}
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", header, resp.Code)
		}
	}
}

func TestAuthRejectsTokenFromAnotherSecret(t *testing.T) {
	other := testJWT
	other.Secret = "other-secret"
	token := mintTestToken(t, other, enums.RoleAdmin, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	Auth(testJWT, nil)(okHandler()).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	userID := uuid.New()
	token := mintTestToken(t, testJWT, enums.RoleCustomer, userID)

	var captured auth.Caller
	handler := Auth(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	cases := map[string]func(*http.Request){
		"bearer": func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
		"lower":  func(r *http.Request) { r.Header.Set("Authorization", "bearer "+token) },
		"legacy": func(r *http.Request) { r.Header.Set(LegacyTokenHeader, token) },
	}
	for name, setHeader := range cases {
		captured = auth.Caller{}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		setHeader(req)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", name, resp.Code)
		}
		if captured.UserID != userID {
			t.Fatalf("%s: expected user %s got %s", name, userID, captured.UserID)
		}
		if captured.Role != enums.RoleCustomer {
			t.Fatalf("%s: expected customer role got %s", name, captured.Role)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	chain := func(token string) int {
		handler := Auth(testJWT, nil)(RequireAdmin(nil)(okHandler()))
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp.Code
	}

	if code := chain(mintTestToken(t, testJWT, enums.RoleCustomer, uuid.New())); code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", code)
	}
	if code := chain(mintTestToken(t, testJWT, enums.RoleAdmin, uuid.New())); code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", code)
	}

	resp := httptest.NewRecorder()
	RequireAdmin(nil)(okHandler()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without caller got %d", resp.Code)
	}
}

func TestTokenFromRequestPrefersAuthorization(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer primary")
	req.Header.Set(LegacyTokenHeader, "legacy")
	if got := tokenFromRequest(req); got != "primary" {
		t.Fatalf("expected primary token got %q", got)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront-test",
		ExpirationMinutes: 5,
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, accountID uuid.UUID, role enums.AccountRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		AccountID: accountID,
		Role:      role,
	})
	require.NoError(t, err)
	return token
}

func TestOptionalAuthGuestPassesThrough(t *testing.T) {
	var seen *uuid.UUID
	called := false
	handler := OptionalAuth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = AccountIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Nil(t, seen)
}

func TestOptionalAuthInjectsAccount(t *testing.T) {
	cfg := testJWTConfig()
	accountID := uuid.New()
	token := mintTestToken(t, cfg, accountID, enums.AccountRoleCustomer)

	var seen *uuid.UUID
	var role string
	handler := OptionalAuth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = AccountIDFromContext(r.Context())
		role = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, accountID, *seen)
	assert.Equal(t, string(enums.AccountRoleCustomer), role)
}

func TestOptionalAuthRejectsBadToken(t *testing.T) {
	cfg := testJWTConfig()
	other := cfg
	other.Secret = "different"
	forged := mintTestToken(t, other, uuid.New(), enums.AccountRoleAdmin)

	for name, header := range map[string]string{
		"garbage":     "Bearer not-a-token",
		"empty":       "Bearer ",
		"wrong key":   "Bearer " + forged,
		"bare forged": forged,
	} {
		t.Run(name, func(t *testing.T) {
			called := false
			handler := OptionalAuth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called)
		})
	}
}

func TestRequireAccount(t *testing.T) {
	handler := RequireAccount(nil)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req = req.WithContext(WithAccount(req.Context(), uuid.New(), string(enums.AccountRoleCustomer)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(string(enums.AccountRoleAdmin), nil)(okHandler())

	tests := []struct {
		name string
		role string
		auth bool
		want int
	}{
		{name: "guest", auth: false, want: http.StatusUnauthorized},
		{name: "customer", role: string(enums.AccountRoleCustomer), auth: true, want: http.StatusForbidden},
		{name: "admin", role: string(enums.AccountRoleAdmin), auth: true, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/orders/ORD-1/status", nil)
			if tt.auth {
				req = req.WithContext(WithAccount(req.Context(), uuid.New(), tt.role))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

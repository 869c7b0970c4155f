package auth

import (
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/google/uuid"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	accountID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		AccountID: accountID,
		Role:      enums.AccountRoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.AccountID != accountID {
		t.Fatalf("expected account_id %s, got %s", accountID, claims.AccountID)
	}
	if claims.Role != enums.AccountRoleAdmin {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be generated")
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(now) {
		t.Fatal("expected expiry in the future")
	}
}

func TestMintAccessTokenRejectsInvalidPayload(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 30}

	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Role: enums.AccountRoleCustomer}); err == nil {
		t.Fatal("expected missing account id to fail")
	}
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{AccountID: uuid.New(), Role: "owner"}); err == nil {
		t.Fatal("expected invalid role to fail")
	}
	if _, err := MintAccessToken(config.JWTConfig{Issuer: "x", ExpirationMinutes: 1}, time.Now(), AccessTokenPayload{AccountID: uuid.New(), Role: enums.AccountRoleCustomer}); err == nil {
		t.Fatal("expected missing secret to fail")
	}
}

func TestParseAccessTokenRejectsWrongIssuerAndExpired(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 1}
	payload := AccessTokenPayload{AccountID: uuid.New(), Role: enums.AccountRoleCustomer}

	token, err := MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}

	expired, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), payload)
	if err != nil {
		t.Fatalf("mint expired: %v", err)
	}
	if _, err := ParseAccessToken(cfg, expired); err == nil {
		t.Fatal("expected expired token to fail")
	}

	wrongSecret := cfg
	wrongSecret.Secret = "other"
	if _, err := ParseAccessToken(wrongSecret, token); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}
}

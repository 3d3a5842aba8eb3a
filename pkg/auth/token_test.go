package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/boost-backend/pkg/config"
	"github.com/angelmondragon/boost-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "boost", ExpirationMinutes: 30}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	merchantID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		UID:        "uid-123",
		Email:      "Staff@Shop.com",
		Role:       enums.RoleStaff,
		MerchantID: &merchantID,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Subject != "uid-123" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}

	caller := claims.Caller()
	if caller.Email != "staff@shop.com" {
		t.Fatalf("expected lowercased email, got %q", caller.Email)
	}
	if caller.Role != enums.RoleStaff || !caller.InMerchant(merchantID) {
		t.Fatalf("unexpected caller %+v", caller)
	}
}

func TestMintRejectsScopedRoleWithoutMerchant(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{UID: "u", Role: enums.RoleMerchantAdmin})
	if err == nil {
		t.Fatal("expected error for merchant_admin without merchant")
	}
}

func TestParseRejectsTamperedAndExpiredTokens(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{UID: "u", Role: enums.RoleOwner})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to fail")
	}

	fresh, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UID: "u", Role: enums.RoleOwner})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := cfg
	other.Secret = "different"
	if _, err := ParseAccessToken(other, fresh); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}
	if _, err := ParseAccessToken(cfg, strings.TrimSuffix(fresh, fresh[len(fresh)-2:])); err == nil {
		t.Fatal("expected truncated token to fail")
	}
}

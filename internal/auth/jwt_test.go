package auth

import (
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestMintAndParseAccessToken(t *testing.T) {
	pair, err := MintTokens("user-1", "creator@example.com", testSecret, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("MintTokens returned error: %v", err)
	}
	claims, err := ParseAccessToken(pair.AccessToken, testSecret)
	if err != nil {
		t.Fatalf("ParseAccessToken returned error: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject 'user-1', got %q", claims.Subject)
	}
	if claims.Email != "creator@example.com" {
		t.Fatalf("expected email claim, got %q", claims.Email)
	}
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	pair, err := MintTokens("user-1", "creator@example.com", testSecret, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("MintTokens returned error: %v", err)
	}
	if _, err := ParseAccessToken(pair.RefreshToken, testSecret); err == nil {
		t.Fatal("expected refresh token to be rejected as an access token")
	}
	if _, err := ParseRefreshToken(pair.RefreshToken, testSecret); err != nil {
		t.Fatalf("expected refresh token to parse as refresh, got %v", err)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	pair, err := MintTokens("user-1", "creator@example.com", testSecret, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("MintTokens returned error: %v", err)
	}
	if _, err := ParseAccessToken(pair.AccessToken, "other-secret"); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	pair, err := MintTokens("user-1", "creator@example.com", testSecret, -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("MintTokens returned error: %v", err)
	}
	if _, err := ParseAccessToken(pair.AccessToken, testSecret); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := ParseClaims("not-a-token", testSecret); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !CheckPassword(hash, "hunter22") {
		t.Fatal("expected matching password to verify")
	}
	if CheckPassword(hash, "hunter23") {
		t.Fatal("expected mismatching password to fail")
	}
}

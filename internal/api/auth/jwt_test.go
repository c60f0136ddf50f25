package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/aemoz-unilab/sorteio/internal/models"
)

func TestGenerateAndValidateToken(t *testing.T) {
	service := NewJWTService([]byte("test-secret-key"), 8*time.Hour)

	token, err := service.GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	claims, err := service.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Role != models.RoleAdmin {
		t.Errorf("role = %s, want admin", claims.Role)
	}
	if claims.Issuer != "sorteio" {
		t.Errorf("issuer = %s, want sorteio", claims.Issuer)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 7*time.Hour || ttl > 8*time.Hour {
		t.Errorf("token ttl = %v, want ~8h", ttl)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	service := NewJWTService([]byte("test-secret-key"), time.Hour)
	other := NewJWTService([]byte("different-secret"), time.Hour)

	token, err := service.GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("expected validation failure with wrong secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	service := NewJWTService([]byte("test-secret-key"), -time.Minute)

	token, err := service.GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = service.ValidateToken(token)
	if err == nil {
		t.Fatal("expected validation failure for expired token")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Errorf("err = %v, want expiry error", err)
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	service := NewJWTService([]byte("test-secret-key"), time.Hour)

	if _, err := service.ValidateToken("not.a.token"); err == nil {
		t.Error("expected validation failure for malformed token")
	}
}

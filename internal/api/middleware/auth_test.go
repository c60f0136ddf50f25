package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aemoz-unilab/sorteio/internal/api/auth"
	"github.com/aemoz-unilab/sorteio/internal/models"
)

func newTestJWT(t *testing.T) *auth.JWTService {
	t.Helper()
	return auth.NewJWTService([]byte("test-secret"), time.Hour)
}

func protected(jwtService *auth.JWTService, seen *models.Role) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = GetRole(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return JWTAuth(jwtService)(RequireAdmin(inner))
}

func TestJWTAuth_ValidToken(t *testing.T) {
	jwtService := newTestJWT(t)
	token, err := jwtService.GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var seen models.Role
	handler := protected(jwtService, &seen)

	req := httptest.NewRequest("GET", "/api/admin/participants", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if seen != models.RoleAdmin {
		t.Errorf("role in context = %s, want admin", seen)
	}
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	var seen models.Role
	handler := protected(newTestJWT(t), &seen)

	req := httptest.NewRequest("GET", "/api/admin/participants", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestJWTAuth_MalformedHeader(t *testing.T) {
	jwtService := newTestJWT(t)
	token, _ := jwtService.GenerateToken()

	var seen models.Role
	handler := protected(jwtService, &seen)

	for _, header := range []string{token, "Basic " + token, "Bearer"} {
		req := httptest.NewRequest("GET", "/api/admin/participants", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want %d", header, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	other := auth.NewJWTService([]byte("other-secret"), time.Hour)
	token, _ := other.GenerateToken()

	var seen models.Role
	handler := protected(newTestJWT(t), &seen)

	req := httptest.NewRequest("GET", "/api/admin/participants", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAdmin_NoRoleInContext(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAdmin(inner)

	req := httptest.NewRequest("GET", "/api/admin/participants", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

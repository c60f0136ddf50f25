package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestHandler(t *testing.T, password, passwordHash string) *Handler {
	t.Helper()
	return NewHandler(NewJWTService([]byte("test-secret"), time.Hour), password, passwordHash)
}

func doLogin(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLogin_Success(t *testing.T) {
	h := newTestHandler(t, "correct-horse", "")

	rec := doLogin(t, h, `{"password":"correct-horse"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data LoginResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Token == "" {
		t.Error("empty token in response")
	}
	if resp.Data.TokenType != "Bearer" {
		t.Errorf("token_type = %s, want Bearer", resp.Data.TokenType)
	}
	if resp.Data.ExpiresIn != 3600 {
		t.Errorf("expires_in = %d, want 3600", resp.Data.ExpiresIn)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newTestHandler(t, "correct-horse", "")

	rec := doLogin(t, h, `{"password":"battery-staple"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestLogin_EmptyPassword(t *testing.T) {
	h := newTestHandler(t, "correct-horse", "")

	rec := doLogin(t, h, `{"password":""}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLogin_InvalidBody(t *testing.T) {
	h := newTestHandler(t, "correct-horse", "")

	rec := doLogin(t, h, `{not json`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLogin_BcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	h := newTestHandler(t, "", string(hash))

	rec := doLogin(t, h, `{"password":"correct-horse"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = doLogin(t, h, `{"password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestLogin_HashTakesPrecedence(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	h := newTestHandler(t, "plain-secret", string(hash))

	// The plain password is ignored when a hash is configured.
	rec := doLogin(t, h, `{"password":"plain-secret"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("plain password status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = doLogin(t, h, `{"password":"hashed-secret"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("hashed password status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestValidate(t *testing.T) {
	h := newTestHandler(t, "correct-horse", "")

	req := httptest.NewRequest("GET", "/api/auth/validate", nil)
	rec := httptest.NewRecorder()
	h.Validate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data ValidateResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Data.Valid || resp.Data.Role != "admin" {
		t.Errorf("got %+v, want valid admin", resp.Data)
	}
}

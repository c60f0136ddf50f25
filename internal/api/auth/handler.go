package auth

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/aemoz-unilab/sorteio/internal/metrics"
)

// Handler handles authentication endpoints.
type Handler struct {
	jwtService   *JWTService
	password     string // plain shared secret
	passwordHash string // bcrypt hash; takes precedence when set
}

// NewHandler creates a new auth handler. Exactly one of password and
// passwordHash must be non-empty; when both are set the hash wins.
func NewHandler(jwt *JWTService, password, passwordHash string) *Handler {
	return &Handler{
		jwtService:   jwt,
		password:     password,
		passwordHash: passwordHash,
	}
}

// Response helpers (local to avoid import cycle with api package)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type dataResponse struct {
	Data any `json:"data"`
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dataResponse{Data: data}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// Error codes and messages
const (
	errCodeBadRequest    = "BAD_REQUEST"
	errCodeUnauthorized  = "UNAUTHORIZED"
	errCodeInternalError = "INTERNAL_ERROR"
)

// LoginRequest is the request body for login.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
	TokenType string `json:"token_type"`
}

// ValidateResponse is returned by the token validation endpoint.
type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Role  string `json:"role"`
}

// Login checks the shared admin password and issues a credential.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if req.Password == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "password required")
		return
	}

	if !h.verifyPassword(req.Password) {
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		log.Printf("login failed: invalid admin password from %s", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, errCodeUnauthorized, "invalid credentials")
		return
	}

	token, err := h.jwtService.GenerateToken()
	if err != nil {
		log.Printf("login error: generate token: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	log.Printf("login success: admin from %s", r.RemoteAddr)

	jsonOK(w, &LoginResponse{
		Token:     token,
		ExpiresIn: h.jwtService.TTLSeconds(),
		TokenType: "Bearer",
	})
}

// Validate confirms the presented credential is still valid. It runs
// behind the JWT middleware, so reaching it means the token checked out.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, &ValidateResponse{
		Valid: true,
		Role:  "admin",
	})
}

// verifyPassword compares the candidate against the configured shared
// secret without leaking timing information.
func (h *Handler) verifyPassword(candidate string) bool {
	if h.passwordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(h.password), []byte(candidate)) == 1
}

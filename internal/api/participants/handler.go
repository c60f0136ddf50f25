// Package participants implements the participant registry endpoints:
// public registration plus the admin listing, aggregation, removal,
// and test-data seeding operations.
package participants

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aemoz-unilab/sorteio/internal/metrics"
	"github.com/aemoz-unilab/sorteio/internal/models"
	"github.com/aemoz-unilab/sorteio/internal/storage"
)

// Response helpers (local to avoid import cycle with api package)
type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
type dataResponse struct {
	Data any `json:"data"`
}

const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeNotFound         = "NOT_FOUND"
	errCodeConflict         = "CONFLICT"
	errCodeInternalError    = "INTERNAL_ERROR"
	errCodeUnavailable      = "UNAVAILABLE"
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}})
}

func jsonValidationError(w http.ResponseWriter, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{
		Code:    errCodeValidationFailed,
		Message: "validation failed",
		Fields:  fields,
	}})
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

func jsonCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

// jsonStorageError maps storage failures: context deadline means the
// database is not keeping up, anything else is a plain 500.
func jsonStorageError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s error: %v", op, err)
	if errors.Is(err, context.DeadlineExceeded) {
		jsonError(w, http.StatusServiceUnavailable, errCodeUnavailable, "storage temporarily unavailable")
		return
	}
	jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
}

// Handler handles participant registry endpoints.
type Handler struct {
	storage storage.Storage
}

// NewHandler creates a new participants handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// RegisterRequest is the request body for public registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Course   string `json:"course"`
	Semester int    `json:"semester"`
}

// ListResponse is the paginated participant listing payload.
type ListResponse struct {
	Participants []*models.Participant `json:"participants"`
	Pagination   Pagination            `json:"pagination"`
}

// Pagination describes the page window of a listing.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// DeleteResponse reports the removed participant.
type DeleteResponse struct {
	Deleted *models.Participant `json:"deleted"`
}

// SeedResponse reports the outcome of test-data seeding.
type SeedResponse struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// Register handles public participant registration.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	name, course, fields := validateRegistration(&req)
	if fields != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		jsonValidationError(w, fields)
		return
	}

	ctx := r.Context()

	// Advisory pre-check for a friendly message. The UNIQUE constraint
	// remains the authority under concurrent registration.
	existing, err := h.storage.Participants().FindByNameCourse(ctx, name, course)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		jsonStorageError(w, "register participant", err)
		return
	}
	if existing != nil {
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		jsonError(w, http.StatusConflict, errCodeConflict, "participant already registered for this course")
		return
	}

	now := time.Now()
	participant := &models.Participant{
		ID:        uuid.New().String(),
		Name:      name,
		Course:    course,
		Semester:  req.Semester,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.storage.Participants().Create(ctx, participant); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			jsonError(w, http.StatusConflict, errCodeConflict, "participant already registered for this course")
			return
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		jsonStorageError(w, "register participant", err)
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	log.Printf("participant registered: %s (%s, semester %d)", participant.Name, participant.Course, participant.Semester)

	jsonCreated(w, participant)
}

// List returns a page of participants, optionally filtered by course.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			jsonValidationError(w, map[string]string{"page": "page must be a positive integer"})
			return
		}
		page = n
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			jsonValidationError(w, map[string]string{"limit": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	course := r.URL.Query().Get("course")

	ctx := r.Context()

	total, err := h.storage.Participants().Count(ctx, course)
	if err != nil {
		jsonStorageError(w, "count participants", err)
		return
	}

	offset := (page - 1) * limit
	list, err := h.storage.Participants().List(ctx, course, limit, offset)
	if err != nil {
		jsonStorageError(w, "list participants", err)
		return
	}

	pages := int((total + int64(limit) - 1) / int64(limit))

	jsonOK(w, &ListResponse{
		Participants: list,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	})
}

// ByCourse returns all participants grouped by course, largest course
// first.
func (h *Handler) ByCourse(w http.ResponseWriter, r *http.Request) {
	groups, err := h.storage.Participants().ListByCourse(r.Context())
	if err != nil {
		jsonStorageError(w, "list by course", err)
		return
	}

	jsonOK(w, groups)
}

// Delete removes a participant by ID.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "participant id required")
		return
	}

	ctx := r.Context()

	participant, err := h.storage.Participants().GetByID(ctx, id)
	if err != nil {
		jsonStorageError(w, "delete participant", err)
		return
	}
	if participant == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "participant not found")
		return
	}

	if err := h.storage.Participants().Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			jsonError(w, http.StatusNotFound, errCodeNotFound, "participant not found")
			return
		}
		jsonStorageError(w, "delete participant", err)
		return
	}

	metrics.ParticipantsDeleted.Inc()
	log.Printf("participant deleted: %s (%s)", participant.Name, participant.Course)

	jsonOK(w, &DeleteResponse{Deleted: participant})
}

// testFixtures are the canned participants inserted by SeedTestData:
// twenty names spread over four courses, enough for a valid draw.
var testFixtures = []RegisterRequest{
	{Name: "Ana Silva", Course: "Computer Science", Semester: 3},
	{Name: "Bruno Costa", Course: "Computer Science", Semester: 5},
	{Name: "Carla Mendes", Course: "Computer Science", Semester: 1},
	{Name: "Daniel Rocha", Course: "Computer Science", Semester: 7},
	{Name: "Elisa Martins", Course: "Computer Science", Semester: 2},
	{Name: "Fabio Gomes", Course: "Engineering", Semester: 4},
	{Name: "Gabriela Lima", Course: "Engineering", Semester: 6},
	{Name: "Hugo Pereira", Course: "Engineering", Semester: 2},
	{Name: "Ines Carvalho", Course: "Engineering", Semester: 8},
	{Name: "Joao Santos", Course: "Engineering", Semester: 1},
	{Name: "Karina Alves", Course: "Medicine", Semester: 3},
	{Name: "Lucas Ferreira", Course: "Medicine", Semester: 5},
	{Name: "Mariana Sousa", Course: "Medicine", Semester: 9},
	{Name: "Nelson Ramos", Course: "Medicine", Semester: 2},
	{Name: "Olivia Nunes", Course: "Medicine", Semester: 6},
	{Name: "Paulo Teixeira", Course: "Law", Semester: 4},
	{Name: "Queila Barbosa", Course: "Law", Semester: 1},
	{Name: "Rafael Moreira", Course: "Law", Semester: 7},
	{Name: "Sofia Azevedo", Course: "Law", Semester: 3},
	{Name: "Tiago Fonseca", Course: "Law", Semester: 10},
}

// SeedTestData inserts the canned fixtures, skipping names already
// registered. Intended for demos and manual testing.
func (h *Handler) SeedTestData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	inserted, skipped := 0, 0
	for _, f := range testFixtures {
		now := time.Now()
		p := &models.Participant{
			ID:        uuid.New().String(),
			Name:      f.Name,
			Course:    f.Course,
			Semester:  f.Semester,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err := h.storage.Participants().Create(ctx, p)
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, storage.ErrConflict):
			skipped++
		default:
			jsonStorageError(w, "seed test data", err)
			return
		}
	}

	log.Printf("test data seeded: %d inserted, %d skipped", inserted, skipped)

	jsonCreated(w, &SeedResponse{Inserted: inserted, Skipped: skipped})
}

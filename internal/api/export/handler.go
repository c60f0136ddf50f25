// Package export serves the admin PDF roster downloads.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aemoz-unilab/sorteio/internal/metrics"
	"github.com/aemoz-unilab/sorteio/internal/models"
	"github.com/aemoz-unilab/sorteio/internal/pdf"
	"github.com/aemoz-unilab/sorteio/internal/storage"
)

// Response helpers (local to avoid import cycle with api package)
type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	errCodeNotFound      = "NOT_FOUND"
	errCodeInternalError = "INTERNAL_ERROR"
	errCodeUnavailable   = "UNAVAILABLE"
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}})
}

func jsonStorageError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s error: %v", op, err)
	if errors.Is(err, context.DeadlineExceeded) {
		jsonError(w, http.StatusServiceUnavailable, errCodeUnavailable, "storage temporarily unavailable")
		return
	}
	jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
}

// Handler handles PDF export endpoints.
type Handler struct {
	storage  storage.Storage
	renderer *pdf.Renderer
}

// NewHandler creates a new export handler.
func NewHandler(store storage.Storage, renderer *pdf.Renderer) *Handler {
	return &Handler{storage: store, renderer: renderer}
}

func servePDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("write pdf response: %v", err)
	}
}

// Participants serves the registry roster grouped by course.
func (h *Handler) Participants(w http.ResponseWriter, r *http.Request) {
	courses, err := h.storage.Participants().ListByCourse(r.Context())
	if err != nil {
		jsonStorageError(w, "export participants pdf", err)
		return
	}
	if len(courses) == 0 {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "no participants registered")
		return
	}

	now := time.Now()
	data, err := h.renderer.Participants(courses, now)
	if err != nil {
		log.Printf("export participants pdf error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.PDFExportsTotal.WithLabelValues("participants").Inc()

	servePDF(w, fmt.Sprintf("participants-%s.pdf", now.Format("2006-01-02")), data)
}

// Groups serves the current draw result roster.
func (h *Handler) Groups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	groups, err := h.storage.Groups().ListWithMembers(ctx)
	if err != nil {
		jsonStorageError(w, "export groups pdf", err)
		return
	}
	if len(groups) == 0 {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "no draw has been run")
		return
	}

	total, err := h.storage.Participants().Count(ctx, "")
	if err != nil {
		jsonStorageError(w, "export groups pdf", err)
		return
	}

	inGroups := 0
	for _, g := range groups {
		inGroups += len(g.Members)
	}

	result := &models.DrawResult{
		Groups: groups,
		Stats: models.DrawStats{
			TotalParticipants:     int(total),
			TotalGroups:           len(groups),
			ParticipantsInGroups:  inGroups,
			RemainingParticipants: int(total) - inGroups,
		},
	}

	now := time.Now()
	data, err := h.renderer.Groups(result, now)
	if err != nil {
		log.Printf("export groups pdf error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.PDFExportsTotal.WithLabelValues("groups").Inc()

	servePDF(w, fmt.Sprintf("groups-%s.pdf", now.Format("2006-01-02")), data)
}

// Package draws exposes the draw operations over HTTP: running a
// draw, fetching the current result, and wiping the registry.
package draws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/aemoz-unilab/sorteio/internal/draw"
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
	errCodeNotFound           = "NOT_FOUND"
	errCodeInternalError      = "INTERNAL_ERROR"
	errCodePreconditionFailed = "PRECONDITION_FAILED"
	errCodeUnavailable        = "UNAVAILABLE"
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}})
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

func jsonStorageError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s error: %v", op, err)
	if errors.Is(err, context.DeadlineExceeded) {
		jsonError(w, http.StatusServiceUnavailable, errCodeUnavailable, "storage temporarily unavailable")
		return
	}
	jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
}

// Handler handles draw endpoints.
type Handler struct {
	storage storage.Storage
	engine  *draw.Engine
}

// NewHandler creates a new draw handler.
func NewHandler(store storage.Storage, engine *draw.Engine) *Handler {
	return &Handler{storage: store, engine: engine}
}

// ClearResponse reports the outcome of a registry wipe.
type ClearResponse struct {
	Cleared bool `json:"cleared"`
}

// Run executes a new draw, replacing any previous result.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.engine.Run(r.Context())
	if err != nil {
		var precondition *draw.PreconditionError
		if errors.As(err, &precondition) {
			metrics.DrawsTotal.WithLabelValues("precondition").Inc()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(errorResponse{Error: errorBody{
				Code:    errCodePreconditionFailed,
				Message: precondition.Message,
				Fields:  map[string]string{"current": strconv.Itoa(precondition.Current)},
			}})
			return
		}
		metrics.DrawsTotal.WithLabelValues("error").Inc()
		jsonStorageError(w, "run draw", err)
		return
	}

	metrics.DrawsTotal.WithLabelValues("success").Inc()
	metrics.DrawGroups.Set(float64(result.Stats.TotalGroups))
	metrics.DrawDuration.Observe(time.Since(start).Seconds())

	log.Printf("draw complete: %d groups from %d participants (%d unassigned)",
		result.Stats.TotalGroups,
		result.Stats.TotalParticipants,
		result.Stats.RemainingParticipants,
	)

	jsonOK(w, result)
}

// Result returns the currently stored draw.
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	groups, err := h.storage.Groups().ListWithMembers(ctx)
	if err != nil {
		jsonStorageError(w, "load draw result", err)
		return
	}
	if len(groups) == 0 {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "no draw has been run")
		return
	}

	total, err := h.storage.Participants().Count(ctx, "")
	if err != nil {
		jsonStorageError(w, "load draw result", err)
		return
	}

	inGroups := 0
	for _, g := range groups {
		inGroups += len(g.Members)
	}

	jsonOK(w, &models.DrawResult{
		Groups: groups,
		Stats: models.DrawStats{
			TotalParticipants:     int(total),
			TotalGroups:           len(groups),
			ParticipantsInGroups:  inGroups,
			RemainingParticipants: int(total) - inGroups,
		},
	})
}

// ClearAll wipes the registry: every membership, group, and
// participant, atomically.
func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.ClearAll(r.Context()); err != nil {
		jsonStorageError(w, "clear all", err)
		return
	}

	log.Printf("registry cleared")

	jsonOK(w, &ClearResponse{Cleared: true})
}

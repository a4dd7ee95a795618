// Package httpapi exposes the note controller as a local JSON API.
// Each route is one intent; the response is the resulting note or an error.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/sticky/pkg/core"
)

// Handler serves the intent routes of one controller.
type Handler struct {
	ctrl   *core.Controller
	logger *slog.Logger
}

// New creates a Handler. A nil logger falls back to slog.Default.
func New(ctrl *core.Controller, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{ctrl: ctrl, logger: logger}
}

// Register mounts the routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notes", h.handleList)
	r.Post("/notes", h.handleCreate)
	r.Delete("/notes", h.handleClear)
	r.Get("/notes/{id}", h.handleGet)
	r.Put("/notes/{id}", h.handleSave)
	r.Put("/notes/{id}/draft", h.handleDraft)
	r.Post("/notes/{id}/edit", h.handleEdit)
	r.Put("/notes/{id}/position", h.handleMove)
	r.Delete("/notes/{id}/pending", h.handleCancel)
	r.Get("/instructions", h.handleInstructions)
	r.Get("/state", h.handleState)
}

// Router returns a standalone router with request IDs and panic recovery.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	h.Register(r)
	return r
}

// CreateRequest is the optional body of POST /notes.
type CreateRequest struct {
	Position *core.Position `json:"position,omitempty"`
}

// TextRequest is the body of PUT /notes/{id} and PUT /notes/{id}/draft.
type TextRequest struct {
	Text string `json:"text"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	notes, err := h.ctrl.LoadAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}
	n, err := h.ctrl.Create(r.Context(), req.Position)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Clear(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, ok, err := h.ctrl.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		h.fail(w, r, core.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := h.ctrl.Save(r.Context(), id, req.Text); err != nil {
		h.fail(w, r, err)
		return
	}
	n, ok, err := h.ctrl.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		// Accepted by a degraded store that could not persist it.
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := h.ctrl.Draft(chi.URLParam(r, "id"), req.Text); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	n, err := h.ctrl.Edit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	var pos core.Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := h.ctrl.Move(r.Context(), chi.URLParam(r, "id"), pos); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Cancel(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleInstructions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.InstructionNotes(h.ctrl.Layout()))
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.State())
}

// fail maps a controller error onto a status code.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// StatusFor returns the HTTP status that reports err.
func StatusFor(err error) int {
	switch {
	case core.IsValidation(err), errors.Is(err, core.ErrInvalidPosition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrNotPending):
		return http.StatusNotFound
	case errors.Is(err, core.ErrPositionTaken), errors.Is(err, core.ErrLayoutExhausted):
		return http.StatusConflict
	case errors.Is(err, core.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	case errors.Is(err, core.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package student

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/halaqahq/halaqa/internal/student"
)

type Handler struct {
	svc *student.Service
}

func NewHandler(svc *student.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/inactive", h.listInactive)
	r.Post("/", h.create)
	r.Patch("/{id}", h.update)
	r.Post("/{id}/deactivate", h.deactivate)
	r.Post("/{id}/reactivate", h.reactivate)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	students, err := h.svc.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, students)
}

func (h *Handler) listInactive(w http.ResponseWriter, r *http.Request) {
	students, err := h.svc.ListInactive(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, students)
}

type createStudentRequest struct {
	Name         string     `json:"name"`
	Age          *int       `json:"age,omitempty"`
	CurrentSurah string     `json:"current_surah,omitempty"`
	TeacherID    *uuid.UUID `json:"teacher_id,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := h.svc.Create(r.Context(), student.CreateParams{
		Name:         req.Name,
		Age:          req.Age,
		CurrentSurah: req.CurrentSurah,
		TeacherID:    req.TeacherID,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, st)
}

type updateStudentRequest struct {
	Name         *string    `json:"name,omitempty"`
	Age          *int       `json:"age,omitempty"`
	CurrentSurah *string    `json:"current_surah,omitempty"`
	TeacherID    *uuid.UUID `json:"teacher_id,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := h.svc.Update(r.Context(), id, student.UpdateParams{
		Name:         req.Name,
		Age:          req.Age,
		CurrentSurah: req.CurrentSurah,
		TeacherID:    req.TeacherID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.setFlags(w, r, h.svc.Deactivate)
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	h.setFlags(w, r, h.svc.Reactivate)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	h.setFlags(w, r, h.svc.SoftDelete)
}

func (h *Handler) setFlags(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uuid.UUID) error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := op(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, student.ErrNotFound) {
		status = http.StatusNotFound
	}

	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

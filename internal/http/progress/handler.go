package progress

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/halaqahq/halaqa/internal/progress"
)

type Handler struct {
	svc *progress.Service
}

func NewHandler(svc *progress.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.save)
	r.Post("/attendance", h.attendance)
}

// list serves ?date=<key> or ?month=<label>.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if date := r.URL.Query().Get("date"); date != "" {
		entries, err := h.svc.ListByDate(r.Context(), date)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, entries)

		return
	}

	if month := r.URL.Query().Get("month"); month != "" {
		entries, err := h.svc.ListByMonth(r.Context(), month)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, entries)

		return
	}

	http.Error(w, "date or month query parameter required", http.StatusBadRequest)
}

type entryRequest struct {
	StudentID      uuid.UUID `json:"student_id"`
	HijriDate      string    `json:"hijri_date"`
	HijriMonth     string    `json:"hijri_month"`
	DayNumber      int       `json:"day_number"`
	PagesMemorized float64   `json:"pages_memorized"`
	PagesReviewed  float64   `json:"pages_reviewed"`
	AttendanceOnly bool      `json:"attendance_only"`
	Notes          string    `json:"notes,omitempty"`
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var reqs []entryRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries := make([]progress.EntryParams, 0, len(reqs))
	for _, req := range reqs {
		entries = append(entries, progress.EntryParams(req))
	}

	if err := h.svc.SaveEntries(r.Context(), entries); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, progress.ErrInvalidPages) {
			status = http.StatusBadRequest
		}

		http.Error(w, err.Error(), status)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type attendanceRequest struct {
	StudentID  uuid.UUID `json:"student_id"`
	HijriDate  string    `json:"hijri_date"`
	HijriMonth string    `json:"hijri_month"`
	DayNumber  int       `json:"day_number"`
}

func (h *Handler) attendance(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.svc.MarkAttendanceOnly(r.Context(), req.StudentID, req.HijriDate, req.HijriMonth, req.DayNumber)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

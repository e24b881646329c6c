package finance

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/halaqahq/halaqa/internal/finance"
)

type Handler struct {
	svc *finance.Service
}

func NewHandler(svc *finance.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/activity-types", func(r chi.Router) {
		r.Get("/", h.listActivityTypes)
		r.Post("/", h.createActivityType)
		r.Post("/seed", h.seedActivityTypes)
		r.Delete("/{id}", h.deleteActivityType)
	})

	r.Route("/budget", func(r chi.Router) {
		r.Get("/", h.getBudget)
		r.Put("/", h.saveBudget)
		r.Get("/transactions", h.listTransactions)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", h.listReports)
		r.Post("/", h.createReport)
		r.Get("/{id}/expenses", h.listExpenses)
		r.Get("/{id}/photos", h.listPhotos)
		r.Post("/{id}/photos", h.attachPhoto)
	})
}

func (h *Handler) listActivityTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.ListActivityTypes(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, types)
}

func (h *Handler) createActivityType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	at, err := h.svc.CreateActivityType(r.Context(), req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, at)
}

func (h *Handler) seedActivityTypes(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SeedActivityTypes(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteActivityType(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteActivityType(r.Context(), id); err != nil {
		if errors.Is(err, finance.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := h.svc.GetBudget(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if budget == nil {
		http.Error(w, "no budget yet", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, budget)
}

type saveBudgetRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

func (h *Handler) saveBudget(w http.ResponseWriter, r *http.Request) {
	var req saveBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	budget, err := h.svc.SaveBudget(r.Context(), req.Amount, req.Description)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, finance.ErrInvalidAmount) {
			status = http.StatusBadRequest
		}

		http.Error(w, err.Error(), status)

		return
	}

	writeJSON(w, http.StatusOK, budget)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.ListTransactions(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, txs)
}

type createReportRequest struct {
	ActivityType     string `json:"activity_type"`
	HijriDate        string `json:"hijri_date"`
	ParticipantCount int    `json:"participant_count"`
	Notes            string `json:"notes,omitempty"`
	Expenses         []struct {
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	} `json:"expenses"`
	PhotoURLs []string `json:"photo_urls,omitempty"`
}

func (h *Handler) createReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	expenses := make([]finance.ExpenseParams, 0, len(req.Expenses))
	for _, e := range req.Expenses {
		expenses = append(expenses, finance.ExpenseParams(e))
	}

	report, err := h.svc.CreateReport(r.Context(), finance.ReportParams{
		ActivityType:     req.ActivityType,
		HijriDate:        req.HijriDate,
		ParticipantCount: req.ParticipantCount,
		Notes:            req.Notes,
	}, expenses, req.PhotoURLs)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, finance.ErrInvalidAmount) {
			status = http.StatusBadRequest
		}

		http.Error(w, err.Error(), status)

		return
	}

	writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.ListReports(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, reports)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	items, err := h.svc.ListExpenseItems(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) listPhotos(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	photos, err := h.svc.ListReportPhotos(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, photos)
}

func (h *Handler) attachPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req struct {
		PhotoURL string `json:"photo_url"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.AttachPhoto(r.Context(), id, req.PhotoURL); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

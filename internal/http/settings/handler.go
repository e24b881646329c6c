package settings

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/halaqahq/halaqa/internal/config"
)

type Handler struct {
	runtime *config.Runtime
}

func NewHandler(runtime *config.Runtime) *Handler {
	return &Handler{runtime: runtime}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/sheets", h.getSheets)
	r.Put("/sheets", h.putSheets)
	r.Delete("/sheets", h.deleteSheets)
}

type sheetsStatusResponse struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	Configured    bool   `json:"configured"`
}

func (h *Handler) getSheets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sheetsStatusResponse{
		SpreadsheetID: h.runtime.SpreadsheetID(),
		Configured:    h.runtime.SheetsConfigured(),
	})
}

type putSheetsRequest struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	AccessToken   string `json:"access_token,omitempty"`
	ExpiresIn     int    `json:"expires_in,omitempty"`
}

func (h *Handler) putSheets(w http.ResponseWriter, r *http.Request) {
	var req putSheetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.SpreadsheetID == "" {
		http.Error(w, "spreadsheet_id is required", http.StatusBadRequest)
		return
	}

	h.runtime.SetSpreadsheetID(req.SpreadsheetID)

	if req.AccessToken != "" {
		h.runtime.SetAccessToken(req.AccessToken, time.Duration(req.ExpiresIn)*time.Second)
	}

	h.getSheets(w, r)
}

func (h *Handler) deleteSheets(w http.ResponseWriter, r *http.Request) {
	h.runtime.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

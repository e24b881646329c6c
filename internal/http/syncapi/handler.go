package syncapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/halaqahq/halaqa/internal/sync"
)

type Handler struct {
	engine *sync.Engine
}

func NewHandler(engine *sync.Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/status", h.status)
	r.Post("/trigger", h.trigger)
	r.Post("/force", h.force)
	r.Post("/online", h.online)
	r.Post("/offline", h.offline)
}

type statusResponse struct {
	Pending int  `json:"pending"`
	Syncing bool `json:"syncing"`
	Online  bool `json:"online"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Pending: h.engine.PendingCount(r.Context()),
		Syncing: h.engine.Syncing(),
		Online:  h.engine.Online(),
	})
}

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.TrySync(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) force(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.ForceSync(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// online marks the app back online and kicks off a sync pass in the same
// request, mirroring a connectivity-restored event.
func (h *Handler) online(w http.ResponseWriter, r *http.Request) {
	h.engine.MarkOnline()

	result, err := h.engine.TrySync(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) offline(w http.ResponseWriter, r *http.Request) {
	h.engine.MarkOffline()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

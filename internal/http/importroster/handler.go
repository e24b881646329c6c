package importroster

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/halaqahq/halaqa/internal/entity"
	"github.com/halaqahq/halaqa/internal/importer"
	"github.com/halaqahq/halaqa/internal/student"
)

const maxUploadSize = 10 << 20 // 10 MiB

type Handler struct {
	importer *importer.Service
	students *student.Service
}

func NewHandler(imp *importer.Service, students *student.Service) *Handler {
	return &Handler{importer: imp, students: students}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/students", h.importStudents)
}

type importResponse struct {
	Imported int              `json:"imported"`
	Failed   int              `json:"failed"`
	Students []entity.Student `json:"students"`
}

func (h *Handler) importStudents(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	format := importer.Format(r.FormValue("format"))
	if format == "" {
		format = importer.FormatRoster
	}

	params, err := h.importer.Import(format, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := importResponse{Students: make([]entity.Student, 0, len(params))}

	for _, p := range params {
		created, err := h.students.Create(r.Context(), p)
		if err != nil {
			slog.Warn("skipping student row", "name", p.Name, "error", err)

			resp.Failed++

			continue
		}

		resp.Imported++
		resp.Students = append(resp.Students, *created)
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

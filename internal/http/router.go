package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/halaqahq/halaqa/internal/http/finance"
	"github.com/halaqahq/halaqa/internal/http/importroster"
	"github.com/halaqahq/halaqa/internal/http/progress"
	"github.com/halaqahq/halaqa/internal/http/settings"
	"github.com/halaqahq/halaqa/internal/http/student"
	"github.com/halaqahq/halaqa/internal/http/syncapi"
	"github.com/halaqahq/halaqa/internal/http/teacher"
)

func New(
	teachersV1 *teacher.Handler,
	studentsV1 *student.Handler,
	progressV1 *progress.Handler,
	financeV1 *finance.Handler,
	syncV1 *syncapi.Handler,
	settingsV1 *settings.Handler,
	importV1 *importroster.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/teachers", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			teachersV1.Routes(r)
		})

		r.Route("/students", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			studentsV1.Routes(r)
		})

		r.Route("/progress", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			progressV1.Routes(r)
		})

		r.Route("/finance", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			financeV1.Routes(r)
		})

		r.Route("/sync", syncV1.Routes)
		r.Route("/settings", settingsV1.Routes)
		r.Route("/import", importV1.Routes)
	})

	return router
}

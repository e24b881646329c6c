package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/halaqahq/halaqa/internal/backend"
	"github.com/halaqahq/halaqa/internal/backend/postgres"
	"github.com/halaqahq/halaqa/internal/backend/sheets"
	"github.com/halaqahq/halaqa/internal/config"
	"github.com/halaqahq/halaqa/internal/database"
	"github.com/halaqahq/halaqa/internal/finance"
	halaqaHttp "github.com/halaqahq/halaqa/internal/http"
	financeHandler "github.com/halaqahq/halaqa/internal/http/finance"
	importHandler "github.com/halaqahq/halaqa/internal/http/importroster"
	progressHandler "github.com/halaqahq/halaqa/internal/http/progress"
	settingsHandler "github.com/halaqahq/halaqa/internal/http/settings"
	studentHandler "github.com/halaqahq/halaqa/internal/http/student"
	syncHandler "github.com/halaqahq/halaqa/internal/http/syncapi"
	teacherHandler "github.com/halaqahq/halaqa/internal/http/teacher"
	"github.com/halaqahq/halaqa/internal/importer"
	"github.com/halaqahq/halaqa/internal/progress"
	"github.com/halaqahq/halaqa/internal/store"
	"github.com/halaqahq/halaqa/internal/student"
	"github.com/halaqahq/halaqa/internal/sync"
	"github.com/halaqahq/halaqa/internal/teacher"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	local, err := database.OpenLocal(cfg.Local.Path)
	if err != nil {
		slog.Error("failed to open local database", "error", err)
		os.Exit(1)
	}
	defer local.Close()

	st, err := store.New(local)
	if err != nil {
		slog.Error("failed to prepare local store", "error", err)
		os.Exit(1)
	}

	runtime := config.NewRuntime(cfg.Sheets.SpreadsheetID)

	// The relational backend is optional: without a reachable database the
	// app still works against the sheets backend or the local cache alone.
	var relational backend.Adapter

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Warn("relational backend unavailable", "error", err)
	} else {
		defer db.Close()
		relational = postgres.New(db)
	}

	var sheetsAdapter backend.Adapter

	if cfg.Sheets.ServiceAccountEmail != "" && cfg.Sheets.ServiceAccountKey != "" {
		tokens, err := sheets.NewRuntimeTokenSource(runtime, cfg.Sheets.ServiceAccountEmail, cfg.Sheets.ServiceAccountKey)
		if err != nil {
			slog.Error("failed to parse service account key", "error", err)
			os.Exit(1)
		}

		sheetsAdapter = sheets.New(runtime, tokens)
	}

	backends := backend.NewSelector(runtime, relational, sheetsAdapter)
	engine := sync.NewEngine(st, backends)

	var (
		teacherService  = teacher.NewService(st, backends)
		studentService  = student.NewService(st, backends)
		progressService = progress.NewService(st, backends)
		financeService  = finance.NewService(st, backends)
		importService   = importer.NewService()
	)

	var (
		teacherH  = teacherHandler.NewHandler(teacherService)
		studentH  = studentHandler.NewHandler(studentService)
		progressH = progressHandler.NewHandler(progressService)
		financeH  = financeHandler.NewHandler(financeService)
		syncH     = syncHandler.NewHandler(engine)
		settingsH = settingsHandler.NewHandler(runtime)
		importH   = importHandler.NewHandler(importService, studentService)
	)

	router := halaqaHttp.New(teacherH, studentH, progressH, financeH, syncH, settingsH, importH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

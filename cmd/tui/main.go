package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/halaqahq/halaqa/cmd/tui/internal/view"
	"github.com/halaqahq/halaqa/internal/backend"
	"github.com/halaqahq/halaqa/internal/backend/postgres"
	"github.com/halaqahq/halaqa/internal/backend/sheets"
	"github.com/halaqahq/halaqa/internal/config"
	"github.com/halaqahq/halaqa/internal/database"
	"github.com/halaqahq/halaqa/internal/progress"
	"github.com/halaqahq/halaqa/internal/store"
	"github.com/halaqahq/halaqa/internal/student"
	"github.com/halaqahq/halaqa/internal/sync"
)

type model struct {
	studentService  *student.Service
	progressService *progress.Service
	engine          *sync.Engine

	currentView View

	studentsView view.StudentsModel
	progressView view.ProgressModel
	syncView     view.SyncModel
}

type View int

const (
	ViewMenu     View = 0
	ViewStudents View = 1
	ViewProgress View = 2
	ViewSync     View = 3
)

func initialModel() model {
	_ = godotenv.Load()

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

	st, err := store.New(local)
	if err != nil {
		slog.Error("failed to prepare local store", "error", err)
		os.Exit(1)
	}

	runtime := config.NewRuntime(cfg.Sheets.SpreadsheetID)

	var relational backend.Adapter

	if db, err := database.New(cfg.ConnectionString()); err == nil {
		relational = postgres.New(db)
	}

	var sheetsAdapter backend.Adapter

	if cfg.Sheets.ServiceAccountEmail != "" && cfg.Sheets.ServiceAccountKey != "" {
		if tokens, err := sheets.NewRuntimeTokenSource(runtime, cfg.Sheets.ServiceAccountEmail, cfg.Sheets.ServiceAccountKey); err == nil {
			sheetsAdapter = sheets.New(runtime, tokens)
		}
	}

	backends := backend.NewSelector(runtime, relational, sheetsAdapter)

	studentSvc := student.NewService(st, backends)
	progressSvc := progress.NewService(st, backends)
	engine := sync.NewEngine(st, backends)

	return model{
		studentService:  studentSvc,
		progressService: progressSvc,
		engine:          engine,
		currentView:     ViewMenu,
		studentsView:    view.NewStudentsModel(studentSvc),
		progressView:    view.NewProgressModel(progressSvc, studentSvc),
		syncView:        view.NewSyncModel(engine),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewStudents
				m.studentsView = view.NewStudentsModel(m.studentService)

				return m, m.studentsView.Init()
			case "2":
				m.currentView = ViewProgress
				m.progressView = view.NewProgressModel(m.progressService, m.studentService)

				return m, m.progressView.Init()
			case "3":
				m.currentView = ViewSync
				m.syncView = view.NewSyncModel(m.engine)

				return m, m.syncView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewStudents:
		var newModel tea.Model
		newModel, cmd = m.studentsView.Update(msg)
		m.studentsView = newModel.(view.StudentsModel)
	case ViewProgress:
		var newModel tea.Model
		newModel, cmd = m.progressView.Update(msg)
		m.progressView = newModel.(view.ProgressModel)
	case ViewSync:
		var newModel tea.Model
		newModel, cmd = m.syncView.Update(msg)
		m.syncView = newModel.(view.SyncModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Halaqa TUI\n\n" +
				"1. Students\n" +
				"2. Daily Progress\n" +
				"3. Sync Status\n\n" +
				"q. Quit",
		)
	case ViewStudents:
		return m.studentsView.View()
	case ViewProgress:
		return m.progressView.View()
	case ViewSync:
		return m.syncView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}

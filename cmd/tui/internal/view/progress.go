package view

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/halaqahq/halaqa/internal/entity"
	"github.com/halaqahq/halaqa/internal/hijri"
	"github.com/halaqahq/halaqa/internal/progress"
	"github.com/halaqahq/halaqa/internal/student"
)

type progressState int

const (
	progressStateLoading progressState = iota
	progressStateForm
	progressStateSaving
)

type ProgressModel struct {
	CommonModel
	progressService *progress.Service
	studentService  *student.Service

	state    progressState
	students []entity.Student
	form     *huh.Form
	today    hijri.Date

	status string
	err    error

	// Form bindings
	formStudentID  string
	formMemorized  string
	formReviewed   string
	formAttendance bool
	formNotes      string
}

type progressStudentsMsg struct {
	students []entity.Student
	err      error
}

type progressSavedMsg struct {
	err error
}

func NewProgressModel(progSvc *progress.Service, studentSvc *student.Service) ProgressModel {
	return ProgressModel{
		progressService: progSvc,
		studentService:  studentSvc,
		state:           progressStateLoading,
		today:           hijri.Today(),
	}
}

func (m ProgressModel) Title() string { return "Daily Progress" }
func (m ProgressModel) ShortHelp() string {
	return "Navigate form | Esc: back"
}

func (m ProgressModel) Init() tea.Cmd {
	return m.loadStudentsCmd()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressStudentsMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = progressStateForm

			return m, nil
		}

		m.students = msg.students
		m.buildForm()
		m.state = progressStateForm

		return m, m.form.Init()

	case progressSavedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Saved entry for %s", m.today.Key())
		}

		m.buildForm()
		m.state = progressStateForm

		return m, m.form.Init()

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	if m.state != progressStateForm || m.form == nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = progressStateSaving

	return m, m.saveCmd()
}

func (m ProgressModel) View() string {
	switch m.state {
	case progressStateLoading:
		return lipgloss.NewStyle().Padding(2).Render("Loading students...")
	case progressStateSaving:
		return lipgloss.NewStyle().Padding(2).Render("Saving...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	header := fmt.Sprintf("Progress entry for %s (%s)", m.today.Key(), m.today.MonthLabel())

	content := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.form.View(),
		m.status,
	)

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ProgressModel) buildForm() {
	options := make([]huh.Option[string], 0, len(m.students))
	for _, st := range m.students {
		options = append(options, huh.NewOption(st.Name, st.ID.String()))
	}

	m.formMemorized = "0"
	m.formReviewed = "0"
	m.formAttendance = false
	m.formNotes = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("student").
				Title("Student").
				Options(options...).
				Value(&m.formStudentID),

			huh.NewInput().
				Key("memorized").
				Title("Pages memorized").
				Value(&m.formMemorized).
				Validate(validatePages),

			huh.NewInput().
				Key("reviewed").
				Title("Pages reviewed").
				Value(&m.formReviewed).
				Validate(validatePages),

			huh.NewConfirm().
				Key("attendance").
				Title("Attendance only").
				Value(&m.formAttendance),

			huh.NewInput().
				Key("notes").
				Title("Notes").
				Value(&m.formNotes),
		),
	).WithWidth(50).WithShowHelp(false)
}

func validatePages(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}

	if v < 0 {
		return fmt.Errorf("must not be negative")
	}

	return nil
}

func (m ProgressModel) loadStudentsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		students, err := m.studentService.List(ctx)

		return progressStudentsMsg{students: students, err: err}
	}
}

func (m ProgressModel) saveCmd() tea.Cmd {
	studentID, err := uuid.Parse(m.formStudentID)
	if err != nil {
		return func() tea.Msg { return progressSavedMsg{err: err} }
	}

	memorized, _ := strconv.ParseFloat(strings.TrimSpace(m.formMemorized), 64)
	reviewed, _ := strconv.ParseFloat(strings.TrimSpace(m.formReviewed), 64)

	entry := progress.EntryParams{
		StudentID:      studentID,
		HijriDate:      m.today.Key(),
		HijriMonth:     m.today.MonthLabel(),
		DayNumber:      m.today.Day,
		PagesMemorized: memorized,
		PagesReviewed:  reviewed,
		AttendanceOnly: m.formAttendance,
		Notes:          m.formNotes,
	}

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		return progressSavedMsg{err: m.progressService.SaveEntries(ctx, []progress.EntryParams{entry})}
	}
}

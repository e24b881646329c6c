package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/halaqahq/halaqa/internal/entity"
	"github.com/halaqahq/halaqa/internal/student"
)

type StudentsModel struct {
	CommonModel
	studentService *student.Service

	table    table.Model
	students []entity.Student
	loading  bool
	err      error
	status   string
}

type loadStudentsMsg struct {
	students []entity.Student
	err      error
}

type studentActionMsg struct {
	err error
}

func NewStudentsModel(svc *student.Service) StudentsModel {
	columns := []table.Column{
		{Title: "Name", Width: 28},
		{Title: "Age", Width: 5},
		{Title: "Surah", Width: 20},
		{Title: "Teacher", Width: 24},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return StudentsModel{studentService: svc, table: t, loading: true}
}

func (m StudentsModel) Title() string { return "Students" }
func (m StudentsModel) ShortHelp() string {
	return "Esc: back | r: refresh | x: deactivate"
}

func (m StudentsModel) Init() tea.Cmd {
	return m.loadStudentsCmd()
}

func (m StudentsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadStudentsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.students = msg.students
		m.err = nil
		m.refreshTable()

		return m, nil

	case studentActionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.status = ""
		m.loading = true

		return m, m.loadStudentsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadStudentsCmd()
		case "x":
			return m, m.deactivateCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m StudentsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading students...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		tableView,
		m.status,
		m.ShortHelp(),
	)

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *StudentsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.students))

	for _, st := range m.students {
		age := ""
		if st.Age != nil {
			age = strconv.Itoa(*st.Age)
		}

		teacherName := ""
		if st.Teacher != nil {
			teacherName = st.Teacher.Name
		}

		rows = append(rows, table.Row{st.Name, age, st.CurrentSurah, teacherName})
	}

	m.table.SetRows(rows)
}

func (m StudentsModel) loadStudentsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		students, err := m.studentService.List(ctx)

		return loadStudentsMsg{students: students, err: err}
	}
}

func (m StudentsModel) deactivateCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.students) {
		return nil
	}

	id := m.students[idx].ID

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		return studentActionMsg{err: m.studentService.Deactivate(ctx, id)}
	}
}

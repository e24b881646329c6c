package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/halaqahq/halaqa/internal/sync"
)

type SyncModel struct {
	CommonModel
	engine *sync.Engine

	pending int
	syncing bool
	status  string
}

type syncStatusMsg struct {
	pending int
}

type syncDoneMsg struct {
	result sync.Result
	err    error
}

func NewSyncModel(engine *sync.Engine) SyncModel {
	return SyncModel{engine: engine}
}

func (m SyncModel) Title() string { return "Sync" }
func (m SyncModel) ShortHelp() string {
	return "Esc: back | s: sync now | o: toggle online | r: refresh"
}

func (m SyncModel) Init() tea.Cmd {
	return m.refreshCmd()
}

func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncStatusMsg:
		m.pending = msg.pending
		return m, nil

	case syncDoneMsg:
		m.syncing = false

		switch {
		case msg.err != nil:
			m.status = fmt.Sprintf("Sync failed: %v", msg.err)
		case msg.result.Skipped:
			m.status = "Nothing to sync"
		default:
			m.status = fmt.Sprintf("Synced %d, failed %d", msg.result.Processed, msg.result.Failed)
		}

		return m, m.refreshCmd()

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			return m, m.refreshCmd()
		case "s":
			if m.syncing {
				return m, nil
			}

			m.syncing = true
			m.status = "Syncing..."

			return m, m.syncCmd()
		case "o":
			if m.engine.Online() {
				m.engine.MarkOffline()
				m.status = "Marked offline"

				return m, nil
			}

			m.engine.MarkOnline()
			m.status = "Marked online, syncing..."
			m.syncing = true

			return m, m.syncCmd()
		}
	}

	return m, nil
}

func (m SyncModel) View() string {
	state := "offline"
	if m.engine.Online() {
		state = "online"
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("Connection: %s", state),
		fmt.Sprintf("Pending mutations: %d", m.pending),
		"",
		m.status,
		"",
		m.ShortHelp(),
	)

	return lipgloss.NewStyle().Padding(2).Render(content)
}

func (m SyncModel) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		return syncStatusMsg{pending: m.engine.PendingCount(ctx)}
	}
}

func (m SyncModel) syncCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		result, err := m.engine.TrySync(ctx)

		return syncDoneMsg{result: result, err: err}
	}
}

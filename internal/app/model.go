// Package app is the terminal tray: the daemon's tray menu and pill summary
// rendered in a terminal, driven by the event stream.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"casenotify/internal/client"
	"casenotify/internal/types"
)

const (
	defaultWidth = 48
	minWidth     = 24
)

type trayAPI interface {
	TrayAction(ctx context.Context, id string) error
	Subscribe(ctx context.Context) (<-chan client.Event, <-chan error, error)
}

type Model struct {
	api    trayAPI
	ctx    context.Context
	cancel context.CancelFunc

	events    <-chan client.Event
	errs      <-chan error
	connected bool
	menu      types.TrayMenu
	rows      []menuRow
	cursor    int
	summary   types.PillSummary
	state     types.NotificationStateSnapshot
	update    types.UpdateState

	loader      spinner.Model
	status      string
	statusStyle lipgloss.Style
	width       int
}

func NewModel(api trayAPI) Model {
	ctx, cancel := context.WithCancel(context.Background())
	loader := spinner.New()
	loader.Spinner = spinner.Line
	return Model{
		api:         api,
		ctx:         ctx,
		cancel:      cancel,
		cursor:      -1,
		loader:      loader,
		status:      "connecting…",
		statusStyle: statusStyle,
		width:       defaultWidth,
	}
}

func Run(c *client.Client) error {
	model := NewModel(c)
	p := tea.NewProgram(&model, tea.WithAltScreen())
	_, err := p.Run()
	model.cancel()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(subscribeCmd(m.ctx, m.api), m.loader.Tick)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(minWidth, msg.Width)
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case streamOpenedMsg:
		m.events, m.errs = msg.events, msg.errs
		m.connected = true
		m.setStatus("", statusStyle)
		return m, waitForEventCmd(m.events, m.errs)
	case streamClosedMsg:
		m.connected = false
		if m.ctx.Err() != nil {
			return m, nil
		}
		if msg.err != nil {
			m.setStatus("disconnected: "+msg.err.Error(), toastWarningStyle)
		} else {
			m.setStatus("disconnected", toastWarningStyle)
		}
		return m, reconnectCmd()
	case reconnectMsg:
		return m, subscribeCmd(m.ctx, m.api)
	case eventMsg:
		if err := m.applyEvent(client.Event(msg)); err != nil {
			m.setStatus("bad event: "+err.Error(), toastErrorStyle)
		}
		return m, waitForEventCmd(m.events, m.errs)
	case actionResultMsg:
		if msg.err != nil {
			m.setStatus(msg.id+" failed: "+msg.err.Error(), toastErrorStyle)
		} else {
			m.setStatus("", statusStyle)
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.loader, cmd = m.loader.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applyEvent folds one stream frame into the model.
func (m *Model) applyEvent(ev client.Event) error {
	switch ev.Type {
	case types.EventTrayMenu:
		var menu types.TrayMenu
		if err := ev.Decode(&menu); err != nil {
			return err
		}
		m.setMenu(menu)
	case types.EventPillSummary:
		var summary types.PillSummary
		if err := ev.Decode(&summary); err != nil {
			return err
		}
		m.summary = summary
	case types.EventState:
		var state types.NotificationStateSnapshot
		if err := ev.Decode(&state); err != nil {
			return err
		}
		m.state = state
	case types.EventUpdateState:
		var update types.UpdateState
		if err := ev.Decode(&update); err != nil {
			return err
		}
		m.update = update
	}
	return nil
}

func (m *Model) setMenu(menu types.TrayMenu) {
	selectedID := ""
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		selectedID = m.rows[m.cursor].item.ID
	}
	m.menu = menu
	m.rows = flattenMenu(menu.Items, 0)
	m.cursor = selectByID(m.rows, selectedID, m.cursor)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.cancel()
		return tea.Quit
	case "up", "k":
		if next := nextSelectable(m.rows, m.cursor, -1); next >= 0 {
			m.cursor = next
		}
	case "down", "j", "tab":
		if next := nextSelectable(m.rows, m.cursor, 1); next >= 0 {
			m.cursor = next
		}
	case "enter", " ":
		return m.activate()
	case "p":
		return m.runAction(types.ActionTogglePause)
	case "u":
		return m.runAction(types.ActionCheckUpdates)
	case "c":
		m.copyActiveLink()
	}
	return nil
}

func (m *Model) activate() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.rows) || !m.rows[m.cursor].selectable() {
		return nil
	}
	return m.runAction(m.rows[m.cursor].item.ID)
}

func (m *Model) runAction(id string) tea.Cmd {
	if !m.connected {
		m.setStatus("not connected", toastWarningStyle)
		return nil
	}
	return trayActionCmd(m.ctx, m.api, id)
}

func (m *Model) copyActiveLink() {
	active := m.summary.Active
	if active == nil {
		m.setStatus("nothing to copy", toastWarningStyle)
		return
	}
	link := active.ActionURL
	if link == "" {
		link = active.ReplyURL
	}
	if link == "" {
		m.setStatus("notification has no link", toastWarningStyle)
		return
	}
	via, err := copyToClipboard(link)
	switch {
	case err != nil:
		m.setStatus("copy failed: "+err.Error(), toastErrorStyle)
	case via == "terminal":
		m.setStatus("link copied via terminal", toastInfoStyle)
	default:
		m.setStatus("link copied", toastInfoStyle)
	}
}

func (m *Model) setStatus(text string, style lipgloss.Style) {
	m.status = text
	m.statusStyle = style
}

func (m *Model) View() string {
	width := max(minWidth, m.width)
	lines := []string{m.headerLine(width)}
	lines = append(lines, m.pillView(width))
	for i, row := range m.rows {
		lines = append(lines, renderMenuRow(row, i == m.cursor, width))
	}
	if m.update.Status.Busy() {
		lines = append(lines, m.loader.View()+" "+statusStyle.Render(string(m.update.Status)))
	}
	if m.status != "" {
		lines = append(lines, m.statusStyle.Render(runewidth.Truncate(m.status, width, "…")))
	}
	lines = append(lines, helpStyle.Render("↑/↓ move · enter select · p pause · c copy link · q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) headerLine(width int) string {
	title := "Case Portal"
	if m.menu.Tooltip != "" {
		title = m.menu.Tooltip
	}
	header := headerStyle.Render(runewidth.Truncate(title, width, "…"))
	if m.connected && m.state.EffectivePaused {
		header += " " + pausedStyle.Render("paused")
	}
	return header
}

func (m *Model) pillView(width int) string {
	if m.summary.Count == 0 {
		return statusStyle.Render("No pending notifications")
	}
	inner := max(minWidth, width-4)
	lines := []string{countStyle.Render(fmt.Sprintf("%d", m.summary.Count)) + " " + runewidth.Truncate(m.summary.Title, inner-6, "…")}
	if body := renderMarkdown(m.summary.Message, inner); body != "" {
		lines = append(lines, body)
	}
	if m.summary.Total > 1 {
		lines = append(lines, helpStyle.Render(fmt.Sprintf("%d of %d", m.summary.ActiveIndex+1, m.summary.Total)))
	}
	return pillFrameStyle.Width(inner).Render(strings.Join(lines, "\n"))
}

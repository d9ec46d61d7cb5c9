// Package tui implements the interactive tunnel watch view. The view owns
// its polling lifecycle: the first status fetch fires on entry, the next
// poll is scheduled only after the previous response (or failure) has been
// handled, and quitting the view stops polling entirely.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/EdoardoFiore/madmin-strongswan/internal/client"
	"github.com/EdoardoFiore/madmin-strongswan/internal/status"
)

// Backend is the slice of the API client the watch view needs.
type Backend interface {
	GetTunnel(ctx context.Context, id uuid.UUID) (*client.Tunnel, error)
	ListChildren(ctx context.Context, tunnelID uuid.UUID) ([]client.ChildSA, error)
	GetTunnelStatus(ctx context.Context, id uuid.UUID) (*client.TunnelStatus, error)
}

type tunnelMsg struct {
	tunnel   *client.Tunnel
	children []client.ChildSA
}

type statusMsg struct {
	snapshot *client.TunnelStatus
}

type statusErrMsg struct {
	err error
}

type pollMsg struct{}

type loadErrMsg struct {
	err error
}

// WatchModel is the tunnel detail view.
type WatchModel struct {
	backend  Backend
	tunnelID uuid.UUID
	interval time.Duration

	tunnel   *client.Tunnel
	children []client.ChildSA
	status   status.TunnelStatus
	snapshot *client.TunnelStatus
	pollErr  error
	loadErr  error

	table   table.Model
	spinner spinner.Model
	loaded  bool
	width   int
	height  int
}

// NewWatchModel creates the watch view for one tunnel.
func NewWatchModel(backend Backend, tunnelID uuid.UUID, interval time.Duration) WatchModel {
	if interval <= 0 {
		interval = status.DefaultInterval
	}

	columns := []table.Column{
		{Title: "Child SA", Width: 18},
		{Title: "Local", Width: 18},
		{Title: "Remote", Width: 18},
		{Title: "State", Width: 14},
		{Title: "In", Width: 10},
		{Title: "Out", Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorFrame).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(ColorAccent).
		Background(ColorFrame).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	return WatchModel{
		backend:  backend,
		tunnelID: tunnelID,
		interval: interval,
		status:   status.Disconnected,
		table:    t,
		spinner:  sp,
	}
}

// Init loads the tunnel configuration and fires the first status poll
// immediately.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.loadTunnel(), m.fetchStatus(), m.spinner.Tick)
}

func (m WatchModel) loadTunnel() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		tunnel, err := m.backend.GetTunnel(ctx, m.tunnelID)
		if err != nil {
			return loadErrMsg{err: err}
		}
		children, err := m.backend.ListChildren(ctx, m.tunnelID)
		if err != nil {
			return loadErrMsg{err: err}
		}
		return tunnelMsg{tunnel: tunnel, children: children}
	}
}

func (m WatchModel) fetchStatus() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.backend.GetTunnelStatus(context.Background(), m.tunnelID)
		if err != nil {
			return statusErrMsg{err: err}
		}
		return statusMsg{snapshot: snap}
	}
}

// scheduleNext arms the next poll. It is only called after a response or
// failure has been handled, so polls never overlap.
func (m WatchModel) scheduleNext() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

// Update handles messages.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.loadTunnel()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tunnelMsg:
		m.tunnel = msg.tunnel
		m.children = msg.children
		m.loadErr = nil
		m.rebuildRows()
		return m, nil

	case loadErrMsg:
		m.loadErr = msg.err
		return m, nil

	case statusMsg:
		m.snapshot = msg.snapshot
		m.status = status.FromIKEState(msg.snapshot.IKEState)
		m.pollErr = nil
		m.loaded = true
		// Full re-derivation of dependent state on every applied
		// snapshot; badges and table can never disagree.
		m.rebuildRows()
		return m, m.scheduleNext()

	case statusErrMsg:
		// Diagnostic only. Last-known-good status stands; retry next tick.
		m.pollErr = msg.err
		return m, m.scheduleNext()

	case pollMsg:
		return m, m.fetchStatus()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *WatchModel) liveChildren() []status.LiveChild {
	if m.snapshot == nil {
		return nil
	}
	live := make([]status.LiveChild, len(m.snapshot.ChildSAs))
	for i, c := range m.snapshot.ChildSAs {
		live[i] = status.LiveChild{Name: c.Name, State: c.State}
	}
	return live
}

func (m *WatchModel) rebuildRows() {
	live := m.liveChildren()
	byName := make(map[string]client.ChildSAStatus)
	if m.snapshot != nil {
		for _, c := range m.snapshot.ChildSAs {
			byName[c.Name] = c
		}
	}

	rows := make([]table.Row, len(m.children))
	for i, child := range m.children {
		ind := status.ChildState(m.status, child.Name, child.Enabled, live)
		stats, ok := byName[child.Name]
		in, out := "-", "-"
		if ok {
			in = formatBytes(stats.BytesIn)
			out = formatBytes(stats.BytesOut)
		}
		rows[i] = table.Row{
			child.Name,
			child.LocalTS,
			child.RemoteTS,
			indicatorLabel(ind),
			in,
			out,
		}
	}
	m.table.SetRows(rows)
}

func indicatorLabel(ind status.ChildIndicator) string {
	switch ind {
	case status.ChildUp:
		return "up"
	case status.ChildNegotiating:
		return "negotiating"
	case status.ChildWaiting:
		return "waiting"
	default:
		return "disabled"
	}
}

func statusBadge(st status.TunnelStatus) string {
	switch st {
	case status.Established:
		return StyleStatusGood.Render("● ESTABLISHED")
	case status.Connecting:
		return StyleStatusWarn.Render("◐ CONNECTING")
	default:
		return StyleStatusBad.Render("○ DISCONNECTED")
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// View renders the watch screen.
func (m WatchModel) View() string {
	if m.loadErr != nil {
		return StyleCard.Render(
			StyleStatusBad.Render("Failed to load tunnel") + "\n" + m.loadErr.Error(),
		) + "\n" + StyleHelp.Render("r retry · q quit")
	}
	if m.tunnel == nil {
		return m.spinner.View() + " Loading tunnel..."
	}

	name := m.tunnel.Name
	header := lipgloss.JoinVertical(lipgloss.Left,
		StyleTitle.Render("Tunnel "+name),
		statusBadge(m.status),
		StyleSubtitle.Render(fmt.Sprintf("%s ⇄ %s",
			orAny(m.tunnel.LocalAddress), m.tunnel.RemoteAddress)),
	)

	var details string
	if m.snapshot != nil && m.status == status.Established {
		details = StyleMuted.Render(fmt.Sprintf("established %s · rekey in %s",
			(time.Duration(m.snapshot.EstablishedTime) * time.Second).String(),
			(time.Duration(m.snapshot.RekeyTime) * time.Second).String()))
	} else if !m.loaded {
		details = m.spinner.View() + " waiting for first status..."
	}

	var pollNote string
	if m.pollErr != nil {
		pollNote = StyleStatusWarn.Render("poll failed, showing last known state")
	}

	blocks := []string{StyleCard.Render(header)}
	if details != "" {
		blocks = append(blocks, StyleMuted.Padding(0, 2).Render(details))
	}
	if pollNote != "" {
		blocks = append(blocks, StyleHelp.Render(pollNote))
	}
	blocks = append(blocks,
		m.table.View(),
		StyleHelp.Render("r reload config · q quit"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func orAny(addr string) string {
	if addr == "" {
		return "%any"
	}
	return addr
}

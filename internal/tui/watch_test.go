package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EdoardoFiore/madmin-strongswan/internal/client"
	"github.com/EdoardoFiore/madmin-strongswan/internal/status"
)

type stubBackend struct {
	tunnel    *client.Tunnel
	children  []client.ChildSA
	status    *client.TunnelStatus
	statusErr error
}

func (s *stubBackend) GetTunnel(ctx context.Context, id uuid.UUID) (*client.Tunnel, error) {
	return s.tunnel, nil
}

func (s *stubBackend) ListChildren(ctx context.Context, tunnelID uuid.UUID) ([]client.ChildSA, error) {
	return s.children, nil
}

func (s *stubBackend) GetTunnelStatus(ctx context.Context, id uuid.UUID) (*client.TunnelStatus, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return s.status, nil
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		tunnel: &client.Tunnel{
			ID:            uuid.New(),
			Name:          "branch-office",
			RemoteAddress: "203.0.113.10",
		},
		children: []client.ChildSA{
			{ID: uuid.New(), Name: "net-a", Enabled: true, LocalTS: "10.0.1.0/24", RemoteTS: "10.0.2.0/24"},
			{ID: uuid.New(), Name: "net-b", Enabled: false, LocalTS: "10.0.3.0/24", RemoteTS: "10.0.4.0/24"},
		},
		status: &client.TunnelStatus{
			IKEState: "ESTABLISHED",
			ChildSAs: []client.ChildSAStatus{
				{Name: "net-a", State: "INSTALLED", BytesIn: 2048, BytesOut: 4096},
			},
		},
	}
}

func applyMsg(t *testing.T, m WatchModel, msg tea.Msg) (WatchModel, tea.Cmd) {
	t.Helper()
	nm, cmd := m.Update(msg)
	wm, ok := nm.(WatchModel)
	require.True(t, ok, "Update must return a WatchModel")
	return wm, cmd
}

func TestWatchModel_AppliesSnapshot(t *testing.T) {
	b := newStubBackend()
	m := NewWatchModel(b, b.tunnel.ID, time.Minute)

	m, _ = applyMsg(t, m, tunnelMsg{tunnel: b.tunnel, children: b.children})
	m, cmd := applyMsg(t, m, statusMsg{snapshot: b.status})

	assert.Equal(t, status.Established, m.status)
	require.NotNil(t, cmd, "an applied snapshot must schedule the next poll")

	rows := m.table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "net-a", rows[0][0])
	assert.Equal(t, "up", rows[0][3])
	assert.Equal(t, "2.0 KiB", rows[0][4])
	assert.Equal(t, "disabled", rows[1][3])
}

func TestWatchModel_PollErrorKeepsLastKnownGood(t *testing.T) {
	b := newStubBackend()
	m := NewWatchModel(b, b.tunnel.ID, time.Minute)

	m, _ = applyMsg(t, m, tunnelMsg{tunnel: b.tunnel, children: b.children})
	m, _ = applyMsg(t, m, statusMsg{snapshot: b.status})
	require.Equal(t, status.Established, m.status)

	m, cmd := applyMsg(t, m, statusErrMsg{err: errors.New("backend unreachable")})

	assert.Equal(t, status.Established, m.status, "a failed poll must not move the status")
	assert.Error(t, m.pollErr)
	assert.NotNil(t, cmd, "a failed poll still arms the next tick")
}

func TestWatchModel_QuitStopsPolling(t *testing.T) {
	b := newStubBackend()
	m := NewWatchModel(b, b.tunnel.ID, time.Minute)

	_, cmd := applyMsg(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd(), "q must quit the view")
}

func TestWatchModel_StatusTransitions(t *testing.T) {
	b := newStubBackend()
	m := NewWatchModel(b, b.tunnel.ID, time.Minute)
	m, _ = applyMsg(t, m, tunnelMsg{tunnel: b.tunnel, children: b.children})

	m, _ = applyMsg(t, m, statusMsg{snapshot: &client.TunnelStatus{IKEState: "CONNECTING"}})
	assert.Equal(t, status.Connecting, m.status)

	// Children wait while the parent is not established.
	rows := m.table.Rows()
	assert.Equal(t, "waiting", rows[0][3])

	m, _ = applyMsg(t, m, statusMsg{snapshot: &client.TunnelStatus{IKEState: "DELETING"}})
	assert.Equal(t, status.Disconnected, m.status)
}

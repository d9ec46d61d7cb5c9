// Package status derives UI-facing tunnel and Child SA states from live
// daemon snapshots and owns the polling loop that fetches them.
package status

// TunnelStatus is the three-state connection status of a tunnel.
type TunnelStatus string

const (
	Established  TunnelStatus = "established"
	Connecting   TunnelStatus = "connecting"
	Disconnected TunnelStatus = "disconnected"
)

// ChildIndicator is the derived per-Child-SA state shown next to each child.
type ChildIndicator string

const (
	// ChildUp: parent established and the child is INSTALLED in the live list.
	ChildUp ChildIndicator = "up"
	// ChildNegotiating: parent established but the enabled child is absent
	// from the live list or not yet INSTALLED.
	ChildNegotiating ChildIndicator = "negotiating"
	// ChildWaiting: child is enabled but the parent tunnel is down.
	ChildWaiting ChildIndicator = "waiting"
	// ChildDisabled: child is disabled; live data is ignored.
	ChildDisabled ChildIndicator = "disabled"
)

// LiveChild is one Child SA record from a live status snapshot.
type LiveChild struct {
	Name  string
	State string
}

// Snapshot is one observation of a tunnel's live state.
type Snapshot struct {
	IKEState        string
	LocalHost       string
	RemoteHost      string
	Initiator       bool
	EstablishedTime int
	RekeyTime       int
	Children        []LiveChild
}

// FromIKEState maps a daemon IKE state string to a tunnel status. Anything
// outside the two recognized literals, including an absent state, maps to
// disconnected. The mapping is the same for the first observation and every
// subsequent poll.
func FromIKEState(state string) TunnelStatus {
	switch state {
	case "ESTABLISHED":
		return Established
	case "CONNECTING":
		return Connecting
	default:
		return Disconnected
	}
}

// ChildState derives the indicator for one configured child from the current
// reconciled tunnel status and the live child list. It holds no state across
// polls; correlation is by exact name match and live records with no
// configured counterpart are simply never asked about.
func ChildState(tunnel TunnelStatus, name string, enabled bool, live []LiveChild) ChildIndicator {
	if !enabled {
		return ChildDisabled
	}
	// Tunnel-level down overrides child-level live data.
	if tunnel != Established {
		return ChildWaiting
	}
	for _, lc := range live {
		if lc.Name == name && lc.State == "INSTALLED" {
			return ChildUp
		}
	}
	return ChildNegotiating
}

package client

import (
	"time"

	"github.com/google/uuid"

	"github.com/EdoardoFiore/madmin-strongswan/internal/firewall"
	"github.com/EdoardoFiore/madmin-strongswan/internal/status"
)

// Tunnel is the backend's read shape of an IPsec tunnel (Phase 1 / IKE SA).
// The PSK is write-only and never present on reads; Status is derived by the
// backend from its most recent live observation.
type Tunnel struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Enabled       bool      `json:"enabled"`
	IKEVersion    string    `json:"ike_version"`
	Mode          string    `json:"mode"`
	LocalAddress  string    `json:"local_address"`
	RemoteAddress string    `json:"remote_address"`
	LocalID       string    `json:"local_id,omitempty"`
	RemoteID      string    `json:"remote_id,omitempty"`
	AuthMethod    string    `json:"auth_method"`
	IKEProposal   string    `json:"ike_proposal"`
	IKELifetime   int       `json:"ike_lifetime"`
	DPDAction     string    `json:"dpd_action"`
	DPDDelay      int       `json:"dpd_delay"`
	NATTraversal  bool      `json:"nat_traversal"`
	Status        string    `json:"status"`
	ChildSACount  int       `json:"child_sa_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TunnelCreate is the create payload. This is the only read-modify path that
// carries the PSK.
type TunnelCreate struct {
	Name          string `json:"name"`
	IKEVersion    string `json:"ike_version,omitempty"`
	Mode          string `json:"mode,omitempty"`
	LocalAddress  string `json:"local_address"`
	RemoteAddress string `json:"remote_address"`
	LocalID       string `json:"local_id,omitempty"`
	RemoteID      string `json:"remote_id,omitempty"`
	AuthMethod    string `json:"auth_method,omitempty"`
	PSK           string `json:"psk,omitempty"`
	IKEProposal   string `json:"ike_proposal,omitempty"`
	IKELifetime   int    `json:"ike_lifetime,omitempty"`
	DPDAction     string `json:"dpd_action,omitempty"`
	DPDDelay      int    `json:"dpd_delay,omitempty"`
	NATTraversal  *bool  `json:"nat_traversal,omitempty"`
}

// TunnelUpdate is the partial update payload. The PSK pointer is nil when
// the secret is unchanged, so it is omitted from the wire entirely.
type TunnelUpdate struct {
	Name          *string `json:"name,omitempty"`
	Enabled       *bool   `json:"enabled,omitempty"`
	IKEVersion    *string `json:"ike_version,omitempty"`
	Mode          *string `json:"mode,omitempty"`
	LocalAddress  *string `json:"local_address,omitempty"`
	RemoteAddress *string `json:"remote_address,omitempty"`
	LocalID       *string `json:"local_id,omitempty"`
	RemoteID      *string `json:"remote_id,omitempty"`
	AuthMethod    *string `json:"auth_method,omitempty"`
	PSK           *string `json:"psk,omitempty"`
	IKEProposal   *string `json:"ike_proposal,omitempty"`
	IKELifetime   *int    `json:"ike_lifetime,omitempty"`
	DPDAction     *string `json:"dpd_action,omitempty"`
	DPDDelay      *int    `json:"dpd_delay,omitempty"`
	NATTraversal  *bool   `json:"nat_traversal,omitempty"`
}

// ChildSA is one Phase 2 negotiation under a tunnel. The name is unique
// within the tunnel and is the correlation key against live daemon records.
// PolicyIn/PolicyOut are the Child SA's default firewall policies.
type ChildSA struct {
	ID          uuid.UUID       `json:"id"`
	TunnelID    uuid.UUID       `json:"tunnel_id"`
	Name        string          `json:"name"`
	LocalTS     string          `json:"local_ts"`
	RemoteTS    string          `json:"remote_ts"`
	ESPProposal string          `json:"esp_proposal"`
	ESPLifetime int             `json:"esp_lifetime"`
	PFSGroup    string          `json:"pfs_group,omitempty"`
	StartAction string          `json:"start_action"`
	CloseAction string          `json:"close_action"`
	Enabled     bool            `json:"enabled"`
	PolicyIn    firewall.Action `json:"policy_in"`
	PolicyOut   firewall.Action `json:"policy_out"`
}

// ChildSACreate is the Child SA create payload.
type ChildSACreate struct {
	Name        string `json:"name"`
	LocalTS     string `json:"local_ts"`
	RemoteTS    string `json:"remote_ts"`
	ESPProposal string `json:"esp_proposal,omitempty"`
	ESPLifetime int    `json:"esp_lifetime,omitempty"`
	PFSGroup    string `json:"pfs_group,omitempty"`
	StartAction string `json:"start_action,omitempty"`
	CloseAction string `json:"close_action,omitempty"`
}

// ChildSAUpdate is the partial Child SA update payload.
type ChildSAUpdate struct {
	Name        *string `json:"name,omitempty"`
	LocalTS     *string `json:"local_ts,omitempty"`
	RemoteTS    *string `json:"remote_ts,omitempty"`
	ESPProposal *string `json:"esp_proposal,omitempty"`
	ESPLifetime *int    `json:"esp_lifetime,omitempty"`
	PFSGroup    *string `json:"pfs_group,omitempty"`
	StartAction *string `json:"start_action,omitempty"`
	CloseAction *string `json:"close_action,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}

// ChildSAStatus is one live Child SA record inside a status snapshot.
type ChildSAStatus struct {
	Name       string `json:"name"`
	State      string `json:"state"`
	BytesIn    int64  `json:"bytes_in"`
	BytesOut   int64  `json:"bytes_out"`
	PacketsIn  int64  `json:"packets_in"`
	PacketsOut int64  `json:"packets_out"`
}

// TunnelStatus is the live snapshot from GET /tunnels/{id}/status.
type TunnelStatus struct {
	TunnelID        uuid.UUID       `json:"tunnel_id"`
	IKEState        string          `json:"ike_state"`
	LocalHost       string          `json:"local_host,omitempty"`
	RemoteHost      string          `json:"remote_host,omitempty"`
	Initiator       bool            `json:"initiator"`
	EstablishedTime int             `json:"established_time,omitempty"`
	RekeyTime       int             `json:"rekey_time,omitempty"`
	ChildSAs        []ChildSAStatus `json:"child_sas"`
}

// Snapshot converts the wire status into the reconciler's observation form.
func (t *TunnelStatus) Snapshot() *status.Snapshot {
	children := make([]status.LiveChild, len(t.ChildSAs))
	for i, c := range t.ChildSAs {
		children[i] = status.LiveChild{Name: c.Name, State: c.State}
	}
	return &status.Snapshot{
		IKEState:        t.IKEState,
		LocalHost:       t.LocalHost,
		RemoteHost:      t.RemoteHost,
		Initiator:       t.Initiator,
		EstablishedTime: t.EstablishedTime,
		RekeyTime:       t.RekeyTime,
		Children:        children,
	}
}

// TrafficPoint is one sample of the traffic history series.
type TrafficPoint struct {
	Timestamp string `json:"timestamp"`
	BytesIn   int64  `json:"bytes_in"`
	BytesOut  int64  `json:"bytes_out"`
	TotalIn   int64  `json:"total_in,omitempty"`
	TotalOut  int64  `json:"total_out,omitempty"`
}

// TrafficReport is the response of GET /tunnels/{id}/traffic.
type TrafficReport struct {
	TunnelID   string         `json:"tunnel_id"`
	TunnelName string         `json:"tunnel_name"`
	Period     string         `json:"period"`
	DataPoints int            `json:"data_points"`
	Data       []TrafficPoint `json:"data"`
}

// LogError is one detected error with its matched log line.
type LogError struct {
	Pattern     string `json:"pattern,omitempty"`
	Description string `json:"description"`
	LogLine     string `json:"log_line,omitempty"`
}

// LogsReport is the response of GET /tunnels/{id}/logs.
type LogsReport struct {
	TunnelID   uuid.UUID  `json:"tunnel_id"`
	TunnelName string     `json:"tunnel_name"`
	Logs       []string   `json:"logs"`
	Errors     []LogError `json:"errors"`
	TotalLines int        `json:"total_lines"`
}

// ActionResult is the response of lifecycle endpoints (start/stop/delete).
type ActionResult struct {
	Status string `json:"status"`
	Name   string `json:"name"`
}

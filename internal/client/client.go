// Package client provides a typed API client for the strongSwan tunnel
// management backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/EdoardoFiore/madmin-strongswan/internal/firewall"
	"github.com/EdoardoFiore/madmin-strongswan/internal/proposal"
)

// DefaultBasePath is the module mount point on the host application.
const DefaultBasePath = "/api/modules/strongswan"

// TrafficPeriods are the admissible values for the traffic history query.
var TrafficPeriods = []string{"1h", "6h", "24h", "7d", "30d"}

// APIError is a non-2xx backend response. Detail carries the backend's
// `detail` message verbatim, which is what gets surfaced to the user.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("API error (status %d)", e.StatusCode)
}

// HTTPClient is an HTTP implementation of the management API.
type HTTPClient struct {
	baseURL    string
	basePath   string
	apiKey     string
	httpClient *http.Client
}

// ClientOption configures the HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) ClientOption {
	return func(c *HTTPClient) {
		c.apiKey = key
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient.Timeout = d
	}
}

// WithBasePath overrides the module mount path.
func WithBasePath(p string) ClientOption {
	return func(c *HTTPClient) {
		c.basePath = p
	}
}

// WithHTTPClient replaces the underlying HTTP client (custom TLS, proxies).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// NewHTTPClient creates a client for the backend at baseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:  baseURL,
		basePath: DefaultBasePath,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest performs an HTTP request and decodes the JSON response.
// Non-2xx responses become *APIError with the backend detail message.
func (c *HTTPClient) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	u := c.baseURL + c.basePath + path

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(respBody, &detail); err == nil && detail.Detail != "" {
			apiErr.Detail = detail.Detail
		} else {
			apiErr.Detail = string(respBody)
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// --- Tunnels ---

// ListTunnels retrieves all tunnels with their derived status and child count.
func (c *HTTPClient) ListTunnels(ctx context.Context) ([]Tunnel, error) {
	var tunnels []Tunnel
	if err := c.doRequest(ctx, http.MethodGet, "/tunnels", nil, &tunnels); err != nil {
		return nil, err
	}
	return tunnels, nil
}

// CreateTunnel creates a tunnel. The PSK travels only on this payload and
// on explicit updates; it is never echoed back.
func (c *HTTPClient) CreateTunnel(ctx context.Context, t TunnelCreate) (*Tunnel, error) {
	var created Tunnel
	if err := c.doRequest(ctx, http.MethodPost, "/tunnels", t, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetTunnel retrieves one tunnel.
func (c *HTTPClient) GetTunnel(ctx context.Context, id uuid.UUID) (*Tunnel, error) {
	var t Tunnel
	if err := c.doRequest(ctx, http.MethodGet, "/tunnels/"+id.String(), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTunnel partially updates a tunnel. Leave u.PSK nil to keep the
// current secret.
func (c *HTTPClient) UpdateTunnel(ctx context.Context, id uuid.UUID, u TunnelUpdate) (*Tunnel, error) {
	var t Tunnel
	if err := c.doRequest(ctx, http.MethodPatch, "/tunnels/"+id.String(), u, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ReplaceTunnel updates a tunnel via PUT.
func (c *HTTPClient) ReplaceTunnel(ctx context.Context, id uuid.UUID, u TunnelUpdate) (*Tunnel, error) {
	var t Tunnel
	if err := c.doRequest(ctx, http.MethodPut, "/tunnels/"+id.String(), u, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTunnel deletes a tunnel and, by cascade, all its Child SAs.
func (c *HTTPClient) DeleteTunnel(ctx context.Context, id uuid.UUID) (*ActionResult, error) {
	var res ActionResult
	if err := c.doRequest(ctx, http.MethodDelete, "/tunnels/"+id.String(), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// StartTunnel initiates a tunnel. Runtime only; configuration is untouched.
func (c *HTTPClient) StartTunnel(ctx context.Context, id uuid.UUID) (*ActionResult, error) {
	var res ActionResult
	if err := c.doRequest(ctx, http.MethodPost, "/tunnels/"+id.String()+"/start", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// StopTunnel terminates a tunnel.
func (c *HTTPClient) StopTunnel(ctx context.Context, id uuid.UUID) (*ActionResult, error) {
	var res ActionResult
	if err := c.doRequest(ctx, http.MethodPost, "/tunnels/"+id.String()+"/stop", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetTunnelStatus retrieves the live snapshot for a tunnel.
func (c *HTTPClient) GetTunnelStatus(ctx context.Context, id uuid.UUID) (*TunnelStatus, error) {
	var st TunnelStatus
	if err := c.doRequest(ctx, http.MethodGet, "/tunnels/"+id.String()+"/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetTraffic retrieves the traffic history series for a period
// (one of TrafficPeriods).
func (c *HTTPClient) GetTraffic(ctx context.Context, id uuid.UUID, period string) (*TrafficReport, error) {
	var report TrafficReport
	path := "/tunnels/" + id.String() + "/traffic?period=" + url.QueryEscape(period)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetLogs retrieves daemon logs filtered to a tunnel, with detected errors.
func (c *HTTPClient) GetLogs(ctx context.Context, id uuid.UUID) (*LogsReport, error) {
	var report LogsReport
	if err := c.doRequest(ctx, http.MethodGet, "/tunnels/"+id.String()+"/logs", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// --- Child SAs ---

// ListChildren retrieves all Child SAs of a tunnel.
func (c *HTTPClient) ListChildren(ctx context.Context, tunnelID uuid.UUID) ([]ChildSA, error) {
	var children []ChildSA
	if err := c.doRequest(ctx, http.MethodGet, "/tunnels/"+tunnelID.String()+"/children", nil, &children); err != nil {
		return nil, err
	}
	return children, nil
}

// CreateChild creates a Child SA under a tunnel.
func (c *HTTPClient) CreateChild(ctx context.Context, tunnelID uuid.UUID, child ChildSACreate) (*ChildSA, error) {
	var created ChildSA
	if err := c.doRequest(ctx, http.MethodPost, "/tunnels/"+tunnelID.String()+"/children", child, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateChild partially updates a Child SA.
func (c *HTTPClient) UpdateChild(ctx context.Context, tunnelID, childID uuid.UUID, u ChildSAUpdate) (*ChildSA, error) {
	var child ChildSA
	path := "/tunnels/" + tunnelID.String() + "/children/" + childID.String()
	if err := c.doRequest(ctx, http.MethodPatch, path, u, &child); err != nil {
		return nil, err
	}
	return &child, nil
}

// ReplaceChild updates a Child SA via PUT.
func (c *HTTPClient) ReplaceChild(ctx context.Context, tunnelID, childID uuid.UUID, u ChildSAUpdate) (*ChildSA, error) {
	var child ChildSA
	path := "/tunnels/" + tunnelID.String() + "/children/" + childID.String()
	if err := c.doRequest(ctx, http.MethodPut, path, u, &child); err != nil {
		return nil, err
	}
	return &child, nil
}

// DeleteChild deletes a Child SA. Siblings and the parent are unaffected.
func (c *HTTPClient) DeleteChild(ctx context.Context, tunnelID, childID uuid.UUID) (*ActionResult, error) {
	var res ActionResult
	path := "/tunnels/" + tunnelID.String() + "/children/" + childID.String()
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// StartChild initiates one Child SA.
func (c *HTTPClient) StartChild(ctx context.Context, tunnelID, childID uuid.UUID) (*ActionResult, error) {
	var res ActionResult
	path := "/tunnels/" + tunnelID.String() + "/children/" + childID.String() + "/start"
	if err := c.doRequest(ctx, http.MethodPost, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// StopChild closes one Child SA.
func (c *HTTPClient) StopChild(ctx context.Context, tunnelID, childID uuid.UUID) (*ActionResult, error) {
	var res ActionResult
	path := "/tunnels/" + tunnelID.String() + "/children/" + childID.String() + "/stop"
	if err := c.doRequest(ctx, http.MethodPost, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// --- Firewall (implements firewall.Backend) ---

func (c *HTTPClient) firewallPath(tunnelID, childID uuid.UUID) string {
	return "/tunnels/" + tunnelID.String() + "/children/" + childID.String() + "/firewall"
}

// ListRules retrieves all firewall rules of a Child SA.
func (c *HTTPClient) ListRules(ctx context.Context, tunnelID, childID uuid.UUID) ([]firewall.Rule, error) {
	var rules []firewall.Rule
	if err := c.doRequest(ctx, http.MethodGet, c.firewallPath(tunnelID, childID)+"/rules", nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// CreateRule appends a rule; the server assigns the next priority.
func (c *HTTPClient) CreateRule(ctx context.Context, tunnelID, childID uuid.UUID, r firewall.NewRule) (*firewall.Rule, error) {
	var created firewall.Rule
	if err := c.doRequest(ctx, http.MethodPost, c.firewallPath(tunnelID, childID)+"/rules", r, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateRule partially updates one rule.
func (c *HTTPClient) UpdateRule(ctx context.Context, tunnelID, childID, ruleID uuid.UUID, patch firewall.RulePatch) (*firewall.Rule, error) {
	var updated firewall.Rule
	path := c.firewallPath(tunnelID, childID) + "/rules/" + ruleID.String()
	if err := c.doRequest(ctx, http.MethodPatch, path, patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteRule deletes one rule; the server re-compacts remaining priorities.
func (c *HTTPClient) DeleteRule(ctx context.Context, tunnelID, childID, ruleID uuid.UUID) error {
	path := c.firewallPath(tunnelID, childID) + "/rules/" + ruleID.String()
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}

// ReorderRules submits the full new sequence for one direction.
func (c *HTTPClient) ReorderRules(ctx context.Context, tunnelID, childID uuid.UUID, dir firewall.Direction, order []firewall.RuleOrder) error {
	body := struct {
		Direction firewall.Direction   `json:"direction"`
		Rules     []firewall.RuleOrder `json:"rules"`
	}{Direction: dir, Rules: order}
	return c.doRequest(ctx, http.MethodPut, c.firewallPath(tunnelID, childID)+"/rules/order", body, nil)
}

// SetPolicy toggles the default policy for one or both directions and
// returns the confirmed values.
func (c *HTTPClient) SetPolicy(ctx context.Context, tunnelID, childID uuid.UUID, patch firewall.PolicyPatch) (*firewall.Policy, error) {
	var policy firewall.Policy
	if err := c.doRequest(ctx, http.MethodPatch, c.firewallPath(tunnelID, childID)+"/policy", patch, &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

// GetPolicy reads the authoritative default policy from the Child SA record.
// There is no dedicated policy read endpoint; the child read is the source
// of truth after rule mutations.
func (c *HTTPClient) GetPolicy(ctx context.Context, tunnelID, childID uuid.UUID) (*firewall.Policy, error) {
	children, err := c.ListChildren(ctx, tunnelID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if child.ID == childID {
			return &firewall.Policy{In: child.PolicyIn, Out: child.PolicyOut}, nil
		}
	}
	return nil, &APIError{StatusCode: http.StatusNotFound, Detail: "Child SA not found"}
}

// --- Crypto options ---

// GetCryptoOptions retrieves the algorithm options the backend advertises
// for populating the proposal vocabulary.
func (c *HTTPClient) GetCryptoOptions(ctx context.Context) (*proposal.Options, error) {
	var opts proposal.Options
	if err := c.doRequest(ctx, http.MethodGet, "/crypto-options", nil, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// Package validation holds input checks performed before any network call.
package validation

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Tunnel and Child SA names: alphanumeric, dash, underscore. They end
	// up in swanctl connection names and daemon log filters, so anything
	// shell-ish is rejected outright.
	nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
)

// ValidateName validates a tunnel or Child SA name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid name: %s (must be alphanumeric with -_, max 64 characters)", name)
	}
	return nil
}

// NormalizeCIDR validates a traffic selector and returns it in canonical
// a.b.c.d/nn form. A bare IPv4 address is accepted and treated as a /32.
func NormalizeCIDR(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("subnet cannot be empty")
	}

	if !strings.Contains(s, "/") {
		ip := net.ParseIP(s)
		if ip == nil || ip.To4() == nil {
			return "", fmt.Errorf("invalid address: %s", s)
		}
		return ip.To4().String() + "/32", nil
	}

	ip, ipNet, err := net.ParseCIDR(s)
	if err != nil {
		return "", fmt.Errorf("invalid subnet: %s", s)
	}
	if ip.To4() == nil {
		return "", fmt.Errorf("invalid subnet: %s (IPv4 required)", s)
	}
	ones, _ := ipNet.Mask.Size()
	return fmt.Sprintf("%s/%d", ipNet.IP.String(), ones), nil
}

// ValidateAddress validates a gateway address: an IP, a hostname, or empty
// when the wildcard ("any local interface") is allowed.
func ValidateAddress(addr string, allowEmpty bool) error {
	if addr == "" {
		if allowEmpty {
			return nil
		}
		return fmt.Errorf("address cannot be empty")
	}
	if net.ParseIP(addr) != nil {
		return nil
	}
	// Hostname check, permissive but bounded.
	if len(addr) > 255 {
		return fmt.Errorf("address too long: %s", addr)
	}
	for _, label := range strings.Split(addr, ".") {
		if label == "" {
			return fmt.Errorf("invalid address: %s", addr)
		}
	}
	return nil
}

// ValidatePortRange validates an optional "N" or "N-M" port expression.
// Ports are only meaningful for tcp/udp; callers gate on protocol.
func ValidatePortRange(port string) error {
	if port == "" {
		return nil
	}

	parts := strings.SplitN(port, "-", 2)
	lo, err := parsePort(parts[0])
	if err != nil {
		return err
	}
	if len(parts) == 1 {
		return nil
	}
	hi, err := parsePort(parts[1])
	if err != nil {
		return err
	}
	if hi < lo {
		return fmt.Errorf("invalid port range: %s (end before start)", port)
	}
	return nil
}

func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 65535 {
		return 0, fmt.Errorf("invalid port: %s", s)
	}
	return n, nil
}

// ValidatePeriod validates a traffic history period against the allowed set.
func ValidatePeriod(period string, allowed []string) error {
	for _, p := range allowed {
		if period == p {
			return nil
		}
	}
	return fmt.Errorf("invalid period %q (use one of %s)", period, strings.Join(allowed, ", "))
}

// StartActions are the admissible values for a Child SA start action.
var StartActions = []string{"trap", "start", "none"}

// CloseActions are the admissible values for a Child SA close action.
// Note the set differs from StartActions: "trap" and "start" have no
// meaning on close, "restart" and "clear" have none on start.
var CloseActions = []string{"restart", "clear", "none"}

// ValidateStartAction validates the action taken when a Child SA is loaded.
func ValidateStartAction(action string) error {
	return validateChoice("start action", action, StartActions)
}

// ValidateCloseAction validates the action taken when a Child SA closes.
func ValidateCloseAction(action string) error {
	return validateChoice("close action", action, CloseActions)
}

func validateChoice(label, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (use one of %s)", label, value, strings.Join(allowed, ", "))
}

// ValidateIKEVersion validates the IKE version selector.
func ValidateIKEVersion(v string) error {
	if v != "1" && v != "2" {
		return fmt.Errorf("ike version must be 1 or 2, got %q", v)
	}
	return nil
}

// ValidateLifetime validates a key lifetime in seconds.
func ValidateLifetime(seconds int) error {
	if seconds < 60 {
		return fmt.Errorf("lifetime must be at least 60 seconds, got %d", seconds)
	}
	return nil
}

package status

import "testing"

func TestFromIKEState(t *testing.T) {
	cases := []struct {
		state string
		want  TunnelStatus
	}{
		{"ESTABLISHED", Established},
		{"CONNECTING", Connecting},
		{"DELETING", Disconnected},
		{"REKEYED", Disconnected},
		{"established", Disconnected}, // literals are case-sensitive
		{"", Disconnected},
	}
	for _, tc := range cases {
		if got := FromIKEState(tc.state); got != tc.want {
			t.Errorf("FromIKEState(%q) = %s, want %s", tc.state, got, tc.want)
		}
	}
}

func TestChildState(t *testing.T) {
	live := []LiveChild{
		{Name: "net-a", State: "INSTALLED"},
		{Name: "net-b", State: "REKEYING"},
	}

	cases := []struct {
		name    string
		tunnel  TunnelStatus
		child   string
		enabled bool
		want    ChildIndicator
	}{
		{"disabled wins over live data", Established, "net-a", false, ChildDisabled},
		{"tunnel down means waiting", Disconnected, "net-a", true, ChildWaiting},
		{"connecting also means waiting", Connecting, "net-a", true, ChildWaiting},
		{"installed child is up", Established, "net-a", true, ChildUp},
		{"non-installed live state negotiates", Established, "net-b", true, ChildNegotiating},
		{"absent from live list negotiates", Established, "net-c", true, ChildNegotiating},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ChildState(tc.tunnel, tc.child, tc.enabled, live); got != tc.want {
				t.Errorf("ChildState = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestChildState_ExactNameMatch(t *testing.T) {
	live := []LiveChild{{Name: "net-a-1", State: "INSTALLED"}}

	// Prefixes and case variants must not correlate.
	if got := ChildState(Established, "net-a", true, live); got != ChildNegotiating {
		t.Errorf("prefix must not match, got %s", got)
	}
	if got := ChildState(Established, "NET-A-1", true, live); got != ChildNegotiating {
		t.Errorf("case variant must not match, got %s", got)
	}
}

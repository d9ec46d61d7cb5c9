package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EdoardoFiore/madmin-strongswan/internal/client"
	"github.com/EdoardoFiore/madmin-strongswan/internal/status"
)

// RunStatus prints a one-shot status report for a tunnel: the reconciled
// tunnel state plus a per-Child-SA indicator line. With -follow it keeps
// polling and prints one line per applied observation until interrupted.
func RunStatus(args []string) {
	flags := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	asJSON := flags.Bool("json", false, "JSON output")
	follow := flags.Bool("follow", false, "Poll continuously, one line per observation")
	interval := flags.Duration("interval", 0, "Poll period in follow mode (default 5s)")
	flags.Parse(args)

	if flags.NArg() < 1 {
		fail("Usage: ipsecadm status [flags] <tunnel-id>")
	}
	tunnelID := parseID("tunnel", flags.Arg(0))

	api, _, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	tunnel, err := api.GetTunnel(ctx, tunnelID)
	if err != nil {
		fail("Failed to get tunnel: %v", err)
	}
	children, err := api.ListChildren(ctx, tunnelID)
	if err != nil {
		fail("Failed to list Child SAs: %v", err)
	}

	if *follow {
		cancel()
		followStatus(api, tunnel, children, *interval)
		return
	}

	live, err := api.GetTunnelStatus(ctx, tunnelID)
	if err != nil {
		fail("Failed to get tunnel status: %v", err)
	}

	tunnelState := status.FromIKEState(live.IKEState)
	liveChildren := make([]status.LiveChild, 0, len(live.ChildSAs))
	for _, c := range live.ChildSAs {
		liveChildren = append(liveChildren, status.LiveChild{Name: c.Name, State: c.State})
	}

	if *asJSON {
		type childReport struct {
			Name      string                `json:"name"`
			Indicator status.ChildIndicator `json:"indicator"`
			BytesIn   int64                 `json:"bytes_in"`
			BytesOut  int64                 `json:"bytes_out"`
		}
		report := struct {
			Tunnel   string        `json:"tunnel"`
			Status   string        `json:"status"`
			Children []childReport `json:"children"`
		}{Tunnel: tunnel.Name, Status: string(tunnelState)}
		for _, c := range children {
			cr := childReport{
				Name:      c.Name,
				Indicator: status.ChildState(tunnelState, c.Name, c.Enabled, liveChildren),
			}
			for _, lc := range live.ChildSAs {
				if lc.Name == c.Name {
					cr.BytesIn, cr.BytesOut = lc.BytesIn, lc.BytesOut
				}
			}
			report.Children = append(report.Children, cr)
		}
		printJSON(report)
		return
	}

	fmt.Printf("Tunnel %s: %s\n", tunnel.Name, tunnelState)
	if live.RemoteHost != "" {
		fmt.Printf("  Remote:      %s\n", live.RemoteHost)
	}
	if live.EstablishedTime > 0 {
		fmt.Printf("  Established: %ds ago\n", live.EstablishedTime)
	}
	if live.RekeyTime > 0 {
		fmt.Printf("  Rekey in:    %ds\n", live.RekeyTime)
	}

	if len(children) == 0 {
		return
	}
	w := newTabWriter()
	fmt.Fprintln(w, "\nCHILD SA\tSTATE\tIN\tOUT")
	for _, c := range children {
		indicator := status.ChildState(tunnelState, c.Name, c.Enabled, liveChildren)
		var bytesIn, bytesOut int64
		for _, lc := range live.ChildSAs {
			if lc.Name == c.Name {
				bytesIn, bytesOut = lc.BytesIn, lc.BytesOut
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", c.Name, indicator, bytesIn, bytesOut)
	}
	w.Flush()
}

// followStatus runs the recurring status fetch until SIGINT/SIGTERM. Each
// applied observation becomes one output line; transitions are marked so
// they stand out in a scrolling stream.
func followStatus(api *client.HTTPClient, tunnel *client.Tunnel, children []client.ChildSA, interval time.Duration) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetch := func(ctx context.Context) (*status.Snapshot, error) {
		live, err := api.GetTunnelStatus(ctx, tunnel.ID)
		if err != nil {
			return nil, err
		}
		return live.Snapshot(), nil
	}
	poller := status.NewPoller(fetch, interval, nil)
	go poller.Run(ctx)

	fmt.Printf("Following tunnel %s (Ctrl-C to stop)\n", tunnel.Name)
	for u := range poller.Updates() {
		mark := " "
		if u.Changed {
			mark = "*"
		}
		fmt.Printf("%s %s %-12s", time.Now().Format("15:04:05"), mark, u.Status)
		for _, c := range children {
			ind := status.ChildState(u.Status, c.Name, c.Enabled, u.Snapshot.Children)
			fmt.Printf("  %s=%s", c.Name, ind)
		}
		fmt.Println()
	}
}

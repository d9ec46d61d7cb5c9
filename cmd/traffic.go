package cmd

import (
	"flag"
	"fmt"

	"github.com/EdoardoFiore/madmin-strongswan/internal/client"
	"github.com/EdoardoFiore/madmin-strongswan/internal/validation"
)

// RunTraffic prints the traffic history series for a tunnel.
func RunTraffic(args []string) {
	flags := flag.NewFlagSet("traffic", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	period := flags.String("period", "24h", "History window (1h, 6h, 24h, 7d, 30d)")
	asJSON := flags.Bool("json", false, "JSON output")
	flags.Parse(args)

	if flags.NArg() < 1 {
		fail("Usage: ipsecadm traffic [-period 24h] <tunnel-id>")
	}
	tunnelID := parseID("tunnel", flags.Arg(0))

	if err := validation.ValidatePeriod(*period, client.TrafficPeriods); err != nil {
		fail("%v", err)
	}

	api, _, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	report, err := api.GetTraffic(ctx, tunnelID, *period)
	if err != nil {
		fail("Failed to get traffic history: %v", err)
	}

	if *asJSON {
		printJSON(report)
		return
	}

	fmt.Printf("Traffic for %s (%s, %d samples)\n", report.TunnelName, report.Period, report.DataPoints)
	w := newTabWriter()
	fmt.Fprintln(w, "TIMESTAMP\tBYTES IN\tBYTES OUT")
	for _, p := range report.Data {
		fmt.Fprintf(w, "%s\t%d\t%d\n", p.Timestamp, p.BytesIn, p.BytesOut)
	}
	w.Flush()
}

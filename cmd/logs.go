package cmd

import (
	"flag"
	"fmt"
)

// RunLogs prints recent daemon log lines for a tunnel with any detected
// error patterns called out.
func RunLogs(args []string) {
	flags := flag.NewFlagSet("logs", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	asJSON := flags.Bool("json", false, "JSON output")
	errorsOnly := flags.Bool("errors", false, "Show only detected errors")
	flags.Parse(args)

	if flags.NArg() < 1 {
		fail("Usage: ipsecadm logs <tunnel-id>")
	}
	tunnelID := parseID("tunnel", flags.Arg(0))

	api, _, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	report, err := api.GetLogs(ctx, tunnelID)
	if err != nil {
		fail("Failed to get logs: %v", err)
	}

	if *asJSON {
		printJSON(report)
		return
	}

	if !*errorsOnly {
		for _, line := range report.Logs {
			fmt.Println(line)
		}
	}
	if len(report.Errors) > 0 {
		fmt.Printf("\nDetected errors (%d):\n", len(report.Errors))
		for _, e := range report.Errors {
			fmt.Printf("  %s\n", e.Description)
			if e.LogLine != "" {
				fmt.Printf("    %s\n", e.LogLine)
			}
		}
	}
}

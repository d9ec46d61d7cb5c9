package cmd

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/EdoardoFiore/madmin-strongswan/internal/tui"
)

// RunWatch launches the live status view for a tunnel.
func RunWatch(args []string) {
	flags := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	flags.Parse(args)

	if flags.NArg() < 1 {
		fail("Usage: ipsecadm watch <tunnel-id>")
	}
	tunnelID := parseID("tunnel", flags.Arg(0))

	api, cfg, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	model := tui.NewWatchModel(api, tunnelID, cfg.PollInterval())
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running watch view: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/EdoardoFiore/madmin-strongswan/cmd"
	"github.com/EdoardoFiore/madmin-strongswan/internal/logging"
)

func main() {
	args, verbose := cmd.ExtractVerbose(os.Args[1:])
	if verbose {
		logging.Default().SetLevel(logging.LevelDebug)
	}

	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "tunnels":
		cmd.RunTunnels(args[1:])

	case "children":
		cmd.RunChildren(args[1:])

	case "firewall":
		cmd.RunFirewall(args[1:])

	case "status":
		cmd.RunStatus(args[1:])

	case "watch":
		cmd.RunWatch(args[1:])

	case "logs":
		cmd.RunLogs(args[1:])

	case "traffic":
		cmd.RunTraffic(args[1:])

	case "proposal":
		cmd.RunProposal(args[1:])

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`ipsecadm - strongSwan site-to-site tunnel management

Usage:
  ipsecadm <command> [options]

Commands:
  tunnels     Manage IPsec tunnels (list, show, create, update, delete, start, stop)
  children    Manage Child SAs of a tunnel
  firewall    Manage per-Child-SA firewall rules and default policies
  status      Tunnel status with per-Child-SA indicators (-follow to poll)
  watch       Live status view (interactive)
  logs        Recent daemon log lines with detected errors
  traffic     Traffic history for a tunnel
  proposal    Offline proposal string encode/decode
  help        Show this help

Options accepted by most commands:
  -config <path>   Config file (default: $XDG_CONFIG_HOME/ipsecadm/config.hcl)
  -json            JSON output
  -verbose         Debug logging (accepted anywhere on the command line)

Environment:
  IPSECADM_SERVER   Backend base URL (overrides config)
  IPSECADM_API_KEY  API key (overrides config)
`)
}

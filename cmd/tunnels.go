package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/EdoardoFiore/madmin-strongswan/internal/client"
	"github.com/EdoardoFiore/madmin-strongswan/internal/proposal"
	"github.com/EdoardoFiore/madmin-strongswan/internal/validation"
)

// RunTunnels handles the tunnel subcommands.
func RunTunnels(args []string) {
	if len(args) < 1 {
		printTunnelsUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "list":
		runTunnelsList(args[1:])
	case "show":
		runTunnelsShow(args[1:])
	case "create":
		runTunnelsCreate(args[1:])
	case "update":
		runTunnelsUpdate(args[1:])
	case "delete":
		runTunnelsDelete(args[1:])
	case "start":
		runTunnelAction(args[1:], "start")
	case "stop":
		runTunnelAction(args[1:], "stop")
	default:
		fmt.Fprintf(os.Stderr, "Unknown tunnels command: %s\n\n", args[0])
		printTunnelsUsage()
		os.Exit(1)
	}
}

func printTunnelsUsage() {
	fmt.Fprint(os.Stderr, `Usage: ipsecadm tunnels <command>

Commands:
  list                      List tunnels
  show <id>                 Show one tunnel
  create [flags]            Create a tunnel
  update [flags] <id>       Update a tunnel
  delete <id>               Delete a tunnel and its Child SAs
  start <id>                Initiate a tunnel
  stop <id>                 Terminate a tunnel
`)
}

func runTunnelsList(args []string) {
	flags := flag.NewFlagSet("tunnels list", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	asJSON := flags.Bool("json", false, "JSON output")
	flags.Parse(args)

	api, _, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	tunnels, err := api.ListTunnels(ctx)
	if err != nil {
		fail("Failed to list tunnels: %v", err)
	}

	if *asJSON {
		printJSON(tunnels)
		return
	}

	w := newTabWriter()
	fmt.Fprintln(w, "ID\tNAME\tREMOTE\tIKE\tSTATUS\tCHILDREN")
	for _, t := range tunnels {
		fmt.Fprintf(w, "%s\t%s\t%s\tv%s\t%s\t%d\n",
			t.ID, t.Name, t.RemoteAddress, t.IKEVersion, t.Status, t.ChildSACount)
	}
	w.Flush()
}

func runTunnelsShow(args []string) {
	flags := flag.NewFlagSet("tunnels show", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	flags.Parse(args)

	if flags.NArg() < 1 {
		fail("Usage: ipsecadm tunnels show <id>")
	}
	id := parseID("tunnel", flags.Arg(0))

	api, _, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	tunnel, err := api.GetTunnel(ctx, id)
	if err != nil {
		fail("Failed to get tunnel: %v", err)
	}
	printJSON(tunnel)
}

func runTunnelsCreate(args []string) {
	flags := flag.NewFlagSet("tunnels create", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	name := flags.String("name", "", "Tunnel name (required)")
	local := flags.String("local", "", "Local gateway address (empty = any)")
	remote := flags.String("remote", "", "Remote peer address (required)")
	localID := flags.String("local-id", "", "Local IKE identity")
	remoteID := flags.String("remote-id", "", "Remote IKE identity")
	psk := flags.String("psk", "", "Pre-shared key (required)")
	version := flags.String("ike-version", "2", "IKE version (1 or 2)")
	mode := flags.String("mode", "main", "IKEv1 negotiation mode (main or aggressive)")
	enc := flags.String("enc", "", "Encryption algorithms, comma separated")
	integ := flags.String("integ", "", "Integrity algorithms, comma separated")
	dh := flags.String("dh", "", "DH groups, comma separated")
	lifetime := flags.Int("lifetime", 28800, "IKE key lifetime in seconds")
	dpdAction := flags.String("dpd-action", "restart", "DPD action (restart, clear, none)")
	dpdDelay := flags.Int("dpd-delay", 30, "DPD interval in seconds")
	natT := flags.Bool("nat-traversal", true, "Enable NAT traversal")
	flags.Parse(args)

	// Validation failures never reach the wire.
	if err := validation.ValidateName(*name); err != nil {
		fail("Invalid name: %v", err)
	}
	if err := validation.ValidateAddress(*remote, false); err != nil {
		fail("Invalid remote address: %v", err)
	}
	if err := validation.ValidateAddress(*local, true); err != nil {
		fail("Invalid local address: %v", err)
	}
	if err := validation.ValidateIKEVersion(*version); err != nil {
		fail("%v", err)
	}
	if err := validation.ValidateLifetime(*lifetime); err != nil {
		fail("%v", err)
	}
	if *psk == "" {
		fail("A pre-shared key is required (-psk)")
	}

	api, _, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	ikeProposal := buildProposalArg(ctx, api, *enc, *integ, *dh)

	natTraversal := *natT
	created, err := api.CreateTunnel(ctx, client.TunnelCreate{
		Name:          *name,
		IKEVersion:    *version,
		Mode:          *mode,
		LocalAddress:  *local,
		RemoteAddress: *remote,
		LocalID:       *localID,
		RemoteID:      *remoteID,
		AuthMethod:    "psk",
		PSK:           *psk,
		IKEProposal:   ikeProposal,
		IKELifetime:   *lifetime,
		DPDAction:     *dpdAction,
		DPDDelay:      *dpdDelay,
		NATTraversal:  &natTraversal,
	})
	if err != nil {
		fail("Failed to create tunnel: %v", err)
	}
	fmt.Printf("Created tunnel %s (%s)\n", created.Name, created.ID)
}

func runTunnelsUpdate(args []string) {
	flags := flag.NewFlagSet("tunnels update", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	name := flags.String("name", "", "New tunnel name")
	local := flags.String("local", "", "Local gateway address")
	remote := flags.String("remote", "", "Remote peer address")
	psk := flags.String("psk", "", "New pre-shared key (omit to keep current)")
	enc := flags.String("enc", "", "Encryption algorithms, comma separated")
	integ := flags.String("integ", "", "Integrity algorithms, comma separated")
	dh := flags.String("dh", "", "DH groups, comma separated")
	lifetime := flags.Int("lifetime", 0, "IKE key lifetime in seconds")
	flags.Parse(args)

	if flags.NArg() < 1 {
		fail("Usage: ipsecadm tunnels update [flags] <id>")
	}
	id := parseID("tunnel", flags.Arg(0))

	api, _, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	var update client.TunnelUpdate
	if *name != "" {
		if err := validation.ValidateName(*name); err != nil {
			fail("Invalid name: %v", err)
		}
		update.Name = name
	}
	if *local != "" {
		if err := validation.ValidateAddress(*local, true); err != nil {
			fail("Invalid local address: %v", err)
		}
		update.LocalAddress = local
	}
	if *remote != "" {
		if err := validation.ValidateAddress(*remote, false); err != nil {
			fail("Invalid remote address: %v", err)
		}
		update.RemoteAddress = remote
	}
	// The PSK is write-only: it rides the payload only when the operator
	// explicitly sets a new one.
	if *psk != "" {
		update.PSK = psk
	}
	if *enc != "" || *integ != "" || *dh != "" {
		p := buildProposalArg(ctx, api, *enc, *integ, *dh)
		update.IKEProposal = &p
	}
	if *lifetime > 0 {
		if err := validation.ValidateLifetime(*lifetime); err != nil {
			fail("%v", err)
		}
		update.IKELifetime = lifetime
	}

	tunnel, err := api.UpdateTunnel(ctx, id, update)
	if err != nil {
		fail("Failed to update tunnel: %v", err)
	}
	fmt.Printf("Updated tunnel %s\n", tunnel.Name)
}

func runTunnelsDelete(args []string) {
	flags := flag.NewFlagSet("tunnels delete", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	flags.Parse(args)

	if flags.NArg() < 1 {
		fail("Usage: ipsecadm tunnels delete <id>")
	}
	id := parseID("tunnel", flags.Arg(0))

	api, _, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	res, err := api.DeleteTunnel(ctx, id)
	if err != nil {
		fail("Failed to delete tunnel: %v", err)
	}
	fmt.Printf("Deleted tunnel %s\n", res.Name)
}

func runTunnelAction(args []string, action string) {
	flags := flag.NewFlagSet("tunnels "+action, flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	flags.Parse(args)

	if flags.NArg() < 1 {
		fail("Usage: ipsecadm tunnels %s <id>", action)
	}
	id := parseID("tunnel", flags.Arg(0))

	api, _, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	var res *client.ActionResult
	if action == "start" {
		res, err = api.StartTunnel(ctx, id)
	} else {
		res, err = api.StopTunnel(ctx, id)
	}
	if err != nil {
		fail("Failed to %s tunnel: %v", action, err)
	}
	fmt.Printf("Tunnel %s: %s\n", res.Name, res.Status)
}

// buildProposalArg encodes -enc/-integ/-dh flags into a proposal string
// using the backend's advertised vocabulary when reachable, the baked-in
// one otherwise.
func buildProposalArg(ctx context.Context, api *client.HTTPClient, enc, integ, dh string) string {
	vocab := proposal.DefaultVocabulary()
	if opts, err := api.GetCryptoOptions(ctx); err == nil {
		vocab = proposal.FromOptions(opts)
	}

	encs := splitList(enc)
	integs := splitList(integ)
	var pairs []proposal.Pair
	for i := 0; i < len(encs) || i < len(integs); i++ {
		var p proposal.Pair
		if i < len(encs) {
			p.Encryption = encs[i]
		}
		if i < len(integs) {
			p.Integrity = integs[i]
		}
		pairs = append(pairs, p)
	}
	return vocab.BuildIKE(pairs, splitList(dh))
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

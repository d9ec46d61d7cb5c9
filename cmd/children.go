package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/EdoardoFiore/madmin-strongswan/internal/client"
	"github.com/EdoardoFiore/madmin-strongswan/internal/proposal"
	"github.com/EdoardoFiore/madmin-strongswan/internal/validation"
)

// RunChildren handles the Child SA subcommands.
func RunChildren(args []string) {
	if len(args) < 1 {
		printChildrenUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "list":
		runChildrenList(args[1:])
	case "create":
		runChildrenCreate(args[1:])
	case "update":
		runChildrenUpdate(args[1:])
	case "delete":
		runChildrenDelete(args[1:])
	case "start":
		runChildAction(args[1:], "start")
	case "stop":
		runChildAction(args[1:], "stop")
	default:
		fmt.Fprintf(os.Stderr, "Unknown children command: %s\n\n", args[0])
		printChildrenUsage()
		os.Exit(1)
	}
}

func printChildrenUsage() {
	fmt.Fprint(os.Stderr, `Usage: ipsecadm children <command>

Commands:
  list <tunnel-id>                      List Child SAs of a tunnel
  create [flags] <tunnel-id>            Create a Child SA
  update [flags] <tunnel-id> <child-id> Update a Child SA
  delete <tunnel-id> <child-id>         Delete a Child SA
  start <tunnel-id> <child-id>          Initiate a Child SA
  stop <tunnel-id> <child-id>           Terminate a Child SA
`)
}

func runChildrenList(args []string) {
	flags := flag.NewFlagSet("children list", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	asJSON := flags.Bool("json", false, "JSON output")
	flags.Parse(args)

	if flags.NArg() < 1 {
		fail("Usage: ipsecadm children list <tunnel-id>")
	}
	tunnelID := parseID("tunnel", flags.Arg(0))

	api, _, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	children, err := api.ListChildren(ctx, tunnelID)
	if err != nil {
		fail("Failed to list Child SAs: %v", err)
	}

	if *asJSON {
		printJSON(children)
		return
	}

	w := newTabWriter()
	fmt.Fprintln(w, "ID\tNAME\tLOCAL TS\tREMOTE TS\tENABLED\tPOLICY IN/OUT")
	for _, c := range children {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s/%s\n",
			c.ID, c.Name, c.LocalTS, c.RemoteTS, c.Enabled, c.PolicyIn, c.PolicyOut)
	}
	w.Flush()
}

func runChildrenCreate(args []string) {
	flags := flag.NewFlagSet("children create", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	name := flags.String("name", "", "Child SA name, unique within the tunnel (required)")
	localTS := flags.String("local-ts", "", "Local traffic selector CIDR (required)")
	remoteTS := flags.String("remote-ts", "", "Remote traffic selector CIDR (required)")
	enc := flags.String("enc", "", "ESP encryption algorithms, comma separated")
	integ := flags.String("integ", "", "ESP integrity algorithms, comma separated")
	pfs := flags.String("pfs", "", "PFS group (empty = no PFS)")
	lifetime := flags.Int("lifetime", 3600, "ESP key lifetime in seconds")
	startAction := flags.String("start-action", "trap", "Start action (trap, start, none)")
	closeAction := flags.String("close-action", "restart", "Close action (restart, clear, none)")
	flags.Parse(args)

	if flags.NArg() < 1 {
		fail("Usage: ipsecadm children create [flags] <tunnel-id>")
	}
	tunnelID := parseID("tunnel", flags.Arg(0))

	if err := validation.ValidateName(*name); err != nil {
		fail("Invalid name: %v", err)
	}
	local, err := validation.NormalizeCIDR(*localTS)
	if err != nil {
		fail("Invalid local traffic selector: %v", err)
	}
	remote, err := validation.NormalizeCIDR(*remoteTS)
	if err != nil {
		fail("Invalid remote traffic selector: %v", err)
	}
	if err := validation.ValidateLifetime(*lifetime); err != nil {
		fail("%v", err)
	}
	if err := validation.ValidateStartAction(*startAction); err != nil {
		fail("%v", err)
	}
	if err := validation.ValidateCloseAction(*closeAction); err != nil {
		fail("%v", err)
	}

	api, _, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	created, err := api.CreateChild(ctx, tunnelID, client.ChildSACreate{
		Name:        *name,
		LocalTS:     local,
		RemoteTS:    remote,
		ESPProposal: buildESPArg(ctx, api, *enc, *integ, *pfs),
		ESPLifetime: *lifetime,
		PFSGroup:    *pfs,
		StartAction: *startAction,
		CloseAction: *closeAction,
	})
	if err != nil {
		fail("Failed to create Child SA: %v", err)
	}
	fmt.Printf("Created Child SA %s (%s)\n", created.Name, created.ID)
}

func runChildrenUpdate(args []string) {
	flags := flag.NewFlagSet("children update", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	name := flags.String("name", "", "New Child SA name")
	localTS := flags.String("local-ts", "", "Local traffic selector CIDR")
	remoteTS := flags.String("remote-ts", "", "Remote traffic selector CIDR")
	enc := flags.String("enc", "", "ESP encryption algorithms, comma separated")
	integ := flags.String("integ", "", "ESP integrity algorithms, comma separated")
	pfs := flags.String("pfs", "", "PFS group")
	lifetime := flags.Int("lifetime", 0, "ESP key lifetime in seconds")
	startAction := flags.String("start-action", "", "Start action (trap, start, none)")
	closeAction := flags.String("close-action", "", "Close action (restart, clear, none)")
	enable := flags.Bool("enable", false, "Enable the Child SA")
	disable := flags.Bool("disable", false, "Disable the Child SA")
	flags.Parse(args)

	if flags.NArg() < 2 {
		fail("Usage: ipsecadm children update [flags] <tunnel-id> <child-id>")
	}
	tunnelID := parseID("tunnel", flags.Arg(0))
	childID := parseID("child SA", flags.Arg(1))

	if *enable && *disable {
		fail("-enable and -disable are mutually exclusive")
	}

	api, _, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	var update client.ChildSAUpdate
	if *name != "" {
		if err := validation.ValidateName(*name); err != nil {
			fail("Invalid name: %v", err)
		}
		update.Name = name
	}
	if *localTS != "" {
		local, err := validation.NormalizeCIDR(*localTS)
		if err != nil {
			fail("Invalid local traffic selector: %v", err)
		}
		update.LocalTS = &local
	}
	if *remoteTS != "" {
		remote, err := validation.NormalizeCIDR(*remoteTS)
		if err != nil {
			fail("Invalid remote traffic selector: %v", err)
		}
		update.RemoteTS = &remote
	}
	if *enc != "" || *integ != "" || *pfs != "" {
		p := buildESPArg(ctx, api, *enc, *integ, *pfs)
		update.ESPProposal = &p
		if *pfs != "" {
			update.PFSGroup = pfs
		}
	}
	if *lifetime > 0 {
		if err := validation.ValidateLifetime(*lifetime); err != nil {
			fail("%v", err)
		}
		update.ESPLifetime = lifetime
	}
	if *startAction != "" {
		if err := validation.ValidateStartAction(*startAction); err != nil {
			fail("%v", err)
		}
		update.StartAction = startAction
	}
	if *closeAction != "" {
		if err := validation.ValidateCloseAction(*closeAction); err != nil {
			fail("%v", err)
		}
		update.CloseAction = closeAction
	}
	if *enable || *disable {
		enabled := *enable
		update.Enabled = &enabled
	}

	child, err := api.UpdateChild(ctx, tunnelID, childID, update)
	if err != nil {
		fail("Failed to update Child SA: %v", err)
	}
	fmt.Printf("Updated Child SA %s\n", child.Name)
}

func runChildrenDelete(args []string) {
	flags := flag.NewFlagSet("children delete", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	flags.Parse(args)

	if flags.NArg() < 2 {
		fail("Usage: ipsecadm children delete <tunnel-id> <child-id>")
	}
	tunnelID := parseID("tunnel", flags.Arg(0))
	childID := parseID("child SA", flags.Arg(1))

	api, _, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	res, err := api.DeleteChild(ctx, tunnelID, childID)
	if err != nil {
		fail("Failed to delete Child SA: %v", err)
	}
	fmt.Printf("Deleted Child SA %s\n", res.Name)
}

func runChildAction(args []string, action string) {
	flags := flag.NewFlagSet("children "+action, flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	flags.Parse(args)

	if flags.NArg() < 2 {
		fail("Usage: ipsecadm children %s <tunnel-id> <child-id>", action)
	}
	tunnelID := parseID("tunnel", flags.Arg(0))
	childID := parseID("child SA", flags.Arg(1))

	api, _, err := newClient(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	var res *client.ActionResult
	if action == "start" {
		res, err = api.StartChild(ctx, tunnelID, childID)
	} else {
		res, err = api.StopChild(ctx, tunnelID, childID)
	}
	if err != nil {
		fail("Failed to %s Child SA: %v", action, err)
	}
	fmt.Printf("Child SA %s: %s\n", res.Name, res.Status)
}

func buildESPArg(ctx context.Context, api *client.HTTPClient, enc, integ, pfs string) string {
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
	return vocab.BuildESP(pairs, pfs)
}

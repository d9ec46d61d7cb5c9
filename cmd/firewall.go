package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/EdoardoFiore/madmin-strongswan/internal/firewall"
	"github.com/EdoardoFiore/madmin-strongswan/internal/validation"
)

// RunFirewall handles the per-Child-SA firewall subcommands.
func RunFirewall(args []string) {
	if len(args) < 1 {
		printFirewallUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "list":
		runFirewallList(args[1:])
	case "add":
		runFirewallAdd(args[1:])
	case "update":
		runFirewallUpdate(args[1:])
	case "delete":
		runFirewallDelete(args[1:])
	case "reorder":
		runFirewallReorder(args[1:])
	case "policy":
		runFirewallPolicy(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown firewall command: %s\n\n", args[0])
		printFirewallUsage()
		os.Exit(1)
	}
}

func printFirewallUsage() {
	fmt.Fprint(os.Stderr, `Usage: ipsecadm firewall <command>

Commands:
  list <tunnel-id> <child-id>                    Show rules and default policies
  add [flags] <tunnel-id> <child-id>             Add a rule
  update [flags] <tunnel-id> <child-id> <rule-id> Update a rule
  delete <tunnel-id> <child-id> <rule-id>        Delete a rule
  reorder -direction <d> -order <id,id,...> <tunnel-id> <child-id>
                                                 Reorder one direction
  policy -direction <d> -action <ACCEPT|DROP> <tunnel-id> <child-id>
                                                 Set a default policy
`)
}

func loadFirewall(configPath string, args []string) (*firewall.ChildFirewall, func(), error) {
	if len(args) < 2 {
		return nil, nil, fmt.Errorf("a tunnel id and a child id are required")
	}
	tunnelID := parseID("tunnel", args[0])
	childID := parseID("child SA", args[1])

	api, _, err := newClient(configPath)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := cmdContext()
	fw := firewall.New(api, tunnelID, childID)
	if err := fw.Refresh(ctx); err != nil {
		cancel()
		return nil, nil, err
	}
	return fw, cancel, nil
}

func runFirewallList(args []string) {
	flags := flag.NewFlagSet("firewall list", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	asJSON := flags.Bool("json", false, "JSON output")
	flags.Parse(args)

	fw, cancel, err := loadFirewall(*configPath, flags.Args())
	if err != nil {
		fail("Failed to load firewall state: %v", err)
	}
	defer cancel()

	if *asJSON {
		printJSON(map[string]interface{}{
			"inbound":  fw.Inbound(),
			"outbound": fw.Outbound(),
			"policy":   fw.DefaultPolicy(),
		})
		return
	}

	policy := fw.DefaultPolicy()
	fmt.Printf("Default policy: in=%s out=%s\n", policy.In, policy.Out)
	printRuleTable("Inbound", fw.Inbound(), func(r firewall.Rule) int { return r.PriorityIn })
	printRuleTable("Outbound", fw.Outbound(), func(r firewall.Rule) int { return r.PriorityOut })
}

func printRuleTable(title string, rules []firewall.Rule, prio func(firewall.Rule) int) {
	fmt.Printf("\n%s rules:\n", title)
	if len(rules) == 0 {
		fmt.Println("  (none)")
		return
	}
	w := newTabWriter()
	fmt.Fprintln(w, "  #\tID\tPROTO\tPORT\tSOURCE\tDEST\tACTION\tDESCRIPTION")
	for _, r := range rules {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			prio(r), r.ID, r.Protocol, orAny(r.Port), orAny(r.Source), orAny(r.Destination), r.Action, r.Description)
	}
	w.Flush()
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}

func runFirewallAdd(args []string) {
	flags := flag.NewFlagSet("firewall add", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	direction := flags.String("direction", "in", "Rule direction (in, out, both)")
	protocol := flags.String("protocol", "all", "Protocol (all, tcp, udp, icmp)")
	port := flags.String("port", "", "Port or range, e.g. 443 or 8000-8080")
	source := flags.String("source", "", "Source CIDR (empty = any)")
	dest := flags.String("dest", "", "Destination CIDR (empty = any)")
	action := flags.String("action", "ACCEPT", "Rule action (ACCEPT or DROP)")
	descr := flags.String("description", "", "Rule description")
	flags.Parse(args)

	if *port != "" {
		if err := validation.ValidatePortRange(*port); err != nil {
			fail("Invalid port: %v", err)
		}
	}
	src, err := normalizeOptionalCIDR(*source)
	if err != nil {
		fail("Invalid source: %v", err)
	}
	dst, err := normalizeOptionalCIDR(*dest)
	if err != nil {
		fail("Invalid destination: %v", err)
	}
	act, err := parseAction(*action)
	if err != nil {
		fail("%v", err)
	}
	dir := firewall.Direction(strings.ToLower(*direction))
	if dir != firewall.DirectionIn && dir != firewall.DirectionOut && dir != firewall.DirectionBoth {
		fail("Direction must be in, out, or both")
	}

	fw, cancel, err := loadFirewall(*configPath, flags.Args())
	if err != nil {
		fail("Failed to load firewall state: %v", err)
	}
	defer cancel()

	ctx, cancelReq := cmdContext()
	defer cancelReq()

	rule, err := fw.Create(ctx, firewall.NewRule{
		Direction:   dir,
		Protocol:    firewall.Protocol(strings.ToLower(*protocol)),
		Port:        *port,
		Source:      src,
		Destination: dst,
		Action:      act,
		Description: *descr,
	})
	if err != nil {
		fail("Failed to add rule: %v", err)
	}
	fmt.Printf("Added rule %s\n", rule.ID)
}

func runFirewallUpdate(args []string) {
	flags := flag.NewFlagSet("firewall update", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	direction := flags.String("direction", "", "Rule direction (in, out, both)")
	protocol := flags.String("protocol", "", "Protocol (all, tcp, udp, icmp)")
	port := flags.String("port", "", "Port or range")
	source := flags.String("source", "", "Source CIDR")
	dest := flags.String("dest", "", "Destination CIDR")
	action := flags.String("action", "", "Rule action (ACCEPT or DROP)")
	descr := flags.String("description", "", "Rule description")
	flags.Parse(args)

	rest := flags.Args()
	if len(rest) < 3 {
		fail("Usage: ipsecadm firewall update [flags] <tunnel-id> <child-id> <rule-id>")
	}
	ruleID := parseID("rule", rest[2])

	var patch firewall.RulePatch
	if *direction != "" {
		dir := firewall.Direction(strings.ToLower(*direction))
		if dir != firewall.DirectionIn && dir != firewall.DirectionOut && dir != firewall.DirectionBoth {
			fail("Direction must be in, out, or both")
		}
		patch.Direction = &dir
	}
	if *protocol != "" {
		p := firewall.Protocol(strings.ToLower(*protocol))
		patch.Protocol = &p
	}
	if *port != "" {
		if err := validation.ValidatePortRange(*port); err != nil {
			fail("Invalid port: %v", err)
		}
		patch.Port = port
	}
	if *source != "" {
		src, err := normalizeOptionalCIDR(*source)
		if err != nil {
			fail("Invalid source: %v", err)
		}
		patch.Source = &src
	}
	if *dest != "" {
		dst, err := normalizeOptionalCIDR(*dest)
		if err != nil {
			fail("Invalid destination: %v", err)
		}
		patch.Destination = &dst
	}
	if *action != "" {
		act, err := parseAction(*action)
		if err != nil {
			fail("%v", err)
		}
		patch.Action = &act
	}
	if *descr != "" {
		patch.Description = descr
	}

	fw, cancel, err := loadFirewall(*configPath, rest)
	if err != nil {
		fail("Failed to load firewall state: %v", err)
	}
	defer cancel()

	ctx, cancelReq := cmdContext()
	defer cancelReq()

	if _, err := fw.Update(ctx, ruleID, patch); err != nil {
		fail("Failed to update rule: %v", err)
	}
	fmt.Printf("Updated rule %s\n", ruleID)
}

func runFirewallDelete(args []string) {
	flags := flag.NewFlagSet("firewall delete", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	flags.Parse(args)

	rest := flags.Args()
	if len(rest) < 3 {
		fail("Usage: ipsecadm firewall delete <tunnel-id> <child-id> <rule-id>")
	}
	ruleID := parseID("rule", rest[2])

	fw, cancel, err := loadFirewall(*configPath, rest)
	if err != nil {
		fail("Failed to load firewall state: %v", err)
	}
	defer cancel()

	ctx, cancelReq := cmdContext()
	defer cancelReq()

	if err := fw.Delete(ctx, ruleID); err != nil {
		fail("Failed to delete rule: %v", err)
	}
	fmt.Printf("Deleted rule %s\n", ruleID)
}

func runFirewallReorder(args []string) {
	flags := flag.NewFlagSet("firewall reorder", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	direction := flags.String("direction", "", "Ordering to rewrite (in or out)")
	order := flags.String("order", "", "Complete rule id sequence, comma separated")
	flags.Parse(args)

	dir := firewall.Direction(strings.ToLower(*direction))
	if dir != firewall.DirectionIn && dir != firewall.DirectionOut {
		fail("-direction must be in or out")
	}
	if *order == "" {
		fail("-order is required")
	}
	var ids []uuid.UUID
	for _, raw := range splitList(*order) {
		ids = append(ids, parseID("rule", raw))
	}

	fw, cancel, err := loadFirewall(*configPath, flags.Args())
	if err != nil {
		fail("Failed to load firewall state: %v", err)
	}
	defer cancel()

	ctx, cancelReq := cmdContext()
	defer cancelReq()

	if err := fw.Reorder(ctx, dir, ids); err != nil {
		fail("Failed to reorder rules: %v", err)
	}
	fmt.Printf("Reordered %s rules\n", dir)
}

func runFirewallPolicy(args []string) {
	flags := flag.NewFlagSet("firewall policy", flag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	direction := flags.String("direction", "", "Policy direction (in or out)")
	action := flags.String("action", "", "Default policy (ACCEPT or DROP)")
	flags.Parse(args)

	dir := firewall.Direction(strings.ToLower(*direction))
	if dir != firewall.DirectionIn && dir != firewall.DirectionOut {
		fail("-direction must be in or out")
	}
	act, err := parseAction(*action)
	if err != nil {
		fail("%v", err)
	}

	fw, cancel, err := loadFirewall(*configPath, flags.Args())
	if err != nil {
		fail("Failed to load firewall state: %v", err)
	}
	defer cancel()

	ctx, cancelReq := cmdContext()
	defer cancelReq()

	if err := fw.SetDefaultPolicy(ctx, dir, act); err != nil {
		fail("Failed to set default policy: %v", err)
	}
	policy := fw.DefaultPolicy()
	fmt.Printf("Default policy: in=%s out=%s\n", policy.In, policy.Out)
}

func parseAction(s string) (firewall.Action, error) {
	switch strings.ToUpper(s) {
	case string(firewall.ActionAccept):
		return firewall.ActionAccept, nil
	case string(firewall.ActionDrop):
		return firewall.ActionDrop, nil
	default:
		return "", fmt.Errorf("action must be ACCEPT or DROP, got %q", s)
	}
}

func normalizeOptionalCIDR(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	return validation.NormalizeCIDR(s)
}

package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/EdoardoFiore/madmin-strongswan/internal/proposal"
)

// RunProposal handles the offline proposal string utilities. These work
// against the baked-in vocabulary and never touch the network.
func RunProposal(args []string) {
	if len(args) < 1 {
		printProposalUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "parse":
		runProposalParse(args[1:])
	case "build":
		runProposalBuild(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown proposal command: %s\n\n", args[0])
		printProposalUsage()
		os.Exit(1)
	}
}

func printProposalUsage() {
	fmt.Fprint(os.Stderr, `Usage: ipsecadm proposal <command>

Commands:
  parse <string>              Decode a proposal string
  build [flags]               Encode a proposal string
`)
}

func runProposalParse(args []string) {
	flags := flag.NewFlagSet("proposal parse", flag.ExitOnError)
	asJSON := flags.Bool("json", false, "JSON output")
	flags.Parse(args)

	raw := strings.Join(flags.Args(), ",")
	sel := proposal.DefaultVocabulary().Parse(raw)

	if *asJSON {
		printJSON(sel)
		return
	}
	for i, p := range sel.Pairs {
		if p.Integrity == "" {
			fmt.Printf("pair %d: %s (AEAD)\n", i, p.Encryption)
			continue
		}
		fmt.Printf("pair %d: %s / %s\n", i, p.Encryption, p.Integrity)
	}
	if len(sel.DHGroups) > 0 {
		fmt.Printf("dh groups: %s\n", strings.Join(sel.DHGroups, ", "))
	}
}

func runProposalBuild(args []string) {
	flags := flag.NewFlagSet("proposal build", flag.ExitOnError)
	enc := flags.String("enc", "", "Encryption algorithms, comma separated")
	integ := flags.String("integ", "", "Integrity algorithms, comma separated")
	dh := flags.String("dh", "", "DH groups, comma separated")
	esp := flags.Bool("esp", false, "Build a Phase 2 (ESP) proposal; -dh is the single PFS group")
	flags.Parse(args)

	vocab := proposal.DefaultVocabulary()
	encs := splitList(*enc)
	integs := splitList(*integ)
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

	if *esp {
		var pfs string
		if groups := splitList(*dh); len(groups) > 0 {
			pfs = groups[0]
		}
		fmt.Println(vocab.BuildESP(pairs, pfs))
		return
	}
	fmt.Println(vocab.BuildIKE(pairs, splitList(*dh)))
}

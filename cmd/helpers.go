// Package cmd implements the ipsecadm CLI subcommands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/EdoardoFiore/madmin-strongswan/internal/client"
	"github.com/EdoardoFiore/madmin-strongswan/internal/config"
	"github.com/EdoardoFiore/madmin-strongswan/internal/logging"
)

// requestTimeout bounds one CLI invocation's roundtrip, on top of the HTTP
// client timeout from config.
const requestTimeout = 60 * time.Second

// newClient loads config and builds the API client for a subcommand.
func newClient(configPath string) (*client.HTTPClient, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	opts := []client.ClientOption{
		client.WithTimeout(cfg.Timeout()),
	}
	if cfg.APIKey != "" {
		opts = append(opts, client.WithAPIKey(cfg.APIKey))
	}
	if cfg.BasePath != "" {
		opts = append(opts, client.WithBasePath(cfg.BasePath))
	}
	logging.Debug("using backend", "server", cfg.Server, "base_path", cfg.BasePath)
	return client.NewHTTPClient(cfg.Server, opts...), cfg, nil
}

// ExtractVerbose strips the global -verbose flag from args and reports
// whether it was present. It is global so it can sit anywhere on the
// command line, including before the subcommand name.
func ExtractVerbose(args []string) ([]string, bool) {
	rest := make([]string, 0, len(args))
	verbose := false
	for _, a := range args {
		if a == "-verbose" || a == "--verbose" {
			verbose = true
			continue
		}
		rest = append(rest, a)
	}
	return rest, verbose
}

// cmdContext returns the context used for one subcommand invocation.
func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// fail prints an error and exits non-zero. Backend detail messages pass
// through verbatim.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// parseID parses a UUID argument or exits with a usage error.
func parseID(kind, s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		fail("Invalid %s id %q: %v", kind, s, err)
	}
	return id
}

// printJSON renders a value as indented JSON on stdout.
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("Failed to encode output: %v", err)
	}
}

// newTabWriter returns a tabwriter for aligned table output.
func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

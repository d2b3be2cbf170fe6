package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/redirector/internal/plugins"
	"github.com/conneroisu/redirector/internal/server"
)

var routesFormat = formatValue{format: FormatTable}

var routesCmd = &cobra.Command{
	Use:     "routes",
	Aliases: []string{"l", "list"},
	Short:   "Show the development route table",
	Long: `Resolve the redirects template and print the routes the development
server would proxy. Lines whose placeholders have no value are left out.

Examples:
  redirector routes                  # Table output
  redirector routes --format json    # JSON, as served at /__redirector/routes
  redirector routes --mode staging   # Resolve against .env.staging`,
	RunE: runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)

	routesCmd.Flags().VarP(&routesFormat, "format", "f", "output format (table, json, yaml)")
}

func runRoutes(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	serverCfg := &plugins.ServerConfig{}
	if err := s.manager.ConfigureServer(ctx, serverCfg); err != nil {
		return err
	}
	list := server.ListRoutes(serverCfg.Proxy)
	out := cmd.OutOrStdout()

	switch routesFormat.format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(list)
	default:
		if len(list) == 0 {
			fmt.Fprintln(out, "No development routes.")
			return nil
		}
		return writeRoutesTable(out, list)
	}
}

func writeRoutesTable(w io.Writer, list []server.RouteInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUTE\tTARGET\tREWRITE")
	for _, r := range list {
		target := r.Target
		if target == "" {
			target = "(local)"
		}
		rewrite := r.RewritePath
		if rewrite == "" {
			rewrite = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Route, target, rewrite)
	}
	return tw.Flush()
}

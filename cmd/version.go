package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/redirector/internal/version"
)

var (
	versionFormat string
	versionShort  bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for redirector: version, git commit, build
time, Go version and target platform.

Examples:
  redirector version                # Show version details
  redirector version --short        # Show the version only
  redirector version --format json  # Output as JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	switch versionFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(version.GetBuildInfo())
	case "text":
		if versionShort {
			_, err := fmt.Fprintln(out, version.GetShortVersion())
			return err
		}
		return outputVersionText(out)
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
	}
}

func outputVersionText(w io.Writer) error {
	info := version.GetBuildInfo()

	fmt.Fprintf(w, "redirector %s\n", info.Version)
	fmt.Fprintf(w, "  Git commit: %s", info.GitCommit)
	if info.Modified {
		fmt.Fprint(w, " (dirty)")
	}
	fmt.Fprintln(w)
	if !info.BuildTime.IsZero() {
		fmt.Fprintf(w, "  Built:      %s\n", info.BuildTime.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintf(w, "  Go version: %s\n", info.GoVersion)
	_, err := fmt.Fprintf(w, "  Platform:   %s\n", info.Platform)
	return err
}

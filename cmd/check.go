package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/redirector/internal/env"
	rerrors "github.com/conneroisu/redirector/internal/errors"
	"github.com/conneroisu/redirector/internal/placeholder"
	"github.com/conneroisu/redirector/internal/platform"
	"github.com/conneroisu/redirector/internal/route"
	"github.com/conneroisu/redirector/internal/template"
)

var checkStrict bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Explain how every template line is handled",
	Long: `Read the redirects template and report, line by line, whether it becomes
a route, is skipped because a placeholder has no value, is malformed, or is
the SPA fallback. The platform a build would target is printed last.

With --strict the command fails when any line is malformed or unresolved.

Examples:
  redirector check                  # Report against .env and the environment
  redirector check --mode prod      # Report against .env.prod
  redirector check --strict         # Fail CI on unresolved placeholders`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "fail on malformed or unresolved lines")
}

// Line statuses reported by check.
const (
	statusOK         = "ok"
	statusUnresolved = "unresolved"
	statusMalformed  = "malformed"
	statusReserved   = "reserved"
	statusFallback   = "fallback"
	statusShadowed   = "shadowed"
)

type lineReport struct {
	Line   int
	Text   string
	Status string
	Detail string
}

// classify reports how each directive is treated when building routes.
// A directive whose key is redefined by a later resolvable line is shadowed.
func classify(directives []template.Directive, snap env.Snapshot) []lineReport {
	reports := make([]lineReport, len(directives))
	lastByKey := make(map[string]int)

	for i, d := range directives {
		r := lineReport{Line: d.Line, Text: d.Raw, Status: statusOK}
		from, to, ok := d.Fields()
		if d.Resolvable(snap) {
			from, _ = placeholder.Substitute(from, snap)
			to, _ = placeholder.Substitute(to, snap)
		}
		switch {
		case !d.Resolvable(snap):
			r.Status = statusUnresolved
			r.Detail = strings.Join(placeholder.Missing(d.Raw, snap), ", ")
		case !ok:
			r.Status = statusMalformed
			r.Detail = "expected <route> <destination>"
		case route.IsFallback(from, to):
			r.Status = statusFallback
		case route.Key(from) == "" || route.IsReserved(route.Key(from)):
			r.Status = statusReserved
		default:
			key := route.Key(from)
			if prev, seen := lastByKey[key]; seen {
				reports[prev].Status = statusShadowed
				reports[prev].Detail = fmt.Sprintf("line %d wins", d.Line)
			}
			lastByKey[key] = i
		}
		reports[i] = r
	}
	return reports
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	snap, err := loadEnv(cfg)
	if err != nil {
		return err
	}

	path := cfg.TemplatePath()
	if !template.Exists(path) {
		cause := rerrors.NewTemplateError(rerrors.CodeTemplateMissing, "template not found", nil).
			WithLocation(path, 0)
		return rerrors.NewEnhancedError("Nothing to check", cause, rerrors.TemplateNotFound(cfg.Template, cfg.Root))
	}
	text, err := template.Read(path)
	if err != nil {
		return rerrors.NewTemplateError(rerrors.CodeTemplateRead, "reading template", err)
	}

	reports := classify(template.Parse(text), snap)
	out := cmd.OutOrStdout()
	if err := writeReports(out, reports); err != nil {
		return err
	}

	p := platform.Resolve(cfg.Platform, snap, cfg.DeployPlatform)
	if p == platform.Unknown {
		fmt.Fprintln(out, "\nPlatform: none detected, build writes no redirect file")
	} else {
		fmt.Fprintf(out, "\nPlatform: %s (%s)\n", p.Title(), p.FileName())
	}

	if checkStrict {
		var bad []string
		for _, r := range reports {
			if r.Status == statusUnresolved || r.Status == statusMalformed {
				bad = append(bad, fmt.Sprintf("%d", r.Line))
			}
		}
		if len(bad) > 0 {
			return rerrors.NewValidationError(rerrors.CodeStrictCheck,
				fmt.Sprintf("%d template line(s) not usable: line %s", len(bad), strings.Join(bad, ", ")))
		}
	}
	return nil
}

func writeReports(w io.Writer, reports []lineReport) error {
	if len(reports) == 0 {
		_, err := fmt.Fprintln(w, "Template has no directives.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tSTATUS\tDIRECTIVE")
	for _, r := range reports {
		status := r.Status
		if r.Detail != "" {
			status += ": " + r.Detail
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", r.Line, status, r.Text)
	}
	return tw.Flush()
}

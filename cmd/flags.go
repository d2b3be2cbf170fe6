package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/conneroisu/redirector/internal/platform"
)

// platformValue is a pflag.Value accepting only known platform names.
type platformValue struct {
	name string
}

var _ pflag.Value = (*platformValue)(nil)

func (v *platformValue) String() string { return v.name }

func (v *platformValue) Set(s string) error {
	p, err := platform.Parse(s)
	if err != nil {
		return err
	}
	if p == platform.Unknown {
		v.name = ""
		return nil
	}
	v.name = p.String()
	return nil
}

func (v *platformValue) Type() string { return "platform" }

// Output formats for listing commands.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var outputFormats = []string{FormatTable, FormatJSON, FormatYAML}

// formatValue is a pflag.Value restricted to outputFormats.
type formatValue struct {
	format string
}

var _ pflag.Value = (*formatValue)(nil)

func (v *formatValue) String() string { return v.format }

func (v *formatValue) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, f := range outputFormats {
		if s == f {
			v.format = s
			return nil
		}
	}
	return fmt.Errorf("invalid output format %q, must be one of: %s", s, strings.Join(outputFormats, ", "))
}

func (v *formatValue) Type() string { return "format" }

func joinedPlatforms() string {
	return strings.Join(platform.Names(), "|")
}

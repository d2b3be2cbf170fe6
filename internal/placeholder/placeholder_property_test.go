//go:build property

package placeholder

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/redirector/internal/env"
)

func TestSubstituteProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("resolved lines leave no placeholders behind", prop.ForAll(
		func(names []string, value string) bool {
			vars := make(map[string]string, len(names))
			var b strings.Builder
			b.WriteString("/route ")
			for _, n := range names {
				vars[n] = value
				b.WriteString("/{{" + n + "}}")
			}
			snap := env.FromMap(vars)
			line := b.String()

			if !Resolvable(line, snap) {
				return false
			}
			out, err := Substitute(line, snap)
			return err == nil && !pattern.MatchString(out)
		},
		gen.SliceOf(gen.Identifier()),
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" && !strings.Contains(s, "{{") }),
	))

	properties.Property("a missing name always blocks resolution", prop.ForAll(
		func(present, missing string) bool {
			if present == missing {
				return true
			}
			snap := env.FromMap(map[string]string{present: "x"})
			line := "/r {{" + present + "}}/{{" + missing + "}}"
			if Resolvable(line, snap) {
				return false
			}
			_, err := Substitute(line, snap)
			return err != nil && len(Filter([]string{line}, snap)) == 0
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

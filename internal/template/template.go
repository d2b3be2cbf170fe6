// Package template reads redirect templates.
//
// A template holds one directive per line:
//
//	<routePattern> <destinationTemplate>
//
// Blank lines and lines starting with '#' are ignored. Destinations may
// embed {{NAME}} placeholders which are resolved by package placeholder.
package template

import (
	"fmt"
	"os"
	"strings"

	"github.com/conneroisu/redirector/internal/env"
	"github.com/conneroisu/redirector/internal/placeholder"
)

// DefaultFile is the template file name looked up in the project root.
const DefaultFile = "redirects.template"

// Directive is one non-empty, non-comment template line.
type Directive struct {
	// Raw is the trimmed line text.
	Raw string
	// Line is the 1-based line number in the source text.
	Line int
}

// Fields returns the route pattern and destination template of d.
// ok is false when the line has fewer than two whitespace separated tokens.
// Tokens after the second are ignored.
func (d Directive) Fields() (route, destination string, ok bool) {
	return Fields(d.Raw)
}

// Resolvable reports whether every placeholder in d has a truthy value in snap.
func (d Directive) Resolvable(snap env.Snapshot) bool {
	return placeholder.Resolvable(d.Raw, snap)
}

// Fields splits a directive line into its first two tokens.
func Fields(line string) (route, destination string, ok bool) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return "", "", false
	}
	return tokens[0], tokens[1], true
}

// Parse returns the directives in text in source order.
func Parse(text string) []Directive {
	var out []Directive
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, Directive{Raw: line, Line: i + 1})
	}
	return out
}

// Lines returns the directive lines of text in source order.
// An empty or comment-only template yields an empty slice.
func Lines(text string) []string {
	directives := Parse(text)
	lines := make([]string, len(directives))
	for i, d := range directives {
		lines[i] = d.Raw
	}
	return lines
}

// Read loads the template at path.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading template %s: %w", path, err)
	}
	return string(data), nil
}

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

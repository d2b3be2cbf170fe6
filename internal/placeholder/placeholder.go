// Package placeholder resolves {{NAME}} markers in template directives
// against an environment snapshot.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/conneroisu/redirector/internal/env"
)

var pattern = regexp.MustCompile(`\{\{(.*?)\}\}`)

// UnresolvedError is returned by Substitute when a referenced name has no
// truthy value in the snapshot.
type UnresolvedError struct {
	Line  string
	Names []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved placeholders %s in %q", strings.Join(e.Names, ", "), e.Line)
}

// Extract returns the placeholder names referenced in line, in order of
// first occurrence, without duplicates.
func Extract(line string) []string {
	matches := pattern.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// Missing returns the referenced names that are not truthy in snap.
func Missing(line string, snap env.Snapshot) []string {
	var missing []string
	for _, name := range Extract(line) {
		if !snap.Truthy(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Resolvable reports whether every placeholder in line has a truthy value.
func Resolvable(line string, snap env.Snapshot) bool {
	for _, name := range Extract(line) {
		if !snap.Truthy(name) {
			return false
		}
	}
	return true
}

// Substitute replaces every placeholder in line with its snapshot value.
// Callers are expected to gate on Resolvable; an unresolvable line is
// returned unchanged together with an *UnresolvedError.
func Substitute(line string, snap env.Snapshot) (string, error) {
	if missing := Missing(line, snap); len(missing) > 0 {
		return line, &UnresolvedError{Line: line, Names: missing}
	}
	return pattern.ReplaceAllStringFunc(line, func(m string) string {
		return snap.Get(m[2 : len(m)-2])
	}), nil
}

// Filter keeps the lines whose placeholders are all resolvable, preserving order.
func Filter(lines []string, snap env.Snapshot) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if Resolvable(line, snap) {
			out = append(out, line)
		}
	}
	return out
}

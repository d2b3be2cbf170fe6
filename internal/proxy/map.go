// Package proxy builds the development route table from template
// directives and serves it as a reverse proxy.
package proxy

import (
	"context"
	"sort"
	"strings"

	"github.com/conneroisu/redirector/internal/env"
	"github.com/conneroisu/redirector/internal/logging"
	"github.com/conneroisu/redirector/internal/placeholder"
	"github.com/conneroisu/redirector/internal/route"
	"github.com/conneroisu/redirector/internal/template"
)

// Entry configures how requests under one route prefix are forwarded.
type Entry struct {
	// Target is the origin requests are sent to. Empty for path-relative
	// destinations, which are rewritten and served locally.
	Target       string `json:"target" yaml:"target"`
	ChangeOrigin bool   `json:"changeOrigin" yaml:"changeOrigin"`
	Secure       bool   `json:"secure" yaml:"secure"`
	// RewritePath replaces the route prefix when Rewrite is set.
	RewritePath string `json:"rewrite,omitempty" yaml:"rewrite,omitempty"`

	Rewrite func(path string) string `json:"-" yaml:"-"`
}

// NewEntry builds the entry for the route key prefix and its resolved target.
// A rewrite is attached only when the target path is not "/" and does not
// already start with prefix. When prefix ends in a slash the replacement
// does too, so the remainder is joined as a path segment.
func NewEntry(prefix string, target route.Target) Entry {
	e := Entry{
		Target:       target.Origin,
		ChangeOrigin: true,
		Secure:       false,
	}
	if target.Path != "/" && !strings.HasPrefix(target.Path, prefix) {
		replacement := target.Path
		if strings.HasSuffix(prefix, "/") && !strings.HasSuffix(replacement, "/") {
			replacement += "/"
		}
		e.RewritePath = replacement
		e.Rewrite = func(p string) string {
			if strings.HasPrefix(p, prefix) {
				return replacement + p[len(prefix):]
			}
			return p
		}
	}
	return e
}

// Map is the development route table keyed by route prefix.
type Map map[string]Entry

// Keys returns the route prefixes in match order: longest first, then
// lexically.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Build converts template lines into a route table. Lines with unresolved
// placeholders or fewer than two tokens are skipped, as is the reserved
// route "/". Later lines overwrite earlier ones with the same key.
// Each accepted line is logged as a step.
func Build(ctx context.Context, lines []string, snap env.Snapshot, logger logging.Logger) Map {
	if logger == nil {
		logger = logging.NewNop()
	}

	m := make(Map)
	for _, line := range lines {
		if !placeholder.Resolvable(line, snap) {
			continue
		}
		rawFrom, raw, ok := template.Fields(line)
		if !ok {
			continue
		}
		from, err := placeholder.Substitute(rawFrom, snap)
		if err != nil {
			continue
		}
		key := route.Key(from)
		if key == "" || route.IsReserved(key) {
			continue
		}
		resolved, err := placeholder.Substitute(raw, snap)
		if err != nil {
			continue
		}

		target := route.Split(resolved)
		m[key] = NewEntry(key, target)
		logger.Step(ctx, "rewrite", key, "→", target.URL())
	}
	return m
}

// Merge returns a new map holding existing overlaid with incoming.
// Entries in incoming win on conflicting keys. Neither input is modified.
func Merge(existing, incoming Map) Map {
	out := make(Map, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

// Package env builds the immutable environment snapshot that every
// redirect component reads placeholder values and platform signals from.
//
// Nothing in the module reads the process environment lazily: commands
// construct a Snapshot once with Load and pass it down explicitly, which
// keeps template translation deterministic and trivially testable.
package env

import (
	"os"
	"sort"
	"strings"
)

// Snapshot is an immutable name to value mapping.
// The zero value is an empty snapshot.
type Snapshot struct {
	vars map[string]string
}

// FromMap copies vars into a new Snapshot.
func FromMap(vars map[string]string) Snapshot {
	cp := make(map[string]string, len(vars))
	for k, v := range vars {
		cp[k] = v
	}
	return Snapshot{vars: cp}
}

// FromEnviron builds a Snapshot from KEY=VALUE pairs as returned by os.Environ.
// Entries without '=' are ignored.
func FromEnviron(environ []string) Snapshot {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		vars[key] = value
	}
	return Snapshot{vars: vars}
}

// Process captures the current process environment.
func Process() Snapshot {
	return FromEnviron(os.Environ())
}

// Lookup returns the value for name and whether it is present.
func (s Snapshot) Lookup(name string) (string, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Get returns the value for name, or "" when absent.
func (s Snapshot) Get(name string) string {
	return s.vars[name]
}

// Truthy reports whether name is present with a non-empty value.
func (s Snapshot) Truthy(name string) bool {
	return s.vars[name] != ""
}

// Len returns the number of variables in the snapshot.
func (s Snapshot) Len() int {
	return len(s.vars)
}

// Keys returns the variable names in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.vars))
	for k := range s.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a new Snapshot with overrides layered on top of s.
func (s Snapshot) With(overrides map[string]string) Snapshot {
	merged := make(map[string]string, len(s.vars)+len(overrides))
	for k, v := range s.vars {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return Snapshot{vars: merged}
}

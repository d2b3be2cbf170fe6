// Package route splits resolved destinations into an origin and a
// normalized path.
package route

import (
	"regexp"
	"strings"
)

var (
	originPattern   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://[^/]+`)
	paramPattern    = regexp.MustCompile(`(^|/):\w+$`)
	trailingSlashes = regexp.MustCompile(`/+$`)
	capturePattern  = regexp.MustCompile(`\$\d+$`)
)

// Wildcard marks "this prefix and everything beneath it".
const Wildcard = "*"

// Target is a destination split into origin and path.
type Target struct {
	// Origin is scheme://host, or "" for path-relative destinations.
	Origin string
	// Path is the normalized remainder, never empty.
	Path string
}

// URL joins origin and path.
func (t Target) URL() string {
	return t.Origin + t.Path
}

// Split decomposes a fully substituted destination.
func Split(destination string) Target {
	origin := originPattern.FindString(destination)
	return Target{
		Origin: origin,
		Path:   NormalizePath(destination[len(origin):]),
	}
}

// StripMarkers removes every wildcard and one trailing :param segment.
func StripMarkers(path string) string {
	path = strings.ReplaceAll(path, Wildcard, "")
	return paramPattern.ReplaceAllString(path, "${1}")
}

// NormalizePath strips markers, defaults an empty path to "/" and
// collapses trailing slashes to one. NormalizePath is idempotent.
func NormalizePath(path string) string {
	path = StripMarkers(path)
	if path == "" {
		return "/"
	}
	return trailingSlashes.ReplaceAllString(path, "/")
}

// Key returns the map key for a route pattern: the pattern without its
// trailing wildcard.
func Key(pattern string) string {
	return strings.TrimSuffix(pattern, Wildcard)
}

// IsSplat reports whether pattern ends with a wildcard.
func IsSplat(pattern string) bool {
	return strings.HasSuffix(pattern, Wildcard)
}

// IsReserved reports whether pattern is the reserved SPA fallback route "/".
func IsReserved(pattern string) bool {
	return pattern == "/"
}

// IsFallback reports whether route and destination form the SPA fallback
// directive: a catch-all route pointing at the default document.
func IsFallback(route, destination string) bool {
	if route != "/*" && route != "/" {
		return false
	}
	switch destination {
	case "/index.html", "/":
		return true
	}
	return false
}

// EndsWithCapture reports whether s ends with a positional back-reference
// such as $1.
func EndsWithCapture(s string) bool {
	return capturePattern.MatchString(s)
}

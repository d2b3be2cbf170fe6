// Package platform translates template directives into deployment
// platform redirect files and detects which platform a build targets.
package platform

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/conneroisu/redirector/internal/env"
)

// Platform is a supported deployment target.
type Platform int

const (
	Unknown Platform = iota
	Netlify
	Vercel
	Nginx
)

// Environment variables consulted by Detect.
const (
	EnvDeployPlatform = "DEPLOY_PLATFORM"
	EnvVercel         = "VERCEL"
	EnvNetlify        = "NETLIFY"
)

var fold = cases.Fold()

// String returns the lower-case platform identifier.
func (p Platform) String() string {
	switch p {
	case Netlify:
		return "netlify"
	case Vercel:
		return "vercel"
	case Nginx:
		return "nginx"
	default:
		return "unknown"
	}
}

// Title returns the display name used in log lines.
func (p Platform) Title() string {
	switch p {
	case Netlify:
		return "Netlify"
	case Vercel:
		return "Vercel"
	case Nginx:
		return "Nginx"
	default:
		return "Unknown"
	}
}

// FileName returns the artifact file name written into the build output
// directory, or "" for Unknown.
func (p Platform) FileName() string {
	switch p {
	case Netlify:
		return "_redirects"
	case Vercel:
		return "vercel.json"
	case Nginx:
		return "nginx-redirects.conf"
	default:
		return ""
	}
}

// Supported returns every known platform.
func Supported() []Platform {
	return []Platform{Netlify, Vercel, Nginx}
}

// Names returns the identifiers of the supported platforms.
func Names() []string {
	all := Supported()
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = p.String()
	}
	return names
}

// Parse matches s case-insensitively against the supported identifiers.
// An empty string parses to Unknown without error.
func Parse(s string) (Platform, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown, nil
	}
	folded := fold.String(s)
	for _, p := range Supported() {
		if folded == p.String() {
			return p, nil
		}
	}
	return Unknown, fmt.Errorf("unknown platform %q (supported: %s)", s, strings.Join(Names(), "|"))
}

// Detect infers the platform from, in order: override, DEPLOY_PLATFORM,
// VERCEL=1 and NETLIFY=true. Unrecognised values are ignored. Unknown is
// returned when nothing matches; callers fall back to their configured
// default.
func Detect(override string, snap env.Snapshot) Platform {
	if p, err := Parse(override); err == nil && p != Unknown {
		return p
	}
	if p, err := Parse(snap.Get(EnvDeployPlatform)); err == nil && p != Unknown {
		return p
	}
	if snap.Get(EnvVercel) == "1" {
		return Vercel
	}
	if snap.Get(EnvNetlify) == "true" {
		return Netlify
	}
	return Unknown
}

// Resolve is Detect with a configured fallback. An empty or unparseable
// fallback yields Unknown.
func Resolve(override string, snap env.Snapshot, fallback string) Platform {
	if p := Detect(override, snap); p != Unknown {
		return p
	}
	p, err := Parse(fallback)
	if err != nil {
		return Unknown
	}
	return p
}

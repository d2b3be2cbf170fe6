package platform

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/conneroisu/redirector/internal/env"
	"github.com/conneroisu/redirector/internal/route"
)

// VercelRewrite is one entry of vercel.json's rewrites array.
type VercelRewrite struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// VercelConfig is the vercel.json document.
type VercelConfig struct {
	Rewrites []VercelRewrite `json:"rewrites"`
}

// VercelFallback is always the last rewrite.
var VercelFallback = VercelRewrite{Source: "/(.*)", Destination: "/"}

const vercelSplat = ":path*"

// VercelEmitter writes vercel.json rewrite configuration. A trailing
// wildcard in the source becomes the named parameter :path* which is
// forwarded to the end of the destination.
type VercelEmitter struct{}

// Emit implements Emitter.
func (VercelEmitter) Emit(lines []string, snap env.Snapshot) ([]byte, error) {
	cfg := VercelConfig{Rewrites: []VercelRewrite{}}
	for _, r := range rules(lines, snap) {
		cfg.Rewrites = append(cfg.Rewrites, vercelRewrite(r))
	}
	cfg.Rewrites = append(cfg.Rewrites, VercelFallback)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func vercelRewrite(r rule) VercelRewrite {
	splat := route.IsSplat(r.from)
	source := r.from
	if splat {
		source = strings.TrimSuffix(source, route.Wildcard)
		if !strings.HasSuffix(source, "/") {
			source += "/"
		}
		source += vercelSplat
	}

	dest := route.StripMarkers(r.to)
	if splat {
		if !strings.HasSuffix(dest, "/") {
			dest += "/"
		}
		dest += vercelSplat
	}
	if dest == "" {
		dest = "/"
	}

	return VercelRewrite{Source: source, Destination: dest}
}

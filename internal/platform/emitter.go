package platform

import (
	"fmt"

	"github.com/conneroisu/redirector/internal/env"
	"github.com/conneroisu/redirector/internal/placeholder"
	"github.com/conneroisu/redirector/internal/route"
	"github.com/conneroisu/redirector/internal/template"
)

// Emitter renders resolved directive lines as a platform's redirect file.
type Emitter interface {
	Emit(lines []string, snap env.Snapshot) ([]byte, error)
}

// EmitterFor returns the emitter for p.
func EmitterFor(p Platform) (Emitter, error) {
	switch p {
	case Netlify:
		return NetlifyEmitter{}, nil
	case Vercel:
		return VercelEmitter{}, nil
	case Nginx:
		return NginxEmitter{}, nil
	case Unknown:
		return nil, fmt.Errorf("no emitter for platform %s", p)
	default:
		return nil, fmt.Errorf("no emitter for platform %d", int(p))
	}
}

// rule is a directive with its destination resolved.
type rule struct {
	from string
	to   string
}

// rules resolves lines into emit-ready rules. Placeholders are substituted
// in both the route and the destination. Malformed and unresolvable lines,
// the reserved "/" route and the SPA fallback directive are dropped.
func rules(lines []string, snap env.Snapshot) []rule {
	out := make([]rule, 0, len(lines))
	for _, line := range lines {
		rawFrom, rawTo, ok := template.Fields(line)
		if !ok {
			continue
		}
		from, err := placeholder.Substitute(rawFrom, snap)
		if err != nil || route.IsReserved(from) {
			continue
		}
		to, err := placeholder.Substitute(rawTo, snap)
		if err != nil {
			continue
		}
		if route.IsFallback(from, to) {
			continue
		}
		out = append(out, rule{from: from, to: to})
	}
	return out
}

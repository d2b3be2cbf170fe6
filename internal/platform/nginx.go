package platform

import (
	"fmt"
	"strings"

	"github.com/conneroisu/redirector/internal/env"
	"github.com/conneroisu/redirector/internal/route"
)

// NginxHeader starts every generated snippet.
const NginxHeader = `# Generated by redirector. Do not edit by hand.
#
# Include this file inside your server block and keep a catch-all
# for the single page app, for example:
#
#   server {
#     include /etc/nginx/snippets/nginx-redirects.conf;
#     location / {
#       try_files $uri /index.html;
#     }
#   }
`

// NginxEmitter writes an nginx rewrite snippet. It does not add a
// catch-all; that belongs to the surrounding server configuration.
type NginxEmitter struct{}

// Emit implements Emitter.
func (NginxEmitter) Emit(lines []string, snap env.Snapshot) ([]byte, error) {
	var b strings.Builder
	b.WriteString(NginxHeader)
	for _, r := range rules(lines, snap) {
		source, captures := nginxSource(r.from)
		dest := route.StripMarkers(r.to)
		if dest == "" {
			dest = "/"
		}
		if captures && !route.EndsWithCapture(dest) {
			// the capture starts after the route's trailing slash
			if strings.HasSuffix(route.Key(r.from), "/") && !strings.HasSuffix(dest, "/") {
				dest += "/"
			}
			dest += "$1"
		}
		fmt.Fprintf(&b, "rewrite ^%s$ %s permanent;\n", source, dest)
	}
	return []byte(b.String()), nil
}

// nginxSource escapes dots and turns a trailing wildcard into a capture group.
func nginxSource(from string) (string, bool) {
	escaped := strings.ReplaceAll(from, ".", `\.`)
	if route.IsSplat(escaped) {
		return strings.TrimSuffix(escaped, route.Wildcard) + "(.*)", true
	}
	return escaped, false
}

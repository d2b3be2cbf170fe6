package platform

import (
	"strings"

	"github.com/conneroisu/redirector/internal/env"
)

// NetlifyFallback is always the last rule of a _redirects file.
const NetlifyFallback = "/* /index.html 200"

// NetlifyEmitter writes Netlify _redirects files. Every rule is a forced
// 200 rewrite and wildcards in destinations become :splat.
type NetlifyEmitter struct{}

// Emit implements Emitter.
func (NetlifyEmitter) Emit(lines []string, snap env.Snapshot) ([]byte, error) {
	var b strings.Builder
	for _, r := range rules(lines, snap) {
		b.WriteString(r.from)
		b.WriteByte(' ')
		b.WriteString(strings.ReplaceAll(r.to, "*", ":splat"))
		b.WriteString(" 200!\n")
	}
	b.WriteString(NetlifyFallback)
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

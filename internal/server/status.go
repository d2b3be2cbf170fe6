package server

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
)

// StatusPage is the data rendered at /__redirector/.
type StatusPage struct {
	Version string
	Routes  []RouteInfo
	Clients int
	Updated time.Time
	WSPath  string
}

const statusStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;width:100%}
th,td{text-align:left;padding:.35rem .6rem;border-bottom:1px solid #ddd;font-family:ui-monospace,monospace;font-size:.9rem}
th{background:#f4f4f4}
.muted{color:#777}
.local{color:#a15c00}`

// statusScript reloads the page when the route table changes.
const statusScript = `(function(){
var s=new WebSocket((location.protocol==="https:"?"wss://":"ws://")+location.host+%q);
s.onmessage=function(e){try{if(JSON.parse(e.data).type==="routes-updated"){location.reload()}}catch(_){}};
})();`

func statusComponent(page StatusPage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		b.WriteString("<title>redirector</title><style>")
		b.WriteString(statusStyle)
		b.WriteString("</style></head><body>")

		fmt.Fprintf(&b, "<h1>redirector <span class=\"muted\">%s</span></h1>", templ.EscapeString(page.Version))
		fmt.Fprintf(&b, "<p class=\"muted\">%d routes, %d live clients, updated %s</p>",
			len(page.Routes), page.Clients, templ.EscapeString(page.Updated.Format(time.RFC1123)))

		if len(page.Routes) == 0 {
			b.WriteString("<p>No development routes. Check redirects.template and your .env files.</p>")
		} else {
			b.WriteString("<table><thead><tr><th>Route</th><th>Target</th><th>Rewrite</th></tr></thead><tbody>")
			for _, r := range page.Routes {
				target := r.Target
				class := ""
				if target == "" {
					target = "(local)"
					class = " class=\"local\""
				}
				fmt.Fprintf(&b, "<tr><td>%s</td><td%s>%s</td><td>%s</td></tr>",
					templ.EscapeString(r.Route), class, templ.EscapeString(target), templ.EscapeString(r.RewritePath))
			}
			b.WriteString("</tbody></table>")
		}

		b.WriteString("<script>")
		fmt.Fprintf(&b, statusScript, page.WSPath)
		b.WriteString("</script></body></html>")

		_, err := io.WriteString(w, b.String())
		return err
	})
}

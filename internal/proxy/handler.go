package proxy

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpproxy"

	"github.com/conneroisu/redirector/internal/env"
	"github.com/conneroisu/redirector/internal/logging"
)

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	// Fallback serves requests that match no route, and requests whose
	// route has no origin after their path has been rewritten.
	Fallback http.Handler
	// Env selects outgoing HTTP proxies (HTTP_PROXY, HTTPS_PROXY, NO_PROXY).
	Env       env.Snapshot
	RateLimit RateLimit
	Limiter   *Limiter
	Logger    logging.Logger
	// Transport overrides the transport built for each route.
	Transport http.RoundTripper
}

type compiledRoute struct {
	key   string
	entry Entry
	proxy *httputil.ReverseProxy
}

// Handler routes requests by longest matching prefix.
type Handler struct {
	routes   []compiledRoute
	fallback http.Handler
	limit    RateLimit
	limiter  *Limiter
	logger   logging.Logger
}

// NewHandler compiles m into a Handler. Entries whose target cannot be
// parsed are logged and skipped.
func NewHandler(m Map, opts HandlerOptions) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = http.NotFoundHandler()
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewLimiter()
	}

	h := &Handler{
		fallback: fallback,
		limit:    opts.RateLimit,
		limiter:  limiter,
		logger:   logger,
	}

	proxyFunc := outboundProxy(opts.Env)
	for _, key := range m.Keys() {
		entry := m[key]
		cr := compiledRoute{key: key, entry: entry}
		if entry.Target != "" {
			target, err := url.Parse(entry.Target)
			if err != nil || target.Host == "" {
				logger.Warn(context.Background(), err, "skipping route with invalid target",
					"route", key, "target", entry.Target)
				continue
			}
			transport := opts.Transport
			if transport == nil {
				transport = newTransport(entry, proxyFunc)
			}
			cr.proxy = newReverseProxy(key, target, entry, transport, logger)
		}
		h.routes = append(h.routes, cr)
	}
	limiter.Retain(m.Keys())

	return h
}

// Match returns the route key and entry serving path.
func (h *Handler) Match(path string) (string, Entry, bool) {
	for _, r := range h.routes {
		if strings.HasPrefix(path, r.key) {
			return r.key, r.entry, true
		}
	}
	return "", Entry{}, false
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, cr := range h.routes {
		if !strings.HasPrefix(r.URL.Path, cr.key) {
			continue
		}

		if !h.limiter.Allow(cr.key, h.limit) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		if cr.proxy != nil {
			cr.proxy.ServeHTTP(w, r)
			return
		}

		local := r.Clone(r.Context())
		if cr.entry.Rewrite != nil {
			local.URL.Path = cr.entry.Rewrite(r.URL.Path)
			local.URL.RawPath = ""
		}
		h.fallback.ServeHTTP(w, local)
		return
	}

	h.fallback.ServeHTTP(w, r)
}

func newReverseProxy(key string, target *url.URL, entry Entry, transport http.RoundTripper, logger logging.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			if entry.Rewrite != nil {
				pr.Out.URL.Path = singleJoin(target.Path, entry.Rewrite(pr.In.URL.Path))
				pr.Out.URL.RawPath = ""
			}
			if !entry.ChangeOrigin {
				pr.Out.Host = pr.In.Host
			}
			pr.SetXForwarded()
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error(r.Context(), err, "proxy request failed",
				"route", key, "target", target.String(), "path", r.URL.Path)
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		},
	}
}

func newTransport(entry Entry, proxyFunc func(*http.Request) (*url.URL, error)) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = proxyFunc
	if !entry.Secure {
		//nolint:gosec // secure: false
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return t
}

// outboundProxy resolves proxies from the snapshot instead of the live
// process environment.
func outboundProxy(snap env.Snapshot) func(*http.Request) (*url.URL, error) {
	cfg := &httpproxy.Config{
		HTTPProxy:  firstOf(snap, "HTTP_PROXY", "http_proxy"),
		HTTPSProxy: firstOf(snap, "HTTPS_PROXY", "https_proxy"),
		NoProxy:    firstOf(snap, "NO_PROXY", "no_proxy"),
		CGI:        snap.Truthy("REQUEST_METHOD"),
	}
	resolve := cfg.ProxyFunc()
	return func(r *http.Request) (*url.URL, error) {
		return resolve(r.URL)
	}
}

func firstOf(snap env.Snapshot, names ...string) string {
	for _, n := range names {
		if v := snap.Get(n); v != "" {
			return v
		}
	}
	return ""
}

func singleJoin(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(p, "/")
}

package server

import (
	"net/http"
	"net/http/httputil"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/conneroisu/redirector/internal/logging"
	"github.com/conneroisu/redirector/internal/validation"
)

// NewFallback returns the handler for requests no route claims: a reverse
// proxy to upstream when set, otherwise a static file server over dir.
func NewFallback(upstream, dir string, logger logging.Logger) (http.Handler, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if upstream != "" {
		return newUpstream(upstream, logger)
	}
	return newSPAHandler(dir, logger), nil
}

func newUpstream(upstream string, logger logging.Logger) (http.Handler, error) {
	target, err := validation.ParseUpstream(upstream)
	if err != nil {
		return nil, err
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			// dev servers key HMR and virtual hosts off the browser's host
			pr.Out.Host = pr.In.Host
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error(r.Context(), err, "upstream request failed",
				"upstream", target.String(), "path", r.URL.Path)
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		},
	}, nil
}

// spaHandler serves files from root and answers page navigations that
// match no file with root/index.html.
type spaHandler struct {
	root   string
	files  http.Handler
	logger logging.Logger
}

func newSPAHandler(dir string, logger logging.Logger) *spaHandler {
	return &spaHandler{
		root:   dir,
		files:  http.FileServer(http.Dir(dir)),
		logger: logger,
	}
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name := path.Clean("/" + r.URL.Path)
	full := filepath.Join(h.root, filepath.FromSlash(name))
	if info, err := os.Stat(full); err == nil {
		if !info.IsDir() || fileExists(filepath.Join(full, "index.html")) {
			h.files.ServeHTTP(w, r)
			return
		}
	}

	if !wantsPage(r, name) {
		http.NotFound(w, r)
		return
	}

	index := filepath.Join(h.root, "index.html")
	if !fileExists(index) {
		h.logger.Debug(r.Context(), "no index.html for page request", "dir", h.root, "path", r.URL.Path)
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}

// wantsPage reports whether the request looks like a browser navigation
// rather than an asset fetch.
func wantsPage(r *http.Request, name string) bool {
	if ext := path.Ext(name); ext != "" && ext != ".html" {
		return false
	}
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

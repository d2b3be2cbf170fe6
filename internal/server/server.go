// Package server runs the development server: the route table built from
// the redirects template in front of an upstream dev server or a static
// directory, plus a small status UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/a-h/templ"

	"github.com/conneroisu/redirector/internal/env"
	"github.com/conneroisu/redirector/internal/logging"
	"github.com/conneroisu/redirector/internal/proxy"
	"github.com/conneroisu/redirector/internal/version"
	"github.com/conneroisu/redirector/internal/websocket"
)

// Internal endpoints. Everything else goes to the route table.
const (
	StatusPath = "/__redirector/"
	RoutesPath = "/__redirector/routes"
	WSPath     = "/__redirector/ws"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Addr string
	// Upstream receives unmatched requests when set.
	Upstream string
	// Static is served when Upstream is empty.
	Static    string
	RateLimit proxy.RateLimit
	// Env selects outbound HTTP proxies for routed requests.
	Env    env.Snapshot
	Logger logging.Logger
	// OriginPatterns are extra Origin hosts accepted on the websocket.
	OriginPatterns []string
}

// RouteInfo is one row of the route listing.
type RouteInfo struct {
	Route string `json:"route" yaml:"route"`
	proxy.Entry `yaml:",inline"`
}

// RoutesResponse is served at RoutesPath.
type RoutesResponse struct {
	Routes  []RouteInfo `json:"routes"`
	Updated time.Time   `json:"updated"`
}

// Server is the development server. Its route table can be swapped while
// it is serving.
type Server struct {
	opts     Options
	logger   logging.Logger
	fallback http.Handler
	limiter  *proxy.Limiter
	hub      *websocket.Hub
	handler  atomic.Pointer[proxy.Handler]
	mux      http.Handler

	routesMu sync.RWMutex
	routes   proxy.Map
	updated  time.Time

	httpMu       sync.Mutex
	httpServer   *http.Server
	shutdownOnce sync.Once
}

// New creates a server for routes.
func New(routes proxy.Map, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.WithComponent("server")

	fallback, err := NewFallback(opts.Upstream, opts.Static, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:     opts,
		logger:   logger,
		fallback: fallback,
		limiter:  proxy.NewLimiter(),
		hub:      websocket.NewHub(opts.OriginPatterns, logger),
	}
	s.install(routes)

	mux := http.NewServeMux()
	mux.HandleFunc(RoutesPath, s.handleRoutes)
	mux.Handle(WSPath, s.hub)
	mux.HandleFunc(StatusPath, s.handleStatus)
	mux.HandleFunc("/", s.handleProxy)
	s.mux = s.logRequests(mux)

	return s, nil
}

func (s *Server) install(routes proxy.Map) {
	routes = proxy.Merge(nil, routes)
	h := proxy.NewHandler(routes, proxy.HandlerOptions{
		Fallback:  s.fallback,
		Env:       s.opts.Env,
		RateLimit: s.opts.RateLimit,
		Limiter:   s.limiter,
		Logger:    s.logger,
	})

	s.routesMu.Lock()
	s.routes = routes
	s.updated = time.Now()
	s.routesMu.Unlock()
	s.handler.Store(h)
}

// SetRoutes replaces the route table and notifies connected browsers.
// In-flight requests finish on the previous table.
func (s *Server) SetRoutes(routes proxy.Map) {
	s.install(routes)
	s.logger.Info(context.Background(), "Development routes updated", "routes", len(routes))
	s.hub.Broadcast(websocket.UpdateMessage{
		Type:   websocket.MessageRoutesUpdated,
		Routes: routes.Keys(),
	})
}

// Routes returns a copy of the current route table.
func (s *Server) Routes() proxy.Map {
	s.routesMu.RLock()
	defer s.routesMu.RUnlock()
	return proxy.Merge(nil, s.routes)
}

// RouteList returns the current routes in match order.
func (s *Server) RouteList() []RouteInfo {
	s.routesMu.RLock()
	defer s.routesMu.RUnlock()
	return ListRoutes(s.routes)
}

// ListRoutes flattens m in match order.
func ListRoutes(m proxy.Map) []RouteInfo {
	keys := m.Keys()
	out := make([]RouteInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, RouteInfo{Route: k, Entry: m[k]})
	}
	return out
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe listens on Options.Addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpMu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.httpMu.Unlock()

	s.logger.Info(ctx, "Development server listening", "url", "http://"+ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown closes websocket clients and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.Debug(ctx, "Shutting down server")
		_ = s.hub.Shutdown(ctx)

		s.httpMu.Lock()
		srv := s.httpServer
		s.httpMu.Unlock()
		if srv != nil {
			err = srv.Shutdown(ctx)
		}
	})
	return err
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	s.handler.Load().ServeHTTP(w, r)
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.routesMu.RLock()
	resp := RoutesResponse{Routes: ListRoutes(s.routes), Updated: s.updated}
	s.routesMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode routes response")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != StatusPath {
		http.NotFound(w, r)
		return
	}

	s.routesMu.RLock()
	page := StatusPage{
		Version: version.GetShortVersion(),
		Routes:  ListRoutes(s.routes),
		Clients: s.hub.Clients(),
		Updated: s.updated,
		WSPath:  WSPath,
	}
	s.routesMu.RUnlock()

	templ.Handler(statusComponent(page)).ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
	})
}

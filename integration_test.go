package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/redirector/internal/env"
	"github.com/conneroisu/redirector/internal/logging"
	"github.com/conneroisu/redirector/internal/plugins"
	"github.com/conneroisu/redirector/internal/plugins/builtin"
	"github.com/conneroisu/redirector/internal/server"
	"github.com/conneroisu/redirector/internal/watcher"
)

func backend(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, name+" "+r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func body(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return string(data)
}

func TestIntegration_RoutesFollowDotenvEdits(t *testing.T) {
	first := backend(t, "first")
	second := backend(t, "second")

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "redirects.template"),
		[]byte("/api/* {{API_URL}}/v1/*\n/* /index.html\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("API_URL="+first.URL+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>spa</h1>"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logging.NewNop()
	snap, err := env.Load(env.LoadOptions{Root: root})
	require.NoError(t, err)

	pm := plugins.NewPluginManager()
	rp := builtin.NewRedirectsPlugin(builtin.RedirectsOptions{TemplateFile: "redirects.template"})
	require.NoError(t, pm.RegisterPlugin(ctx, rp, plugins.PluginConfig{
		Enabled: true,
		Root:    root,
		Env:     snap,
		Logger:  logger,
	}))
	defer pm.Shutdown(context.Background())

	serverCfg := &plugins.ServerConfig{}
	require.NoError(t, pm.ConfigureServer(ctx, serverCfg))

	srv, err := server.New(serverCfg.Proxy, server.Options{Static: root, Logger: logger})
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())
	serverCfg.OnProxyChange = srv.SetRoutes

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	fw, err := watcher.NewFileWatcher(20*time.Millisecond, logger)
	require.NoError(t, err)
	defer fw.Stop()
	require.NoError(t, fw.AddPath(root))
	fw.AddFilter(watcher.PatternFilter(pm.WatchPatterns()...))
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		for _, ev := range events {
			if err := pm.HandleFileChange(ctx, plugins.FileChangeEvent{Path: ev.Path, Type: plugins.FileChangeTypeModify, Timestamp: time.Now()}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, fw.Start(ctx))

	assert.Equal(t, "first /v1/users", body(t, ts.URL+"/api/users"))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/dashboard", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/html")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	spa, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(spa), "spa")

	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("API_URL="+second.URL+"\n"), 0o644))

	require.Eventually(t, func() bool {
		return body(t, ts.URL+"/api/users") == "second /v1/users"
	}, 5*time.Second, 50*time.Millisecond)
}

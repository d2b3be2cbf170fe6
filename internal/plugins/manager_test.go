package plugins

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/redirector/internal/proxy"
	"github.com/conneroisu/redirector/internal/route"
)

// MockPlugin is a test plugin implementation
type MockPlugin struct {
	name           string
	initErr        error
	shutdownErr    error
	initialized    bool
	shutdownCalled bool
	health         PluginHealth
	log            *[]string
}

func (mp *MockPlugin) Name() string        { return mp.name }
func (mp *MockPlugin) Version() string     { return "1.0.0" }
func (mp *MockPlugin) Description() string { return "Mock plugin for testing" }
func (mp *MockPlugin) Initialize(ctx context.Context, config PluginConfig) error {
	mp.initialized = true
	return mp.initErr
}
func (mp *MockPlugin) Shutdown(ctx context.Context) error {
	mp.shutdownCalled = true
	mp.record("shutdown")
	return mp.shutdownErr
}
func (mp *MockPlugin) Health() PluginHealth { return mp.health }

func (mp *MockPlugin) record(hook string) {
	if mp.log != nil {
		*mp.log = append(*mp.log, mp.name+":"+hook)
	}
}

// MockHookPlugin implements every hook interface
type MockHookPlugin struct {
	MockPlugin
	patterns []string
	buildErr error
	changes  []FileChangeEvent
	route    string
}

func (mh *MockHookPlugin) ConfigureServer(ctx context.Context, server *ServerConfig) error {
	mh.record("server")
	if mh.route != "" {
		server.Proxy = proxy.Merge(server.Proxy, proxy.Map{
			mh.route: proxy.NewEntry(mh.route, route.Target{Origin: "http://localhost:9000", Path: mh.route}),
		})
	}
	return nil
}

func (mh *MockHookPlugin) BuildStart(ctx context.Context, build *BuildContext) error {
	mh.record("build")
	if mh.buildErr != nil {
		return mh.buildErr
	}
	build.Artifacts = append(build.Artifacts, Artifact{Plugin: mh.name, Path: mh.name + ".out"})
	return nil
}

func (mh *MockHookPlugin) WatchPatterns() []string { return mh.patterns }

func (mh *MockHookPlugin) HandleFileChange(ctx context.Context, event FileChangeEvent) error {
	mh.changes = append(mh.changes, event)
	return nil
}

func TestPluginManager_RegisterPlugin(t *testing.T) {
	ctx := context.Background()
	pm := NewPluginManager()
	defer pm.Shutdown(ctx)

	plugin := &MockPlugin{name: "test-plugin", health: PluginHealth{Status: HealthStatusHealthy}}

	require.NoError(t, pm.RegisterPlugin(ctx, plugin, PluginConfig{Enabled: true}))
	assert.True(t, plugin.initialized)

	got, ok := pm.GetPlugin("test-plugin")
	require.True(t, ok)
	assert.Same(t, plugin, got)

	err := pm.RegisterPlugin(ctx, plugin, PluginConfig{})
	assert.Error(t, err, "duplicate registration should fail")
}

func TestPluginManager_RegisterInitializeError(t *testing.T) {
	ctx := context.Background()
	pm := NewPluginManager()

	boom := errors.New("boom")
	err := pm.RegisterPlugin(ctx, &MockPlugin{name: "bad", initErr: boom}, PluginConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, ok := pm.GetPlugin("bad")
	assert.False(t, ok)
	assert.Empty(t, pm.Names())
}

func TestPluginManager_UnregisterPlugin(t *testing.T) {
	ctx := context.Background()
	pm := NewPluginManager()

	plugin := &MockHookPlugin{MockPlugin: MockPlugin{name: "hooks"}, patterns: []string{"*.txt"}}
	require.NoError(t, pm.RegisterPlugin(ctx, plugin, PluginConfig{}))
	require.NoError(t, pm.UnregisterPlugin(ctx, "hooks"))

	assert.True(t, plugin.shutdownCalled)
	assert.Empty(t, pm.Names())
	assert.Empty(t, pm.WatchPatterns())

	build := &BuildContext{}
	require.NoError(t, pm.BuildStart(ctx, build))
	assert.Empty(t, build.Artifacts)

	assert.Error(t, pm.UnregisterPlugin(ctx, "hooks"))
}

func TestPluginManager_HookOrder(t *testing.T) {
	ctx := context.Background()
	pm := NewPluginManager()

	var calls []string
	first := &MockHookPlugin{MockPlugin: MockPlugin{name: "first", log: &calls}, route: "/a"}
	second := &MockHookPlugin{MockPlugin: MockPlugin{name: "second", log: &calls}, route: "/b"}
	plain := &MockPlugin{name: "plain", log: &calls}

	require.NoError(t, pm.RegisterPlugin(ctx, first, PluginConfig{}))
	require.NoError(t, pm.RegisterPlugin(ctx, plain, PluginConfig{}))
	require.NoError(t, pm.RegisterPlugin(ctx, second, PluginConfig{}))
	assert.Equal(t, []string{"first", "plain", "second"}, pm.Names())

	server := &ServerConfig{}
	require.NoError(t, pm.ConfigureServer(ctx, server))
	assert.Len(t, server.Proxy, 2)

	build := &BuildContext{}
	require.NoError(t, pm.BuildStart(ctx, build))
	require.Len(t, build.Artifacts, 2)
	assert.Equal(t, "first", build.Artifacts[0].Plugin)
	assert.Equal(t, "second", build.Artifacts[1].Plugin)

	require.NoError(t, pm.Shutdown(ctx))
	assert.Equal(t, []string{
		"first:server", "second:server",
		"first:build", "second:build",
		"second:shutdown", "plain:shutdown", "first:shutdown",
	}, calls)
	assert.Empty(t, pm.Names())
}

func TestPluginManager_BuildStartStopsOnError(t *testing.T) {
	ctx := context.Background()
	pm := NewPluginManager()

	boom := errors.New("disk full")
	failing := &MockHookPlugin{MockPlugin: MockPlugin{name: "failing"}, buildErr: boom}
	after := &MockHookPlugin{MockPlugin: MockPlugin{name: "after"}}
	require.NoError(t, pm.RegisterPlugin(ctx, failing, PluginConfig{}))
	require.NoError(t, pm.RegisterPlugin(ctx, after, PluginConfig{}))

	build := &BuildContext{}
	err := pm.BuildStart(ctx, build)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing")
	assert.Empty(t, build.Artifacts)
}

func TestPluginManager_HandleFileChange(t *testing.T) {
	ctx := context.Background()
	pm := NewPluginManager()

	tmpl := &MockHookPlugin{MockPlugin: MockPlugin{name: "tmpl"}, patterns: []string{"redirects.template", ".env", ".env.*"}}
	css := &MockHookPlugin{MockPlugin: MockPlugin{name: "css"}, patterns: []string{"*.css", ".env"}}
	require.NoError(t, pm.RegisterPlugin(ctx, tmpl, PluginConfig{}))
	require.NoError(t, pm.RegisterPlugin(ctx, css, PluginConfig{}))

	assert.Equal(t, []string{"redirects.template", ".env", ".env.*", "*.css"}, pm.WatchPatterns())

	events := []FileChangeEvent{
		{Path: "/app/redirects.template", Type: FileChangeTypeModify, Timestamp: time.Now()},
		{Path: "/app/.env.local", Type: FileChangeTypeCreate, Timestamp: time.Now()},
		{Path: "/app/.env", Type: FileChangeTypeModify, Timestamp: time.Now()},
		{Path: "/app/styles/site.css", Type: FileChangeTypeModify, Timestamp: time.Now()},
		{Path: "/app/main.go", Type: FileChangeTypeModify, Timestamp: time.Now()},
	}
	for _, ev := range events {
		require.NoError(t, pm.HandleFileChange(ctx, ev))
	}

	assert.Len(t, tmpl.changes, 3)
	assert.Len(t, css.changes, 2)
}

func TestPluginManager_Health(t *testing.T) {
	ctx := context.Background()
	pm := NewPluginManager()

	require.NoError(t, pm.RegisterPlugin(ctx, &MockPlugin{
		name:   "ok",
		health: PluginHealth{Status: HealthStatusHealthy},
	}, PluginConfig{}))
	require.NoError(t, pm.RegisterPlugin(ctx, &MockPlugin{
		name:   "off",
		health: PluginHealth{Status: HealthStatusDisabled},
	}, PluginConfig{}))

	health := pm.Health()
	assert.Equal(t, HealthStatusHealthy, health["ok"].Status)
	assert.Equal(t, HealthStatusDisabled, health["off"].Status)
}

func TestPluginManager_ShutdownJoinsErrors(t *testing.T) {
	ctx := context.Background()
	pm := NewPluginManager()

	e1, e2 := errors.New("one"), errors.New("two")
	require.NoError(t, pm.RegisterPlugin(ctx, &MockPlugin{name: "a", shutdownErr: e1}, PluginConfig{}))
	require.NoError(t, pm.RegisterPlugin(ctx, &MockPlugin{name: "b", shutdownErr: e2}, PluginConfig{}))

	err := pm.Shutdown(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
}

func TestPluginConfigString(t *testing.T) {
	cfg := PluginConfig{Config: map[string]interface{}{"template": "routes.tpl", "empty": "", "n": 3}}

	assert.Equal(t, "routes.tpl", cfg.String("template", "x"))
	assert.Equal(t, "x", cfg.String("empty", "x"))
	assert.Equal(t, "x", cfg.String("n", "x"))
	assert.Equal(t, "x", cfg.String("missing", "x"))
}

func TestMatchAny(t *testing.T) {
	patterns := []string{"redirects.template", ".env", ".env.*"}

	assert.True(t, MatchAny(patterns, "redirects.template"))
	assert.True(t, MatchAny(patterns, ".env.production"))
	assert.False(t, MatchAny(patterns, "redirects.template~"))
	assert.False(t, MatchAny(patterns, "env"))
	assert.False(t, MatchAny(nil, ".env"))
}

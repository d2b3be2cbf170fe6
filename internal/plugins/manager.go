package plugins

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
)

// PluginManager manages the lifecycle of plugins. Hooks run in
// registration order; shutdown runs in reverse.
type PluginManager struct {
	order          []string
	plugins        map[string]Plugin
	configs        map[string]PluginConfig
	buildPlugins   []BuildPlugin
	serverPlugins  []ServerPlugin
	watcherPlugins []WatcherPlugin
	mu             sync.RWMutex
}

// NewPluginManager creates a new plugin manager
func NewPluginManager() *PluginManager {
	return &PluginManager{
		plugins: make(map[string]Plugin),
		configs: make(map[string]PluginConfig),
	}
}

// RegisterPlugin initializes and registers a plugin
func (pm *PluginManager) RegisterPlugin(ctx context.Context, plugin Plugin, config PluginConfig) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	name := plugin.Name()
	if _, exists := pm.plugins[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}

	if config.Name == "" {
		config.Name = name
	}

	if err := plugin.Initialize(ctx, config); err != nil {
		return fmt.Errorf("failed to initialize plugin %s: %w", name, err)
	}

	pm.order = append(pm.order, name)
	pm.plugins[name] = plugin
	pm.configs[name] = config

	if bp, ok := plugin.(BuildPlugin); ok {
		pm.buildPlugins = append(pm.buildPlugins, bp)
	}
	if sp, ok := plugin.(ServerPlugin); ok {
		pm.serverPlugins = append(pm.serverPlugins, sp)
	}
	if wp, ok := plugin.(WatcherPlugin); ok {
		pm.watcherPlugins = append(pm.watcherPlugins, wp)
	}

	return nil
}

// UnregisterPlugin shuts down and removes a plugin
func (pm *PluginManager) UnregisterPlugin(ctx context.Context, name string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	plugin, exists := pm.plugins[name]
	if !exists {
		return fmt.Errorf("plugin %s not found", name)
	}

	err := plugin.Shutdown(ctx)

	delete(pm.plugins, name)
	delete(pm.configs, name)
	pm.order = removeName(pm.order, name)
	pm.buildPlugins = removePlugin(pm.buildPlugins, name)
	pm.serverPlugins = removePlugin(pm.serverPlugins, name)
	pm.watcherPlugins = removePlugin(pm.watcherPlugins, name)

	if err != nil {
		return fmt.Errorf("failed to shutdown plugin %s: %w", name, err)
	}
	return nil
}

// GetPlugin returns a registered plugin by name
func (pm *PluginManager) GetPlugin(name string) (Plugin, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	p, ok := pm.plugins[name]
	return p, ok
}

// Names returns registered plugin names in registration order
func (pm *PluginManager) Names() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	return append([]string(nil), pm.order...)
}

// ConfigureServer runs every server plugin against server
func (pm *PluginManager) ConfigureServer(ctx context.Context, server *ServerConfig) error {
	pm.mu.RLock()
	serverPlugins := append([]ServerPlugin(nil), pm.serverPlugins...)
	pm.mu.RUnlock()

	for _, p := range serverPlugins {
		if err := p.ConfigureServer(ctx, server); err != nil {
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
	}
	return nil
}

// BuildStart runs every build plugin. The first error stops the build.
func (pm *PluginManager) BuildStart(ctx context.Context, build *BuildContext) error {
	pm.mu.RLock()
	buildPlugins := append([]BuildPlugin(nil), pm.buildPlugins...)
	pm.mu.RUnlock()

	for _, p := range buildPlugins {
		if err := p.BuildStart(ctx, build); err != nil {
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
	}
	return nil
}

// WatchPatterns returns the union of watcher plugin patterns
func (pm *PluginManager) WatchPatterns() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	seen := make(map[string]struct{})
	var patterns []string
	for _, p := range pm.watcherPlugins {
		for _, pattern := range p.WatchPatterns() {
			if _, ok := seen[pattern]; ok {
				continue
			}
			seen[pattern] = struct{}{}
			patterns = append(patterns, pattern)
		}
	}
	return patterns
}

// HandleFileChange dispatches event to the watcher plugins whose patterns
// match the changed file's base name. All plugins run; errors are joined.
func (pm *PluginManager) HandleFileChange(ctx context.Context, event FileChangeEvent) error {
	pm.mu.RLock()
	watcherPlugins := append([]WatcherPlugin(nil), pm.watcherPlugins...)
	pm.mu.RUnlock()

	base := filepath.Base(event.Path)
	var errs []error
	for _, p := range watcherPlugins {
		if !MatchAny(p.WatchPatterns(), base) {
			continue
		}
		if err := p.HandleFileChange(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("plugin %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Health returns the health of every plugin
func (pm *PluginManager) Health() map[string]PluginHealth {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make(map[string]PluginHealth, len(pm.plugins))
	for name, p := range pm.plugins {
		out[name] = p.Health()
	}
	return out
}

// Shutdown shuts plugins down in reverse registration order
func (pm *PluginManager) Shutdown(ctx context.Context) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	var errs []error
	for i := len(pm.order) - 1; i >= 0; i-- {
		name := pm.order[i]
		if err := pm.plugins[name].Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("plugin %s: %w", name, err))
		}
	}

	pm.order = nil
	pm.plugins = make(map[string]Plugin)
	pm.configs = make(map[string]PluginConfig)
	pm.buildPlugins = nil
	pm.serverPlugins = nil
	pm.watcherPlugins = nil

	return errors.Join(errs...)
}

// MatchAny reports whether name matches any of patterns.
func MatchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

func removePlugin[T Plugin](list []T, name string) []T {
	out := list[:0]
	for _, p := range list {
		if p.Name() != name {
			out = append(out, p)
		}
	}
	return out
}

// Package builtin contains the plugins shipped with redirector.
package builtin

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/redirector/internal/artifact"
	"github.com/conneroisu/redirector/internal/env"
	rerrors "github.com/conneroisu/redirector/internal/errors"
	"github.com/conneroisu/redirector/internal/logging"
	"github.com/conneroisu/redirector/internal/placeholder"
	"github.com/conneroisu/redirector/internal/platform"
	"github.com/conneroisu/redirector/internal/plugins"
	"github.com/conneroisu/redirector/internal/proxy"
	"github.com/conneroisu/redirector/internal/template"
)

// RedirectsPluginName is the registered name of RedirectsPlugin.
const RedirectsPluginName = "redirects"

// RedirectsOptions configures a RedirectsPlugin.
type RedirectsOptions struct {
	// TemplateFile is the template path relative to the project root.
	TemplateFile string
	// DeployPlatform is the fallback when detection finds nothing.
	DeployPlatform string
}

// RedirectsPlugin turns the redirects template into development proxy
// routes and production redirect files.
type RedirectsPlugin struct {
	opts RedirectsOptions

	mu           sync.RWMutex
	config       plugins.PluginConfig
	logger       logging.Logger
	templatePath string
	enabled      bool
	lines        []string
	snap         env.Snapshot
	server       *plugins.ServerConfig
	base         proxy.Map
	routes       proxy.Map
	lastErr      error
	lastLoad     time.Time
}

// NewRedirectsPlugin creates a new redirects plugin
func NewRedirectsPlugin(opts RedirectsOptions) *RedirectsPlugin {
	if opts.TemplateFile == "" {
		opts.TemplateFile = template.DefaultFile
	}
	return &RedirectsPlugin{opts: opts}
}

// Name returns the plugin name
func (rp *RedirectsPlugin) Name() string {
	return RedirectsPluginName
}

// Version returns the plugin version
func (rp *RedirectsPlugin) Version() string {
	return "1.0.0"
}

// Description returns the plugin description
func (rp *RedirectsPlugin) Description() string {
	return "Translates " + rp.opts.TemplateFile + " into dev proxy routes and platform redirect files"
}

// Initialize reads the template. A missing template is not an error: it is
// reported and the plugin stays disabled for the rest of the run.
func (rp *RedirectsPlugin) Initialize(ctx context.Context, config plugins.PluginConfig) error {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	rp.config = config
	rp.logger = config.Logger
	if rp.logger == nil {
		rp.logger = logging.NewNop()
	}
	rp.logger = rp.logger.WithComponent(RedirectsPluginName)
	rp.snap = config.Env

	rp.templatePath = rp.opts.TemplateFile
	if !filepath.IsAbs(rp.templatePath) {
		rp.templatePath = filepath.Join(config.Root, rp.templatePath)
	}

	if !template.Exists(rp.templatePath) {
		rp.logger.Warn(ctx, nil, fmt.Sprintf("%s not found at project root", rp.opts.TemplateFile))
		rp.enabled = false
		return nil
	}

	text, err := template.Read(rp.templatePath)
	if err != nil {
		return rerrors.NewTemplateError(rerrors.CodeTemplateRead, "reading redirects template", err).
			WithLocation(rp.templatePath, 0)
	}

	rp.lines = template.Lines(text)
	rp.enabled = true
	rp.lastLoad = time.Now()
	return nil
}

// Enabled reports whether the template was found.
func (rp *RedirectsPlugin) Enabled() bool {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	return rp.enabled
}

// TemplatePath returns the resolved template location.
func (rp *RedirectsPlugin) TemplatePath() string {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	return rp.templatePath
}

// Routes returns the route table from the last build or reload.
func (rp *RedirectsPlugin) Routes() proxy.Map {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	return proxy.Merge(nil, rp.routes)
}

// ConfigureServer merges the template's routes into server.Proxy
func (rp *RedirectsPlugin) ConfigureServer(ctx context.Context, server *plugins.ServerConfig) error {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if !rp.enabled {
		return nil
	}

	rp.routes = proxy.Build(ctx, rp.lines, rp.snap, rp.logger)
	rp.base = proxy.Merge(nil, server.Proxy)
	rp.server = server
	server.Proxy = proxy.Merge(rp.base, rp.routes)

	rp.logger.Info(ctx, "Development redirects loaded", "routes", len(rp.routes))
	return nil
}

// BuildStart writes the redirect file for the detected platform.
// An unknown platform is reported and skipped; a failed write is fatal.
func (rp *RedirectsPlugin) BuildStart(ctx context.Context, build *plugins.BuildContext) error {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if !rp.enabled {
		return nil
	}

	lines := placeholder.Filter(rp.lines, rp.snap)
	target := rp.resolvePlatform(ctx, build.Platform)
	if target == platform.Unknown {
		rp.logger.Warn(ctx, nil, "Unknown deploy platform. Set "+platform.EnvDeployPlatform+"="+strings.Join(platform.Names(), "|"))
		rp.routes = proxy.Build(ctx, lines, rp.snap, rp.logger)
		return nil
	}

	emitter, err := platform.EmitterFor(target)
	if err != nil {
		return rerrors.NewInternalError(rerrors.CodeUnknownPlatform, "selecting emitter", err)
	}
	content, err := emitter.Emit(lines, rp.snap)
	if err != nil {
		rp.logger.Error(ctx, err, "Failed rendering redirects", "platform", target.String())
		return rerrors.NewInternalError(rerrors.CodeArtifactEncode, "rendering "+target.FileName(), err)
	}

	path := filepath.Join(build.OutDir, target.FileName())
	out := plugins.Artifact{Plugin: rp.Name(), Platform: target, Path: path, Content: content}

	if build.DryRun {
		if build.Output != nil {
			if _, err := build.Output.Write(content); err != nil {
				return rerrors.NewIOError(rerrors.CodeArtifactWrite, "printing redirects", err)
			}
		}
	} else {
		if err := artifact.Write(path, content); err != nil {
			rp.logger.Error(ctx, err, "Failed writing redirects", "path", path)
			return rerrors.NewIOError(rerrors.CodeArtifactWrite, "failed writing redirects", err).
				WithLocation(path, 0).
				WithComponent(RedirectsPluginName)
		}
		out.Written = true
		rp.logger.Info(ctx, fmt.Sprintf("Wrote %s redirects to %s", target.Title(), path))
	}
	build.Artifacts = append(build.Artifacts, out)

	rp.routes = proxy.Build(ctx, lines, rp.snap, rp.logger)
	return nil
}

func (rp *RedirectsPlugin) resolvePlatform(ctx context.Context, override string) platform.Platform {
	if v := rp.snap.Get(platform.EnvDeployPlatform); v != "" {
		if _, err := platform.Parse(v); err != nil {
			rp.logger.Debug(ctx, "ignoring unrecognised platform", "value", v)
		}
	}
	return platform.Resolve(override, rp.snap, rp.opts.DeployPlatform)
}

// WatchPatterns returns the template and dotenv file names
func (rp *RedirectsPlugin) WatchPatterns() []string {
	return []string{filepath.Base(rp.opts.TemplateFile), ".env", ".env.*"}
}

// HandleFileChange rebuilds the route table after the template or a
// dotenv file changed and hands it to the server. It is a no-op outside
// the development server or when the plugin is disabled.
func (rp *RedirectsPlugin) HandleFileChange(ctx context.Context, event plugins.FileChangeEvent) error {
	routes, err := rp.Reload(ctx)
	if err != nil || routes == nil {
		return err
	}

	rp.mu.RLock()
	server := rp.server
	rp.mu.RUnlock()
	if server != nil && server.OnProxyChange != nil {
		server.OnProxyChange(routes)
	}
	return nil
}

// Reload re-reads the template and dotenv files and returns the merged
// server route table. It returns nil when there is no server to update.
// On failure the previous routes stay in place.
func (rp *RedirectsPlugin) Reload(ctx context.Context) (proxy.Map, error) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if !rp.enabled || rp.server == nil {
		return nil, nil
	}

	text, err := template.Read(rp.templatePath)
	if err != nil {
		rp.lastErr = err
		rp.logger.Warn(ctx, err, "Keeping previous redirects")
		return nil, nil
	}

	snap, err := env.Load(env.LoadOptions{
		Root:    rp.config.Root,
		Mode:    rp.config.Mode,
		Environ: rp.config.Environ,
	})
	if err != nil {
		rp.lastErr = err
		rp.logger.Warn(ctx, err, "Keeping previous redirects")
		return nil, nil
	}

	rp.lines = template.Lines(text)
	rp.snap = snap
	rp.routes = proxy.Build(ctx, rp.lines, rp.snap, rp.logger)
	rp.server.Proxy = proxy.Merge(rp.base, rp.routes)
	rp.lastErr = nil
	rp.lastLoad = time.Now()

	rp.logger.Info(ctx, "Development redirects reloaded", "routes", len(rp.routes))
	return proxy.Merge(nil, rp.server.Proxy), nil
}

// Shutdown shuts down the plugin
func (rp *RedirectsPlugin) Shutdown(ctx context.Context) error {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.server = nil
	return nil
}

// Health returns the plugin health status
func (rp *RedirectsPlugin) Health() plugins.PluginHealth {
	rp.mu.RLock()
	defer rp.mu.RUnlock()

	health := plugins.PluginHealth{
		Status:    plugins.HealthStatusHealthy,
		LastCheck: time.Now(),
		Metrics: map[string]interface{}{
			"template":   rp.templatePath,
			"directives": len(rp.lines),
			"routes":     len(rp.routes),
			"last_load":  rp.lastLoad,
		},
	}

	switch {
	case !rp.enabled:
		health.Status = plugins.HealthStatusDisabled
	case rp.lastErr != nil:
		health.Status = plugins.HealthStatusDegraded
		health.Error = rp.lastErr.Error()
	}

	return health
}

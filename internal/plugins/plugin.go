package plugins

import (
	"context"
	"io"
	"time"

	"github.com/conneroisu/redirector/internal/env"
	"github.com/conneroisu/redirector/internal/logging"
	"github.com/conneroisu/redirector/internal/platform"
	"github.com/conneroisu/redirector/internal/proxy"
)

// Plugin represents a redirector plugin interface
type Plugin interface {
	// Name returns the unique name of the plugin
	Name() string

	// Version returns the version of the plugin
	Version() string

	// Description returns a description of what the plugin does
	Description() string

	// Initialize initializes the plugin with the given context and configuration
	Initialize(ctx context.Context, config PluginConfig) error

	// Shutdown gracefully shuts down the plugin
	Shutdown(ctx context.Context) error

	// Health returns the health status of the plugin
	Health() PluginHealth
}

// ServerPlugin takes part in assembling the development server configuration
type ServerPlugin interface {
	Plugin

	// ConfigureServer may add proxy routes to server. It runs once per
	// serve invocation, before the server starts.
	ConfigureServer(ctx context.Context, server *ServerConfig) error
}

// BuildPlugin takes part in production builds
type BuildPlugin interface {
	Plugin

	// BuildStart runs once at the start of a production build.
	BuildStart(ctx context.Context, build *BuildContext) error
}

// WatcherPlugin reacts to file changes during development
type WatcherPlugin interface {
	Plugin

	// WatchPatterns returns base name patterns (filepath.Match syntax) of
	// files the plugin depends on
	WatchPatterns() []string

	// HandleFileChange is called when a watched file changes
	HandleFileChange(ctx context.Context, event FileChangeEvent) error
}

// PluginConfig contains configuration for a plugin
type PluginConfig struct {
	// Name of the plugin
	Name string `json:"name"`

	// Whether the plugin is enabled
	Enabled bool `json:"enabled"`

	// Root is the project root directory
	Root string `json:"root"`

	// Mode selects .env.<mode> files
	Mode string `json:"mode"`

	// Env is the snapshot the plugin resolves placeholders against
	Env env.Snapshot `json:"-"`

	// Environ is the process environment layered over .env files when
	// a plugin reloads its snapshot
	Environ []string `json:"-"`

	// Logger for plugin output
	Logger logging.Logger `json:"-"`

	// Configuration data specific to the plugin
	Config map[string]interface{} `json:"config"`
}

// String returns a plugin specific string setting, or def.
func (c PluginConfig) String(key, def string) string {
	if v, ok := c.Config[key].(string); ok && v != "" {
		return v
	}
	return def
}

// ServerConfig is the development server configuration plugins extend
type ServerConfig struct {
	// Proxy is the route table the server proxies through
	Proxy proxy.Map

	// OnProxyChange, when set, receives replacement route tables built
	// after watched files change
	OnProxyChange func(proxy.Map)
}

// BuildContext describes a production build
type BuildContext struct {
	// OutDir is the build output directory
	OutDir string

	// Platform is an explicit platform override; empty means detect
	Platform string

	// DryRun renders artifacts to Output instead of writing them
	DryRun bool
	Output io.Writer

	// Artifacts collects what plugins generated
	Artifacts []Artifact
}

// Artifact is one generated deployment file
type Artifact struct {
	Plugin   string            `json:"plugin"`
	Platform platform.Platform `json:"-"`
	Path     string            `json:"path"`
	Content  []byte            `json:"-"`
	Written  bool              `json:"written"`
}

// PluginHealth represents the health status of a plugin
type PluginHealth struct {
	// Status of the plugin
	Status HealthStatus `json:"status"`

	// Last check timestamp
	LastCheck time.Time `json:"last_check"`

	// Error message if unhealthy
	Error string `json:"error,omitempty"`

	// Additional health metrics
	Metrics map[string]interface{} `json:"metrics,omitempty"`
}

// HealthStatus represents the health status values
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusDisabled  HealthStatus = "disabled"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// FileChangeEvent represents a file system change event
type FileChangeEvent struct {
	// Path of the changed file
	Path string `json:"path"`

	// Type of change
	Type FileChangeType `json:"type"`

	// Timestamp of the change
	Timestamp time.Time `json:"timestamp"`
}

// FileChangeType represents the type of file change
type FileChangeType string

const (
	FileChangeTypeCreate FileChangeType = "create"
	FileChangeTypeModify FileChangeType = "modify"
	FileChangeTypeDelete FileChangeType = "delete"
	FileChangeTypeRename FileChangeType = "rename"
)

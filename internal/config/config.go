// Package config provides configuration management for redirector using
// Viper for loading from files, environment variables, and command-line flags.
//
// The configuration system supports a YAML file (.redirector.yml),
// environment variable overrides with the REDIRECTOR_ prefix, and validation.
// It covers the template location, build output, deploy platform selection,
// the development server, and logging.
package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultTemplate       = "redirects.template"
	DefaultRoot           = "."
	DefaultOutDir         = "dist"
	DefaultDeployPlatform = "netlify"
	DefaultHost           = "localhost"
	DefaultPort           = 8080
	DefaultStatic         = "public"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
	DefaultLogColor       = "auto"
)

type Config struct {
	// Template is the redirects template, relative to Root.
	Template string `mapstructure:"template" yaml:"template"`
	// Root is the project root holding the template and .env files.
	Root   string `mapstructure:"root" yaml:"root"`
	OutDir string `mapstructure:"out_dir" yaml:"out_dir"`
	// Mode selects .env.<mode> files.
	Mode string `mapstructure:"mode" yaml:"mode"`
	// DeployPlatform is used when nothing in the environment names a platform.
	DeployPlatform string `mapstructure:"deploy_platform" yaml:"deploy_platform"`
	// Platform is an explicit override that beats the environment.
	Platform string `mapstructure:"platform" yaml:"platform"`

	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// Upstream receives requests no route matches, typically the frontend
	// dev server. When empty, Static is served instead.
	Upstream  string          `mapstructure:"upstream" yaml:"upstream"`
	Static    string          `mapstructure:"static" yaml:"static"`
	Watch     bool            `mapstructure:"watch" yaml:"watch"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" yaml:"rps"`
	Burst int     `mapstructure:"burst" yaml:"burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Color  string `mapstructure:"color" yaml:"color"`
}

// SetDefaults registers default values on the global viper instance.
func SetDefaults() {
	viper.SetDefault("template", DefaultTemplate)
	viper.SetDefault("root", DefaultRoot)
	viper.SetDefault("out_dir", DefaultOutDir)
	viper.SetDefault("deploy_platform", DefaultDeployPlatform)
	viper.SetDefault("server.host", DefaultHost)
	viper.SetDefault("server.port", DefaultPort)
	viper.SetDefault("server.static", DefaultStatic)
	viper.SetDefault("server.watch", true)
	viper.SetDefault("log.level", DefaultLogLevel)
	viper.SetDefault("log.format", DefaultLogFormat)
	viper.SetDefault("log.color", DefaultLogColor)
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Apply defaults for anything viper had no default for
	if config.Template == "" {
		config.Template = DefaultTemplate
	}
	if config.Root == "" {
		config.Root = DefaultRoot
	}
	if config.OutDir == "" {
		config.OutDir = DefaultOutDir
	}
	// An explicitly empty deploy_platform disables the fallback
	if !viper.IsSet("deploy_platform") {
		config.DeployPlatform = DefaultDeployPlatform
	}
	if config.Server.Host == "" {
		config.Server.Host = DefaultHost
	}
	if !viper.IsSet("server.port") {
		config.Server.Port = DefaultPort
	}
	if config.Server.Static == "" {
		config.Server.Static = DefaultStatic
	}
	if !viper.IsSet("server.watch") {
		config.Server.Watch = true
	}
	if config.Log.Level == "" {
		config.Log.Level = DefaultLogLevel
	}
	if config.Log.Format == "" {
		config.Log.Format = DefaultLogFormat
	}
	if config.Log.Color == "" {
		config.Log.Color = DefaultLogColor
	}

	// Validate configuration values
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// TemplatePath returns the template location resolved against Root.
func (c *Config) TemplatePath() string {
	return c.resolve(c.Template)
}

// OutputDir returns the build output directory resolved against Root.
func (c *Config) OutputDir() string {
	return c.resolve(c.OutDir)
}

// StaticDir returns the dev server static directory resolved against Root.
func (c *Config) StaticDir() string {
	return c.resolve(c.Server.Static)
}

// Address returns the dev server listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

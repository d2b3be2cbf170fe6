//go:build property

package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func validBase() Config {
	return Config{
		Template:       DefaultTemplate,
		Root:           DefaultRoot,
		OutDir:         DefaultOutDir,
		DeployPlatform: DefaultDeployPlatform,
		Server:         ServerConfig{Host: DefaultHost, Port: DefaultPort},
		Log:            LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat, Color: DefaultLogColor},
	}
}

func cleanSlash(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

func TestConfigurationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("ports are accepted exactly within 0-65535", prop.ForAll(
		func(port int) bool {
			cfg := validBase()
			cfg.Server.Port = port
			err := validateConfig(&cfg)
			return (err == nil) == (port >= 0 && port <= 65535)
		},
		gen.IntRange(-1000, 70000),
	))

	properties.Property("paths containing a parent segment are rejected", prop.ForAll(
		func(prefix, suffix []string) bool {
			parts := append(append(append([]string{}, prefix...), ".."), suffix...)
			cfg := validBase()
			cfg.OutDir = strings.Join(parts, "/")
			// filepath.Clean may fold a leading "a/.." away
			if !strings.Contains(cleanSlash(cfg.OutDir), "..") {
				return true
			}
			return validateConfig(&cfg) != nil
		},
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("simple relative paths are accepted", prop.ForAll(
		func(parts []string) bool {
			if len(parts) == 0 {
				return true
			}
			cfg := validBase()
			cfg.Template = strings.Join(parts, "/") + ".template"
			return validateConfig(&cfg) == nil
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}

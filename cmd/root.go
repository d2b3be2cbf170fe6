package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/redirector/internal/config"
	"github.com/conneroisu/redirector/internal/env"
	rerrors "github.com/conneroisu/redirector/internal/errors"
	"github.com/conneroisu/redirector/internal/logging"
	"github.com/conneroisu/redirector/internal/plugins"
	"github.com/conneroisu/redirector/internal/plugins/builtin"
)

// ConfigFileEnv names a config file to use instead of .redirector.yml.
const ConfigFileEnv = "REDIRECTOR_CONFIG_FILE"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "redirector",
	Short: "Turn a redirects template into dev proxy routes and deploy redirect files",
	Long: `Redirector reads a redirects template (one "<route> <destination>" per line,
with {{VAR}} placeholders filled from .env files and the environment) and turns
it into:

  • a development reverse proxy serving those routes
  • a production redirect file for Netlify (_redirects), Vercel (vercel.json)
    or Nginx (nginx-redirects.conf)

Quick Start:
  redirector serve                Start the development proxy
  redirector build                Write the redirect file for the detected platform
  redirector routes               Show the development route table
  redirector check                Explain how every template line is handled

Command Aliases (for faster typing):
  serve (s), build (b), routes (l)`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .redirector.yml, can also use "+ConfigFileEnv+" env var)")
	flags.String("root", config.DefaultRoot, "project root holding the template and .env files")
	flags.StringP("template", "t", config.DefaultTemplate, "redirects template, relative to the root")
	flags.String("mode", "", "mode selecting .env.<mode> files")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("log-format", config.DefaultLogFormat, "log format (console, text, json)")
	flags.String("color", config.DefaultLogColor, "colour output (auto, always, never)")

	_ = viper.BindPFlag("root", flags.Lookup("root"))
	_ = viper.BindPFlag("template", flags.Lookup("template"))
	_ = viper.BindPFlag("mode", flags.Lookup("mode"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("log.color", flags.Lookup("color"))
}

// initConfig selects the config file: --config, then REDIRECTOR_CONFIG_FILE,
// then .redirector.yml in the working directory. A missing file is not an
// error; defaults and the environment still apply.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(ConfigFileEnv); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".redirector")
	}

	viper.SetEnvPrefix("REDIRECTOR")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads and validates configuration, wrapping failures with
// suggestions.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		path := viper.ConfigFileUsed()
		if path == "" {
			path = ".redirector.yml"
		}
		return nil, rerrors.NewEnhancedError("Failed to load configuration", err, rerrors.InvalidConfig(path))
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) logging.Logger {
	logCfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(cfg.Log.Level); err == nil {
		logCfg.Level = level
	}
	if color, err := logging.ParseColorMode(cfg.Log.Color); err == nil {
		logCfg.Color = color
	}
	logCfg.Format = cfg.Log.Format
	return logging.NewLogger(logCfg)
}

// loadEnv builds the placeholder snapshot from the .env files under the
// project root and the process environment.
func loadEnv(cfg *config.Config) (env.Snapshot, error) {
	snap, err := env.Load(env.LoadOptions{
		Root:    cfg.Root,
		Mode:    cfg.Mode,
		Environ: os.Environ(),
	})
	if err != nil {
		return env.Snapshot{}, rerrors.NewConfigError(rerrors.CodeEnvLoad, "loading .env files", err)
	}
	return snap, nil
}

// session is the state shared by commands that drive the redirects plugin.
type session struct {
	cfg       *config.Config
	logger    logging.Logger
	snap      env.Snapshot
	manager   *plugins.PluginManager
	redirects *builtin.RedirectsPlugin
}

func newSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	snap, err := loadEnv(cfg)
	if err != nil {
		return nil, err
	}

	rp := builtin.NewRedirectsPlugin(builtin.RedirectsOptions{
		TemplateFile:   cfg.Template,
		DeployPlatform: cfg.DeployPlatform,
	})
	pm := plugins.NewPluginManager()
	err = pm.RegisterPlugin(ctx, rp, plugins.PluginConfig{
		Enabled: true,
		Root:    cfg.Root,
		Mode:    cfg.Mode,
		Env:     snap,
		Environ: os.Environ(),
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, snap: snap, manager: pm, redirects: rp}, nil
}

func (s *session) close(ctx context.Context) {
	if err := s.manager.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, err, "Plugin shutdown failed")
	}
}

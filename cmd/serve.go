package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/redirector/internal/config"
	"github.com/conneroisu/redirector/internal/plugins"
	"github.com/conneroisu/redirector/internal/proxy"
	"github.com/conneroisu/redirector/internal/server"
	"github.com/conneroisu/redirector/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the development proxy",
	Long: `Start a development server that proxies the routes from the redirects
template. Requests no route matches go to --upstream (your frontend dev
server) or, without one, to files under --static with index.html as the
SPA fallback.

Routes are rebuilt when the template or a .env file changes.

Examples:
  redirector serve                                   # Serve public/ on localhost:8080
  redirector serve --upstream http://localhost:5173  # Front a Vite dev server
  redirector serve --mode staging --port 3000        # Use .env.staging values`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", config.DefaultPort, "port to serve on")
	serveCmd.Flags().String("host", config.DefaultHost, "host to bind to")
	serveCmd.Flags().StringP("upstream", "u", "", "dev server receiving unmatched requests")
	serveCmd.Flags().String("static", config.DefaultStatic, "directory served when there is no upstream")
	serveCmd.Flags().Bool("watch", true, "rebuild routes when the template or .env files change")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.upstream", serveCmd.Flags().Lookup("upstream"))
	_ = viper.BindPFlag("server.static", serveCmd.Flags().Lookup("static"))
	_ = viper.BindPFlag("server.watch", serveCmd.Flags().Lookup("watch"))
}

func runServe(cmd *cobra.Command, args []string) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(context.Background())

	serverCfg := &plugins.ServerConfig{}
	if err := s.manager.ConfigureServer(ctx, serverCfg); err != nil {
		return err
	}

	srv, err := server.New(serverCfg.Proxy, server.Options{
		Addr:     s.cfg.Address(),
		Upstream: s.cfg.Server.Upstream,
		Static:   s.cfg.StaticDir(),
		RateLimit: proxy.RateLimit{
			RequestsPerSecond: s.cfg.Server.RateLimit.RPS,
			Burst:             s.cfg.Server.RateLimit.Burst,
		},
		Env:            s.snap,
		Logger:         s.logger,
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*", s.cfg.Server.Host + ":*"},
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	serverCfg.OnProxyChange = srv.SetRoutes

	printRoutes(cmd.OutOrStdout(), serverCfg.Proxy)

	if s.cfg.Server.Watch && s.redirects.Enabled() {
		fw, err := startWatcher(ctx, s)
		if err != nil {
			s.logger.Warn(ctx, err, "File watching disabled")
		} else {
			defer fw.Stop()
		}
	}

	return srv.ListenAndServe(ctx)
}

func printRoutes(w io.Writer, m proxy.Map) {
	if len(m) == 0 {
		fmt.Fprintln(w, "No development routes.")
		return
	}
	_ = writeRoutesTable(w, server.ListRoutes(m))
	fmt.Fprintln(w)
}

// startWatcher watches the project root and the template's directory and
// forwards matching changes to the plugins.
func startWatcher(ctx context.Context, s *session) (*watcher.FileWatcher, error) {
	fw, err := watcher.NewFileWatcher(watcher.DefaultDebounce, s.logger)
	if err != nil {
		return nil, err
	}

	dirs := []string{s.cfg.Root}
	if dir := filepath.Dir(s.redirects.TemplatePath()); filepath.Clean(dir) != filepath.Clean(s.cfg.Root) {
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		if err := fw.AddPath(dir); err != nil {
			_ = fw.Stop()
			return nil, err
		}
	}

	fw.AddFilter(watcher.PatternFilter(s.manager.WatchPatterns()...))
	fw.AddFilter(watcher.NoEditorTempFilter)
	fw.AddFilter(watcher.NoGitFilter)
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		var errs []error
		for _, ev := range events {
			s.logger.Debug(ctx, "File changed", "path", ev.Path, "type", ev.Type.String())
			if err := s.manager.HandleFileChange(ctx, toPluginEvent(ev)); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return nil, err
	}
	return fw, nil
}

func toPluginEvent(ev watcher.ChangeEvent) plugins.FileChangeEvent {
	var typ plugins.FileChangeType
	switch ev.Type {
	case watcher.EventTypeCreated:
		typ = plugins.FileChangeTypeCreate
	case watcher.EventTypeDeleted:
		typ = plugins.FileChangeTypeDelete
	case watcher.EventTypeRenamed:
		typ = plugins.FileChangeTypeRename
	default:
		typ = plugins.FileChangeTypeModify
	}
	ts := ev.ModTime
	if ts.IsZero() {
		ts = time.Now()
	}
	return plugins.FileChangeEvent{Path: ev.Path, Type: typ, Timestamp: ts}
}

package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/redirector/internal/config"
	rerrors "github.com/conneroisu/redirector/internal/errors"
	"github.com/conneroisu/redirector/internal/platform"
	"github.com/conneroisu/redirector/internal/plugins"
)

var (
	buildPlatform platformValue
	buildDryRun   bool
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Write the production redirect file for the deploy platform",
	Long: `Resolve the redirects template against .env files and the environment and
write the redirect file for the deploy platform into the output directory.

The platform is, in order: --platform, DEPLOY_PLATFORM, VERCEL=1 (vercel),
NETLIFY=true (netlify), then deploy_platform from the configuration
(default netlify).

Examples:
  redirector build                      # Detect the platform, write to dist/
  redirector build --platform vercel    # Write dist/vercel.json
  redirector build --out-dir public     # Write into public/
  redirector build --dry-run            # Print the file instead of writing it`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().VarP(&buildPlatform, "platform", "p", "deploy platform ("+joinedPlatforms()+")")
	buildCmd.Flags().StringP("out-dir", "o", config.DefaultOutDir, "build output directory, relative to the root")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "print the redirect file instead of writing it")

	_ = viper.BindPFlag("platform", buildCmd.Flags().Lookup("platform"))
	_ = viper.BindPFlag("out_dir", buildCmd.Flags().Lookup("out-dir"))
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	build := &plugins.BuildContext{
		OutDir:   s.cfg.OutputDir(),
		Platform: s.cfg.Platform,
		DryRun:   buildDryRun,
		Output:   cmd.OutOrStdout(),
	}

	if err := s.manager.BuildStart(ctx, build); err != nil {
		if rerrors.IsFatal(err) {
			path := build.OutDir
			if p := platform.Resolve(s.cfg.Platform, s.snap, s.cfg.DeployPlatform); p != platform.Unknown {
				path = filepath.Join(build.OutDir, p.FileName())
			}
			return rerrors.NewEnhancedError("Build failed", err, rerrors.ArtifactWriteFailed(path, err))
		}
		s.logger.Warn(ctx, err, "Redirects skipped")
	}
	return nil
}

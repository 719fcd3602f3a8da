// Package cmd provides the lyricsearch CLI commands.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/logger"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	dataDir    string
	logLevel   string

	cfg *config.Config
}

// NewRootCmd creates the root command for the lyricsearch CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "lyricsearch",
		Short: "Term-weighted search over song lyrics",
		Long: `lyricsearch builds a TF-IDF index over a lyrics corpus and ranks songs
by cosine similarity to a free-text query.

Examples:
  lyricsearch build --csv data/lyrics.csv
  lyricsearch search "I love you"
  lyricsearch search --mode tf --limit 5 hate you
  lyricsearch stats`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.dataDir != "" {
				cfg.Indexer.DataDir = opts.dataDir
			}
			level := cfg.Logging.Level
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			// stdout is reserved for results
			logger.SetupWithWriter(cmd.ErrOrStderr(), level, "text")
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config file (defaults plus LS_* env when empty)")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Override indexer.dataDir")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(newBuildCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	return cmd
}

// Execute runs the root command, cancelling it on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

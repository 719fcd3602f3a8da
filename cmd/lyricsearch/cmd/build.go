package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/config"
)

func newBuildCmd(root *rootOptions) *cobra.Command {
	var csvPath string
	var noCompress bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the index and write its artifacts",
		Long: `Load the corpus, drop rows with missing fields, compute the TF, DF and
TF-IDF tables, and write them to the data directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if csvPath != "" {
				cfg.Corpus.Source = config.SourceCSV
				cfg.Corpus.CSVPath = csvPath
			}
			if noCompress {
				cfg.Indexer.Compress = false
			}
			return runBuild(cmd.Context(), cmd, cfg)
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "Read the corpus from this CSV file")
	cmd.Flags().BoolVar(&noCompress, "no-compress", false, "Write artifacts without zstd compression")
	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	src, closeSrc, err := corpus.OpenSource(ctx, cfg.Corpus, cfg.Postgres)
	if err != nil {
		return err
	}
	defer closeSrc()

	engine, err := indexer.NewEngine(cfg.Indexer, nil)
	if err != nil {
		return err
	}
	artifacts, err := engine.Build(ctx, src)
	if err != nil {
		return err
	}
	if err := engine.Save(artifacts); err != nil {
		return err
	}

	s := artifacts.Summary()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Corpus size: %d (skipped %d malformed, %d duplicate)\n",
		s.Documents, artifacts.Stats.Malformed, artifacts.Stats.Duplicate)
	fmt.Fprintf(out, "Unique words: %d\n", s.UniqueWords)
	fmt.Fprintf(out, "Artifacts written to %s (generation %s)\n", cfg.Indexer.DataDir, s.Generation)
	return nil
}

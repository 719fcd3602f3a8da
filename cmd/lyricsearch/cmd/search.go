package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/config"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	mode   string
	scheme string
	limit  int
	format string // "text", "json"
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank songs by similarity to a query",
		Long: `Rank every indexed song by cosine similarity to the query and print
the best matches.

Examples:
  lyricsearch search "I love you"
  lyricsearch search --mode tf hate you
  lyricsearch search -n 3 --format json "baby oh baby"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, root.cfg, strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Scoring mode: tf, tfidf (default from config)")
	cmd.Flags().StringVar(&opts.scheme, "scheme", "", "Weighting scheme: tfidf, inverse_df, raw (default from config)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Number of results (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, query string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q", opts.format)
	}
	modeName := cfg.Search.DefaultMode
	if opts.mode != "" {
		modeName = opts.mode
	}
	mode, err := ranker.ParseMode(modeName)
	if err != nil {
		return err
	}
	if opts.scheme != "" {
		cfg.Search.Scheme = opts.scheme
	}
	limit := cfg.Search.DefaultLimit
	if opts.limit > 0 {
		limit = opts.limit
	}
	cfg.Search.MaxResults = max(cfg.Search.MaxResults, limit)

	engine, err := indexer.NewEngine(cfg.Indexer, nil)
	if err != nil {
		return err
	}
	artifacts, err := engine.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w (run 'lyricsearch build' first)", err)
	}
	exec, err := executor.Open(ctx, artifacts, cfg.Search, nil)
	if err != nil {
		return err
	}
	result, err := exec.Search(ctx, executor.Request{Query: query, Mode: mode, Limit: limit})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	for _, hit := range result.Hits {
		doc, err := exec.Document(hit.DocID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Position #%d, score: %g\n", hit.Position, hit.Score)
		fmt.Fprintln(out, doc)
	}
	if result.Matches == 0 {
		fmt.Fprintln(out, "(no song shares a word with the query)")
	}
	return nil
}

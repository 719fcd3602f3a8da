package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/segment"
)

func newStatsCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show corpus and vocabulary size of the built index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			engine, err := indexer.NewEngine(cfg.Indexer, nil)
			if err != nil {
				return err
			}
			artifacts, err := engine.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("%w (run 'lyricsearch build' first)", err)
			}
			s := artifacts.Summary()

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(s)
			}
			fmt.Fprintf(out, "Data directory: %s\n", cfg.Indexer.DataDir)
			fmt.Fprintf(out, "Generation:     %s\n", s.Generation)
			fmt.Fprintf(out, "Documents:      %d\n", s.Documents)
			fmt.Fprintf(out, "Unique words:   %d\n", s.UniqueWords)
			fmt.Fprintf(out, "Postings:       %d\n", s.Postings)
			for _, kind := range segment.Kinds {
				h, err := segment.Stat(cfg.Indexer.DataDir, kind)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %-10s entries=%-8d bytes=%-10d zstd=%t\n",
					kind.FileName(), h.Entries, h.PayloadSize, h.Compressed())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

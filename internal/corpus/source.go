package corpus

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/postgres"
)

// OpenSource returns the Source selected by cc and a function releasing
// whatever connection it holds.
func OpenSource(ctx context.Context, cc config.CorpusConfig, pc config.PostgresConfig) (Source, func() error, error) {
	switch cc.Source {
	case config.SourceCSV:
		return CSVSource{Path: cc.CSVPath}, func() error { return nil }, nil
	case config.SourcePostgres:
		client, err := postgres.New(ctx, pc)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to corpus database: %w", err)
		}
		return PostgresSource{Client: client, Table: cc.Table}, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown corpus source %q", cc.Source)
	}
}

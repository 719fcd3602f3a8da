package corpus

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/postgres"
)

// PostgresSource reads records from a table with the columns
// index, song, year, artist, genre, lyrics.
type PostgresSource struct {
	Client *postgres.Client
	Table  string
}

func (s PostgresSource) Load(ctx context.Context) ([]Record, error) {
	query := fmt.Sprintf(
		`SELECT "index", song, year::text, artist, genre, lyrics FROM %s ORDER BY "index"`,
		pq.QuoteIdentifier(s.Table),
	)
	rows, err := s.Client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.Table, err)
	}
	defer rows.Close()

	records := make([]Record, 0, 1024)
	for rows.Next() {
		var (
			index                             int
			song, year, artist, genre, lyrics sql.NullString
		)
		if err := rows.Scan(&index, &song, &year, &artist, &genre, &lyrics); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", s.Table, err)
		}
		records = append(records, Record{
			Index:  index,
			Song:   nullable(song),
			Year:   nullable(year),
			Artist: nullable(artist),
			Genre:  nullable(genre),
			Lyrics: nullable(lyrics),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", s.Table, err)
	}
	return records, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

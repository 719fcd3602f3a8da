package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Column order of the lyrics export: index,song,year,artist,genre,lyrics.
const (
	colIndex = iota
	colSong
	colYear
	colArtist
	colGenre
	colLyrics
	numColumns
)

// CSVSource reads records from a CSV export whose first row is a header.
type CSVSource struct {
	Path string
}

func (s CSVSource) Load(ctx context.Context) ([]Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(ctx, f)
}

// ReadCSV parses records from r. Empty cells and short rows become missing
// fields; rows whose index is not an integer cannot be identified and are
// dropped before the quality gate.
func ReadCSV(ctx context.Context, r io.Reader) ([]Record, error) {
	logger := slog.Default().With("component", "corpus-csv")
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	records := make([]Record, 0, 1024)
	unidentified := 0
	for n := 1; ; n++ {
		if n%10000 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// csv.ParseError carries the physical line; n counts records.
			return nil, fmt.Errorf("reading csv record %d: %w", n, err)
		}
		if len(row) == 0 {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(row[colIndex]))
		if err != nil {
			unidentified++
			line, _ := reader.FieldPos(colIndex)
			logger.Debug("dropping row without integer index", "line", line, "index", row[colIndex])
			continue
		}
		records = append(records, Record{
			Index:  index,
			Song:   cell(row, colSong),
			Year:   cell(row, colYear),
			Artist: cell(row, colArtist),
			Genre:  cell(row, colGenre),
			Lyrics: cell(row, colLyrics),
		})
	}
	if unidentified > 0 {
		logger.Warn("rows dropped for unparseable index", "count", unidentified)
	}
	return records, nil
}

// cell copies the value out of row (ReuseRecord recycles the backing array)
// and maps empty cells to nil.
func cell(row []string, col int) *string {
	if col >= len(row) || col >= numColumns {
		return nil
	}
	v := row[col]
	if v == "" {
		return nil
	}
	v = strings.Clone(v)
	return &v
}

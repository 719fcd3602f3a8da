package corpus

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
)

func str(s string) *string { return &s }

func fullRecord(index int, lyrics string) Record {
	return Record{
		Index:  index,
		Song:   str("song"),
		Year:   str("2009"),
		Artist: str("artist"),
		Genre:  str("Pop"),
		Lyrics: str(lyrics),
	}
}

func TestValidate(t *testing.T) {
	doc, err := Validate(fullRecord(3, "love you"))
	require.NoError(t, err)
	assert.Equal(t, Document{ID: 3, Title: "song", Year: "2009", Artist: "artist", Genre: "Pop", Lyrics: "love you"}, doc)
}

func TestValidateKeepsYearAsRead(t *testing.T) {
	cases := map[string]string{
		"2007.0":       "2007",
		" 1999 ":       "1999",
		"circa 1970":   "circa 1970",
		"two thousand": "two thousand",
		"1987.5":       "1987.5",
	}
	for in, want := range cases {
		r := fullRecord(4, "x")
		r.Year = str(in)
		doc, err := Validate(r)
		require.NoError(t, err, in)
		assert.Equal(t, want, doc.Year, in)
	}
}

func TestFilterKeepsUnusualYears(t *testing.T) {
	circa := fullRecord(2, "hate you")
	circa.Year = str("circa 1970")

	c, stats := Filter([]Record{fullRecord(1, "love you"), circa})

	assert.Equal(t, []int{1, 2}, c.IDs())
	assert.Equal(t, 2, stats.Kept)
	assert.Zero(t, stats.Malformed)
}

func TestValidateMissingFields(t *testing.T) {
	mutations := map[string]func(*Record){
		"song":   func(r *Record) { r.Song = nil },
		"year":   func(r *Record) { r.Year = nil },
		"artist": func(r *Record) { r.Artist = nil },
		"genre":  func(r *Record) { r.Genre = nil },
		"lyrics": func(r *Record) { r.Lyrics = nil },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			r := fullRecord(1, "x")
			mutate(&r)
			_, err := Validate(r)
			assert.True(t, errors.Is(err, apperrors.ErrMalformedDocument))
		})
	}
}

func TestFilterSkipsNullYear(t *testing.T) {
	nullYear := fullRecord(2, "hate you")
	nullYear.Year = nil
	records := []Record{fullRecord(1, "love love you"), nullYear, fullRecord(3, "you")}

	c, stats := Filter(records)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []int{1, 3}, c.IDs())
	_, ok := c.Get(2)
	assert.False(t, ok)
	assert.Equal(t, FilterStats{Read: 3, Kept: 2, Malformed: 1}, stats)
}

func TestFilterSkipsDuplicateIndex(t *testing.T) {
	c, stats := Filter([]Record{fullRecord(1, "a"), fullRecord(1, "b")})
	assert.Equal(t, 1, c.Len())
	doc, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a", doc.Lyrics)
	assert.Equal(t, 1, stats.Duplicate)
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]Document{{ID: 1}, {ID: 1}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

const sampleCSV = `index,song,year,artist,genre,lyrics
0,ego-remix,2009,beyonce-knowles,Pop,"Oh baby, how you doing?
You know I'm gonna cut right to the chase"
1,then-tell-me,,beyonce-knowles,Pop,"playin' everything so easy"
2,honesty,2009,beyonce-knowles,Pop,
x,bad-index,2009,someone,Rock,words
3,short-row,2009
4,broken,2007.0,eminem,Hip-Hop,I love you
`

func TestReadCSV(t *testing.T) {
	records, err := ReadCSV(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, 0, records[0].Index)
	assert.Contains(t, *records[0].Lyrics, "cut right to the chase")
	assert.Nil(t, records[1].Year)
	assert.Nil(t, records[2].Lyrics)
	assert.Nil(t, records[3].Artist)
	assert.Equal(t, "I love you", *records[4].Lyrics)

	c, stats := Filter(records)
	assert.Equal(t, []int{0, 4}, c.IDs())
	assert.Equal(t, 3, stats.Malformed)
}

func TestCSVSourceLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lyrics.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	c, stats, err := Load(context.Background(), CSVSource{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 5, stats.Read)

	_, _, err = Load(context.Background(), CSVSource{Path: filepath.Join(t.TempDir(), "missing.csv")})
	assert.Error(t, err)
}

func TestReadCSVReportsPhysicalLine(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	_, err := ReadCSV(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)

	// the multi-line lyrics of row 0 push the bad-index row to line 6
	assert.Contains(t, buf.String(), "dropping row without integer index")
	assert.Contains(t, buf.String(), "line=6")
}

func TestReadCSVEmpty(t *testing.T) {
	records, err := ReadCSV(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

// Package corpus turns raw song rows into the immutable Document set the
// index is built from. Rows with any missing field are dropped here, before
// they can reach frequency accumulation.
package corpus

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
)

// Record is one raw row from a tabular source. A nil field means the source
// had no value for it.
type Record struct {
	Index  int
	Song   *string
	Year   *string
	Artist *string
	Genre  *string
	Lyrics *string
}

// Document is an indexed song. Only ID and Lyrics feed the index; the rest is
// carried for display.
type Document struct {
	ID     int    `json:"index"`
	Title  string `json:"title"`
	Year   string `json:"year"`
	Artist string `json:"artist"`
	Genre  string `json:"genre"`
	Lyrics string `json:"lyrics"`
}

func (d Document) String() string {
	return fmt.Sprintf("{index: %d, title: %q, year: %s, artist: %q, genre: %q}",
		d.ID, d.Title, d.Year, d.Artist, d.Genre)
}

// Validate converts r into a Document. It fails with ErrMalformedDocument if
// any field is missing. Field values are otherwise kept as read.
func Validate(r Record) (Document, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"song", r.Song},
		{"year", r.Year},
		{"artist", r.Artist},
		{"genre", r.Genre},
		{"lyrics", r.Lyrics},
	}
	for _, f := range fields {
		if f.value == nil {
			return Document{}, fmt.Errorf("row %d: missing %s: %w", r.Index, f.name, apperrors.ErrMalformedDocument)
		}
	}
	return Document{
		ID:     r.Index,
		Title:  *r.Song,
		Year:   displayYear(*r.Year),
		Artist: *r.Artist,
		Genre:  *r.Genre,
		Lyrics: *r.Lyrics,
	}, nil
}

// displayYear trims s and writes integral floats such as "2009.0" as "2009".
// Any other value is returned unchanged.
func displayYear(s string) string {
	s = strings.TrimSpace(s)
	if _, err := strconv.Atoi(s); err == nil {
		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1e9 {
		return strconv.Itoa(int(f))
	}
	return s
}

package corpus

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
)

// Source yields raw records from some tabular store.
type Source interface {
	Load(ctx context.Context) ([]Record, error)
}

// Corpus is the ordered, immutable set of documents that passed the quality
// gate. Its order is the document enumeration order used everywhere else.
type Corpus struct {
	docs []Document
	byID map[int]int
}

// New builds a Corpus from already-validated documents. Duplicate IDs are an
// error.
func New(docs []Document) (*Corpus, error) {
	c := &Corpus{
		docs: make([]Document, 0, len(docs)),
		byID: make(map[int]int, len(docs)),
	}
	for _, d := range docs {
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("document %d appears twice: %w", d.ID, apperrors.ErrInvalidInput)
		}
		c.byID[d.ID] = len(c.docs)
		c.docs = append(c.docs, d)
	}
	return c, nil
}

// FilterStats reports what the quality gate did.
type FilterStats struct {
	Read      int
	Kept      int
	Malformed int
	Duplicate int
}

// Filter applies the quality gate: rows with a missing field are skipped, as
// are rows repeating an index that was already kept. Neither is an error.
func Filter(records []Record) (*Corpus, FilterStats) {
	logger := slog.Default().With("component", "corpus")
	stats := FilterStats{Read: len(records)}
	c := &Corpus{
		docs: make([]Document, 0, len(records)),
		byID: make(map[int]int, len(records)),
	}
	for _, r := range records {
		doc, err := Validate(r)
		if err != nil {
			stats.Malformed++
			logger.Debug("skipping malformed row", "index", r.Index, "error", err)
			continue
		}
		if _, dup := c.byID[doc.ID]; dup {
			stats.Duplicate++
			logger.Debug("skipping duplicate row", "index", doc.ID)
			continue
		}
		c.byID[doc.ID] = len(c.docs)
		c.docs = append(c.docs, doc)
	}
	stats.Kept = len(c.docs)
	logger.Info("corpus filtered",
		"read", stats.Read,
		"kept", stats.Kept,
		"malformed", stats.Malformed,
		"duplicate", stats.Duplicate,
	)
	return c, stats
}

// Load reads every record from src and applies Filter.
func Load(ctx context.Context, src Source) (*Corpus, FilterStats, error) {
	records, err := src.Load(ctx)
	if err != nil {
		return nil, FilterStats{}, fmt.Errorf("loading corpus records: %w", err)
	}
	c, stats := Filter(records)
	return c, stats, nil
}

// Len returns the retained document count N.
func (c *Corpus) Len() int {
	return len(c.docs)
}

// Documents returns the documents in enumeration order. Callers must not
// modify the returned slice.
func (c *Corpus) Documents() []Document {
	return c.docs
}

// IDs returns document IDs in enumeration order.
func (c *Corpus) IDs() []int {
	ids := make([]int, len(c.docs))
	for i, d := range c.docs {
		ids[i] = d.ID
	}
	return ids
}

// Get returns the document with the given ID.
func (c *Corpus) Get(id int) (Document, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Document{}, false
	}
	return c.docs[i], true
}

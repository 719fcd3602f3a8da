// Package executor answers search requests: it ranks the whole index,
// trims the list to the requested page, and attaches song metadata.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/weighting"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/vsm"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/metrics"
)

// Request is one search. Limit must be between 1 and the executor's maximum.
type Request struct {
	Query string
	Mode  ranker.Mode
	Limit int
}

// Hit is a ranked song.
type Hit struct {
	Position int     `json:"position"`
	DocID    int     `json:"doc_id"`
	Score    float64 `json:"score"`
	Title    string  `json:"title"`
	Year     string  `json:"year"`
	Artist   string  `json:"artist"`
	Genre    string  `json:"genre"`
}

// SearchResult is the answer to a Request. Matches counts documents with a
// non-zero score; Hits may still contain zero-score documents when fewer
// than Limit documents match, in enumeration order.
type SearchResult struct {
	Mode       ranker.Mode `json:"mode"`
	TotalDocs  int         `json:"total_docs"`
	Matches    int         `json:"matches"`
	Hits       []Hit       `json:"hits"`
	Generation string      `json:"generation"`
}

// Executor is safe for concurrent use.
type Executor struct {
	ranker     *ranker.Ranker
	corpus     *corpus.Corpus
	generation string
	maxResults int
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates an Executor. m may be nil.
func New(r *ranker.Ranker, c *corpus.Corpus, generation string, maxResults int, m *metrics.Metrics) *Executor {
	return &Executor{
		ranker:     r,
		corpus:     c,
		generation: generation,
		maxResults: maxResults,
		metrics:    m,
		logger:     slog.Default().With("component", "query-executor"),
	}
}

// Open builds the vector index over a and returns an Executor for it.
func Open(ctx context.Context, a *indexer.Artifacts, cfg config.SearchConfig, m *metrics.Metrics) (*Executor, error) {
	scheme, err := weighting.ParseScheme(cfg.Scheme)
	if err != nil {
		return nil, err
	}
	w, err := weighting.NewWeigher(scheme, a.Tables.DF, a.Tables.N)
	if err != nil {
		return nil, fmt.Errorf("creating weigher: %w", err)
	}
	idx, err := vsm.New(ctx, a.Corpus.IDs(), a.Tables.TF, w, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("building vector index: %w", err)
	}
	return New(ranker.New(idx, cfg.Workers), a.Corpus, a.Generation, cfg.MaxResults, m), nil
}

// Search ranks every document against req.Query and returns the top
// req.Limit.
func (e *Executor) Search(ctx context.Context, req Request) (*SearchResult, error) {
	if req.Limit < 1 || req.Limit > e.maxResults {
		return nil, fmt.Errorf("limit %d outside [1, %d]: %w", req.Limit, e.maxResults, apperrors.ErrInvalidInput)
	}
	start := time.Now()
	scored, err := e.ranker.Rank(ctx, req.Query, req.Mode)
	if err != nil {
		e.count(req.Mode, "error")
		return nil, err
	}

	matches := 0
	for _, s := range scored {
		if s.Score > 0 {
			matches++
		}
	}
	n := min(req.Limit, len(scored))
	hits := make([]Hit, 0, n)
	for i, s := range scored[:n] {
		doc, ok := e.corpus.Get(s.DocID)
		if !ok {
			return nil, fmt.Errorf("ranked document %d missing from corpus: %w", s.DocID, apperrors.ErrInternal)
		}
		hits = append(hits, Hit{
			Position: i + 1,
			DocID:    s.DocID,
			Score:    s.Score,
			Title:    doc.Title,
			Year:     doc.Year,
			Artist:   doc.Artist,
			Genre:    doc.Genre,
		})
	}

	if matches == 0 {
		e.count(req.Mode, "zero_match")
	} else {
		e.count(req.Mode, "match")
	}
	if e.metrics != nil {
		e.metrics.SearchMatchesCount.Observe(float64(matches))
	}
	e.logger.Debug("query executed",
		"query", req.Query,
		"mode", req.Mode,
		"matches", matches,
		"returned", len(hits),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return &SearchResult{
		Mode:       req.Mode,
		TotalDocs:  len(scored),
		Matches:    matches,
		Hits:       hits,
		Generation: e.generation,
	}, nil
}

// Document returns the full song record, lyrics included.
func (e *Executor) Document(id int) (corpus.Document, error) {
	doc, ok := e.corpus.Get(id)
	if !ok {
		return corpus.Document{}, fmt.Errorf("document %d: %w", id, apperrors.ErrDocumentNotFound)
	}
	return doc, nil
}

// Generation identifies the artifacts the executor serves.
func (e *Executor) Generation() string {
	return e.generation
}

// MaxResults is the largest accepted Request.Limit.
func (e *Executor) MaxResults() int {
	return e.maxResults
}

// TotalDocs is the number of indexed documents.
func (e *Executor) TotalDocs() int {
	return e.corpus.Len()
}

func (e *Executor) count(mode ranker.Mode, result string) {
	if e.metrics != nil {
		e.metrics.SearchQueriesTotal.WithLabelValues(string(mode), result).Inc()
	}
}

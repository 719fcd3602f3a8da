package ranker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/vsm"
	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
)

// Mode selects how query and document vectors are weighted.
type Mode string

const (
	// ModeTF compares raw term-frequency vectors.
	ModeTF Mode = "tf"
	// ModeTFIDF compares vectors weighted by the index's weigher.
	ModeTFIDF Mode = "tfidf"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTF, ModeTFIDF:
		return Mode(s), nil
	}
	return "", fmt.Errorf("search mode %q: %w", s, apperrors.ErrInvalidInput)
}

type ScoredDoc struct {
	DocID int     `json:"doc_id"`
	Score float64 `json:"score"`
}

// defaultMinPartition keeps small indexes from being split into goroutines
// that each score a handful of documents.
const defaultMinPartition = 2048

type Ranker struct {
	index        *vsm.Index
	workers      int
	minPartition int
	logger       *slog.Logger
}

// New returns a Ranker over idx. workers <= 0 means GOMAXPROCS.
func New(idx *vsm.Index, workers int) *Ranker {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ranker{
		index:        idx,
		workers:      workers,
		minPartition: defaultMinPartition,
		logger:       slog.Default().With("component", "ranker"),
	}
}

// QueryVector places the query's term counts on the index vocabulary.
// Query terms the index has never seen get no coordinate.
func (r *Ranker) QueryVector(query string, mode Mode) vsm.Vector {
	counts := tokenizer.Counts(query)
	vocab := r.index.Vocabulary()
	if mode == ModeTF {
		return vocab.Vectorize(counts, func(_ string, c int) float64 { return float64(c) })
	}
	return vocab.Vectorize(counts, r.index.Weigher().Weight)
}

type ranked struct {
	doc     ScoredDoc
	ordinal int
}

func rankedLess(a, b ranked) bool {
	if a.doc.Score != b.doc.Score {
		return a.doc.Score > b.doc.Score
	}
	return a.ordinal < b.ordinal
}

// Rank scores every indexed document against query and returns all of them,
// highest cosine similarity first, ties in document enumeration order.
func (r *Ranker) Rank(ctx context.Context, query string, mode Mode) ([]ScoredDoc, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	q := r.QueryVector(query, mode)
	n := r.index.Len()

	parts := r.workers
	if n/parts < r.minPartition {
		parts = max(1, n/r.minPartition)
	}
	chunk := max(1, (n+parts-1)/parts)
	runs := make([][]ranked, 0, parts)
	for lo := 0; lo < n; lo += chunk {
		runs = append(runs, make([]ranked, 0, min(chunk, n-lo)))
	}

	g, gctx := errgroup.WithContext(ctx)
	for p := range runs {
		lo := p * chunk
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			run := runs[p]
			for i := lo; i < hi; i++ {
				id, weighted, raw := r.index.At(i)
				d := weighted
				if mode == ModeTF {
					d = raw
				}
				run = append(run, ranked{doc: ScoredDoc{DocID: id, Score: vsm.Cosine(q, d)}, ordinal: i})
			}
			sort.SliceStable(run, func(a, b int) bool { return rankedLess(run[a], run[b]) })
			runs[p] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring documents: %w", err)
	}

	merged := merger.Merge(runs, rankedLess, 0)
	result := make([]ScoredDoc, len(merged))
	for i, m := range merged {
		result[i] = m.doc
	}
	r.logger.Debug("query ranked",
		"query", query,
		"mode", mode,
		"query_terms", q.NonZero(),
		"documents", n,
		"partitions", len(runs),
	)
	return result, nil
}

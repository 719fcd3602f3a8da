// Package weighting turns frequency tables into term weights. Compute builds
// the persisted TF-IDF table; Weigher is the per-term transform applied to
// document and query vectors alike, so both sides of a cosine comparison are
// always weighted the same way.
package weighting

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
)

// Scheme names a weighting transform.
type Scheme string

const (
	// SchemeTFIDF weights a count by ln(N/df). Matches the TF-IDF table.
	SchemeTFIDF Scheme = "tfidf"
	// SchemeInverseDF divides a count by df.
	SchemeInverseDF Scheme = "inverse_df"
	// SchemeRaw leaves counts unweighted.
	SchemeRaw Scheme = "raw"
)

// ParseScheme validates s.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeTFIDF, SchemeInverseDF, SchemeRaw:
		return Scheme(s), nil
	}
	return "", fmt.Errorf("weighting scheme %q: %w", s, apperrors.ErrInvalidInput)
}

// IDF returns ln(n/df). df must be positive.
func IDF(n, df int) float64 {
	return math.Log(float64(n) / float64(df))
}

// Compute builds the TF-IDF table: tf[t][d] * ln(n/df[t]) for every pair
// present in tf. A term with no document frequency means the tables were not
// built from the same corpus, and Compute fails rather than guess a weight.
// Terms are weighted in parallel across workers (<= 0 means GOMAXPROCS).
// An empty tf yields an empty table.
func Compute(ctx context.Context, tf index.TermFrequency, df index.DocumentFrequency, n int, workers int) (index.TFIDF, error) {
	if n < 0 || (n == 0 && len(tf) > 0) {
		return nil, fmt.Errorf("document count %d for %d terms: %w", n, len(tf), apperrors.ErrInvalidInput)
	}
	if len(tf) == 0 {
		return make(index.TFIDF), nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	terms := tf.Terms()
	out := make(index.TFIDF, len(terms))
	var mu sync.Mutex

	chunk := (len(terms) + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(terms); lo += chunk {
		hi := min(lo+chunk, len(terms))
		g.Go(func() error {
			local := make(index.TFIDF, hi-lo)
			for _, term := range terms[lo:hi] {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				d := df.Get(term)
				if d <= 0 {
					return fmt.Errorf("term %q has tf but no df: %w", term, apperrors.ErrVocabularyMismatch)
				}
				idf := IDF(n, d)
				weights := make(map[int]float64, len(tf[term]))
				for docID, count := range tf[term] {
					weights[docID] = float64(count) * idf
				}
				local[term] = weights
			}
			mu.Lock()
			for term, weights := range local {
				out[term] = weights
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Weigher applies one Scheme using a fixed DF table and document count. It
// is immutable and safe for concurrent use.
type Weigher struct {
	scheme Scheme
	df     index.DocumentFrequency
	n      int
	idf    map[string]float64
}

// NewWeigher precomputes per-term factors for scheme.
func NewWeigher(scheme Scheme, df index.DocumentFrequency, n int) (*Weigher, error) {
	if _, err := ParseScheme(string(scheme)); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("document count %d: %w", n, apperrors.ErrInvalidInput)
	}
	w := &Weigher{scheme: scheme, df: df, n: n}
	if scheme == SchemeTFIDF {
		w.idf = make(map[string]float64, len(df))
		for term, d := range df {
			if d <= 0 || d > n {
				return nil, fmt.Errorf("term %q: df=%d with %d documents: %w",
					term, d, n, apperrors.ErrVocabularyMismatch)
			}
			w.idf[term] = IDF(n, d)
		}
	}
	return w, nil
}

// Scheme reports the transform w applies.
func (w *Weigher) Scheme() Scheme {
	return w.scheme
}

// Weight maps a raw count of term to its weight. Terms unknown to the DF
// table have no document support and weigh 0 under every scheme.
func (w *Weigher) Weight(term string, count int) float64 {
	d := w.df.Get(term)
	if d <= 0 || count == 0 {
		return 0
	}
	switch w.scheme {
	case SchemeTFIDF:
		return float64(count) * w.idf[term]
	case SchemeInverseDF:
		return float64(count) / float64(d)
	default:
		return float64(count)
	}
}

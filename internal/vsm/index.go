// Package vsm is the vector space index: one cached vector per document over
// a fixed vocabulary, built once and read concurrently afterwards.
package vsm

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
)

// Index caches, for every document, its weighted vector and its raw
// term-frequency vector. It is immutable after New returns.
type Index struct {
	vocab    *Vocabulary
	weigher  *weighting.Weigher
	ids      []int
	ordinal  map[int]int
	weighted []Vector
	raw      []Vector
}

// New builds the index. ids fixes the document enumeration order; every
// document in tf must be listed in ids. Documents in ids without terms get
// zero vectors. Vectors are built across workers (<= 0 means GOMAXPROCS).
func New(ctx context.Context, ids []int, tf index.TermFrequency, w *weighting.Weigher, workers int) (*Index, error) {
	start := time.Now()
	logger := slog.Default().With("component", "vsm")

	idx := &Index{
		vocab:    NewVocabulary(tf.Terms()),
		weigher:  w,
		ids:      append([]int(nil), ids...),
		ordinal:  make(map[int]int, len(ids)),
		weighted: make([]Vector, len(ids)),
		raw:      make([]Vector, len(ids)),
	}
	for i, id := range idx.ids {
		if _, dup := idx.ordinal[id]; dup {
			return nil, fmt.Errorf("document %d listed twice: %w", id, apperrors.ErrInvalidInput)
		}
		idx.ordinal[id] = i
	}

	rows := tf.ByDocument()
	for docID := range rows {
		if _, ok := idx.ordinal[docID]; !ok {
			return nil, fmt.Errorf("document %d has term frequencies but is not in the corpus: %w",
				docID, apperrors.ErrVocabularyMismatch)
		}
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	chunk := max(1, (len(idx.ids)+workers-1)/workers)
	for lo := 0; lo < len(idx.ids); lo += chunk {
		hi := min(lo+chunk, len(idx.ids))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				row := rows[idx.ids[i]]
				idx.raw[i] = idx.vocab.Vectorize(row, rawCount)
				idx.weighted[i] = idx.vocab.Vectorize(row, w.Weight)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building document vectors: %w", err)
	}

	logger.Info("document vectors cached",
		"documents", len(idx.ids),
		"vocabulary", idx.vocab.Len(),
		"scheme", w.Scheme(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return idx, nil
}

func rawCount(_ string, count int) float64 {
	return float64(count)
}

// DocumentIDs returns IDs in enumeration order.
func (x *Index) DocumentIDs() []int {
	return append([]int(nil), x.ids...)
}

// Len returns the number of indexed documents.
func (x *Index) Len() int {
	return len(x.ids)
}

// Vocabulary returns the coordinate order of every vector in x.
func (x *Index) Vocabulary() *Vocabulary {
	return x.vocab
}

// Weigher returns the transform document vectors were built with.
func (x *Index) Weigher() *weighting.Weigher {
	return x.weigher
}

// VectorFor returns the weighted vector of docID.
func (x *Index) VectorFor(docID int) (Vector, error) {
	i, ok := x.ordinal[docID]
	if !ok {
		return Vector{}, fmt.Errorf("vector for document %d: %w", docID, apperrors.ErrDocumentNotFound)
	}
	return x.weighted[i], nil
}

// RawVectorFor returns the unweighted term-frequency vector of docID.
func (x *Index) RawVectorFor(docID int) (Vector, error) {
	i, ok := x.ordinal[docID]
	if !ok {
		return Vector{}, fmt.Errorf("raw vector for document %d: %w", docID, apperrors.ErrDocumentNotFound)
	}
	return x.raw[i], nil
}

// At returns the ID and both vectors of the i-th document in enumeration
// order. It is the allocation-free path used by scoring loops.
func (x *Index) At(i int) (id int, weighted, raw Vector) {
	return x.ids[i], x.weighted[i], x.raw[i]
}

package index

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/tokenizer"
)

// Tables are the frequency tables of one corpus snapshot. N is the number of
// documents that passed the quality gate, including documents whose lyrics
// produced no terms.
type Tables struct {
	TF TermFrequency
	DF DocumentFrequency
	N  int
}

// UpdateTF tokenizes text and adds every occurrence to tf[term][docID].
func UpdateTF(tf TermFrequency, docID int, text string) TermFrequency {
	addTF(tf, docID, tokenizer.Tokenize(text))
	return tf
}

// UpdateDF tokenizes text and increments df once for each distinct term.
func UpdateDF(df DocumentFrequency, text string) DocumentFrequency {
	addDF(df, tokenizer.Tokenize(text))
	return df
}

func addTF(tf TermFrequency, docID int, terms []string) {
	for _, term := range terms {
		docs, ok := tf[term]
		if !ok {
			docs = make(map[int]int)
			tf[term] = docs
		}
		docs[docID]++
	}
}

func addDF(df DocumentFrequency, terms []string) {
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		df[term]++
	}
}

// Accumulate folds docs into TF and DF tables. With more than one worker the
// documents are split into contiguous partitions, each folded into private
// tables, and the partitions are merged by summation. The result does not
// depend on the worker count. workers <= 0 means GOMAXPROCS.
func Accumulate(ctx context.Context, docs []corpus.Document, workers int) (*Tables, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(docs) {
		workers = len(docs)
	}
	if workers <= 1 {
		t := &Tables{TF: make(TermFrequency), DF: make(DocumentFrequency), N: len(docs)}
		if err := fold(ctx, t, docs); err != nil {
			return nil, err
		}
		return t, nil
	}

	parts := make([]*Tables, workers)
	chunk := (len(docs) + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(docs))
		if lo >= hi {
			parts[w] = &Tables{TF: make(TermFrequency), DF: make(DocumentFrequency)}
			continue
		}
		g.Go(func() error {
			part := &Tables{TF: make(TermFrequency), DF: make(DocumentFrequency), N: hi - lo}
			if err := fold(gctx, part, docs[lo:hi]); err != nil {
				return err
			}
			parts[w] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merge(parts), nil
}

func fold(ctx context.Context, t *Tables, docs []corpus.Document) error {
	for i, doc := range docs {
		if i%1000 == 0 && ctx.Err() != nil {
			return fmt.Errorf("accumulating frequencies: %w", ctx.Err())
		}
		terms := tokenizer.Tokenize(doc.Lyrics)
		addTF(t.TF, doc.ID, terms)
		addDF(t.DF, terms)
	}
	return nil
}

// merge sums partition tables. Document IDs never span partitions, so TF
// rows are inserted rather than added; DF counts are added.
func merge(parts []*Tables) *Tables {
	out := parts[0]
	for _, p := range parts[1:] {
		out.N += p.N
		for term, docs := range p.TF {
			dst, ok := out.TF[term]
			if !ok {
				out.TF[term] = docs
				continue
			}
			for docID, count := range docs {
				dst[docID] += count
			}
		}
		for term, count := range p.DF {
			out.DF[term] += count
		}
	}
	return out
}

// Package index holds the frequency tables the rest of the system is built
// on and the accumulator that folds a corpus into them.
//
// Every lookup is total: asking for a term or document the table has never
// seen returns zero.
package index

import (
	"fmt"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
)

// TermFrequency maps term -> document ID -> occurrences of term in that
// document.
type TermFrequency map[string]map[int]int

// Get returns the occurrences of term in docID, or 0.
func (tf TermFrequency) Get(term string, docID int) int {
	return tf[term][docID]
}

// Terms returns the vocabulary in sorted order.
func (tf TermFrequency) Terms() []string {
	terms := make([]string, 0, len(tf))
	for term := range tf {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// DocumentLengths returns, per document, the total number of term
// occurrences recorded for it.
func (tf TermFrequency) DocumentLengths() map[int]int {
	lengths := make(map[int]int)
	for _, docs := range tf {
		for docID, count := range docs {
			lengths[docID] += count
		}
	}
	return lengths
}

// ByDocument inverts the table into document ID -> term -> count.
func (tf TermFrequency) ByDocument() map[int]map[string]int {
	out := make(map[int]map[string]int)
	for term, docs := range tf {
		for docID, count := range docs {
			row, ok := out[docID]
			if !ok {
				row = make(map[string]int)
				out[docID] = row
			}
			row[term] = count
		}
	}
	return out
}

// DocumentFrequency maps term -> number of documents containing it.
type DocumentFrequency map[string]int

// Get returns the document frequency of term, or 0.
func (df DocumentFrequency) Get(term string) int {
	return df[term]
}

// TFIDF maps term -> document ID -> weight.
type TFIDF map[string]map[int]float64

// Get returns the weight of term in docID, or 0.
func (t TFIDF) Get(term string, docID int) float64 {
	return t[term][docID]
}

// Verify checks the structural invariants linking tf, df and the retained
// document count n. Tables loaded from disk go through this before use; a
// failure means the artifacts were produced by a broken build.
func Verify(tf TermFrequency, df DocumentFrequency, n int) error {
	for term, docs := range tf {
		if len(docs) == 0 {
			return fmt.Errorf("term %q has no documents: %w", term, apperrors.ErrCorruptArtifact)
		}
		d, ok := df[term]
		if !ok || d <= 0 {
			return fmt.Errorf("term %q missing from document frequency: %w", term, apperrors.ErrVocabularyMismatch)
		}
		if d != len(docs) {
			return fmt.Errorf("term %q: df=%d but %d documents in tf: %w",
				term, d, len(docs), apperrors.ErrCorruptArtifact)
		}
		if d > n {
			return fmt.Errorf("term %q: df=%d exceeds document count %d: %w",
				term, d, n, apperrors.ErrCorruptArtifact)
		}
		for docID, count := range docs {
			if count < 1 {
				return fmt.Errorf("term %q doc %d: count %d: %w", term, docID, count, apperrors.ErrCorruptArtifact)
			}
		}
	}
	if len(df) != len(tf) {
		return fmt.Errorf("df has %d terms, tf has %d: %w", len(df), len(tf), apperrors.ErrVocabularyMismatch)
	}
	return nil
}

package vsm

import "sort"

// Vocabulary fixes the coordinate order shared by every document and query
// vector of one Index.
type Vocabulary struct {
	terms []string
	pos   map[string]int
}

// NewVocabulary sorts and deduplicates terms.
func NewVocabulary(terms []string) *Vocabulary {
	sorted := make([]string, len(terms))
	copy(sorted, terms)
	sort.Strings(sorted)
	v := &Vocabulary{
		terms: sorted[:0],
		pos:   make(map[string]int, len(sorted)),
	}
	for _, t := range sorted {
		if _, dup := v.pos[t]; dup {
			continue
		}
		v.pos[t] = len(v.terms)
		v.terms = append(v.terms, t)
	}
	return v
}

// Len is the vector dimension.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// Index returns the coordinate of term.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.pos[term]
	return i, ok
}

// Term returns the term at coordinate i.
func (v *Vocabulary) Term(i int) string {
	return v.terms[i]
}

// Vectorize places weighted term counts on this vocabulary. Terms outside
// the vocabulary have no coordinate and are dropped.
func (v *Vocabulary) Vectorize(counts map[string]int, weight func(term string, count int) float64) Vector {
	coords := make(map[int]float64, len(counts))
	for term, count := range counts {
		i, ok := v.pos[term]
		if !ok {
			continue
		}
		coords[i] = weight(term, count)
	}
	return NewVector(coords)
}

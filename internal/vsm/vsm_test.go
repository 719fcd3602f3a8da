package vsm

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
)

func TestVectorBasics(t *testing.T) {
	v := NewVector(map[int]float64{3: 4, 0: 3, 7: 0})
	assert.Equal(t, 2, v.NonZero())
	assert.Equal(t, 5.0, v.Norm())
	assert.Equal(t, 4.0, v.Get(3))
	assert.Equal(t, 0.0, v.Get(7))
	assert.Equal(t, []float64{3, 0, 0, 4, 0}, v.Dense(5))

	w := NewVector(map[int]float64{3: 2, 4: 10})
	assert.Equal(t, 8.0, v.Dot(w))
	assert.Equal(t, v.Dot(w), w.Dot(v))
}

func TestCosineProperties(t *testing.T) {
	a := NewVector(map[int]float64{0: 1, 2: 1})
	b := NewVector(map[int]float64{1: 1, 2: 1})
	assert.InDelta(t, 0.5, Cosine(a, b), 1e-12)
	assert.Equal(t, Cosine(a, b), Cosine(b, a))
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-12)

	dense := CosineDense(a.Dense(3), b.Dense(3))
	assert.InDelta(t, Cosine(a, b), dense, 1e-12)
}

func TestCosineZeroNorm(t *testing.T) {
	a := NewVector(map[int]float64{0: 1})
	zero := NewVector(nil)
	assert.Equal(t, 0.0, Cosine(a, zero))
	assert.Equal(t, 0.0, Cosine(zero, zero))
	assert.Equal(t, 0.0, Cosine(Vector{}, a))
	assert.Equal(t, 0.0, CosineDense([]float64{0, 0}, []float64{1, 1}))
	assert.False(t, math.IsNaN(Cosine(zero, zero)))
}

func TestVocabulary(t *testing.T) {
	v := NewVocabulary([]string{"you", "love", "you", "hate"})
	assert.Equal(t, 3, v.Len())
	i, ok := v.Index("love")
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Equal(t, "you", v.Term(2))
	_, ok = v.Index("zebra")
	assert.False(t, ok)

	q := v.Vectorize(map[string]int{"love": 2, "zebra": 5}, func(_ string, c int) float64 { return float64(c) })
	assert.Equal(t, []float64{0, 2, 0}, q.Dense(v.Len()))
}

func scenarioIndex(t *testing.T, scheme weighting.Scheme) *Index {
	t.Helper()
	tf := index.TermFrequency{
		"love": {1: 2},
		"you":  {1: 1, 2: 1},
		"hate": {2: 1},
	}
	df := index.DocumentFrequency{"love": 1, "you": 2, "hate": 1}
	w, err := weighting.NewWeigher(scheme, df, 3)
	require.NoError(t, err)
	idx, err := New(context.Background(), []int{1, 2, 3}, tf, w, 2)
	require.NoError(t, err)
	return idx
}

func TestIndexVectors(t *testing.T) {
	idx := scenarioIndex(t, weighting.SchemeInverseDF)

	assert.Equal(t, []int{1, 2, 3}, idx.DocumentIDs())
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 3, idx.Vocabulary().Len())

	// vocabulary order: hate, love, you
	v1, err := idx.VectorFor(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 0.5}, v1.Dense(3))

	v2, err := idx.VectorFor(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0.5}, v2.Dense(3))

	raw1, err := idx.RawVectorFor(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 1}, raw1.Dense(3))

	// document 3 has no terms at all
	v3, err := idx.VectorFor(3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v3.Norm())

	id, weighted, raw := idx.At(1)
	assert.Equal(t, 2, id)
	assert.Equal(t, v2, weighted)
	assert.Equal(t, 2.0, raw.Dot(raw))
}

func TestIndexTFIDFVectorsMatchTable(t *testing.T) {
	idx := scenarioIndex(t, weighting.SchemeTFIDF)
	v1, err := idx.VectorFor(1)
	require.NoError(t, err)
	love, _ := idx.Vocabulary().Index("love")
	you, _ := idx.Vocabulary().Index("you")
	assert.InDelta(t, 2*math.Log(3.0), v1.Get(love), 1e-12)
	assert.InDelta(t, math.Log(1.5), v1.Get(you), 1e-12)
}

func TestVectorForUnknown(t *testing.T) {
	idx := scenarioIndex(t, weighting.SchemeTFIDF)
	_, err := idx.VectorFor(99)
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
	_, err = idx.RawVectorFor(99)
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
}

func TestNewRejectsMismatchedTables(t *testing.T) {
	tf := index.TermFrequency{"love": {5: 1}}
	df := index.DocumentFrequency{"love": 1}
	w, err := weighting.NewWeigher(weighting.SchemeTFIDF, df, 1)
	require.NoError(t, err)

	_, err = New(context.Background(), []int{1}, tf, w, 1)
	assert.ErrorIs(t, err, apperrors.ErrVocabularyMismatch)

	_, err = New(context.Background(), []int{5, 5}, tf, w, 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

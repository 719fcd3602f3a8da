package index

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
)

func loveHateCorpus() []corpus.Document {
	return []corpus.Document{
		{ID: 1, Lyrics: "love love you"},
		{ID: 2, Lyrics: "hate you"},
	}
}

func TestAccumulateScenario(t *testing.T) {
	tables, err := Accumulate(context.Background(), loveHateCorpus(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, tables.N)
	assert.Equal(t, 2, tables.TF.Get("love", 1))
	assert.Equal(t, 1, tables.TF.Get("you", 1))
	assert.Equal(t, 1, tables.TF.Get("you", 2))
	assert.Equal(t, 0, tables.TF.Get("love", 2))
	assert.Equal(t, 2, tables.DF.Get("you"))
	assert.Equal(t, 1, tables.DF.Get("love"))
	assert.Equal(t, 0, tables.DF.Get("never"))
	assert.Equal(t, []string{"hate", "love", "you"}, tables.TF.Terms())
	require.NoError(t, Verify(tables.TF, tables.DF, tables.N))
}

func TestUpdateDFCountsPresence(t *testing.T) {
	df := make(DocumentFrequency)
	UpdateDF(df, "na na na na hey hey goodbye")
	assert.Equal(t, DocumentFrequency{"na": 1, "hey": 1, "goodbye": 1}, df)

	UpdateDF(df, "hey jude")
	assert.Equal(t, 2, df.Get("hey"))
}

func TestUpdateTFCountsOccurrences(t *testing.T) {
	tf := make(TermFrequency)
	UpdateTF(tf, 7, "Na na NA, hey")
	assert.Equal(t, 3, tf.Get("na", 7))
	assert.Equal(t, 1, tf.Get("hey", 7))
}

func syntheticCorpus(n int) []corpus.Document {
	words := []string{"love", "you", "baby", "night", "dance", "heart", "fire", "rain", "road", "home"}
	docs := make([]corpus.Document, n)
	for i := range docs {
		text := ""
		for j := 0; j <= i%7; j++ {
			text += fmt.Sprintf("%s %s ", words[(i+j)%len(words)], words[(i*j)%len(words)])
		}
		docs[i] = corpus.Document{ID: 1000 + i, Lyrics: text}
	}
	// a document with no terms still counts towards N
	docs = append(docs, corpus.Document{ID: 1, Lyrics: "1 2 3 !!!"})
	return docs
}

func TestAccumulateInvariants(t *testing.T) {
	docs := syntheticCorpus(200)
	tables, err := Accumulate(context.Background(), docs, 4)
	require.NoError(t, err)
	assert.Equal(t, len(docs), tables.N)

	lengths := tables.TF.DocumentLengths()
	for _, doc := range docs {
		assert.Equal(t, len(tokenizer.Tokenize(doc.Lyrics)), lengths[doc.ID], "doc %d", doc.ID)
	}

	for term, d := range tables.DF {
		distinct := 0
		for _, doc := range docs {
			if tokenizer.Counts(doc.Lyrics)[term] > 0 {
				distinct++
			}
		}
		assert.Equal(t, distinct, d, "term %q", term)
		assert.LessOrEqual(t, d, tables.N)
	}
	require.NoError(t, Verify(tables.TF, tables.DF, tables.N))
}

func TestAccumulateWorkerCountIndependent(t *testing.T) {
	docs := syntheticCorpus(333)
	sequential, err := Accumulate(context.Background(), docs, 1)
	require.NoError(t, err)
	for _, workers := range []int{2, 3, 8, 1000} {
		parallel, err := Accumulate(context.Background(), docs, workers)
		require.NoError(t, err)
		assert.Equal(t, sequential, parallel, "workers=%d", workers)
	}
}

func TestAccumulateEmpty(t *testing.T) {
	tables, err := Accumulate(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, tables.N)
	assert.Empty(t, tables.TF)
}

func TestAccumulateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Accumulate(ctx, syntheticCorpus(50), 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerify(t *testing.T) {
	tf := TermFrequency{"love": {1: 2}}
	assert.ErrorIs(t, Verify(tf, DocumentFrequency{}, 1), apperrors.ErrVocabularyMismatch)
	assert.ErrorIs(t, Verify(tf, DocumentFrequency{"love": 2}, 2), apperrors.ErrCorruptArtifact)
	assert.ErrorIs(t, Verify(tf, DocumentFrequency{"love": 1}, 0), apperrors.ErrCorruptArtifact)
	assert.ErrorIs(t, Verify(tf, DocumentFrequency{"love": 1, "extra": 1}, 1), apperrors.ErrVocabularyMismatch)
	assert.NoError(t, Verify(tf, DocumentFrequency{"love": 1}, 1))
}

func TestByDocument(t *testing.T) {
	tf := TermFrequency{"love": {1: 2}, "you": {1: 1, 2: 1}}
	assert.Equal(t, map[int]map[string]int{
		1: {"love": 2, "you": 1},
		2: {"you": 1},
	}, tf.ByDocument())
}

func BenchmarkAccumulate(b *testing.B) {
	docs := syntheticCorpus(5000)
	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Accumulate(context.Background(), docs, workers); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

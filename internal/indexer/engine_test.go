package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/tracing"
)

const lyricsCSV = `index,song,year,artist,genre,lyrics
1,first-song,2009,artist-a,Pop,love love you
2,second-song,2010,artist-b,Rock,hate you
3,no-year,,artist-c,Pop,love is gone
4,third-song,2011,artist-d,Jazz,"Oh, baby: I love you!"
`

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lyrics.csv")
	require.NoError(t, os.WriteFile(path, []byte(lyricsCSV), 0644))
	return path
}

func newEngine(t *testing.T, compress bool) (*Engine, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "artifacts")
	e, err := NewEngine(config.IndexerConfig{DataDir: dir, Workers: 2, Compress: compress}, metrics.New(prometheus.NewRegistry()))
	require.NoError(t, err)
	return e, dir
}

func TestBuild(t *testing.T) {
	e, _ := newEngine(t, false)
	a, err := e.Build(context.Background(), corpus.CSVSource{Path: writeCSV(t)})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 4}, a.Corpus.IDs())
	assert.Equal(t, 1, a.Stats.Malformed)
	assert.Equal(t, 3, a.Tables.N)
	assert.Equal(t, 2, a.Tables.TF.Get("love", 1))
	assert.Equal(t, 3, a.Tables.DF.Get("you"))
	assert.Equal(t, 0.0, a.TFIDF.Get("you", 1), "a term in every document carries no weight")
	assert.Empty(t, a.Generation)

	s := a.Summary()
	assert.Equal(t, 3, s.Documents)
	// love you hate oh baby i
	assert.Equal(t, 6, s.UniqueWords)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		e, dir := newEngine(t, compress)
		ctx := context.Background()
		built, err := e.Build(ctx, corpus.CSVSource{Path: writeCSV(t)})
		require.NoError(t, err)
		require.NoError(t, e.Save(built))
		require.NotEmpty(t, built.Generation)

		for _, k := range segment.Kinds {
			assert.FileExists(t, filepath.Join(dir, k.FileName()))
		}

		loaded, err := e.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, built.Corpus.Documents(), loaded.Corpus.Documents())
		assert.Equal(t, built.Tables.TF, loaded.Tables.TF)
		assert.Equal(t, built.Tables.DF, loaded.Tables.DF)
		assert.Equal(t, built.Tables.N, loaded.Tables.N)
		assert.Equal(t, built.TFIDF, loaded.TFIDF)
		assert.Equal(t, built.Generation, loaded.Generation)
	}
}

func TestGenerationChangesWithContent(t *testing.T) {
	e, _ := newEngine(t, true)
	ctx := context.Background()
	a, err := e.Build(ctx, corpus.CSVSource{Path: writeCSV(t)})
	require.NoError(t, err)
	require.NoError(t, e.Save(a))

	docs := a.Corpus.Documents()[:2]
	c, err := corpus.New(docs)
	require.NoError(t, err)
	b, err := e.BuildFromCorpus(ctx, c)
	require.NoError(t, err)
	require.NoError(t, e.Save(b))

	assert.NotEqual(t, a.Generation, b.Generation)
}

func TestLoadRejectsMixedGenerations(t *testing.T) {
	ctx := context.Background()
	e, dir := newEngine(t, false)
	full, err := e.Build(ctx, corpus.CSVSource{Path: writeCSV(t)})
	require.NoError(t, err)
	require.NoError(t, e.Save(full))

	c, err := corpus.New(full.Corpus.Documents()[:1])
	require.NoError(t, err)
	small, err := e.BuildFromCorpus(ctx, c)
	require.NoError(t, err)
	// only the df table from the smaller build reaches disk
	_, err = segment.NewWriter(dir, false).Write(segment.KindDF, len(small.Tables.DF), small.Tables.DF)
	require.NoError(t, err)

	_, err = e.Load(ctx)
	require.Error(t, err)
	assert.True(t,
		apperrors.Is(err, apperrors.ErrVocabularyMismatch) || apperrors.Is(err, apperrors.ErrCorruptArtifact),
		"unexpected error: %v", err)
}

func TestLoadMissingArtifacts(t *testing.T) {
	e, _ := newEngine(t, false)
	_, err := e.Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuildAllRowsMalformed(t *testing.T) {
	e, _ := newEngine(t, true)
	path := filepath.Join(t.TempDir(), "lyrics.csv")
	csv := "index,song,year,artist,genre,lyrics\n1,no-year,,artist-a,Pop,love you\n2,no-genre,2010,artist-b,,hate you\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	ctx := context.Background()
	a, err := e.Build(ctx, corpus.CSVSource{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Corpus.Len())
	assert.Equal(t, 2, a.Stats.Malformed)
	assert.Empty(t, a.Tables.TF)
	assert.Empty(t, a.TFIDF)

	require.NoError(t, e.Save(a))
	loaded, err := e.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Corpus.Len())
	assert.Equal(t, a.Generation, loaded.Generation)
}

type failingSource struct{ err error }

func (s failingSource) Load(context.Context) ([]corpus.Record, error) { return nil, s.err }

func TestBuildEndsSpansOnError(t *testing.T) {
	e, _ := newEngine(t, false)
	ctx, parent := tracing.Start(context.Background(), "test")

	_, err := e.Build(ctx, failingSource{err: apperrors.ErrInternal})
	require.ErrorIs(t, err, apperrors.ErrInternal)

	builds := parent.Children()
	require.Len(t, builds, 1)
	assert.True(t, builds[0].Ended())
	stages := builds[0].Children()
	require.Len(t, stages, 1)
	assert.Equal(t, "load", stages[0].Name)
	assert.True(t, stages[0].Ended())
}

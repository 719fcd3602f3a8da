package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/metrics"
)

var searchCfg = config.SearchConfig{
	Scheme:       "tfidf",
	DefaultMode:  "tfidf",
	DefaultLimit: 2,
	MaxResults:   3,
	Workers:      1,
}

func newServer(t *testing.T, withCache bool) (*httptest.Server, *cache.QueryCache) {
	t.Helper()
	ctx := context.Background()
	c, err := corpus.New([]corpus.Document{
		{ID: 1, Title: "first-song", Year: "2009", Artist: "artist-a", Genre: "Pop", Lyrics: "love love you"},
		{ID: 2, Title: "second-song", Year: "2010", Artist: "artist-b", Genre: "Rock", Lyrics: "hate you"},
		{ID: 3, Title: "third-song", Year: "2011", Artist: "artist-c", Genre: "Jazz", Lyrics: "baby oh baby"},
	})
	require.NoError(t, err)
	engine, err := indexer.NewEngine(config.IndexerConfig{DataDir: t.TempDir(), Workers: 1}, nil)
	require.NoError(t, err)
	a, err := engine.BuildFromCorpus(ctx, c)
	require.NoError(t, err)
	a.Generation = "gen1"

	m := metrics.New(prometheus.NewRegistry())
	exec, err := executor.Open(ctx, a, searchCfg, m)
	require.NoError(t, err)

	var qc *cache.QueryCache
	if withCache {
		qc, err = cache.New(nil, cache.Options{LocalSize: 8, Generation: a.Generation}, m)
		require.NoError(t, err)
	}
	mux := http.NewServeMux()
	New(exec, qc, nil, m, searchCfg, a.Summary()).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, qc
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestSearchEndpoint(t *testing.T) {
	srv, _ := newServer(t, false)

	var body SearchResponse
	status := getJSON(t, srv.URL+"/api/v1/search?q=I+love+you", &body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "I love you", body.Query)
	assert.Equal(t, []string{"i", "love", "you"}, body.Terms)
	assert.Equal(t, "tfidf", string(body.Mode))
	assert.Equal(t, 3, body.TotalDocs)
	require.Len(t, body.Hits, 2, "default limit applies")
	assert.Equal(t, 1, body.Hits[0].DocID)
	assert.Equal(t, "first-song", body.Hits[0].Title)
	assert.False(t, body.CacheHit)
}

func TestSearchModeAndLimit(t *testing.T) {
	srv, _ := newServer(t, false)

	var body SearchResponse
	status := getJSON(t, srv.URL+"/api/v1/search?q=baby&mode=tf&limit=50", &body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "tf", string(body.Mode))
	assert.Len(t, body.Hits, 3, "limit is capped at maxResults")
	assert.Equal(t, 3, body.Hits[0].DocID)
	assert.Equal(t, 1, body.Matches)
}

func TestSearchBadRequests(t *testing.T) {
	srv, _ := newServer(t, false)
	for _, path := range []string{
		"/api/v1/search",
		"/api/v1/search?q=love&mode=bm25",
		"/api/v1/search?q=love&limit=0",
		"/api/v1/search?q=love&limit=ten",
	} {
		var body map[string]string
		status := getJSON(t, srv.URL+path, &body)
		assert.Equal(t, http.StatusBadRequest, status, path)
		assert.NotEmpty(t, body["error"], path)
	}
}

func TestSearchUsesCache(t *testing.T) {
	srv, qc := newServer(t, true)

	var first, second SearchResponse
	getJSON(t, srv.URL+"/api/v1/search?q=love+you", &first)
	getJSON(t, srv.URL+"/api/v1/search?q=You+LOVE", &second)
	assert.False(t, first.CacheHit)
	assert.True(t, second.CacheHit)
	assert.Equal(t, "You LOVE", second.Query)
	assert.Equal(t, first.Hits, second.Hits)
	assert.Equal(t, 1, qc.Len())

	resp, err := http.Post(srv.URL+"/api/v1/cache/invalidate", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, qc.Len())

	var stats map[string]any
	getJSON(t, srv.URL+"/api/v1/cache/stats", &stats)
	assert.EqualValues(t, 1, stats["hits"])
}

func TestCacheInvalidateDisabled(t *testing.T) {
	srv, _ := newServer(t, false)
	resp, err := http.Post(srv.URL+"/api/v1/cache/invalidate", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDocumentEndpoint(t *testing.T) {
	srv, _ := newServer(t, false)

	var doc corpus.Document
	status := getJSON(t, srv.URL+"/api/v1/documents/2", &doc)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "hate you", doc.Lyrics)
	assert.Equal(t, "artist-b", doc.Artist)

	var body map[string]string
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/documents/42", &body))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/v1/documents/abc", &body))
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newServer(t, false)
	var stats indexer.Stats
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/stats", &stats))
	assert.Equal(t, 3, stats.Documents)
	// love you hate baby oh
	assert.Equal(t, 5, stats.UniqueWords)
	assert.Equal(t, "gen1", stats.Generation)
}

type failingExecutor struct{ err error }

func (f failingExecutor) Search(context.Context, executor.Request) (*executor.SearchResult, error) {
	return nil, f.err
}

func (f failingExecutor) Document(int) (corpus.Document, error) {
	return corpus.Document{}, f.err
}

func TestSearchErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.New("boom"), http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{apperrors.ErrIndexNotReady, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		h := New(failingExecutor{tc.err}, nil, nil, nil, searchCfg, indexer.Stats{})
		rec := httptest.NewRecorder()
		h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=love", nil))
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
	}
}

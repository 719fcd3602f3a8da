package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SearchQueriesTotal.WithLabelValues("tfidf", "match").Inc()
	m.CacheHitsTotal.WithLabelValues("local").Add(2)
	m.VocabularySize.Set(3)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64, len(families))
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] += metric.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, values["lyricsearch_queries_total"])
	assert.Equal(t, 2.0, values["lyricsearch_cache_hits_total"])
	assert.Equal(t, 3.0, values["lyricsearch_vocabulary_size"])
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

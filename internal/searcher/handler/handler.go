// Package handler exposes the search service over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/metrics"
)

// SearchExecutor is the part of *executor.Executor the handler needs.
type SearchExecutor interface {
	Search(ctx context.Context, req executor.Request) (*executor.SearchResult, error)
	Document(id int) (corpus.Document, error)
}

// SearchResponse is the body of GET /api/v1/search.
type SearchResponse struct {
	Query string   `json:"query"`
	Terms []string `json:"terms"`
	*executor.SearchResult
	CacheHit  bool  `json:"cache_hit"`
	LatencyMs int64 `json:"latency_ms"`
}

type Handler struct {
	executor     SearchExecutor
	cache        *cache.QueryCache
	collector    *analytics.Collector
	metrics      *metrics.Metrics
	stats        indexer.Stats
	defaultMode  ranker.Mode
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New creates a Handler. queryCache, collector and m may be nil.
func New(
	exec SearchExecutor,
	queryCache *cache.QueryCache,
	collector *analytics.Collector,
	m *metrics.Metrics,
	cfg config.SearchConfig,
	stats indexer.Stats,
) *Handler {
	return &Handler{
		executor:     exec,
		cache:        queryCache,
		collector:    collector,
		metrics:      m,
		stats:        stats,
		defaultMode:  ranker.Mode(cfg.DefaultMode),
		defaultLimit: cfg.DefaultLimit,
		maxResults:   cfg.MaxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.Document)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Search handles GET /api/v1/search?q=&mode=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	mode := h.defaultMode
	if m := r.URL.Query().Get("mode"); m != "" {
		parsed, err := ranker.ParseMode(m)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "mode must be 'tf' or 'tfidf'")
			return
		}
		mode = parsed
	}

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, h.maxResults)
	}

	req := executor.Request{Query: query, Mode: mode, Limit: limit}
	var (
		result   *executor.SearchResult
		cacheHit bool
		err      error
	)
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, req, func(ctx context.Context) (*executor.SearchResult, error) {
			return h.executor.Search(ctx, req)
		})
	} else {
		result, err = h.executor.Search(ctx, req)
	}
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("search execution failed", "query", query, "mode", mode, "status", status, "error", err)
		h.writeError(w, status, "search failed")
		return
	}

	latency := time.Since(start)
	if h.metrics != nil {
		cacheStatus := "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	}

	terms := tokenizer.Tokenize(query)
	log.Info("search completed",
		"query", query,
		"mode", mode,
		"matches", result.Matches,
		"returned", len(result.Hits),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.track(r, query, terms, result, cacheHit, latency)

	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:        query,
		Terms:        terms,
		SearchResult: result,
		CacheHit:     cacheHit,
		LatencyMs:    latency.Milliseconds(),
	})
}

func (h *Handler) track(r *http.Request, query string, terms []string, result *executor.SearchResult, cacheHit bool, latency time.Duration) {
	if h.collector == nil {
		return
	}
	ev := analytics.SearchEvent{
		Type:       analytics.EventSearch,
		Query:      query,
		Terms:      terms,
		Mode:       string(result.Mode),
		Matches:    result.Matches,
		Returned:   len(result.Hits),
		LatencyMs:  latency.Milliseconds(),
		CacheHit:   cacheHit,
		Generation: result.Generation,
		Timestamp:  time.Now().UTC(),
		RequestID:  logger.RequestID(r.Context()),
	}
	if result.Matches == 0 {
		ev.Type = analytics.EventZeroMatch
	} else if len(result.Hits) > 0 {
		top := result.Hits[0]
		ev.TopDocID = &top.DocID
		ev.TopScore = top.Score
	}
	h.collector.TrackSearch(ev)
}

// Document handles GET /api/v1/documents/{id}.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "document id must be an integer")
		return
	}
	doc, err := h.executor.Document(id)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.stats)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":          hits,
		"misses":        misses,
		"total":         total,
		"hit_rate":      hitRate,
		"local_entries": h.cache.Len(),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "redis_keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

package analytics

import "time"

// EventType labels an analytics event.
type EventType string

const (
	EventSearch      EventType = "search"
	EventZeroMatch   EventType = "zero_match"
	EventIndexBuilt  EventType = "index_built"
	EventIndexLoaded EventType = "index_loaded"
)

// SearchEvent describes one answered query.
type SearchEvent struct {
	Type       EventType `json:"type"`
	Query      string    `json:"query"`
	Terms      []string  `json:"terms"`
	Mode       string    `json:"mode"`
	Matches    int       `json:"matches"`
	Returned   int       `json:"returned"`
	TopDocID   *int      `json:"top_doc_id,omitempty"`
	TopScore   float64   `json:"top_score"`
	LatencyMs  int64     `json:"latency_ms"`
	CacheHit   bool      `json:"cache_hit"`
	Generation string    `json:"generation"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

// IndexEvent describes a completed index build or load.
type IndexEvent struct {
	Type        EventType `json:"type"`
	Documents   int       `json:"documents"`
	UniqueWords int       `json:"unique_words"`
	Malformed   int       `json:"malformed"`
	Duplicate   int       `json:"duplicate"`
	Generation  string    `json:"generation"`
	LatencyMs   int64     `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// Package indexer runs the build pipeline (corpus, frequency tables,
// TF-IDF) and persists or restores its four artifacts.
package indexer

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"log/slog"
	"os"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/weighting"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/tracing"
)

// Artifacts is everything one build produces. Generation identifies a
// persisted build and is empty until the artifacts are saved or loaded.
type Artifacts struct {
	Corpus     *corpus.Corpus
	Tables     *index.Tables
	TFIDF      index.TFIDF
	Stats      corpus.FilterStats
	Generation string
}

// Stats summarises a set of artifacts.
type Stats struct {
	Documents   int    `json:"documents"`
	UniqueWords int    `json:"unique_words"`
	Postings    int    `json:"postings"`
	Generation  string `json:"generation,omitempty"`
}

// Summary computes the headline numbers of a.
func (a *Artifacts) Summary() Stats {
	postings := 0
	for _, docs := range a.Tables.TF {
		postings += len(docs)
	}
	return Stats{
		Documents:   a.Corpus.Len(),
		UniqueWords: len(a.Tables.TF),
		Postings:    postings,
		Generation:  a.Generation,
	}
}

// Engine builds, saves and loads index artifacts under one data directory.
type Engine struct {
	cfg     config.IndexerConfig
	writer  *segment.Writer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewEngine creates an Engine rooted at cfg.DataDir. m may be nil.
func NewEngine(cfg config.IndexerConfig, m *metrics.Metrics) (*Engine, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index data directory: %w", err)
	}
	return &Engine{
		cfg:     cfg,
		writer:  segment.NewWriter(cfg.DataDir, cfg.Compress),
		metrics: m,
		logger:  slog.Default().With("component", "indexer"),
	}, nil
}

// Build loads the corpus from src, applies the quality gate, and computes the
// TF, DF and TF-IDF tables. Nothing is written to disk.
func (e *Engine) Build(ctx context.Context, src corpus.Source) (*Artifacts, error) {
	start := time.Now()
	ctx, root := tracing.Start(ctx, "index.build")
	defer func() {
		root.End()
		root.Log(e.logger)
	}()

	_, span := tracing.Start(ctx, "load")
	c, stats, err := corpus.Load(ctx, src)
	span.SetAttr("records", stats.Read)
	e.endStage(span)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Add(float64(stats.Kept))
		e.metrics.DocsSkippedTotal.WithLabelValues("malformed").Add(float64(stats.Malformed))
		e.metrics.DocsSkippedTotal.WithLabelValues("duplicate").Add(float64(stats.Duplicate))
	}

	a, err := e.BuildFromCorpus(ctx, c)
	if err != nil {
		return nil, err
	}
	a.Stats = stats
	e.logger.Info("index built",
		"corpus_size", c.Len(),
		"unique_words", len(a.Tables.TF),
		"skipped", stats.Malformed+stats.Duplicate,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return a, nil
}

// BuildFromCorpus computes the tables for an already-filtered corpus.
func (e *Engine) BuildFromCorpus(ctx context.Context, c *corpus.Corpus) (*Artifacts, error) {
	_, span := tracing.Start(ctx, "accumulate")
	tables, err := index.Accumulate(ctx, c.Documents(), e.cfg.Workers)
	e.endStage(span)
	if err != nil {
		return nil, fmt.Errorf("accumulating frequencies: %w", err)
	}
	span.SetAttr("documents", tables.N)

	_, span = tracing.Start(ctx, "weight")
	tfidf, err := weighting.Compute(ctx, tables.TF, tables.DF, tables.N, e.cfg.Workers)
	e.endStage(span)
	if err != nil {
		return nil, fmt.Errorf("computing tf-idf: %w", err)
	}
	span.SetAttr("terms", len(tfidf))

	if e.metrics != nil {
		e.metrics.VocabularySize.Set(float64(len(tables.TF)))
	}
	return &Artifacts{
		Corpus: c,
		Tables: tables,
		TFIDF:  tfidf,
		Stats:  corpus.FilterStats{Read: c.Len(), Kept: c.Len()},
	}, nil
}

// Save writes the four artifacts and sets a.Generation. Each file is
// replaced atomically; a crash between files leaves a mix of generations,
// which Load rejects through its consistency checks.
func (e *Engine) Save(a *Artifacts) error {
	_, span := tracing.Start(context.Background(), "save")
	defer func() {
		if !span.Ended() {
			span.End()
		}
		span.Log(e.logger)
	}()
	items := []struct {
		kind    segment.Kind
		entries int
		value   any
	}{
		{segment.KindCorpus, a.Corpus.Len(), a.Corpus.Documents()},
		{segment.KindTF, len(a.Tables.TF), a.Tables.TF},
		{segment.KindDF, len(a.Tables.DF), a.Tables.DF},
		{segment.KindTFIDF, len(a.TFIDF), a.TFIDF},
	}
	checksums := make([]uint32, 0, len(items))
	for _, it := range items {
		info, err := e.writer.Write(it.kind, it.entries, it.value)
		if err != nil {
			e.countWrite(it.kind, "error")
			return fmt.Errorf("saving %s artifact: %w", it.kind, err)
		}
		e.countWrite(it.kind, "success")
		checksums = append(checksums, info.Checksum)
		e.logger.Debug("artifact written",
			"kind", it.kind.String(),
			"path", info.Path,
			"entries", info.Entries,
			"bytes", info.Size,
			"raw_bytes", info.RawSize,
		)
	}
	a.Generation = generation(checksums)
	e.endStage(span)
	e.logger.Info("artifacts saved",
		"data_dir", e.cfg.DataDir,
		"generation", a.Generation,
		"compressed", e.cfg.Compress,
	)
	return nil
}

// Load restores artifacts from the data directory and checks that they
// describe one consistent build.
func (e *Engine) Load(ctx context.Context) (*Artifacts, error) {
	ctx, span := tracing.Start(ctx, "load_artifacts")
	defer func() {
		if !span.Ended() {
			span.End()
		}
		span.Log(e.logger)
	}()
	var (
		docs  []corpus.Document
		tf    index.TermFrequency
		df    index.DocumentFrequency
		tfidf index.TFIDF
	)
	targets := []struct {
		kind segment.Kind
		dst  any
	}{
		{segment.KindCorpus, &docs},
		{segment.KindTF, &tf},
		{segment.KindDF, &df},
		{segment.KindTFIDF, &tfidf},
	}
	checksums := make([]uint32, 0, len(targets))
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := segment.Read(e.cfg.DataDir, t.kind, t.dst)
		if err != nil {
			return nil, fmt.Errorf("loading %s artifact: %w", t.kind, err)
		}
		checksums = append(checksums, info.Checksum)
	}
	if tf == nil {
		tf = make(index.TermFrequency)
	}
	if df == nil {
		df = make(index.DocumentFrequency)
	}
	if tfidf == nil {
		tfidf = make(index.TFIDF)
	}

	c, err := corpus.New(docs)
	if err != nil {
		return nil, fmt.Errorf("restoring corpus: %v: %w", err, apperrors.ErrCorruptArtifact)
	}
	if err := index.Verify(tf, df, c.Len()); err != nil {
		return nil, fmt.Errorf("verifying frequency tables: %w", err)
	}
	if err := verifyTFIDF(tf, tfidf); err != nil {
		return nil, err
	}

	a := &Artifacts{
		Corpus:     c,
		Tables:     &index.Tables{TF: tf, DF: df, N: c.Len()},
		TFIDF:      tfidf,
		Stats:      corpus.FilterStats{Read: c.Len(), Kept: c.Len()},
		Generation: generation(checksums),
	}
	if e.metrics != nil {
		e.metrics.VocabularySize.Set(float64(len(tf)))
	}
	e.endStage(span)
	e.logger.Info("artifacts loaded",
		"corpus_size", c.Len(),
		"unique_words", len(tf),
		"generation", a.Generation,
	)
	return a, nil
}

// verifyTFIDF checks that tfidf covers exactly the (term, doc) pairs of tf.
func verifyTFIDF(tf index.TermFrequency, tfidf index.TFIDF) error {
	if len(tfidf) != len(tf) {
		return fmt.Errorf("tf-idf has %d terms, tf has %d: %w", len(tfidf), len(tf), apperrors.ErrVocabularyMismatch)
	}
	for term, docs := range tf {
		weights, ok := tfidf[term]
		if !ok || len(weights) != len(docs) {
			return fmt.Errorf("tf-idf entry for %q does not match tf: %w", term, apperrors.ErrVocabularyMismatch)
		}
		for docID := range docs {
			if _, ok := weights[docID]; !ok {
				return fmt.Errorf("tf-idf missing %q in doc %d: %w", term, docID, apperrors.ErrVocabularyMismatch)
			}
		}
	}
	return nil
}

func generation(checksums []uint32) string {
	buf := make([]byte, 4*len(checksums))
	for i, c := range checksums {
		binary.LittleEndian.PutUint32(buf[4*i:], c)
	}
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(buf))
}

// endStage ends span and records its duration under the span's name.
func (e *Engine) endStage(span *tracing.Span) {
	d := span.End()
	if e.metrics != nil {
		e.metrics.IndexBuildDuration.WithLabelValues(span.Name).Observe(d.Seconds())
	}
}

func (e *Engine) countWrite(kind segment.Kind, status string) {
	if e.metrics != nil {
		e.metrics.ArtifactWritesTotal.WithLabelValues(kind.String(), status).Inc()
	}
}

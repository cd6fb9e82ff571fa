package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"propertymatch/internal/model"
	"propertymatch/internal/repository"
)

// DefaultIndexConcurrency bounds parallel embedding requests during indexing
const DefaultIndexConcurrency = 4

// BuildContent returns the canonical text blob embedded for a record
func BuildContent(rec model.PropertyRecord) string {
	parts := []string{rec.Name, rec.Type, rec.Description, rec.Location}
	parts = append(parts, rec.Amenities...)

	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// ProgressFunc is called after each record is embedded, successfully or not
type ProgressFunc func(done, total int)

// Indexer embeds property records and stores them in the corpus
type Indexer struct {
	embedder    Embedder
	corpus      repository.CorpusStore
	concurrency int
	log         zerolog.Logger
}

// NewIndexer creates an indexer
func NewIndexer(embedder Embedder, corpus repository.CorpusStore, concurrency int, log zerolog.Logger) *Indexer {
	if concurrency <= 0 {
		concurrency = DefaultIndexConcurrency
	}
	return &Indexer{embedder: embedder, corpus: corpus, concurrency: concurrency, log: log}
}

// Index embeds every record of a source and replaces the source in the corpus.
// A failed record is counted and skipped; the rest are still stored. When no
// record could be embedded the corpus is left untouched and the first error
// is returned.
func (ix *Indexer) Index(ctx context.Context, source, link string, records []model.PropertyRecord, progress ProgressFunc) (*model.IndexReport, error) {
	start := time.Now()
	report := &model.IndexReport{Source: source, Found: len(records)}
	if len(records) == 0 {
		return report, nil
	}

	contents := make([]string, len(records))
	for i, rec := range records {
		contents[i] = BuildContent(rec)
	}

	vectors := make([][]float32, len(records))
	errs := make([]error, len(records))

	var (
		mu   sync.Mutex
		done int
	)
	tick := func(n int) {
		if progress == nil {
			return
		}
		mu.Lock()
		done += n
		progress(done, len(records))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency)
	for _, b := range ix.batches(len(records)) {
		g.Go(func() error {
			ix.embedBatch(gctx, contents[b.start:b.end], vectors[b.start:b.end], errs[b.start:b.end])
			tick(b.end - b.start)
			// Record failures never cancel the rest of the run
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	var (
		stored   []model.EmbeddingRecord
		firstErr error
	)
	for i := range records {
		if errs[i] != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", records[i].Name, errs[i]))
			if firstErr == nil {
				firstErr = errs[i]
			}
			ix.log.Warn().Err(errs[i]).Str("source", source).Str("record", records[i].Name).Msg("record not embedded")
			continue
		}
		report.Success++
		stored = append(stored, model.EmbeddingRecord{
			ID:        model.RecordID(source, i),
			Source:    source,
			Position:  i,
			Content:   contents[i],
			Embedding: vectors[i],
			Metadata:  records[i],
			Link:      link,
		})
	}

	if report.Success == 0 {
		if !errors.Is(firstErr, ErrEmbeddingService) {
			firstErr = fmt.Errorf("%w: %v", ErrEmbeddingService, firstErr)
		}
		return report, firstErr
	}

	if err := ix.corpus.ReplaceSource(ctx, source, stored); err != nil {
		return report, fmt.Errorf("failed to store %s: %w", source, err)
	}

	ix.log.Info().
		Str("source", source).
		Int("found", report.Found).
		Int("success", report.Success).
		Int("failed", report.Failed).
		Dur("took", time.Since(start)).
		Msg("source indexed")

	return report, nil
}

type batch struct{ start, end int }

// batches splits n records into request-sized groups. Embedders without
// batch support get one record per group.
func (ix *Indexer) batches(n int) []batch {
	size := 1
	if be, ok := ix.embedder.(BatchEmbedder); ok && be.BatchSize() > 1 {
		size = be.BatchSize()
	}
	var out []batch
	for start := 0; start < n; start += size {
		out = append(out, batch{start: start, end: min(start+size, n)})
	}
	return out
}

// embedBatch fills vectors and errs for one group. A failed batch request is
// retried record by record so one bad input only fails itself.
func (ix *Indexer) embedBatch(ctx context.Context, contents []string, vectors [][]float32, errs []error) {
	if be, ok := ix.embedder.(BatchEmbedder); ok && len(contents) > 1 {
		got, err := be.EmbedBatch(ctx, contents)
		if err == nil && len(got) == len(contents) {
			copy(vectors, got)
			for i := range vectors {
				if len(vectors[i]) == 0 {
					errs[i] = fmt.Errorf("%w: empty vector", ErrEmbeddingService)
				}
			}
			return
		}
		ix.log.Debug().Err(err).Int("records", len(contents)).Msg("batch embedding failed, retrying per record")
	}

	for i, content := range contents {
		vector, err := ix.embedder.Embed(ctx, content)
		if err == nil && len(vector) == 0 {
			err = fmt.Errorf("%w: empty vector", ErrEmbeddingService)
		}
		vectors[i], errs[i] = vector, err
	}
}

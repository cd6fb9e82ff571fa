// Package ingest turns documents into property records. A document may
// describe several properties; each one starts at a boundary line such as
// "Project Rosehill".
package ingest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"propertymatch/internal/extract"
	"propertymatch/internal/model"
	"propertymatch/internal/utils"
)

var (
	// ErrSourceRead means the document could not be read at all
	ErrSourceRead = errors.New("source read failed")
	// ErrPageParse means a page could not be decoded into text
	ErrPageParse = errors.New("page parse failed")
)

const maxNameWords = 5

var boundaryPattern = regexp.MustCompile(
	`(?m)^[ \t]*(?:Property|Project|Development|Building|PROPERTY|PROJECT|DEVELOPMENT|BUILDING)[ \t:]+([^\n]+)`)

// Cut points that end a record name, e.g. "Rosehill by Emaar" -> "Rosehill".
var nameSeparators = []string{" - ", " – ", " | ", ",", ":", ";", " by ", " at ", " in "}

// Boundary lines that are field labels rather than record starts.
var headingWords = map[string]bool{
	"type": true, "types": true, "details": true, "overview": true, "features": true,
	"highlights": true, "price": true, "location": true, "size": true, "amenities": true,
	"id": true, "status": true, "description": true,
}

// Ingestor splits documents into records and extracts each one
type Ingestor struct {
	extractor *extract.Extractor
	log       zerolog.Logger
}

// New creates an ingestor
func New(extractor *extract.Extractor, log zerolog.Logger) *Ingestor {
	if extractor == nil {
		extractor = extract.New()
	}
	return &Ingestor{extractor: extractor, log: log}
}

// Ingest reads every page of src and returns its records in document order.
// A read or parse failure on any page fails the whole document.
func (i *Ingestor) Ingest(ctx context.Context, src PageSource) ([]model.PropertyRecord, error) {
	pages, err := src.Pages(ctx)
	if err != nil {
		return nil, err
	}
	return i.Parse(strings.Join(pages, "\n")), nil
}

// Parse splits already extracted document text into records
func (i *Ingestor) Parse(text string) []model.PropertyRecord {
	spans := splitRecords(text)
	if len(spans) == 0 {
		return []model.PropertyRecord{i.extractor.Extract(text, "")}
	}

	records := make([]model.PropertyRecord, 0, len(spans))
	for _, sp := range spans {
		records = append(records, i.extractor.Extract(sp.text, sp.name))
	}
	return records
}

// Document is one named input of a batch
type Document struct {
	ID     string
	Source PageSource
}

// DocumentResult is the outcome of ingesting one document of a batch
type DocumentResult struct {
	ID      string
	Records []model.PropertyRecord
	Err     error
}

// IngestBatch ingests each document independently; one document failing does
// not stop the others. Only context cancellation ends the batch early.
func (i *Ingestor) IngestBatch(ctx context.Context, docs []Document) []DocumentResult {
	results := make([]DocumentResult, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			results = append(results, DocumentResult{ID: doc.ID, Err: err})
			continue
		}

		records, err := i.Ingest(ctx, doc.Source)
		if err != nil {
			err = fmt.Errorf("ingest %s: %w", doc.ID, err)
			i.log.Warn().Err(err).Str("source", doc.ID).Msg("document skipped")
		} else {
			i.log.Info().Str("source", doc.ID).Int("records", len(records)).Msg("document ingested")
		}
		results = append(results, DocumentResult{ID: doc.ID, Records: records, Err: err})
	}
	return results
}

type span struct {
	name string
	text string
}

// splitRecords cuts text at boundary lines. Each span runs to the next
// boundary; text before the first boundary belongs to the first record.
func splitRecords(text string) []span {
	matches := boundaryPattern.FindAllStringSubmatchIndex(text, -1)

	type boundary struct {
		start int
		name  string
	}
	var bounds []boundary
	for _, m := range matches {
		raw := text[m[2]:m[3]]
		if isHeading(raw) {
			continue
		}
		name := cleanName(raw)
		if name == "" {
			continue
		}
		bounds = append(bounds, boundary{start: m[0], name: name})
	}

	spans := make([]span, 0, len(bounds))
	for n, b := range bounds {
		start, end := b.start, len(text)
		if n == 0 {
			start = 0
		}
		if n+1 < len(bounds) {
			end = bounds[n+1].start
		}
		spans = append(spans, span{name: b.name, text: text[start:end]})
	}
	return spans
}

func isHeading(raw string) bool {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return true
	}
	first := strings.ToLower(strings.TrimRight(fields[0], ":.-"))
	return headingWords[first]
}

// cleanName keeps the proper-noun prefix of a boundary line
func cleanName(raw string) string {
	name := raw
	for _, sep := range nameSeparators {
		if idx := utils.IndexFold(name, sep); idx >= 0 {
			name = name[:idx]
		}
	}

	words := strings.Fields(name)
	kept := make([]string, 0, maxNameWords)
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			break
		}
		kept = append(kept, w)
		if len(kept) == maxNameWords {
			break
		}
	}
	if len(kept) == 0 {
		if len(words) > maxNameWords {
			words = words[:maxNameWords]
		}
		kept = words
	}
	return strings.TrimRight(strings.Join(kept, " "), ".")
}

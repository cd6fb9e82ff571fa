package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"propertymatch/internal/bootstrap"
	"propertymatch/internal/config"
	"propertymatch/internal/extract"
	"propertymatch/internal/ingest"
	"propertymatch/internal/service"
)

var (
	ingestSourcesFile string
	ingestSourceID    string
	ingestLink        string
	ingestTimeout     time.Duration
	ingestConcurrency int
	ingestDryRun      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Extract, embed and store property brochures",
	Long: `Ingest reads each brochure (PDF or plain text), splits it into property
records, embeds every record and replaces the brochure's source in the corpus.

Brochures come either from the arguments or from a sources YAML file. A
brochure that cannot be read is reported and skipped; the others continue.`,
	Example: `  pmctl ingest brochures/dubai-hills.pdf --link https://example.com/dubai-hills.pdf
  pmctl ingest --sources sources.yaml
  pmctl ingest brochure.txt --dry-run`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSourcesFile, "sources", "", "YAML file listing brochures (id, path, link)")
	ingestCmd.Flags().StringVar(&ingestSourceID, "source", "", "source id for a single file (defaults to the file name)")
	ingestCmd.Flags().StringVar(&ingestLink, "link", "", "link stored with every record of the file arguments")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 30*time.Minute, "overall timeout")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0, "parallel embedding requests (defaults to INDEX_CONCURRENCY)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "print extracted records as JSON without embedding or storing them")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	sources, err := ingestSources(args)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return errors.New("nothing to ingest: pass files or --sources")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), ingestTimeout)
	defer cancel()

	ingestor := ingest.New(extract.New(extract.WithDefaultLocation(cfg.Extraction.DefaultLocation)), log)

	docs := make([]ingest.Document, 0, len(sources))
	links := make(map[string]string, len(sources))
	for _, s := range sources {
		docs = append(docs, ingest.Document{ID: s.ID, Source: ingest.SourceForPath(s.Path)})
		links[s.ID] = s.Link
	}
	results := ingestor.IngestBatch(ctx, docs)

	if ingestDryRun {
		return printRecords(cmd, results)
	}

	corpus, err := bootstrap.OpenCorpus(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open corpus: %w", err)
	}
	defer corpus.Close()

	embedder, err := bootstrap.NewEmbedder(cfg, log)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}
	if embedder == nil {
		return errors.New("indexing needs an embedding service: set OPENAI_API_KEY or use --dry-run")
	}

	concurrency := cfg.Index.Concurrency
	if ingestConcurrency > 0 {
		concurrency = ingestConcurrency
	}
	indexer := service.NewIndexer(embedder, corpus.Store, concurrency, log)

	var failedDocs int
	out := cmd.OutOrStdout()
	for _, res := range results {
		if res.Err != nil {
			failedDocs++
			fmt.Fprintf(out, "✗ %s: %v\n", res.ID, res.Err)
			continue
		}

		bar := newProgressBar(len(res.Records), res.ID)
		report, err := indexer.Index(ctx, res.ID, links[res.ID], res.Records, func(done, _ int) {
			_ = bar.Set(done)
		})
		_ = bar.Finish()
		if err != nil {
			failedDocs++
			fmt.Fprintf(out, "✗ %s: %v\n", res.ID, err)
			continue
		}

		fmt.Fprintf(out, "✓ %s: %d found, %d indexed, %d failed\n", report.Source, report.Found, report.Success, report.Failed)
		for _, e := range report.Errors {
			fmt.Fprintf(out, "    %s\n", e)
		}
	}

	if failedDocs > 0 {
		return fmt.Errorf("%d of %d documents failed", failedDocs, len(results))
	}
	return nil
}

func ingestSources(args []string) ([]config.Source, error) {
	var sources []config.Source
	if ingestSourcesFile != "" {
		listed, err := config.LoadSources(ingestSourcesFile)
		if err != nil {
			return nil, err
		}
		sources = append(sources, listed...)
	}

	if ingestSourceID != "" && len(args) > 1 {
		return nil, errors.New("--source can only be used with a single file")
	}
	for _, path := range args {
		id := ingestSourceID
		if id == "" {
			id = config.SourceID(path)
		}
		sources = append(sources, config.Source{ID: id, Path: path, Link: ingestLink})
	}
	return sources, nil
}

func printRecords(cmd *cobra.Command, results []ingest.DocumentResult) error {
	type document struct {
		Source  string `json:"source"`
		Records any    `json:"records,omitempty"`
		Error   string `json:"error,omitempty"`
	}
	out := make([]document, 0, len(results))
	for _, res := range results {
		doc := document{Source: res.ID, Records: res.Records}
		if res.Err != nil {
			doc.Error = res.Err.Error()
		}
		out = append(out, doc)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("records"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

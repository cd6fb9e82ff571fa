package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// PageSource produces the text of a document one page at a time
type PageSource interface {
	Pages(ctx context.Context) ([]string, error)
}

// TextSource is an in-memory document whose pages are already text
type TextSource []string

// Pages implements PageSource
func (s TextSource) Pages(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), s...), nil
}

// TextFileSource reads a plain text document; form feeds separate pages
type TextFileSource struct {
	Path string
}

// Pages implements PageSource
func (s TextFileSource) Pages(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceRead, s.Path, err)
	}
	return strings.Split(string(data), "\f"), nil
}

// PDFSource extracts page text from a PDF, either on disk or already in memory
type PDFSource struct {
	Path string
	Data []byte
}

// Pages implements PageSource. Each page's text fragments (lines) have their
// inner whitespace collapsed so patterns see one fragment per line.
func (s PDFSource) Pages(ctx context.Context) ([]string, error) {
	data := s.Data
	if data == nil {
		b, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSourceRead, s.Path, err)
		}
		data = b
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrPageParse, s.name(), err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	pages := make([]string, 0, pageCount)
	for n := 0; n < pageCount; n++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		text, err := doc.Text(n)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %v", ErrPageParse, s.name(), n+1, err)
		}
		pages = append(pages, joinFragments(text))
	}
	return pages, nil
}

func (s PDFSource) name() string {
	if s.Path != "" {
		return s.Path
	}
	return "upload"
}

func joinFragments(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if f := strings.Fields(line); len(f) > 0 {
			out = append(out, strings.Join(f, " "))
		}
	}
	return strings.Join(out, "\n")
}

// SourceForPath picks a PageSource by file extension
func SourceForPath(path string) PageSource {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return PDFSource{Path: path}
	}
	return TextFileSource{Path: path}
}

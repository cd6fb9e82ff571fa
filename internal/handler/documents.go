package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"propertymatch/internal/config"
	"propertymatch/internal/ingest"
	"propertymatch/internal/repository"
	"propertymatch/internal/service"
)

// DocumentHandler ingests uploaded brochures and manages corpus sources
type DocumentHandler struct {
	ingestor  *ingest.Ingestor
	indexer   *service.Indexer // nil when no embedder is configured
	corpus    repository.CorpusStore
	maxUpload int64
	log       zerolog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(ingestor *ingest.Ingestor, indexer *service.Indexer, corpus repository.CorpusStore, maxUploadMB int, log zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		ingestor:  ingestor,
		indexer:   indexer,
		corpus:    corpus,
		maxUpload: int64(maxUploadMB) << 20,
		log:       log,
	}
}

// Upload handles POST /api/v1/documents (multipart: file, source, link)
func (h *DocumentHandler) Upload(c *gin.Context) {
	if h.indexer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Indexing is disabled: no embedding service configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload: " + err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload: " + err.Error()})
		return
	}

	source := strings.TrimSpace(c.PostForm("source"))
	if source == "" {
		source = config.SourceID(fh.Filename)
	}

	var src ingest.PageSource
	if strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		src = ingest.PDFSource{Path: fh.Filename, Data: data}
	} else {
		src = ingest.TextSource(strings.Split(string(data), "\f"))
	}

	records, err := h.ingestor.Ingest(c.Request.Context(), src)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ingest.ErrPageParse) || errors.Is(err, ingest.ErrSourceRead) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": "Failed to ingest document: " + err.Error()})
		return
	}

	report, err := h.indexer.Index(c.Request.Context(), source, c.PostForm("link"), records, nil)
	if err != nil {
		c.JSON(searchStatus(err), gin.H{"error": "Failed to index document: " + err.Error(), "report": report})
		return
	}

	if report.Failed > 0 {
		c.JSON(http.StatusPartialContent, report)
	} else {
		c.JSON(http.StatusOK, report)
	}
}

// Sources handles GET /api/v1/sources
func (h *DocumentHandler) Sources(c *gin.Context) {
	sources, err := h.corpus.Sources(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sources: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources, "total": len(sources)})
}

// DeleteSource handles DELETE /api/v1/sources/:id
func (h *DocumentHandler) DeleteSource(c *gin.Context) {
	source := c.Param("id")
	if err := h.corpus.ReplaceSource(c.Request.Context(), source, nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete source: " + err.Error()})
		return
	}
	h.log.Info().Str("source", source).Msg("source deleted")
	c.Status(http.StatusNoContent)
}

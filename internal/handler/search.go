package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"propertymatch/internal/model"
	"propertymatch/internal/repository"
	"propertymatch/internal/service"
)

// SearchHandler handles direct preference searches
type SearchHandler struct {
	engine *service.MatchEngine
	logs   repository.SearchLogger // optional
	log    zerolog.Logger
}

// NewSearchHandler creates a new search handler. logs may be nil.
func NewSearchHandler(engine *service.MatchEngine, logs repository.SearchLogger, log zerolog.Logger) *SearchHandler {
	return &SearchHandler{engine: engine, logs: logs, log: log}
}

func (h *SearchHandler) bind(c *gin.Context) (model.SearchRequest, bool) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return req, false
	}
	switch req.Mode {
	case "":
		req.Mode = service.ModeSemantic
	case service.ModeSemantic, service.ModeFilter:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mode. Must be one of: semantic, filter"})
		return req, false
	}
	return req, true
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	start := time.Now()
	results, mode, err := h.engine.Find(c.Request.Context(), req.Preferences, req.Mode)
	if err != nil {
		c.JSON(searchStatus(err), gin.H{"error": "Search failed: " + err.Error()})
		return
	}

	response := model.SearchResponse{
		Results: results,
		Total:   len(results),
		Query:   service.BuildQuery(req.Preferences),
		Mode:    mode,
		Took:    time.Since(start).Milliseconds(),
	}
	h.record(c.Request.Context(), req.Preferences, response)

	c.JSON(http.StatusOK, response)
}

// SearchStream handles POST /api/v1/search/stream - SSE streaming search
func (h *SearchHandler) SearchStream(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	query := service.BuildQuery(req.Preferences)
	sendSSE(c, "start", map[string]any{"query": query, "mode": req.Mode})
	flusher.Flush()

	start := time.Now()
	results, mode, err := h.engine.Find(c.Request.Context(), req.Preferences, req.Mode)
	if err != nil {
		sendSSE(c, "error", map[string]any{"error": err.Error()})
		flusher.Flush()
		return
	}

	for _, r := range results {
		sendSSE(c, "result", r)
		flusher.Flush()
	}

	response := model.SearchResponse{
		Results: results,
		Total:   len(results),
		Query:   query,
		Mode:    mode,
		Took:    time.Since(start).Milliseconds(),
	}
	h.record(c.Request.Context(), req.Preferences, response)

	sendSSE(c, "done", map[string]any{"total": response.Total, "mode": mode, "took_ms": response.Took})
	flusher.Flush()
}

// record stores the search for analysis; failures are only logged
func (h *SearchHandler) record(ctx context.Context, prefs model.UserPreferences, resp model.SearchResponse) {
	if h.logs == nil {
		return
	}
	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, r.Property.ID)
	}
	entry := model.SearchLog{
		Query:       resp.Query,
		Preferences: prefs,
		Mode:        resp.Mode,
		ResultCount: resp.Total,
		RecordIDs:   ids,
		TookMs:      resp.Took,
	}
	if err := h.logs.LogSearch(ctx, entry); err != nil {
		h.log.Warn().Err(err).Msg("failed to log search")
	}
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data == nil {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
		return
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
}

func searchStatus(err error) int {
	if errors.Is(err, service.ErrEmbeddingService) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

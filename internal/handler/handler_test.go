package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertymatch/internal/conversation"
	"propertymatch/internal/extract"
	"propertymatch/internal/ingest"
	"propertymatch/internal/model"
	"propertymatch/internal/repository"
	"propertymatch/internal/service"
)

type staticEmbedder struct{ err error }

func (e staticEmbedder) Embed(context.Context, string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{1, 1}, nil
}

type memoryLogs struct {
	mu      sync.Mutex
	entries []model.SearchLog
}

func (m *memoryLogs) LogSearch(_ context.Context, entry model.SearchLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

type harness struct {
	router *gin.Engine
	corpus *repository.MemoryCorpus
	logs   *memoryLogs
}

func newHarness(t *testing.T, embedder service.Embedder) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()

	corpus := repository.NewMemoryCorpus()
	_, err := service.NewIndexer(staticEmbedder{}, corpus, 0, log).
		Index(context.Background(), repository.DemoSource, "", repository.DemoRecords(), nil)
	require.NoError(t, err)

	var indexer *service.Indexer
	if embedder != nil {
		indexer = service.NewIndexer(embedder, corpus, 0, log)
	}

	engine := service.NewMatchEngine(corpus, embedder, nil, log)
	logs := &memoryLogs{}
	routes := Routes{
		Chat:      NewChatHandler(service.NewChatService(repository.NewMemorySessionStore(time.Hour), engine, log)),
		Search:    NewSearchHandler(engine, logs, log),
		Documents: NewDocumentHandler(ingest.New(extract.New(), log), indexer, corpus, 1, log),
	}
	return &harness{router: NewRouter(routes, log), corpus: corpus, logs: logs}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func f64(v float64) *float64 { return &v }

func TestSearch(t *testing.T) {
	h := newHarness(t, staticEmbedder{})

	w := h.do(t, http.MethodPost, "/api/v1/search", model.SearchRequest{
		Preferences: model.UserPreferences{PropertyType: "Apartment", BudgetMin: f64(2000000), BudgetMax: f64(3000000)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[model.SearchResponse](t, w)
	assert.Equal(t, service.ModeSemantic, resp.Mode)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "Rosehill", resp.Results[0].Property.Name)
	assert.Equal(t, "Apartment property budget 2000000 to 3000000", resp.Query)

	require.Len(t, h.logs.entries, 1)
	assert.Equal(t, []string{resp.Results[0].Property.ID}, h.logs.entries[0].RecordIDs)
}

func TestSearch_FilterMode(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(t, http.MethodPost, "/api/v1/search", model.SearchRequest{})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[model.SearchResponse](t, w)
	assert.Equal(t, service.ModeFilter, resp.Mode)
	assert.Equal(t, 3, resp.Total)
}

func TestSearch_BadRequests(t *testing.T) {
	h := newHarness(t, staticEmbedder{})

	w := h.do(t, http.MethodPost, "/api/v1/search", model.SearchRequest{Mode: "fuzzy"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_EmbeddingServiceDown(t *testing.T) {
	h := newHarness(t, staticEmbedder{err: errors.Join(service.ErrEmbeddingService, errors.New("timeout"))})
	w := h.do(t, http.MethodPost, "/api/v1/search", model.SearchRequest{})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSearchStream(t *testing.T) {
	h := newHarness(t, staticEmbedder{})
	w := h.do(t, http.MethodPost, "/api/v1/search/stream", model.SearchRequest{})
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: start\n"))
	assert.Equal(t, 3, strings.Count(body, "event: result\n"))
	assert.Contains(t, body, "event: done\n")
}

func TestChat_Flow(t *testing.T) {
	h := newHarness(t, staticEmbedder{})

	w := h.do(t, http.MethodPost, "/api/v1/chat/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	start := decode[model.ChatReply](t, w)
	base := "/api/v1/chat/sessions/" + start.SessionID

	steps := []model.ChatAction{
		{Kind: conversation.ActionSelect, Value: conversation.OptionPropertyInquiry},
		{Kind: conversation.ActionSelect, Value: "Apartment"},
		{Kind: conversation.ActionSelect, Value: "1200-1800"},
		{Kind: conversation.ActionSelect, Value: "2 BHK"},
		{Kind: conversation.ActionSelect, Value: "Dubai Hills"},
		{Kind: conversation.ActionSelect, Value: "2000000-3000000"},
		{Kind: conversation.ActionReview},
	}
	var reply model.ChatReply
	for _, a := range steps {
		w = h.do(t, http.MethodPost, base+"/actions", a)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		reply = decode[model.ChatReply](t, w)
	}
	assert.Equal(t, conversation.StepSummary, reply.Step)
	assert.Contains(t, reply.Message, "AED 2,000,000 - 3,000,000")

	w = h.do(t, http.MethodPost, base+"/actions", model.ChatAction{Kind: conversation.ActionSelect, Value: conversation.OptionSearch})
	require.Equal(t, http.StatusOK, w.Code)
	reply = decode[model.ChatReply](t, w)
	require.Len(t, reply.Results, 1)
	assert.Equal(t, "Rosehill", reply.Results[0].Property.Name)

	w = h.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = h.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChat_Errors(t *testing.T) {
	h := newHarness(t, staticEmbedder{})

	w := h.do(t, http.MethodPost, "/api/v1/chat/sessions/nope/actions", model.ChatAction{Kind: conversation.ActionRestart})
	assert.Equal(t, http.StatusNotFound, w.Code)

	start := decode[model.ChatReply](t, h.do(t, http.MethodPost, "/api/v1/chat/sessions", nil))
	w = h.do(t, http.MethodPost, "/api/v1/chat/sessions/"+start.SessionID+"/actions", model.ChatAction{Kind: conversation.ActionNext})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/chat/sessions/"+start.SessionID+"/actions", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func upload(t *testing.T, router *gin.Engine, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const brochure = `Dubai Hills Estate
Property: Rosehill by Emaar
Apartment with 2 bedrooms. Price AED 2,310,000. Size 1,419 sq ft.
Amenities: Swimming Pool, Gym
Property: Acacia
Apartment with 3 bedrooms. Price AED 3,850,000. Size 1,322 sq ft.
`

func TestDocuments_UploadAndSources(t *testing.T) {
	h := newHarness(t, staticEmbedder{})

	w := upload(t, h.router, "hills-brochure.txt", brochure, map[string]string{"link": "https://example.com/b.pdf"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[model.IndexReport](t, w)
	assert.Equal(t, model.IndexReport{Source: "hills-brochure", Found: 2, Success: 2}, report)

	w = h.do(t, http.MethodGet, "/api/v1/sources", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listing := decode[struct {
		Sources []model.SourceInfo `json:"sources"`
		Total   int                `json:"total"`
	}](t, w)
	assert.Equal(t, 2, listing.Total)
	assert.Contains(t, listing.Sources, model.SourceInfo{Source: "hills-brochure", Records: 2})

	w = h.do(t, http.MethodDelete, "/api/v1/sources/hills-brochure", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	sources, err := h.corpus.Sources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.SourceInfo{{Source: repository.DemoSource, Records: 3}}, sources)
}

func TestDocuments_UploadFailures(t *testing.T) {
	h := newHarness(t, staticEmbedder{})

	w := upload(t, h.router, "broken.pdf", "definitely not a pdf", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/documents", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	down := newHarness(t, staticEmbedder{err: errors.Join(service.ErrEmbeddingService, errors.New("timeout"))})
	w = upload(t, down.router, "hills.txt", brochure, map[string]string{"source": "custom"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	disabled := newHarness(t, nil)
	w = upload(t, disabled.router, "hills.txt", brochure, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNoRoute(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(t, http.MethodGet, "/api/v2/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

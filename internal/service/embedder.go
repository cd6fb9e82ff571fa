package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"

	"propertymatch/internal/config"
)

// ErrEmbeddingService wraps every failure of the embedding collaborator.
// Callers decide whether to retry.
var ErrEmbeddingService = errors.New("embedding service failed")

// Embedder turns text into a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is implemented by embedders that accept several inputs per
// request. Vectors are returned in input order.
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	BatchSize() int
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	dimensions int
	batchSize  int
	extra      []option.RequestOption
	log        zerolog.Logger
}

// NewOpenAIEmbedder creates an embedder from config. The SDK's own retries
// are disabled.
func NewOpenAIEmbedder(cfg *config.OpenAIConfig, log zerolog.Logger) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrEmbeddingService)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.APIBase != "" {
		opts = append(opts, option.WithBaseURL(cfg.APIBase))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(cfg.Timeout)*time.Second))
	}

	// Provider specific fields, e.g. {"truncate":"NONE"} for NVIDIA endpoints
	var extra []option.RequestOption
	if cfg.EmbeddingExtraBody != "" {
		var body map[string]any
		if err := json.Unmarshal([]byte(cfg.EmbeddingExtraBody), &body); err != nil {
			log.Warn().Err(err).Msg("ignoring invalid OPENAI_EMBEDDING_EXTRA_BODY")
		} else {
			for k, v := range body {
				extra = append(extra, option.WithJSONSet(k, v))
			}
		}
	}

	return &OpenAIEmbedder{
		client:     openai.NewClient(opts...),
		model:      cfg.EmbeddingModel,
		dimensions: cfg.EmbeddingDimensions,
		batchSize:  cfg.BatchSize,
		extra:      extra,
		log:        log,
	}, nil
}

func (e *OpenAIEmbedder) params(input openai.EmbeddingNewParamsInputUnion) openai.EmbeddingNewParams {
	params := openai.EmbeddingNewParams{
		Model:          openai.EmbeddingModel(e.model),
		Input:          input,
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		params.Dimensions = openai.Int(int64(e.dimensions))
	}
	return params
}

// Embed implements Embedder
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	params := e.params(openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)})

	resp, err := e.client.Embeddings.New(ctx, params, e.extra...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", ErrEmbeddingService)
	}
	return toFloat32(resp.Data[0].Embedding), nil
}

// EmbedBatch implements BatchEmbedder with a single request
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	params := e.params(openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts})

	resp, err := e.client.Embeddings.New(ctx, params, e.extra...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, err)
	}

	// Data is matched to inputs by index, not by position in the response
	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index >= 0 && int(item.Index) < len(vectors) {
			vectors[item.Index] = toFloat32(item.Embedding)
		}
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: no embedding returned for input %d", ErrEmbeddingService, i)
		}
	}

	e.log.Debug().
		Int("inputs", len(texts)).
		Str("model", resp.Model).
		Int64("tokens", resp.Usage.TotalTokens).
		Msg("created embeddings")
	return vectors, nil
}

// BatchSize implements BatchEmbedder
func (e *OpenAIEmbedder) BatchSize() int {
	return e.batchSize
}

func toFloat32(values []float64) []float32 {
	vector := make([]float32, len(values))
	for i, v := range values {
		vector[i] = float32(v)
	}
	return vector
}

// Model returns the configured embedding model name
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

var _ BatchEmbedder = (*OpenAIEmbedder)(nil)

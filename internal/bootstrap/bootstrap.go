// Package bootstrap opens the stores and services selected by configuration.
// It is shared by the HTTP server and the ingest command.
package bootstrap

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"propertymatch/internal/config"
	"propertymatch/internal/repository"
	"propertymatch/internal/service"
)

// Corpus is an opened corpus store plus its optional capabilities
type Corpus struct {
	Store repository.CorpusStore
	Logs  repository.SearchLogger // nil unless the backend records searches
	close func() error
}

// Close releases the backend's connections
func (c *Corpus) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// OpenCorpus opens the configured corpus backend, migrating Postgres when selected
func OpenCorpus(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Corpus, error) {
	switch cfg.Corpus.Backend {
	case config.BackendPostgres:
		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		log.Info().Str("backend", cfg.Corpus.Backend).Msg("✅ Connected to PostgreSQL corpus")
		return &Corpus{Store: repo, Logs: repo, close: repo.Close}, nil

	case config.BackendFile:
		store, err := repository.NewFileStore(cfg.Corpus.Dir)
		if err != nil {
			return nil, err
		}
		log.Info().Str("backend", cfg.Corpus.Backend).Str("dir", cfg.Corpus.Dir).Msg("✅ Using file corpus")
		return &Corpus{Store: store}, nil

	case config.BackendMemory:
		log.Info().Str("backend", cfg.Corpus.Backend).Msg("✅ Using in-memory corpus")
		return &Corpus{Store: repository.NewMemoryCorpus()}, nil
	}
	return nil, fmt.Errorf("unknown corpus backend %q", cfg.Corpus.Backend)
}

// OpenSessions opens the configured session store. The returned closer is never nil.
func OpenSessions(cfg *config.Config, log zerolog.Logger) (repository.SessionStore, io.Closer, error) {
	switch cfg.Session.Backend {
	case config.BackendRedis:
		store, err := repository.NewRedisSessionStore(repository.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Session.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("✅ Connected to Redis session store")
		return store, store, nil

	case config.BackendMemory:
		log.Info().Dur("ttl", cfg.Session.TTL).Msg("✅ Using in-memory session store")
		return repository.NewMemorySessionStore(cfg.Session.TTL), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewEmbedder returns the configured embedding client, or nil when embedding
// is disabled.
func NewEmbedder(cfg *config.Config, log zerolog.Logger) (service.Embedder, error) {
	if !cfg.OpenAI.Enabled {
		log.Warn().Msg("⚠️  Embedding service disabled - set OPENAI_API_KEY to enable semantic search and indexing")
		return nil, nil
	}
	embedder, err := service.NewOpenAIEmbedder(&cfg.OpenAI, log)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("api_base", cfg.OpenAI.APIBase).
		Str("model", cfg.OpenAI.EmbeddingModel).
		Int("dimensions", cfg.OpenAI.EmbeddingDimensions).
		Msg("✅ Embedding client initialized")
	return embedder, nil
}

// SeedDemo stores the built-in demo properties unless the corpus already
// holds them. With an indexer the records are embedded; without one they are
// stored as is and only serve filter-only search. A demo stored without
// vectors is embedded again once an indexer is available.
func SeedDemo(ctx context.Context, corpus repository.CorpusStore, indexer *service.Indexer, log zerolog.Logger) error {
	sources, err := corpus.Sources(ctx)
	if err != nil {
		return err
	}
	for _, s := range sources {
		if s.Source != repository.DemoSource {
			continue
		}
		if indexer == nil {
			return nil
		}
		missing, err := demoMissingVectors(ctx, corpus)
		if err != nil || !missing {
			return err
		}
		log.Info().Str("source", repository.DemoSource).Msg("🔄 Embedding demo corpus stored without vectors")
	}

	if indexer != nil {
		_, err := indexer.Index(ctx, repository.DemoSource, "", repository.DemoRecords(), nil)
		return err
	}
	if err := corpus.ReplaceSource(ctx, repository.DemoSource, repository.DemoCorpus()); err != nil {
		return err
	}
	log.Info().Str("source", repository.DemoSource).Msg("demo corpus stored without embeddings")
	return nil
}

func demoMissingVectors(ctx context.Context, corpus repository.CorpusStore) (bool, error) {
	records, err := corpus.LoadAll(ctx)
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if rec.Source == repository.DemoSource && len(rec.Embedding) == 0 {
			return true, nil
		}
	}
	return false, nil
}

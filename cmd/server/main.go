package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"propertymatch/internal/bootstrap"
	"propertymatch/internal/config"
	"propertymatch/internal/extract"
	"propertymatch/internal/handler"
	"propertymatch/internal/ingest"
	"propertymatch/internal/logger"
	"propertymatch/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "property-match",
	})
	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Property Match Server")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.Server.GinMode)

	corpus, err := bootstrap.OpenCorpus(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer corpus.Close()

	sessions, closer, err := bootstrap.OpenSessions(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer closer.Close()

	embedder, err := bootstrap.NewEmbedder(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	// Initialize services
	var indexer *service.Indexer
	if embedder != nil {
		indexer = service.NewIndexer(embedder, corpus.Store, cfg.Index.Concurrency, log)
	}
	ranker := service.NewRanker(cfg.Match.SimilarityFloor, cfg.Match.TopK)
	engine := service.NewMatchEngine(corpus.Store, embedder, ranker, log)
	chat := service.NewChatService(sessions, engine, log)
	ingestor := ingest.New(extract.New(extract.WithDefaultLocation(cfg.Extraction.DefaultLocation)), log)

	if cfg.Corpus.SeedDemo {
		if err := bootstrap.SeedDemo(ctx, corpus.Store, indexer, log); err != nil {
			log.Warn().Err(err).Msg("⚠️  Failed to seed demo corpus")
		}
	}

	log.Info().Bool("semantic", engine.Semantic()).Msg("✅ Services initialized")

	routes := handler.Routes{
		Chat:      handler.NewChatHandler(chat),
		Search:    handler.NewSearchHandler(engine, corpus.Logs, log),
		Documents: handler.NewDocumentHandler(ingestor, indexer, corpus.Store, cfg.Server.MaxUploadMB, log),
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitList(cfg.Server.AllowedOrigins)
	corsConfig.AllowMethods = splitList(cfg.Server.AllowedMethods)
	corsConfig.AllowHeaders = splitList(cfg.Server.AllowedHeaders)

	router := handler.NewRouter(routes, log, cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "property-match",
			"semantic":   engine.Semantic(),
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("🚀 Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	log.Info().Msg("✅ Server stopped")
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

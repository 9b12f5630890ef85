// Command learning-engine boots the developer-memory learning pipeline:
// runs pending migrations, wires the store/embedding/LLM clients, starts
// the Pipeline Controller's worker loop, and exposes a thin HTTP surface
// (/healthz, /status, /events) over the core (spec §4.8).
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devmemory/learning-engine/internal/config"
	"github.com/devmemory/learning-engine/pkg/embedding"
	"github.com/devmemory/learning-engine/pkg/llm"
	"github.com/devmemory/learning-engine/pkg/pipeline"
	"github.com/devmemory/learning-engine/pkg/store"
	"github.com/devmemory/learning-engine/pkg/tools"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Logging.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("learning-engine exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	if err := store.Migrate(cfg.Database.DSN); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	st, err := store.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to store: %w", err)
	}
	defer st.Close()

	embClient, err := buildEmbeddingClient(cfg.Embedding, logger)
	if err != nil {
		return fmt.Errorf("build embedding client: %w", err)
	}

	llmClient, err := buildLLMClient(ctx, cfg.LLM, st, logger)
	if err != nil {
		return fmt.Errorf("build llm client: %w", err)
	}

	lock := buildDistributedLock(logger)

	controller := pipeline.NewController(st, embClient, llmClient, cfg.Pipeline, logger, lock)
	if err := controller.Init(ctx); err != nil {
		return fmt.Errorf("initialize pipeline controller: %w", err)
	}
	go controller.Run(ctx)
	defer controller.Stop()

	surface := tools.New(st, embClient, controller, logger)
	metrics := newStatusMetrics()

	srv := newHTTPServer(cfg.Server, st, controller, surface, metrics, logger)
	metricsSrv := newMetricsServer(cfg.Server)
	for _, s := range []*http.Server{srv, metricsSrv} {
		s := s
		go func() {
			logger.WithField("addr", s.Addr).Info("http server listening")
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("http server stopped unexpectedly")
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}

// buildEmbeddingClient wires the configured embedding provider (local or
// openai-compatible HTTP; a "bedrock" setting is served by the local
// provider) behind the embedding.Client's registry/cache/dimension-validation
// contract.
func buildEmbeddingClient(cfg config.EmbeddingConfig, logger *logrus.Logger) (*embedding.Client, error) {
	providers := map[string]embedding.Provider{}

	switch cfg.Provider {
	case "openai":
		providers["openai"] = embedding.NewHTTPProvider("openai", cfg.Endpoint, cfg.Model, os.Getenv("EMBEDDING_API_KEY"), 30*time.Second)
	case "bedrock":
		// A Bedrock provider needs a live AWS client; the local provider is
		// registered under the "bedrock" key the default model routes to, so
		// the service still starts and embeds when credentials aren't
		// configured yet.
		providers["bedrock"] = embedding.NewLocalProvider(cfg.Dimensions)
	default:
		providers["local"] = embedding.NewLocalProvider(cfg.Dimensions)
	}

	return embedding.NewClient(cfg, providers, logger)
}

// buildLLMClient wires the configured LLM provider behind the circuit
// breaker and cache-layered llm.Client.
func buildLLMClient(ctx context.Context, cfg config.LLMConfig, st *store.Pool, logger *logrus.Logger) (*llm.Client, error) {
	var provider llm.Provider
	var err error

	switch cfg.Provider {
	case "bedrock":
		provider, err = llm.NewBedrockProvider(ctx, os.Getenv("AWS_REGION"))
	case "langchain":
		provider, err = llm.NewOllamaLangchainProvider(cfg.Endpoint, cfg.Model)
	default:
		provider = llm.NewAnthropicProvider(os.Getenv("ANTHROPIC_API_KEY"))
	}
	if err != nil {
		return nil, err
	}

	return llm.NewClient(cfg, provider, st, logger)
}

func buildDistributedLock(logger *logrus.Logger) pipeline.DistributedLock {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		return nil
	}
	client, err := newRedisClient(url)
	if err != nil {
		logger.WithError(err).Warn("failed to connect to redis, falling back to process-local lock")
		return nil
	}
	return pipeline.NewRedisLock(client)
}

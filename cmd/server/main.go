package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agenthands/nexus/internal/config"
	"github.com/agenthands/nexus/internal/core"
	"github.com/agenthands/nexus/internal/core/disambiguation"
	"github.com/agenthands/nexus/internal/core/state"
	"github.com/agenthands/nexus/internal/driver"
	"github.com/agenthands/nexus/internal/llm"
	"github.com/agenthands/nexus/internal/logger"
	"github.com/agenthands/nexus/internal/metrics"
	"github.com/agenthands/nexus/internal/server"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		provider state.Provider
		store    disambiguation.GraphStore
		writer   state.Writer
	)
	if cfg.Memgraph.URI != "" {
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, zl.Named("memgraph"))
		if err != nil {
			zl.Fatal("failed to connect to memgraph", zap.Error(err))
		}
		defer func() { _ = d.Close(context.Background()) }()
		if err := d.BuildIndices(ctx); err != nil {
			zl.Warn("failed to build indices", zap.Error(err))
		}
		graphStore := driver.NewStore(d)
		provider, store, writer = driver.NewProvider(d), graphStore, graphStore
	} else {
		zl.Warn("MEMGRAPH_URI not set, serving an empty in-memory graph")
		mem := state.NewMemoryProvider()
		provider, store, writer = mem, disambiguation.NewMemoryStore().MirrorRepels(mem), mem
	}

	embedder, err := llm.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		zl.Fatal("failed to initialize embedder", zap.Error(err))
	}
	if embedder != nil {
		zl.Info("name embeddings enabled", zap.String("provider", cfg.Embedding.Provider))
		provider = llm.NewEmbeddingProvider(provider, embedder, llm.WithEmbeddingLogger(zl.Named("embedding")))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	n := core.New(provider, store,
		core.WithConfig(cfg),
		core.WithLogger(zl),
		core.WithMetrics(metrics.New(reg)),
		core.WithWriter(writer),
	)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.NewServer(n, zl, reg).SetupRouter(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zl.Info("starting server", zap.String("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zl.Fatal("server failed", zap.Error(err))
	}
}

// loadConfig reads CONFIG_PATH (default config/config.toml). A missing
// file falls back to defaults plus environment overrides.
func loadConfig() (*config.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.toml"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Printf("Config file %s not found, using defaults", path)
		cfg := config.Default()
		return cfg, cfg.ApplyEnv(os.LookupEnv)
	}
	return config.Load(path)
}

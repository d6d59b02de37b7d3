package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ziadkadry99/docrag/internal/config"
	"github.com/ziadkadry99/docrag/internal/db"
	"github.com/ziadkadry99/docrag/internal/embeddings"
	"github.com/ziadkadry99/docrag/internal/history"
	"github.com/ziadkadry99/docrag/internal/indexer"
	"github.com/ziadkadry99/docrag/internal/llm"
	"github.com/ziadkadry99/docrag/internal/progress"
	"github.com/ziadkadry99/docrag/internal/rag"
	"github.com/ziadkadry99/docrag/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) && cfgFile != config.DefaultPath {
		return nil, fmt.Errorf("config file %s not found\nRun `docrag init` to create one", cfgFile)
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `docrag init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

// openIndex builds the embedder for cfg and opens the persistent vector
// index with it. showProgress attaches a progress bar to embedding batches.
func openIndex(ctx context.Context, cfg *config.Config, showProgress bool) (*vectordb.Index, error) {
	embedder, err := embeddings.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	opts := []embeddings.BatcherOption{
		embeddings.WithRequestsPerMinute(cfg.Embedding.RequestsPerMinute),
	}
	if showProgress {
		reporter := progress.NewReporter()
		started := false
		opts = append(opts, embeddings.WithProgress(func(done, total int) {
			if !started {
				reporter.Start(total, "Embedding")
				started = true
			}
			reporter.Update(done, "")
			if done >= total {
				reporter.Finish()
				started = false
			}
		}))
	}
	batcher := embeddings.NewBatcher(embedder, cfg.Embedding.BatchSize, opts...)

	idx, err := vectordb.Open(vectordb.Options{
		Path:       cfg.DBPath,
		Collection: cfg.Collection,
	}, batcher)
	if err != nil {
		return nil, fmt.Errorf("opening vector index: %w", err)
	}
	return idx, nil
}

// newEngine builds the answer engine over store.
func newEngine(ctx context.Context, cfg *config.Config, store vectordb.Store) (*rag.Engine, error) {
	provider, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	return rag.NewEngine(rag.NewRetriever(store), provider, rag.EngineOptions{
		TopK:            cfg.Retrieval.TopK,
		MaxContextChars: cfg.Retrieval.MaxContextChars,
		MaxTokens:       cfg.Generation.MaxTokens,
		Temperature:     cfg.Generation.Temperature,
		Model:           cfg.Model,
	}), nil
}

// newOrchestrator builds the indexing orchestrator with terminal progress.
func newOrchestrator(cfg *config.Config, store vectordb.Store) *indexer.Orchestrator {
	return indexer.NewOrchestrator(cfg, store, indexer.WithReporter(progress.NewReporter()))
}

// openHistory opens the history database. The returned close func is
// always safe to call.
func openHistory(cfg *config.Config) (*history.Store, func(), error) {
	if cfg.HistoryDB == "" {
		return nil, func() {}, nil
	}
	database, err := db.Open(cfg.HistoryDB)
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening history database: %w", err)
	}
	return history.NewStore(database), func() { database.Close() }, nil
}

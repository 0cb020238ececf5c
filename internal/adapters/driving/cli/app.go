package cli

import (
	"context"
	"fmt"
	"os"

	configfile "github.com/arkanlabs/docchat/internal/adapters/driven/config/file"
	embeddingollama "github.com/arkanlabs/docchat/internal/adapters/driven/embedding/ollama"
	embeddingopenai "github.com/arkanlabs/docchat/internal/adapters/driven/embedding/openai"
	"github.com/arkanlabs/docchat/internal/adapters/driven/extractor/plaintext"
	llmollama "github.com/arkanlabs/docchat/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/arkanlabs/docchat/internal/adapters/driven/llm/openai"
	storagememory "github.com/arkanlabs/docchat/internal/adapters/driven/storage/memory"
	"github.com/arkanlabs/docchat/internal/adapters/driven/storage/sqlite"
	vectormemory "github.com/arkanlabs/docchat/internal/adapters/driven/vector/memory"
	"github.com/arkanlabs/docchat/internal/chunker"
	"github.com/arkanlabs/docchat/internal/core/domain"
	"github.com/arkanlabs/docchat/internal/core/ports/driven"
	"github.com/arkanlabs/docchat/internal/core/services"
	"github.com/arkanlabs/docchat/internal/logger"
)

// app bundles the wired services for one command invocation.
type app struct {
	settings domain.Settings

	store    *sqlite.Store
	embedder driven.EmbeddingService
	llm      driven.LLMService
	index    driven.VectorIndex

	sessions     *services.SessionStore
	sweeper      *services.Sweeper
	ingestor     *services.Ingestor
	orchestrator *services.AnswerOrchestrator
}

// buildApp assembles the full pipeline from configuration. With
// ephemeral set, storage is held in memory instead of SQLite; used by
// one-shot commands that should not touch the data directory.
func buildApp(ctx context.Context, ephemeral bool) (*app, error) {
	cfg, err := configfile.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	settings := cfg.Settings()
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	llm, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		settings: settings,
		embedder: embedder,
		llm:      llm,
		index:    vectormemory.NewIndex(),
	}

	var docs driven.DocumentStore
	if ephemeral {
		docs = storagememory.NewDocStore()
		a.sessions = services.NewSessionStore(settings)
	} else {
		store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.store = store
		docs = store.DocumentStore()
		a.sessions = services.NewSessionStore(settings, services.WithHistoryStore(store.HistoryStore()))

		if err := a.rebuildIndex(ctx, docs); err != nil {
			store.Close()
			return nil, err
		}
		if err := a.restoreSessions(ctx, store.HistoryStore()); err != nil {
			store.Close()
			return nil, err
		}
	}

	ck := chunker.New(
		chunker.WithChunkSize(settings.ChunkSize),
		chunker.WithOverlap(settings.ChunkOverlap),
	)
	extractors := []driven.TextExtractor{plaintext.New()}

	a.sweeper = services.NewSweeper(a.sessions, settings.SweepInterval)
	a.ingestor = services.NewIngestor(docs, a.index, embedder, extractors, ck, settings.ServiceTimeout)
	a.orchestrator = services.NewAnswerOrchestrator(a.sessions, embedder, a.index, llm, settings)

	return a, nil
}

// rebuildIndex reloads stored fragments into the in-memory vector index.
func (a *app) rebuildIndex(ctx context.Context, docs driven.DocumentStore) error {
	records, err := docs.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	total := 0
	for _, rec := range records {
		fragments, err := docs.GetFragments(ctx, rec.Filename)
		if err != nil {
			return fmt.Errorf("load fragments for %s: %w", rec.Filename, err)
		}
		if len(fragments) == 0 {
			continue
		}
		if err := a.index.Upsert(ctx, fragments); err != nil {
			return fmt.Errorf("index fragments for %s: %w", rec.Filename, err)
		}
		total += len(fragments)
	}

	if total > 0 {
		logger.Info("restored %d fragment(s) from %d document(s)", total, len(records))
	}
	return nil
}

// restoreSessions recreates sessions whose conversations were persisted
// before the last shutdown, so their ids keep working after a restart.
func (a *app) restoreSessions(ctx context.Context, history driven.HistoryStore) error {
	ids, err := history.SessionIDs(ctx)
	if err != nil {
		return fmt.Errorf("list persisted sessions: %w", err)
	}

	for _, id := range ids {
		exchanges, err := history.LoadHistory(ctx, id)
		if err != nil {
			return fmt.Errorf("load history for session %s: %w", id, err)
		}
		a.sessions.Restore(id, exchanges)
	}

	if len(ids) > 0 {
		logger.Info("restored %d conversation(s)", len(ids))
	}
	return nil
}

// close releases everything the app holds.
func (a *app) close() {
	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	if a.index != nil {
		a.index.Close() //nolint:errcheck // in-memory close cannot fail
	}
	if a.embedder != nil {
		a.embedder.Close() //nolint:errcheck // nothing actionable on close
	}
	if a.llm != nil {
		a.llm.Close() //nolint:errcheck // nothing actionable on close
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warn("close storage: %v", err)
		}
	}
}

// buildEmbedder selects the embedding provider from configuration.
// Defaults to Ollama so a fresh install works without an API key.
func buildEmbedder(cfg *configfile.ConfigStore) (driven.EmbeddingService, error) {
	provider := cfg.GetString("embedding.provider")
	if provider == "" {
		provider = "ollama"
	}

	switch provider {
	case "openai":
		return embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey:  openAIKey(cfg),
			BaseURL: cfg.GetString("openai.base_url"),
			Model:   cfg.GetString("embedding.model"),
		})
	case "ollama":
		return embeddingollama.NewEmbeddingService(embeddingollama.Config{
			BaseURL:    cfg.GetString("ollama.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrEmbeddingUnavailable, provider)
	}
}

// buildLLM selects the generation provider from configuration.
func buildLLM(cfg *configfile.ConfigStore) (driven.LLMService, error) {
	provider := cfg.GetString("llm.provider")
	if provider == "" {
		provider = "ollama"
	}

	switch provider {
	case "openai":
		return llmopenai.NewLLMService(llmopenai.LLMConfig{
			APIKey:  openAIKey(cfg),
			BaseURL: cfg.GetString("openai.base_url"),
			Model:   cfg.GetString("llm.model"),
		})
	case "ollama":
		return llmollama.NewLLMService(llmollama.LLMConfig{
			BaseURL: cfg.GetString("ollama.base_url"),
			Model:   cfg.GetString("llm.model"),
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", domain.ErrLLMUnavailable, provider)
	}
}

// openAIKey prefers the environment variable over the config file so
// keys need not be written to disk.
func openAIKey(cfg *configfile.ConfigStore) string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	return cfg.GetString("openai.api_key")
}

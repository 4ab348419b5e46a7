// Package app builds the application dependency graph once at startup
// and hands it to the API server. No package-level singletons: every
// component receives its dependencies explicitly.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragvault/ragvault/internal/agent"
	"github.com/ragvault/ragvault/internal/chat"
	"github.com/ragvault/ragvault/internal/config"
	"github.com/ragvault/ragvault/internal/document"
	"github.com/ragvault/ragvault/internal/gemini"
	"github.com/ragvault/ragvault/internal/log"
	"github.com/ragvault/ragvault/internal/ollama"
	"github.com/ragvault/ragvault/internal/session"
	"github.com/ragvault/ragvault/internal/vault"
	"github.com/ragvault/ragvault/internal/vecindex"
)

// Provider bundles the two model-facing capabilities a backend must
// supply.
type Provider interface {
	chat.Embedder
	chat.Generator
}

// App is the assembled application.
type App struct {
	Config       *config.Config
	Logger       log.Logger
	Pool         *pgxpool.Pool
	Registry     *vault.Registry
	Pipeline     *document.Pipeline
	Sessions     *session.Store
	Agents       *agent.Store
	Orchestrator *chat.Orchestrator
}

// Setup connects to Postgres and wires every component. The caller owns
// the returned App and must Close it.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	pool, err := newPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	provider, err := newProvider(ctx, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	index := vecindex.New(pool, provider, logger)
	sessions := session.NewStore(pool, logger)

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Pool:     pool,
		Registry: vault.NewRegistry(pool, logger),
		Pipeline: document.NewPipeline(pool, index, logger),
		Sessions: sessions,
		Agents:   agent.NewStore(pool, logger),
		Orchestrator: chat.New(sessions, provider, index, provider, chat.Options{
			MaxHistoryMessages: cfg.MaxHistoryMessages,
			Retry:              chat.DefaultRetryConfig(),
		}, logger),
	}
	return app, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

func newPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

func newProvider(ctx context.Context, cfg *config.Config, logger log.Logger) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.New(ollama.Config{
			BaseURL:       cfg.OllamaHost,
			EmbedModel:    cfg.EmbedderModel,
			GenerateModel: cfg.ChatModel,
			Temperature:   cfg.DefaultTemperature,
		}), nil
	default:
		return gemini.New(ctx, gemini.Config{
			APIKey:        cfg.GeminiAPIKey,
			EmbedModel:    cfg.EmbedderModel,
			GenerateModel: cfg.ChatModel,
			Temperature:   cfg.DefaultTemperature,
		}, logger)
	}
}

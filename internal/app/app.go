// Package app wires the connector's dependencies and runs its modes:
//
//   - Serve mode: HTTP trigger, health probes and metrics, plus an optional
//     periodic sync every SYNC_INTERVAL
//   - Once mode: a single sync pass, then exit
//   - Login mode: interactive creation of the Telegram session file
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-feed-connector/internal/core/embeddings"
	apperrors "github.com/lueurxax/telegram-feed-connector/internal/core/errors"
	"github.com/lueurxax/telegram-feed-connector/internal/core/links"
	"github.com/lueurxax/telegram-feed-connector/internal/ingest/reader"
	"github.com/lueurxax/telegram-feed-connector/internal/ingest/telegram"
	"github.com/lueurxax/telegram-feed-connector/internal/platform/config"
	"github.com/lueurxax/telegram-feed-connector/internal/platform/observability"
	"github.com/lueurxax/telegram-feed-connector/internal/platform/worker"
	"github.com/lueurxax/telegram-feed-connector/internal/process/dedup"
	"github.com/lueurxax/telegram-feed-connector/internal/process/media"
	"github.com/lueurxax/telegram-feed-connector/internal/process/normalize"
	"github.com/lueurxax/telegram-feed-connector/internal/process/pipeline"
	"github.com/lueurxax/telegram-feed-connector/internal/process/schema"
	"github.com/lueurxax/telegram-feed-connector/internal/process/writer"
	db "github.com/lueurxax/telegram-feed-connector/internal/storage"
)

const syncWorkerName = "sync"

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// RunServe serves the trigger endpoint until ctx is canceled.
func (a *App) RunServe(ctx context.Context) error {
	a.logger.Info().Msg("Starting serve mode")

	return a.withSyncer(ctx, func(ctx context.Context, runner pipeline.Runner) error {
		sync := syncFunc(runner)

		if a.cfg.SyncInterval > 0 {
			go func() {
				err := worker.Loop(ctx, worker.Config{
					Name:       syncWorkerName,
					Interval:   a.cfg.SyncInterval,
					Timeout:    a.cfg.SyncTimeout,
					RunOnStart: true,
					Process:    sync,
					Skippable:  []error{apperrors.ErrSyncInProgress},
					Logger:     a.logger,
				})
				if err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Error().Err(err).Msg("sync worker stopped")
				}
			}()
		}

		srv := observability.NewServer(a.cfg.HTTPPort, a.database, sync, a.cfg.SyncTimeout, a.logger)

		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("http server start: %w", err)
		}

		return nil
	})
}

// RunOnce performs a single sync pass.
func (a *App) RunOnce(ctx context.Context) error {
	a.logger.Info().Msg("Starting single sync pass")

	return a.withSyncer(ctx, func(ctx context.Context, runner pipeline.Runner) error {
		if a.cfg.SyncTimeout > 0 {
			return worker.RunWithTimeout(ctx, a.cfg.SyncTimeout, syncFunc(runner))
		}

		return syncFunc(runner)(ctx)
	})
}

func syncFunc(runner pipeline.Runner) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := runner.Run(ctx)

		return err
	}
}

// withSyncer connects to Telegram and runs fn with the guarded sync pipeline.
func (a *App) withSyncer(ctx context.Context, fn func(ctx context.Context, runner pipeline.Runner) error) error {
	client, err := telegram.New(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("telegram client init: %w", err)
	}

	validator, err := schema.New()
	if err != nil {
		return fmt.Errorf("schema init: %w", err)
	}

	return client.Run(ctx, func(ctx context.Context) error {
		return fn(ctx, a.newSyncer(client, validator))
	})
}

func (a *App) newSyncer(client *telegram.Client, validator *schema.Validator) *pipeline.Guard {
	fetcher := links.NewWebFetcher(a.cfg.PreviewFetchRPS, a.cfg.PreviewFetchTimeout)
	resolver := media.NewResolver(fetcher, a.cfg.PreviewBaseURL, a.logger)

	norm := normalize.New(client, resolver, a.cfg.AccountID(), a.logger)
	rd := reader.New(client, a.database, a.cfg.BackfillLimit, a.logger)

	w := writer.New(a.database, a.logger)
	if a.cfg.EmbeddingsEnabled {
		w.WithEmbeddings(a.database, embeddings.NewClient(embeddingConfig(a.cfg), a.logger))
		a.logger.Info().Str("model", a.cfg.EmbeddingModel).Msg("Embedding backfill enabled")
	}

	syncer := pipeline.New(client, rd, norm, validator, w, glueOptions(a.cfg), a.logger)

	return pipeline.NewGuard(syncer, a.database, a.logger)
}

func glueOptions(cfg *config.Config) dedup.Options {
	return dedup.Options{MinASCIILength: cfg.GlueMinLength, MaxLength: cfg.GlueMaxLength}
}

func embeddingConfig(cfg *config.Config) embeddings.Config {
	return embeddings.Config{
		OpenAIAPIKey:         cfg.OpenAIAPIKey,
		OpenAIModel:          cfg.EmbeddingModel,
		OpenAIDimensions:     cfg.EmbeddingDimensions,
		OpenAIRateLimit:      cfg.EmbeddingRPS,
		CircuitBreakerConfig: embeddings.DefaultCircuitBreakerConfig(),
		TargetDimensions:     embeddings.DefaultDimensions,
	}
}

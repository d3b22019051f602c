package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"vtable"
	"vtable/internal/config"
	"vtable/internal/source"
)

// buildSource constructs the configured data layer. The returned cleanup
// releases any connections it holds and is never nil.
func buildSource(ctx context.Context, cfg config.SourceConfig, logger *zap.Logger) (source.Source, func(), error) {
	noop := func() {}
	switch cfg.Kind {
	case config.SourceHTTP:
		return source.NewHTTPSource(source.HTTPConfig{
			URL:         cfg.URL,
			Limit:       cfg.Limit,
			PageSize:    cfg.PageSize,
			Concurrency: cfg.Concurrency,
			RateLimit:   cfg.RateLimit,
		}, &http.Client{Timeout: cfg.Timeout}, logger), noop, nil

	case config.SourceFile:
		return source.NewFileSource(cfg.Path, logger), noop, nil

	case config.SourcePostgres:
		poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to parse database dsn: %w", err)
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create connection pool: %w", err)
		}
		return source.NewPGSource(pool, cfg.Query), pool.Close, nil

	case config.SourceSynthetic:
		return source.NewSyntheticSource(cfg.SyntheticRows), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown source kind %q", cfg.Kind)
}

// newModel builds the interactive table over fetcher.
func newModel(cfg *config.Config, fetcher vtable.Fetcher, logger *zap.Logger) (vtable.Model, error) {
	cols, err := cfg.Columns()
	if err != nil {
		return vtable.Model{}, err
	}
	return vtable.NewModel(vtable.ModelConfig{
		Table:       cfg.EngineConfig(0),
		Columns:     cols,
		Title:       cfg.Table.Title,
		FitHeight:   cfg.Table.ViewportHeight == 0,
		NarrowBelow: cfg.Table.NarrowBelow,
		WheelLines:  cfg.Table.WheelLines,
		Fetcher:     fetcher,
		Logger:      logger,
		DumpWindow:  cfg.Logger.DebugWindow,
	})
}

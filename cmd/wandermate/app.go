package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yourorg/wandermate/internal/assistant"
	"github.com/yourorg/wandermate/internal/config"
	"github.com/yourorg/wandermate/internal/generator"
	"github.com/yourorg/wandermate/internal/planner"
	"github.com/yourorg/wandermate/internal/store"
	"github.com/yourorg/wandermate/internal/upstream"
)

// app holds the long-lived components built from one config.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.SQLiteStore
	cache   store.Cache
	model   generator.TextModel
	closers []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app, error) {
	logger := config.NewLogger(cfg.Log, logOut)

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, store: st, closers: []io.Closer{st}}

	cache, err := store.OpenCache(ctx, cfg.Cache, st)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.cache = cache
	if c, ok := cache.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	model, err := newModel(ctx, cfg.LLM, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.model = model
	if c, ok := model.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	logger.Debug("app ready", "cache", cfg.Cache.Backend, "llm", cfg.LLM.Provider, "model", cfg.LLM.Model)
	return a, nil
}

// newModel returns nil when no key is configured; generation then reports
// a placeholder instead of failing startup.
func newModel(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (generator.TextModel, error) {
	if cfg.APIKey == "" {
		logger.Warn("llm.api_key not set; itineraries and chat will be unavailable")
		return nil, nil
	}
	switch cfg.Provider {
	case "openai":
		return &generator.Client{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			MaxRetries:  cfg.MaxRetries,
			Logger:      logger,
		}, nil
	default:
		return generator.NewGeminiModel(ctx, cfg.APIKey, cfg.Model, cfg.Temperature, cfg.MaxTokens, logger)
	}
}

func (a *app) planner() *planner.Planner {
	u := a.cfg.Upstream
	hc := upstream.NewHTTPClient(u.Timeout())
	return &planner.Planner{
		Geocoder:    upstream.NewGeocoder(u.OpenCage.BaseURL, u.OpenCage.APIKey, hc, a.logger),
		Flights:     upstream.NewAmadeus(u.Amadeus.BaseURL, u.Amadeus.APIKey, u.Amadeus.APISecret, u.Amadeus.Currency, hc, a.logger),
		Attractions: upstream.NewPlaces(u.Places.BaseURL, u.Places.APIKey, hc, a.logger),
		Weather:     upstream.NewWeather(u.Weather.BaseURL, u.Weather.APIKey, hc, a.logger),
		Itineraries: &generator.Itineraries{
			Model:  a.model,
			Cache:  a.cache,
			TTL:    a.cfg.Cache.TTL(),
			Logger: a.logger,
		},
		Sessions: a.store,
		Logger:   a.logger,
	}
}

func (a *app) assistant() *assistant.Assistant {
	return &assistant.Assistant{Model: a.model, Sessions: a.store, Logger: a.logger}
}

func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

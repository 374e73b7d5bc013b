package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/resetpoint/config"
	"github.com/alejandrodnm/resetpoint/internal/adapters/advice"
	"github.com/alejandrodnm/resetpoint/internal/adapters/csvfile"
	"github.com/alejandrodnm/resetpoint/internal/adapters/llm"
	"github.com/alejandrodnm/resetpoint/internal/adapters/storage"
	"github.com/alejandrodnm/resetpoint/internal/application/analysis"
	"github.com/alejandrodnm/resetpoint/internal/application/engine"
	"github.com/alejandrodnm/resetpoint/internal/ports"
)

// buildService arma engine, advisor y cache. El cleanup cierra la cache.
func buildService(ctx context.Context, cfg *config.Config, withAdvice bool) (*analysis.Service, func(), error) {
	eng, err := engine.New(cfg.Policy())
	if err != nil {
		return nil, nil, err
	}

	provider := cfg.Advice.Provider
	if !withAdvice {
		provider = config.ProviderNone
	}
	advisor, name := buildAdvisor(cfg, provider)

	var cache ports.AdviceCache
	cleanup := func() {}
	if advisor != nil {
		c, err := buildCache(ctx, cfg.Storage)
		if err != nil {
			return nil, nil, err
		}
		if c != nil {
			cache = c
			cleanup = func() {
				if err := c.Close(); err != nil {
					slog.Warn("close advice cache", "err", err)
				}
			}
		}
	}

	svc := analysis.NewService(analysis.Config{
		AdvisorName:   name,
		AdviceTimeout: cfg.Advice.Timeout,
		CacheTTL:      cfg.Advice.CacheTTL,
		CSV: csvfile.Options{
			Delimiter: cfg.Delimiter(),
			MaxRows:   cfg.Server.MaxRows,
		},
	}, eng, advisor, cache)

	slog.Info("analysis service ready",
		"advisor", name,
		"cache", cfg.Storage.Driver,
		"policy_min_trades", cfg.Policy().MinViableTrades,
	)
	return svc, cleanup, nil
}

// buildAdvisor devuelve nil cuando no hay consejos. Sin API key el proveedor
// llm cae a none.
func buildAdvisor(cfg *config.Config, provider string) (ports.Advisor, string) {
	switch provider {
	case config.ProviderLLM:
		if cfg.Advice.APIKey == "" {
			slog.Warn("llm advice disabled: no api key configured", "env", "LLM_API_KEY")
			return nil, config.ProviderNone
		}
		return llm.NewClient(llm.Config{
			Endpoint: cfg.Advice.Endpoint,
			APIKey:   cfg.Advice.APIKey,
			Model:    cfg.Advice.Model,
			MaxTips:  cfg.Advice.MaxTips,
			Timeout:  cfg.Advice.Timeout,
		}), config.ProviderLLM + ":" + cfg.Advice.Model
	case config.ProviderRules:
		return advice.NewRules(cfg.Advice.MaxTips, cfg.Policy()), config.ProviderRules
	default:
		return nil, config.ProviderNone
	}
}

func buildCache(ctx context.Context, cfg config.StorageConfig) (ports.AdviceCache, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		c, err := storage.NewSQLiteCache(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite cache %q: %w", cfg.DSN, err)
		}
		return c, nil
	case config.DriverRedis:
		c, err := storage.NewRedisCache(ctx, storage.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			// la cache es opcional: sin redis se sirve igual
			slog.Warn("redis advice cache unavailable", "addr", cfg.RedisAddr, "err", err)
			return nil, nil
		}
		return c, nil
	default:
		return nil, nil
	}
}

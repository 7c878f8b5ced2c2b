package main

import (
	"fmt"

	"github.com/exocortex-go/exocortex/internal/analysis"
	"github.com/exocortex-go/exocortex/internal/config"
	"github.com/exocortex-go/exocortex/internal/embedding"
	"github.com/exocortex-go/exocortex/internal/logging"
	"github.com/exocortex-go/exocortex/internal/memory"
	"github.com/exocortex-go/exocortex/internal/service"
	"github.com/exocortex-go/exocortex/internal/store"
)

// app bundles everything a command needs, opened fresh per invocation
// and torn down via close().
type app struct {
	cfg  *config.Config
	st   *store.Store
	repo *memory.Repository
	svc  *service.Service
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output})

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}

	storeOpts := store.DefaultOptions()
	storeOpts.RetryDelay = cfg.Dream.RetryDelay
	storeOpts.MaxRetries = cfg.Dream.MaxRetries

	st, err := store.Open(cfg.DBPath(), storeOpts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	embedder := embedding.NewHashEmbedder(storeOpts.Dimension)
	repo := memory.NewRepository(st, embedder)

	thresholds := analysis.Thresholds{
		LinkSuggestion:     cfg.LinkSuggestionThreshold,
		DuplicateDetection: cfg.DuplicateDetectionThreshold,
		ContradictionCheck: cfg.ContradictionCheckThreshold,
	}
	svc := service.New(repo, thresholds, cfg.StaleMemoryDays, cfg.MaxTagsPerMemory)

	return &app{cfg: cfg, st: st, repo: repo, svc: svc}, nil
}

func (a *app) close() {
	a.st.Close()
}

// Package engine keeps place ratings and user progression consistent with
// the reviews that drive them.
package engine

import (
	"time"

	"placereview/internal/domain/storage"
	"placereview/internal/keylock"

	"go.uber.org/zap"
)

type Config struct {
	XPPerReview       int
	CompletionTimeout time.Duration
	DefaultCity       string
	ResolveRetries    int
}

type Engine struct {
	Taxonomy    Taxonomy
	Resolver    *Resolver
	Aggregator  *Aggregator
	Progression *Progression
	Coordinator *Coordinator
}

// New wires the engine components. Zero Config fields take defaults.
func New(store storage.Store, locks keylock.Locker, logger *zap.SugaredLogger, cfg Config) *Engine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if locks == nil {
		locks = keylock.NewMemory()
	}
	if cfg.XPPerReview <= 0 {
		cfg.XPPerReview = DefaultXPPerReview
	}
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = DefaultCompletionTimeout
	}
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = DefaultCity
	}
	if cfg.ResolveRetries <= 0 {
		cfg.ResolveRetries = defaultResolveRetries
	}

	taxonomy := DefaultTaxonomy()
	resolver := &Resolver{
		store:       store,
		locks:       locks,
		taxonomy:    taxonomy,
		defaultCity: cfg.DefaultCity,
		retries:     cfg.ResolveRetries,
		logger:      logger,
	}
	aggregator := &Aggregator{store: store, locks: locks, logger: logger}
	progression := &Progression{
		store:       store,
		locks:       locks,
		xpPerReview: cfg.XPPerReview,
		logger:      logger,
	}

	return &Engine{
		Taxonomy:    taxonomy,
		Resolver:    resolver,
		Aggregator:  aggregator,
		Progression: progression,
		Coordinator: &Coordinator{
			store:             store,
			resolver:          resolver,
			aggregator:        aggregator,
			progression:       progression,
			completionTimeout: cfg.CompletionTimeout,
			logger:            logger,
		},
	}
}

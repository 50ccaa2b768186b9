package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tollgate-ai/tollgate/pkg/budget"
	"github.com/tollgate-ai/tollgate/pkg/cache"
	"github.com/tollgate-ai/tollgate/pkg/classify"
	"github.com/tollgate-ai/tollgate/pkg/config"
	"github.com/tollgate-ai/tollgate/pkg/costs"
	"github.com/tollgate-ai/tollgate/pkg/dispatch"
	"github.com/tollgate-ai/tollgate/pkg/inference"
	"github.com/tollgate-ai/tollgate/pkg/metrics"
	"github.com/tollgate-ai/tollgate/pkg/store"
)

// stack bundles everything a command needs wired from one config file.
type stack struct {
	cfg        *config.Config
	store      store.Store
	cache      *cache.Cache
	governor   *budget.Governor
	dispatcher *dispatch.Dispatcher
}

func buildStack(ctx context.Context, configPath string) (*stack, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	st, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	var c *cache.Cache
	if cfg.Cache.Enabled {
		c = cache.New(st, cfg.Cache.MaxAge)
	}

	governor, err := budget.New(ctx, cfg.Budget, st)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init budget governor: %w", err)
	}

	classifier := classify.New(cfg.Tiers)
	estimator := costs.New(cfg.Models)
	client := inference.New(cfg.Provider)
	m := metrics.New(prometheus.DefaultRegisterer)

	return &stack{
		cfg:        cfg,
		store:      st,
		cache:      c,
		governor:   governor,
		dispatcher: dispatch.New(classifier, estimator, c, governor, client, st, m),
	}, nil
}

func (s *stack) Close() {
	s.governor.Close()
	_ = s.store.Close()
}

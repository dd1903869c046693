// Package processor wires the statistics datasource, cache, predictor and picks scanner
// together from configuration so that every entry point builds them the same way.
package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/richard-senior/podds/internal/logger"
	"github.com/richard-senior/podds/pkg/cache"
	"github.com/richard-senior/podds/pkg/tools"
	"github.com/richard-senior/podds/pkg/util/podds"
)

// Processor owns the long lived components of a podds process
type Processor struct {
	Config     *podds.PoddsConfig
	Cache      cache.Cache
	Datasource *podds.ApiFootballDatasource
	Predictor  *podds.Predictor
	Scanner    *podds.PicksScanner
	Tools      *tools.Podds
}

// New builds the components described by cfg
func New(ctx context.Context, cfg *podds.PoddsConfig) (*Processor, error) {
	if cfg.ApiKey == "" {
		logger.Warn("No API key configured, set PODDS_API_KEY")
	}
	c, err := cache.New(ctx, podds.CacheOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache: %w", cfg.CacheBackend, err)
	}
	purgeExpired(ctx, c)
	ds := podds.NewApiFootballDatasource(cfg, c)
	return NewWithSources(cfg, c, ds, ds), nil
}

// purgeExpired drops expired rows from a persistent cache. Dated lookups are rarely
// read again so nothing else would evict them
func purgeExpired(ctx context.Context, c cache.Cache) int64 {
	p, ok := c.(interface {
		Purge(context.Context) (int64, error)
	})
	if !ok {
		return 0
	}
	n, err := p.Purge(ctx)
	if err != nil {
		logger.Warn("Failed to purge expired cache entries", err)
		return 0
	}
	if n > 0 {
		logger.Info(fmt.Sprintf("Purged %d expired cache entries", n))
	}
	return n
}

// NewWithSources builds a processor over caller supplied sources, used by tests
func NewWithSources(cfg *podds.PoddsConfig, c cache.Cache, stats podds.StatsSource, fixtures podds.FixtureSource) *Processor {
	predictor := podds.NewPredictor(stats, cfg)
	scanner := podds.NewPicksScanner(fixtures, predictor, cfg)
	p := &Processor{
		Config:    cfg,
		Cache:     c,
		Predictor: predictor,
		Scanner:   scanner,
		Tools:     tools.NewPodds(predictor, scanner, cfg),
	}
	if ds, ok := stats.(*podds.ApiFootballDatasource); ok {
		p.Datasource = ds
	}
	return p
}

// ProcessRequest decodes a JSON match request, runs it and returns the indented result
func (p *Processor) ProcessRequest(ctx context.Context, input []byte) ([]byte, error) {
	var req podds.MatchRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request JSON: %w", err)
	}
	result, err := p.Predictor.PredictMatch(ctx, req)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(result, "", "  ")
}

// Close releases the cache
func (p *Processor) Close() error {
	if p.Cache == nil {
		return nil
	}
	return p.Cache.Close()
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rushteam/listingrec/catalog"
	"github.com/rushteam/listingrec/config"
	"github.com/rushteam/listingrec/feature"
	"github.com/rushteam/listingrec/metrics"
	"github.com/rushteam/listingrec/recommend"
	"github.com/rushteam/listingrec/store"
	"github.com/rushteam/listingrec/weights"
)

// buildEngine 按配置组装 目录 -> 快照缓存 -> 权重 -> 引擎；cleanup 关闭底层连接
func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*recommend.Engine, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("close failed", slog.String("error", err.Error()))
			}
		}
	}

	var source catalog.Catalog
	switch cfg.Catalog.Source {
	case config.SourceFile:
		m, err := catalog.LoadMemoryFile(cfg.Catalog.File)
		if err != nil {
			return nil, func() {}, err
		}
		source = m
	default:
		pg, err := catalog.NewPostgres(ctx, cfg.Database, catalog.WithPostgresLogger(logger))
		if err != nil {
			return nil, func() {}, fmt.Errorf("connect catalog database: %w", err)
		}
		closers = append(closers, pg.Close)
		source = pg
	}

	opts := []catalog.CachedOption{
		catalog.WithRefreshInterval(cfg.Catalog.RefreshInterval),
		catalog.WithRanges(cfg.Similarity.Ranges, cfg.Normalization()),
		catalog.WithLoadTimeout(cfg.Catalog.LoadTimeout),
		catalog.WithCachedLogger(logger),
		catalog.WithRefreshHook(recordRefresh),
	}
	if cfg.Redis.Enabled {
		rs, err := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, rs.Close)
		opts = append(opts, catalog.WithSharedStore(rs, cfg.Redis.Key))
	}
	cached := catalog.NewCached(source, opts...)

	wm, err := loadWeights(cfg, logger)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	engine := recommend.NewEngine(cached, wm,
		recommend.WithLogger(logger),
		recommend.WithScoring(cfg.Recommend.ChunkSize, cfg.Recommend.MaxConcurrent),
	)
	return engine, cleanup, nil
}

func loadWeights(cfg *config.Config, logger *slog.Logger) (*weights.Manager, error) {
	if cfg.Similarity.WeightsFile == "" {
		return weights.NewDefaultManager(weights.WithLogger(logger)), nil
	}
	w, err := weights.LoadFile(cfg.Similarity.WeightsFile)
	if err != nil {
		return nil, err
	}
	return weights.NewManager(w, weights.WithLogger(logger))
}

func recordRefresh(s *catalog.Snapshot, err error, elapsed time.Duration) {
	if err != nil {
		metrics.RecordCatalogRefresh(elapsed, -1)
		return
	}
	metrics.RecordCatalogRefresh(elapsed, s.Len())
	for _, st := range feature.Coverage(s.Vectors()) {
		metrics.RecordFeatureCoverage(st.Feature, st.MissingRatio())
	}
}

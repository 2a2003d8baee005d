// Package recommend 是相似房源推荐与搜索的门面：组合目录快照、权重配置与推荐 Pipeline。
package recommend

import (
	"context"
	"log/slog"
	"time"

	"github.com/rushteam/listingrec/catalog"
	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/feature"
	"github.com/rushteam/listingrec/filter"
	"github.com/rushteam/listingrec/metrics"
	"github.com/rushteam/listingrec/model"
	"github.com/rushteam/listingrec/pipeline"
	"github.com/rushteam/listingrec/pkg/utils"
	"github.com/rushteam/listingrec/rank"
	"github.com/rushteam/listingrec/recall"
	"github.com/rushteam/listingrec/rerank"
	"github.com/rushteam/listingrec/search"
	"github.com/rushteam/listingrec/weights"
)

// Snapshots 提供目录快照，catalog.Cached 实现此接口
type Snapshots interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
	Refresh(ctx context.Context) (*catalog.Snapshot, error)
	Invalidate()
}

// Result 是一条推荐结果
type Result struct {
	ListingID int64              `json:"listing_id"`
	Score     float64            `json:"score"`
	Listing   *core.Summary      `json:"listing,omitempty"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
	// Trace 是各阶段留下的标签（explain 时返回）
	Trace map[string]string `json:"trace,omitempty"`
}

// Engine 是推荐引擎。
//
// 一致性：每个请求在开始时取一份权重快照与一份目录快照，整个请求只使用这两份快照；
// 并发的权重更新 / 目录刷新只影响之后开始的请求。
type Engine struct {
	catalog Snapshots
	weights *weights.Manager
	search  *search.Service
	logger  *slog.Logger

	chunkSize     int
	maxConcurrent int
}

// Option 配置 Engine
type Option func(*Engine)

// WithLogger 设置日志
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithScoring 设置打分并发：每块候选数与最大并发数（<=0 使用默认值）
func WithScoring(chunkSize, maxConcurrent int) Option {
	return func(e *Engine) {
		e.chunkSize = chunkSize
		e.maxConcurrent = maxConcurrent
	}
}

// NewEngine 创建推荐引擎；weights 为 nil 时使用默认权重
func NewEngine(snapshots Snapshots, w *weights.Manager, opts ...Option) *Engine {
	e := &Engine{
		catalog: snapshots,
		weights: w,
		search:  search.NewService(snapshots),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.weights == nil {
		e.weights = weights.NewDefaultManager(weights.WithLogger(e.logger))
	}
	metrics.SetWeights(e.weights.Get())
	return e
}

// Search 按名称 / 街区搜索房源
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]core.Summary, error) {
	metrics.SearchTotal.Inc()
	out, err := e.search.Search(ctx, query, limit)
	if err != nil {
		metrics.RecordError("search", err)
		return nil, err
	}
	return out, nil
}

// ListingDetail 返回房源完整特征
func (e *Engine) ListingDetail(ctx context.Context, id int64) (*core.Listing, error) {
	snap, err := e.catalog.Snapshot(ctx)
	if err != nil {
		metrics.RecordError("listing", err)
		return nil, err
	}
	l, err := snap.Get(id)
	if err != nil {
		metrics.RecordError("listing", err)
		return nil, err
	}
	return l, nil
}

// Weights 返回当前生效的权重
func (e *Engine) Weights() core.Weights {
	return e.weights.Get()
}

// SetWeights 校验并替换权重配置；失败时生效配置不变
func (e *Engine) SetWeights(candidate map[string]any) (core.Weights, error) {
	w, err := e.weights.Update(candidate)
	metrics.RecordWeights(w, err == nil)
	if err != nil {
		return core.Weights{}, err
	}
	return w, nil
}

// ApplyWeights 用强类型权重替换当前配置（例如重新读取的权重文件）
func (e *Engine) ApplyWeights(w core.Weights) error {
	err := e.weights.Set(w)
	metrics.RecordWeights(w, err == nil)
	return err
}

// InvalidateCatalog 让当前目录快照过期，下一次请求回源加载
func (e *Engine) InvalidateCatalog() {
	e.catalog.Invalidate()
}

// RefreshCatalog 强制重新加载目录，返回新快照中的房源数
func (e *Engine) RefreshCatalog(ctx context.Context) (int, error) {
	snap, err := e.catalog.Refresh(ctx)
	if err != nil {
		metrics.RecordError("refresh", err)
		return 0, err
	}
	return snap.Len(), nil
}

// CatalogStats 返回当前目录快照的逐特征覆盖情况
func (e *Engine) CatalogStats(ctx context.Context) ([]feature.Stats, error) {
	snap, err := e.catalog.Snapshot(ctx)
	if err != nil {
		metrics.RecordError("stats", err)
		return nil, err
	}
	return feature.Coverage(snap.Vectors()), nil
}

// Recommend 返回与查询房源最相似的房源，按分数降序、ID 升序，不包含查询房源本身。
func (e *Engine) Recommend(ctx context.Context, req Request) ([]Result, error) {
	start := time.Now()
	out, err := e.recommend(ctx, req)
	if err != nil {
		metrics.RecordError("recommend", err)
		e.logger.Debug("recommend failed",
			slog.Int64("listing_id", req.ListingID),
			slog.String("error", err.Error()))
		return nil, err
	}
	metrics.RecordRecommend(time.Since(start), len(out))
	return out, nil
}

func (e *Engine) recommend(ctx context.Context, req Request) ([]Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var exprFilter *filter.ExprFilter
	if req.Filter != "" {
		f, err := filter.NewExprFilter(req.Filter)
		if err != nil {
			return nil, err
		}
		exprFilter = f
	}

	w := e.weights.Get()
	snap, err := e.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	target, _, ok := snap.Lookup(req.ListingID)
	if !ok {
		return nil, core.ErrListingNotFound
	}

	rctx := &core.RecommendContext{
		Target:     target,
		Weights:    w,
		Threshold:  req.Threshold,
		MaxResults: req.MaxResults,
		Explain:    req.Explain,
	}

	filters := []filter.Filter{filter.NewBlacklistFilter(true), &filter.ThresholdFilter{}}
	if exprFilter != nil {
		filters = append(filters, exprFilter)
	}
	var diversity pipeline.Node
	if req.MaxPerNeighbourhood > 0 {
		diversity = &rerank.Diversity{MaxPerGroup: req.MaxPerNeighbourhood}
	}

	p := pipeline.New(
		&recall.Similar{
			Candidates:    snap,
			Model:         model.NewWeightedModel(snap.Ranges()),
			ChunkSize:     e.chunkSize,
			MaxConcurrent: e.maxConcurrent,
		},
		&filter.FilterNode{Filters: filters},
		&rank.ScoreSortNode{},
		diversity,
		&rerank.TopNNode{},
	)
	p.Observer = func(node pipeline.Node, in, out int, elapsed time.Duration, _ error) {
		metrics.RecordStage(node.Name(), string(node.Kind()), elapsed)
	}

	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(items))
	for i, it := range items {
		summary := it.Listing.Summarize()
		results[i] = Result{ListingID: it.ID, Score: it.Score, Listing: &summary}
		if req.Explain {
			results[i].Breakdown = it.Features
			results[i].Trace = utils.Flatten(it.Labels)
		}
	}
	e.logger.Debug("recommend",
		slog.Int64("listing_id", req.ListingID),
		slog.Int("candidates", snap.Len()-1),
		slog.Int("results", len(results)))
	return results, nil
}

package catalog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/feature"
)

const (
	// DefaultSharedKey 是共享二级缓存中快照的 key
	DefaultSharedKey = "listingrec:catalog:snapshot"

	defaultLoadTimeout = 30 * time.Second
)

// Cached 在任意 Catalog 之上维护一份目录快照。
//
// 刷新时机：
//   - 首次使用
//   - 距上次加载超过刷新周期（陈旧度上界）
//   - 显式调用 Invalidate / Refresh
//
// 并发的刷新请求通过 singleflight 合并为一次存储读取。
// 配置了共享存储（Redis）时，多实例共享同一份快照，TTL 等于刷新周期。
type Cached struct {
	source      Catalog
	interval    time.Duration
	ranges      feature.Ranges
	norm        feature.Normalization
	shared      core.Store
	sharedKey   string
	loadTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time
	onRefresh   func(s *Snapshot, err error, elapsed time.Duration)

	current atomic.Pointer[Snapshot]
	stale   atomic.Bool
	group   singleflight.Group
}

// CachedOption 配置 Cached
type CachedOption func(*Cached)

// WithRefreshInterval 设置刷新周期（<=0 表示只在首次使用和显式刷新时加载）
func WithRefreshInterval(d time.Duration) CachedOption {
	return func(c *Cached) { c.interval = d }
}

// WithRanges 设置数值特征归一化跨度与方式
func WithRanges(r feature.Ranges, norm feature.Normalization) CachedOption {
	return func(c *Cached) {
		c.ranges = r
		c.norm = norm
	}
}

// WithSharedStore 设置共享二级缓存（通常为 store.RedisStore）
func WithSharedStore(s core.Store, key string) CachedOption {
	return func(c *Cached) {
		c.shared = s
		if key != "" {
			c.sharedKey = key
		}
	}
}

// WithLoadTimeout 单次加载的超时
func WithLoadTimeout(d time.Duration) CachedOption {
	return func(c *Cached) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

// WithCachedLogger 设置日志
func WithCachedLogger(logger *slog.Logger) CachedOption {
	return func(c *Cached) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRefreshHook 每次从存储加载结束后回调（用于指标）
func WithRefreshHook(fn func(s *Snapshot, err error, elapsed time.Duration)) CachedOption {
	return func(c *Cached) { c.onRefresh = fn }
}

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) CachedOption {
	return func(c *Cached) { c.now = now }
}

// NewCached 创建快照缓存
func NewCached(source Catalog, opts ...CachedOption) *Cached {
	c := &Cached{
		source:      source,
		interval:    core.DefaultRefreshInterval,
		ranges:      feature.DefaultRanges(),
		norm:        feature.NormalizationFixed,
		sharedKey:   DefaultSharedKey,
		loadTimeout: defaultLoadTimeout,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot 返回当前有效快照，必要时先刷新。
func (c *Cached) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s := c.current.Load(); s != nil && !c.expired(s) {
		return s, nil
	}
	return c.load(ctx, false)
}

// Refresh 强制从源存储重新加载（跳过共享缓存读取，并回写共享缓存）。
func (c *Cached) Refresh(ctx context.Context) (*Snapshot, error) {
	return c.load(ctx, true)
}

// Invalidate 标记当前快照过期，下一次使用时重新加载
func (c *Cached) Invalidate() {
	c.stale.Store(true)
}

func (c *Cached) ListAll(ctx context.Context) ([]*core.Listing, error) {
	s, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.Listings(), nil
}

func (c *Cached) Get(ctx context.Context, id int64) (*core.Listing, error) {
	s, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

func (c *Cached) expired(s *Snapshot) bool {
	if c.stale.Load() {
		return true
	}
	return c.interval > 0 && c.now().Sub(s.LoadedAt()) >= c.interval
}

// load 合并并发加载；调用方放弃请求（ctx 取消）时立即返回，加载本身继续完成。
func (c *Cached) load(ctx context.Context, force bool) (*Snapshot, error) {
	key := "load"
	if force {
		key = "reload"
	}
	ch := c.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		return c.doLoad(lctx, force)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (c *Cached) doLoad(ctx context.Context, force bool) (*Snapshot, error) {
	// 清除标记要在读取之前：读取期间的 Invalidate 会保留到下一次。
	// 被 Invalidate 触发的加载等同于强制加载，共享缓存里的仍是旧数据。
	wasStale := c.stale.Swap(false)

	if !force && !wasStale {
		if s := c.readShared(ctx); s != nil {
			return c.publish(s), nil
		}
	}

	start := c.now()
	listings, err := c.source.ListAll(ctx)
	elapsed := c.now().Sub(start)
	if err != nil {
		c.stale.Store(true)
		if c.onRefresh != nil {
			c.onRefresh(nil, err, elapsed)
		}
		c.logger.Error("catalog refresh failed", slog.String("error", err.Error()))
		if core.IsDomainError(err) {
			return nil, err
		}
		return nil, core.Unavailable(core.ModuleCatalog, err)
	}

	loadedAt := c.now()
	fresh := NewSnapshot(listings, c.ranges, c.norm, loadedAt)
	s := c.publish(fresh)
	if s == fresh {
		c.writeShared(ctx, listings, loadedAt)
	}
	if c.onRefresh != nil {
		c.onRefresh(s, nil, elapsed)
	}
	c.logger.Info("catalog refreshed",
		slog.Int("listings", s.Len()),
		slog.Duration("elapsed", elapsed))
	return s, nil
}

// publish 只在 s 不比当前快照旧时替换当前快照，返回替换后生效的快照。
// "load" 与 "reload" 可能同时在途，先开始的慢加载不能覆盖后完成的强制刷新。
func (c *Cached) publish(s *Snapshot) *Snapshot {
	for {
		cur := c.current.Load()
		if cur != nil && cur.LoadedAt().After(s.LoadedAt()) {
			return cur
		}
		if c.current.CompareAndSwap(cur, s) {
			return s
		}
	}
}

// sharedSnapshot 是共享缓存中的编码格式
type sharedSnapshot struct {
	LoadedAt time.Time       `json:"loaded_at"`
	Listings []*core.Listing `json:"listings"`
}

// readShared 读取共享快照；共享缓存是可选的，任何错误都只记录日志并回落到源存储。
func (c *Cached) readShared(ctx context.Context) *Snapshot {
	if c.shared == nil {
		return nil
	}
	data, err := c.shared.Get(ctx, c.sharedKey)
	if err != nil {
		if !core.IsStoreNotFound(err) {
			c.logger.Warn("read shared snapshot", slog.String("store", c.shared.Name()), slog.String("error", err.Error()))
		}
		return nil
	}
	var raw sharedSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		c.logger.Warn("decode shared snapshot", slog.String("error", err.Error()))
		return nil
	}
	if c.interval > 0 && c.now().Sub(raw.LoadedAt) >= c.interval {
		return nil
	}
	c.logger.Debug("catalog snapshot loaded from shared store",
		slog.String("store", c.shared.Name()),
		slog.Int("listings", len(raw.Listings)))
	return NewSnapshot(raw.Listings, c.ranges, c.norm, raw.LoadedAt)
}

func (c *Cached) writeShared(ctx context.Context, listings []*core.Listing, loadedAt time.Time) {
	if c.shared == nil {
		return
	}
	data, err := json.Marshal(sharedSnapshot{LoadedAt: loadedAt, Listings: listings})
	if err != nil {
		c.logger.Warn("encode shared snapshot", slog.String("error", err.Error()))
		return
	}
	if err := c.shared.Set(ctx, c.sharedKey, data, c.interval); err != nil {
		c.logger.Warn("write shared snapshot", slog.String("store", c.shared.Name()), slog.String("error", err.Error()))
	}
}

var _ Catalog = (*Cached)(nil)

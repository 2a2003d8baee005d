package filter

import (
	"context"

	"github.com/rushteam/listingrec/core"
)

// BlacklistFilter 过滤指定 ID 的房源；ExcludeTarget 为 true 时同时过滤查询房源本身。
type BlacklistFilter struct {
	ItemIDs       map[int64]struct{}
	ExcludeTarget bool
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(excludeTarget bool, ids ...int64) *BlacklistFilter {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &BlacklistFilter{ItemIDs: set, ExcludeTarget: excludeTarget}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.ExcludeTarget && rctx != nil && rctx.Target != nil && item.ID == rctx.Target.ID {
		return true, nil
	}
	_, ok := f.ItemIDs[item.ID]
	return ok, nil
}

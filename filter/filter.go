// Package filter 剔除不该出现在“相似房源”结果中的候选。
//
// 候选进入过滤阶段时已带上相似度分数（core.Item.Score），explain 请求还带有逐特征贡献。
// 内置过滤器：
//   - ThresholdFilter：分数低于请求阈值的候选
//   - BlacklistFilter：指定排除的房源 ID，可选同时排除查询房源
//   - ExprFilter：基于房源属性（价格、房型、街区等）的 CEL 表达式
//
// 召回阶段已跳过查询房源自身。
package filter

import (
	"context"

	"github.com/rushteam/listingrec/core"
)

// Filter 判断候选房源是否应被剔除：true 剔除，false 保留。
// rctx 携带查询房源（Target）、本次请求的权重快照与阈值，item.Listing 指向候选房源。
// 返回 error 时整个推荐请求失败，FilterNode 不会吞掉错误。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

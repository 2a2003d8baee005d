package pipeline

import (
	"context"

	"github.com/rushteam/listingrec/core"
)

// Kind 用于标记 Node 类型，方便观测（按阶段打点，listingrec_pipeline_stage_* 指标的 stage 标签）。
type Kind string

const (
	KindRecall Kind = "recall" // 召回阶段：对目录中的候选打分
	KindFilter Kind = "filter" // 过滤阶段：剔除不符合约束的候选
	KindRank   Kind = "rank"   // 排序阶段：按分数确定顺序
	KindReRank Kind = "rerank" // 重排阶段：多样性约束与截断
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 items -> 输出 items”的形态：一次“相似房源”请求中，
// 召回节点为目录快照里的每个候选房源计算加权相似度并生成 items，
// 过滤节点按阈值与排除列表剔除，排序节点按分数降序、同分按房源 ID 升序，
// 重排节点做街区多样性约束并截断到 MaxResults。
//
// item.Listing 指向目录快照中共享的 core.Listing，节点不得修改房源本身。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}

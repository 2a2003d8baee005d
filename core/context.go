package core

import "github.com/rushteam/listingrec/pkg/utils"

// RecommendContext 承载一次相似推荐请求的只读上下文，贯穿整个 Pipeline 透传。
//
// Weights 是请求开始时取到的权重快照：并发的权重更新不会影响进行中的请求。
type RecommendContext struct {
	// Target 是查询房源
	Target *Listing

	// Weights 是本次请求使用的权重快照
	Weights Weights

	// Threshold 相似度阈值，低于该值的候选被过滤
	Threshold float64

	// MaxResults 返回结果上限
	MaxResults int

	// Explain 为 true 时保留逐特征贡献
	Explain bool

	// Labels 是请求级标签，可驱动 Pipeline 行为
	Labels map[string]utils.Label
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

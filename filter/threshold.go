package filter

import (
	"context"

	"github.com/rushteam/listingrec/core"
)

// ThresholdFilter 过滤相似度低于阈值的候选（score == threshold 保留）。
// Threshold 为 nil 时使用 rctx.Threshold。
type ThresholdFilter struct {
	Threshold *float64
}

func (f *ThresholdFilter) Name() string {
	return "filter.threshold"
}

func (f *ThresholdFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	threshold := 0.0
	switch {
	case f.Threshold != nil:
		threshold = *f.Threshold
	case rctx != nil:
		threshold = rctx.Threshold
	}
	return item.Score < threshold, nil
}

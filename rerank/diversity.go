package rerank

import (
	"context"

	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/feature"
	"github.com/rushteam/listingrec/pipeline"
)

// Diversity 限制同一街区的结果数量：按已排好的顺序遍历，每个街区最多保留 MaxPerGroup 个。
// 街区未知（空字符串）的房源不受限制。
type Diversity struct {
	MaxPerGroup int

	// GroupOf 返回分组键，默认取房源街区（大小写折叠）
	GroupOf func(it *core.Item) string
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.MaxPerGroup <= 0 || len(items) == 0 {
		return items, nil
	}
	groupOf := n.GroupOf
	if groupOf == nil {
		groupOf = neighbourhoodOf
	}

	counts := make(map[string]int, 32)
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		g := groupOf(it)
		if g == "" {
			out = append(out, it)
			continue
		}
		if counts[g] >= n.MaxPerGroup {
			continue
		}
		counts[g]++
		out = append(out, it)
	}
	return out, nil
}

func neighbourhoodOf(it *core.Item) string {
	if it.Listing == nil {
		return ""
	}
	return feature.Fold(it.Listing.Neighbourhood)
}

var _ pipeline.Node = (*Diversity)(nil)

package core

import "github.com/rushteam/listingrec/pkg/utils"

// Item 是推荐链路中的统一承载结构：候选房源、相似度分数、逐特征贡献、标签。
// Labels 用于解释与观测；Score 用于排序决策。
type Item struct {
	ID       int64
	Score    float64
	Listing  *Listing
	Features map[string]float64 // 逐特征加权贡献（explain 时填充）
	Labels   map[string]utils.Label
}

func NewItem(listing *Listing) *Item {
	return &Item{
		ID:      listing.ID,
		Listing: listing,
		Labels:  make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

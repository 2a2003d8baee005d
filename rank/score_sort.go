// Package rank 决定候选的最终顺序。
package rank

import (
	"cmp"
	"context"
	"slices"
	"strconv"

	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/pipeline"
	"github.com/rushteam/listingrec/pkg/utils"
)

// ScoreSortNode 按分数降序排序，分数相同按房源 ID 升序，保证结果确定。
// - 写入 labels：rank_position（从 1 开始）
type ScoreSortNode struct{}

func (n *ScoreSortNode) Name() string        { return "rank.score_sort" }
func (n *ScoreSortNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ScoreSortNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	items = slices.DeleteFunc(items, func(it *core.Item) bool { return it == nil })
	slices.SortFunc(items, Compare)
	for i, it := range items {
		it.PutLabel("rank_position", utils.Label{Value: strconv.Itoa(i + 1), Source: "rank"})
	}
	return items, nil
}

// Compare 是结果的全序：分数降序，ID 升序
func Compare(a, b *core.Item) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

var _ pipeline.Node = (*ScoreSortNode)(nil)

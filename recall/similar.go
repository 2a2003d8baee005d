package recall

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/model"
	"github.com/rushteam/listingrec/pipeline"
	"github.com/rushteam/listingrec/pkg/utils"
)

const defaultChunkSize = 512

// Similar 是基于内容的召回 Node：用相似度模型给候选集中除查询房源外的每个房源打分。
//
// 核心思想："与查询房源特征相近的房源就是相似房源"
//
// 候选按 ChunkSize 切块，通过 errgroup 并发打分（并发度默认 GOMAXPROCS）；
// 每块写入各自的结果槽位，合并后保持候选集原有顺序（ID 升序），结果与并发度无关。
type Similar struct {
	Candidates Candidates
	Model      model.SimilarityModel

	// ChunkSize 每个并发任务处理的候选数，<=0 使用默认值
	ChunkSize int

	// MaxConcurrent 最大并发数，<=0 使用 GOMAXPROCS
	MaxConcurrent int
}

func (n *Similar) Name() string        { return "recall.similar" }
func (n *Similar) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Similar) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if n.Candidates == nil || n.Model == nil || rctx == nil || rctx.Target == nil {
		return nil, nil
	}
	_, target, ok := n.Candidates.Lookup(rctx.Target.ID)
	if !ok {
		return nil, core.ErrListingNotFound
	}

	listings := n.Candidates.Listings()
	vectors := n.Candidates.Vectors()
	if len(listings) == 0 {
		return nil, nil
	}

	chunk := n.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	limit := n.MaxConcurrent
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var explainer model.Explainer
	if rctx.Explain {
		explainer, _ = n.Model.(model.Explainer)
	}
	weights := rctx.Weights
	source := utils.Label{Value: n.Model.Name(), Source: "recall"}

	parts := make([][]*core.Item, (len(listings)+chunk-1)/chunk)
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for p := range parts {
		lo := p * chunk
		hi := min(lo+chunk, len(listings))
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := make([]*core.Item, 0, hi-lo)
			for i := lo; i < hi; i++ {
				if listings[i].ID == target.ID {
					continue
				}
				it := core.NewItem(listings[i])
				if explainer != nil {
					it.Score, it.Features = explainer.Explain(target, vectors[i], weights)
				} else {
					it.Score = n.Model.Score(target, vectors[i], weights)
				}
				it.PutLabel("recall_source", source)
				out = append(out, it)
			}
			parts[p] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	items := make([]*core.Item, 0, len(listings)-1)
	for _, part := range parts {
		items = append(items, part...)
	}
	return items, nil
}

var _ pipeline.Node = (*Similar)(nil)

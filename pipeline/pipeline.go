package pipeline

import (
	"context"
	"time"

	"github.com/rushteam/listingrec/core"
)

// StageObserver 在每个 Node 执行结束后回调（用于指标 / 调试日志）。
type StageObserver func(node Node, in, out int, elapsed time.Duration, err error)

// Pipeline 把一次相似推荐拆成可组合的 Node 链。
// Node 之间检查 ctx：调用方放弃请求后不再继续后续阶段。
type Pipeline struct {
	Nodes    []Node
	Observer StageObserver
}

// New 创建 Pipeline，nil Node 会被跳过
func New(nodes ...Node) *Pipeline {
	p := &Pipeline{Nodes: make([]Node, 0, len(nodes))}
	for _, n := range nodes {
		if n != nil {
			p.Nodes = append(p.Nodes, n)
		}
	}
	return p
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if p.Observer != nil {
			p.Observer(node, len(cur), len(next), time.Since(start), err)
		}
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

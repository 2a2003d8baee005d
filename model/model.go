package model

import (
	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/feature"
)

// SimilarityModel 是相似度打分的最小抽象：输入两条房源的特征向量与一份权重快照，
// 输出 [0,1] 的相似度。实现必须是纯函数，可被多个 goroutine 并发调用。
type SimilarityModel interface {
	Name() string
	Score(a, b *feature.Vector, w core.Weights) float64
}

// Explainer 是可以给出逐特征贡献的模型
type Explainer interface {
	Explain(a, b *feature.Vector, w core.Weights) (float64, map[string]float64)
}

// Package listingrec 是基于内容的房源相似推荐与搜索引擎。
//
// 设计要点：
// - 每个请求只读一份目录快照与一份权重快照，二者都可以在线替换
// - 相似推荐通过 Pipeline 串联（Recall → Filter → Rank → ReRank）
// - 缺失值走中性分数，不用哨兵值参与计算
package listingrec

import (
	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/recommend"
)

// 轻量 facade：便于直接 import "listingrec" 使用核心类型。
type (
	Engine  = recommend.Engine
	Request = recommend.Request
	Result  = recommend.Result
	Listing = core.Listing
	Summary = core.Summary
	Weights = core.Weights
	Feature = core.Feature
)

var (
	NewEngine      = recommend.NewEngine
	NewRequest     = recommend.NewRequest
	DefaultWeights = core.DefaultWeights
)

package model

import (
	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/feature"
)

// WeightedModel 是加权求和的内容相似度模型。
//
// 打分原理：
// 1. 逐特征相似度: s_f ∈ [0,1]（数值 / 类别 / 地理 / 集合，缺失值取 0.5）
// 2. 线性加权求和: score = sum(w_f * s_f)
//
// 权重在配置阶段已保证总和为 1，因此 score 天然落在 [0,1]；这里仍做一次 clamp 吸收浮点误差。
// 同一房源（ID 相同）恒为 1.0，与缺失值策略无关。
type WeightedModel struct {
	Ranges feature.Ranges
}

// NewWeightedModel 创建加权相似度模型
func NewWeightedModel(ranges feature.Ranges) *WeightedModel {
	return &WeightedModel{Ranges: ranges}
}

func (m *WeightedModel) Name() string { return "weighted" }

func (m *WeightedModel) Score(a, b *feature.Vector, w core.Weights) float64 {
	if a == b || a.ID == b.ID {
		return 1
	}
	sims := m.Similarities(a, b)
	var score float64
	for i, s := range sims {
		score += w[i] * s
	}
	return clamp01(score)
}

// Explain 返回分数以及每个特征的加权贡献（权重为 0 的特征省略）。
func (m *WeightedModel) Explain(a, b *feature.Vector, w core.Weights) (float64, map[string]float64) {
	contributions := make(map[string]float64)
	if a == b || a.ID == b.ID {
		for _, f := range core.Features() {
			if w[f] > 0 {
				contributions[f.String()] = w[f]
			}
		}
		return 1, contributions
	}
	sims := m.Similarities(a, b)
	var score float64
	for _, f := range core.Features() {
		if w[f] == 0 {
			continue
		}
		c := w[f] * sims[f]
		contributions[f.String()] = c
		score += c
	}
	return clamp01(score), contributions
}

// Similarities 返回未加权的逐特征相似度，下标为 core.Feature。
func (m *WeightedModel) Similarities(a, b *feature.Vector) core.Weights {
	var s core.Weights
	s[core.FeaturePrice] = feature.Numeric(a.Price, b.Price, m.Ranges.Price)
	s[core.FeatureLocation] = feature.Geo(a, b, m.Ranges.MaxDistanceKm)
	s[core.FeatureRoomType] = feature.Categorical(a.RoomType, b.RoomType)
	s[core.FeatureNeighbourhood] = feature.Categorical(a.Neighbourhood, b.Neighbourhood)
	s[core.FeatureCapacity] = feature.Numeric(a.Accommodates, b.Accommodates, m.Ranges.Capacity)
	s[core.FeatureBedrooms] = feature.Numeric(a.Bedrooms, b.Bedrooms, m.Ranges.Bedrooms)
	s[core.FeatureBeds] = feature.Numeric(a.Beds, b.Beds, m.Ranges.Beds)
	s[core.FeatureBathrooms] = feature.Numeric(a.Bathrooms, b.Bathrooms, m.Ranges.Bathrooms)
	s[core.FeatureRating] = feature.Numeric(a.Rating, b.Rating, m.Ranges.Rating)
	s[core.FeatureAmenities] = feature.Jaccard(a.Amenities, b.Amenities)
	return s
}

func clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var (
	_ SimilarityModel = (*WeightedModel)(nil)
	_ Explainer       = (*WeightedModel)(nil)
)

package core

import (
	"fmt"
	"math"
)

// Feature 是参与相似度计算的特征枚举。
type Feature int

const (
	FeaturePrice Feature = iota
	FeatureLocation
	FeatureRoomType
	FeatureNeighbourhood
	FeatureCapacity
	FeatureBedrooms
	FeatureBeds
	FeatureBathrooms
	FeatureRating
	FeatureAmenities

	numFeatures
)

// WeightSumTolerance 是权重和与 1.0 之间允许的误差
const WeightSumTolerance = 1e-6

var featureNames = [numFeatures]string{
	FeaturePrice:         "price",
	FeatureLocation:      "location",
	FeatureRoomType:      "room_type",
	FeatureNeighbourhood: "neighbourhood",
	FeatureCapacity:      "capacity",
	FeatureBedrooms:      "bedrooms",
	FeatureBeds:          "beds",
	FeatureBathrooms:     "bathrooms",
	FeatureRating:        "rating",
	FeatureAmenities:     "amenities",
}

func (f Feature) String() string {
	if f < 0 || f >= numFeatures {
		return fmt.Sprintf("feature(%d)", int(f))
	}
	return featureNames[f]
}

// Features 返回全部特征（按枚举顺序）
func Features() []Feature {
	out := make([]Feature, numFeatures)
	for i := range out {
		out[i] = Feature(i)
	}
	return out
}

// ParseFeature 按名称解析特征
func ParseFeature(name string) (Feature, bool) {
	for i, n := range featureNames {
		if n == name {
			return Feature(i), true
		}
	}
	return 0, false
}

// Weights 是 SimilarityWeights：每个特征一个 [0,1] 的权重，总和为 1。
// 值类型，复制即快照。
type Weights [numFeatures]float64

// DefaultWeights 是进程启动时的默认权重。
func DefaultWeights() Weights {
	var w Weights
	w[FeaturePrice] = 0.25
	w[FeatureLocation] = 0.20
	w[FeatureRoomType] = 0.15
	w[FeatureCapacity] = 0.10
	w[FeatureBedrooms] = 0.05
	w[FeatureBathrooms] = 0.05
	w[FeatureRating] = 0.10
	w[FeatureAmenities] = 0.10
	return w
}

// Get 返回某个特征的权重
func (w Weights) Get(f Feature) float64 {
	return w[f]
}

// Sum 返回所有权重之和
func (w Weights) Sum() float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}

// Map 以 name -> weight 的形式导出（用于 JSON / 日志）
func (w Weights) Map() map[string]float64 {
	out := make(map[string]float64, numFeatures)
	for i, v := range w {
		out[featureNames[i]] = v
	}
	return out
}

// Validate 校验权重：每个值有限、非负、不超过 1，且总和为 1.0 ± WeightSumTolerance。
func (w Weights) Validate() error {
	for i, v := range w {
		name := featureNames[i]
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			return NewInvalidConfig(fmt.Sprintf("weight %q is not a finite number", name))
		case v < 0:
			return NewInvalidConfig(fmt.Sprintf("weight %q is negative (%g)", name, v))
		case v > 1:
			return NewInvalidConfig(fmt.Sprintf("weight %q exceeds 1 (%g)", name, v))
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > WeightSumTolerance {
		return NewInvalidConfig(fmt.Sprintf("weights must sum to 1.0, got %g", sum))
	}
	return nil
}

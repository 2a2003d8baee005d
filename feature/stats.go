package feature

import (
	"math"
	"slices"

	"github.com/rushteam/listingrec/core"
)

// Statistics 是数值特征在目录中的分布
type Statistics struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	P50  float64 `json:"p50"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
}

// Stats 是单个特征在目录快照中的覆盖情况。
// 缺失率高的特征在打分时大多走中性 0.5，调权重前应先看这里。
type Stats struct {
	Feature string      `json:"feature"`
	Present int         `json:"present"`
	Missing int         `json:"missing"`
	Numeric *Statistics `json:"numeric,omitempty"`
}

// MissingRatio 缺失比例，空目录返回 0
func (s Stats) MissingRatio() float64 {
	total := s.Present + s.Missing
	if total == 0 {
		return 0
	}
	return float64(s.Missing) / float64(total)
}

// Coverage 按特征枚举顺序统计目录快照的覆盖情况。
// amenities 的空集合是合法取值，这里仍计为 missing，便于发现数据没有导入。
func Coverage(vectors []*Vector) []Stats {
	out := make([]Stats, 0, len(core.Features()))
	for _, f := range core.Features() {
		s := Stats{Feature: f.String()}
		var values []float64
		for _, v := range vectors {
			x, present := featureValue(v, f)
			if !present {
				s.Missing++
				continue
			}
			s.Present++
			if !math.IsNaN(x) {
				values = append(values, x)
			}
		}
		if len(values) > 0 {
			s.Numeric = ComputeStatistics(values)
		}
		out = append(out, s)
	}
	return out
}

// featureValue 返回特征取值与是否存在；非数值特征的取值为 NaN
func featureValue(v *Vector, f core.Feature) (float64, bool) {
	var o core.Optional[float64]
	switch f {
	case core.FeaturePrice:
		o = v.Price
	case core.FeatureCapacity:
		o = v.Accommodates
	case core.FeatureBedrooms:
		o = v.Bedrooms
	case core.FeatureBeds:
		o = v.Beds
	case core.FeatureBathrooms:
		o = v.Bathrooms
	case core.FeatureRating:
		o = v.Rating
	case core.FeatureLocation:
		return math.NaN(), v.HasLocation
	case core.FeatureRoomType:
		return math.NaN(), v.RoomType != ""
	case core.FeatureNeighbourhood:
		return math.NaN(), v.Neighbourhood != ""
	case core.FeatureAmenities:
		return math.NaN(), len(v.Amenities) > 0
	default:
		return math.NaN(), false
	}
	return o.Value, o.Valid
}

// ComputeStatistics 计算均值、标准差与分位数；values 为空时返回零值
func ComputeStatistics(values []float64) *Statistics {
	if len(values) == 0 {
		return &Statistics{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var variance float64
	for _, v := range sorted {
		variance += (v - mean) * (v - mean)
	}

	return &Statistics{
		Mean: mean,
		Std:  math.Sqrt(variance / float64(len(sorted))),
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		P50:  percentile(sorted, 0.5),
		P95:  percentile(sorted, 0.95),
		P99:  percentile(sorted, 0.99),
	}
}

// percentile 线性插值分位数，sorted 必须已排序
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

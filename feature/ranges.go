package feature

import (
	"fmt"
	"math"

	"github.com/rushteam/listingrec/core"
)

// Normalization 决定数值特征的 range 来源。
type Normalization string

const (
	// NormalizationFixed 使用固定的领域常量（默认）：目录变化时分数稳定
	NormalizationFixed Normalization = "fixed"

	// NormalizationObserved 使用当前目录快照的 min–max 跨度：目录变化后同一对房源的分数会变
	NormalizationObserved Normalization = "observed"
)

// ParseNormalization 解析配置中的归一化方式
func ParseNormalization(s string) (Normalization, error) {
	switch Normalization(s) {
	case "", NormalizationFixed:
		return NormalizationFixed, nil
	case NormalizationObserved:
		return NormalizationObserved, nil
	default:
		return "", fmt.Errorf("unknown normalization %q (supported: fixed, observed)", s)
	}
}

// Ranges 是各数值特征的归一化跨度：sim = 1 - |a-b| / range。
// range <= 0 时退化为相等比较。
type Ranges struct {
	Price         float64 `json:"price" yaml:"price" koanf:"price"`
	Capacity      float64 `json:"capacity" yaml:"capacity" koanf:"capacity"`
	Bedrooms      float64 `json:"bedrooms" yaml:"bedrooms" koanf:"bedrooms"`
	Beds          float64 `json:"beds" yaml:"beds" koanf:"beds"`
	Bathrooms     float64 `json:"bathrooms" yaml:"bathrooms" koanf:"bathrooms"`
	Rating        float64 `json:"rating" yaml:"rating" koanf:"rating"`
	MaxDistanceKm float64 `json:"max_distance_km" yaml:"max_distance_km" koanf:"max_distance_km"`
}

// DefaultRanges 是固定归一化使用的领域常量。
//   - price: 1000（每晚价格，覆盖绝大多数房源的价差）
//   - capacity: 16（平台可住人数上限）
//   - bedrooms: 10, beds: 16, bathrooms: 8
//   - rating: 5（评分区间 [0,5]）
//   - max_distance_km: 25（城市尺度，超过即地理相似度为 0）
func DefaultRanges() Ranges {
	return Ranges{
		Price:         1000,
		Capacity:      16,
		Bedrooms:      10,
		Beds:          16,
		Bathrooms:     8,
		Rating:        5,
		MaxDistanceKm: 25,
	}
}

// Validate 检查跨度是否为有限的非负数
func (r Ranges) Validate() error {
	fields := map[string]float64{
		"price":           r.Price,
		"capacity":        r.Capacity,
		"bedrooms":        r.Bedrooms,
		"beds":            r.Beds,
		"bathrooms":       r.Bathrooms,
		"rating":          r.Rating,
		"max_distance_km": r.MaxDistanceKm,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("range %q must be a finite non-negative number, got %g", name, v)
		}
	}
	return nil
}

// minMax 记录一个特征在目录中的取值区间
type minMax struct {
	min, max float64
	seen     bool
}

func (m *minMax) observe(v float64) {
	if !m.seen {
		m.min, m.max, m.seen = v, v, true
		return
	}
	m.min = math.Min(m.min, v)
	m.max = math.Max(m.max, v)
}

func (m *minMax) span() float64 {
	if !m.seen {
		return 0
	}
	return m.max - m.min
}

// ObservedRanges 根据目录快照计算 min–max 跨度（NormalizationObserved）。
// 缺失值不参与统计；MaxDistanceKm 不是数值跨度，沿用 base 的取值。
func ObservedRanges(listings []*core.Listing, base Ranges) Ranges {
	var price, capacity, bedrooms, beds, bathrooms, rating minMax
	for _, l := range listings {
		if v, ok := l.Price.Get(); ok {
			price.observe(v)
		}
		if v, ok := l.Accommodates.Get(); ok {
			capacity.observe(float64(v))
		}
		if v, ok := l.Bedrooms.Get(); ok {
			bedrooms.observe(float64(v))
		}
		if v, ok := l.Beds.Get(); ok {
			beds.observe(float64(v))
		}
		if v, ok := l.Bathrooms.Get(); ok {
			bathrooms.observe(v)
		}
		if v, ok := l.AvgRating.Get(); ok {
			rating.observe(v)
		}
	}
	return Ranges{
		Price:         price.span(),
		Capacity:      capacity.span(),
		Bedrooms:      bedrooms.span(),
		Beds:          beds.span(),
		Bathrooms:     bathrooms.span(),
		Rating:        rating.span(),
		MaxDistanceKm: base.MaxDistanceKm,
	}
}

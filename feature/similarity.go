package feature

import (
	"math"

	"github.com/rushteam/listingrec/core"
)

// NeutralSimilarity 是缺失值策略：任意一侧缺失时该特征贡献 0.5，
// 既不把两条房源拉向“相同”，也不拉向“相反”。
const NeutralSimilarity = 0.5

// earthRadiusKm 是 WGS84 平均地球半径
const earthRadiusKm = 6371.0088

// Numeric 计算数值特征相似度：clamp01(1 - |a-b| / rng)。
// rng <= 0 时按相等比较。
func Numeric(a, b core.Optional[float64], rng float64) float64 {
	if !a.Valid || !b.Valid {
		return NeutralSimilarity
	}
	if rng <= 0 {
		if a.Value == b.Value {
			return 1
		}
		return 0
	}
	return clamp01(1 - math.Abs(a.Value-b.Value)/rng)
}

// Categorical 计算类别特征相似度：相等为 1，否则为 0；空串视为缺失。
// 调用方应传入已折叠大小写的取值。
func Categorical(a, b string) float64 {
	if a == "" || b == "" {
		return NeutralSimilarity
	}
	if a == b {
		return 1
	}
	return 0
}

// Jaccard 计算集合相似度 |A∩B| / |A∪B|；两个空集视为完全相同。
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	var inter int
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Haversine 返回两点之间的大圆距离（公里）。
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Geo 计算地理相似度：max(0, 1 - distance_km / maxDistanceKm)。
// 任意一侧缺少经纬度时返回中性值；maxDistanceKm <= 0 时只有同一坐标得 1。
func Geo(a, b *Vector, maxDistanceKm float64) float64 {
	if !a.HasLocation || !b.HasLocation {
		return NeutralSimilarity
	}
	d := Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	if maxDistanceKm <= 0 {
		if d == 0 {
			return 1
		}
		return 0
	}
	return clamp01(1 - d/maxDistanceKm)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

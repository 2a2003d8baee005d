package feature

import (
	"strings"

	"github.com/rushteam/listingrec/core"
)

// Vector 是单个房源预处理后的特征向量。
// 每次目录刷新时计算一次，避免每次打分重复做大小写折叠、集合构建等工作。
type Vector struct {
	ID int64

	Price        core.Optional[float64]
	Accommodates core.Optional[float64]
	Bedrooms     core.Optional[float64]
	Beds         core.Optional[float64]
	Bathrooms    core.Optional[float64]
	Rating       core.Optional[float64]

	HasLocation bool
	Latitude    float64
	Longitude   float64

	RoomType      string // 已折叠大小写
	Neighbourhood string // 已折叠大小写
	Amenities     map[string]struct{}
}

// NewVector 由房源快照构建特征向量
func NewVector(l *core.Listing) *Vector {
	v := &Vector{
		ID:            l.ID,
		Price:         l.Price,
		Accommodates:  intToFloat(l.Accommodates),
		Bedrooms:      intToFloat(l.Bedrooms),
		Beds:          intToFloat(l.Beds),
		Bathrooms:     l.Bathrooms,
		Rating:        l.AvgRating,
		RoomType:      Fold(l.RoomType),
		Neighbourhood: Fold(l.Neighbourhood),
		Amenities:     AmenitySet(l.Amenities),
	}
	if l.HasLocation() {
		v.HasLocation = true
		v.Latitude = l.Latitude.Value
		v.Longitude = l.Longitude.Value
	}
	return v
}

// Fold 用于类别/文本比较的标准化：去掉首尾空白并转小写
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AmenitySet 把设施标签标准化为集合；空标签被丢弃
func AmenitySet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if f := Fold(t); f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}

func intToFloat(o core.Optional[int]) core.Optional[float64] {
	if !o.Valid {
		return core.None[float64]()
	}
	return core.Some(float64(o.Value))
}

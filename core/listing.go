package core

import (
	"github.com/goccy/go-json"
)

// Optional 表示可能缺失的取值（数据库中的 NULL、没有评论的评分等）。
// 缺失值在相似度计算中走中性策略，不能用 0 / -1 之类的哨兵值代替。
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some 构造一个有值的 Optional
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

// None 构造一个缺失的 Optional
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get 返回值与是否存在
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// MarshalJSON 缺失值编码为 null
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON null 解码为缺失值
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// Listing 是一个房源在推荐侧可见的只读快照（ListingFeatures）。
//
// 约定：
//   - 目录（catalog）负责构造，推荐引擎只读不写
//   - 所有可能为 NULL 的数值字段都使用 Optional
//   - RoomType / Neighbourhood 为空字符串表示未知
//   - Amenities 是集合语义，可以为空
type Listing struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Price         Optional[float64] `json:"price"`
	RoomType      string            `json:"room_type"`
	Accommodates  Optional[int]     `json:"accommodates"`
	Bedrooms      Optional[int]     `json:"bedrooms"`
	Beds          Optional[int]     `json:"beds"`
	Bathrooms     Optional[float64] `json:"bathrooms"`
	Latitude      Optional[float64] `json:"latitude"`
	Longitude     Optional[float64] `json:"longitude"`
	AvgRating     Optional[float64] `json:"avg_rating"`
	ReviewCount   int               `json:"review_count"`
	Amenities     []string          `json:"amenities"`
	Neighbourhood string            `json:"neighbourhood"`
}

// HasLocation 经纬度是否都存在
func (l *Listing) HasLocation() bool {
	return l.Latitude.Valid && l.Longitude.Valid
}

// Summary 是搜索结果里的房源摘要。
type Summary struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Neighbourhood string            `json:"neighbourhood"`
	Price         Optional[float64] `json:"price"`
	RoomType      string            `json:"room_type"`
	AvgRating     Optional[float64] `json:"avg_rating"`
	ReviewCount   int               `json:"review_count"`
}

// Summarize 生成房源摘要
func (l *Listing) Summarize() Summary {
	return Summary{
		ID:            l.ID,
		Name:          l.Name,
		Neighbourhood: l.Neighbourhood,
		Price:         l.Price,
		RoomType:      l.RoomType,
		AvgRating:     l.AvgRating,
		ReviewCount:   l.ReviewCount,
	}
}

package catalog

import (
	"sort"
	"time"

	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/feature"
)

// Snapshot 是某一时刻目录的不可变视图：房源按 ID 升序，附带预计算的特征向量。
// 一次请求只读取一个 Snapshot，刷新时整体替换，读者不会看到半新半旧的数据。
type Snapshot struct {
	listings []*core.Listing
	vectors  []*feature.Vector
	index    map[int64]int
	ranges   feature.Ranges
	loadedAt time.Time
}

// NewSnapshot 由目录全量构建快照。重复 ID 只保留第一条。
// norm 为 observed 时，数值 range 由本快照的 min–max 推导，base 作为兜底。
func NewSnapshot(listings []*core.Listing, base feature.Ranges, norm feature.Normalization, loadedAt time.Time) *Snapshot {
	sorted := make([]*core.Listing, 0, len(listings))
	seen := make(map[int64]struct{}, len(listings))
	for _, l := range listings {
		if l == nil {
			continue
		}
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}
		sorted = append(sorted, l)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	s := &Snapshot{
		listings: sorted,
		vectors:  make([]*feature.Vector, len(sorted)),
		index:    make(map[int64]int, len(sorted)),
		ranges:   base,
		loadedAt: loadedAt,
	}
	for i, l := range sorted {
		s.vectors[i] = feature.NewVector(l)
		s.index[l.ID] = i
	}
	if norm == feature.NormalizationObserved {
		s.ranges = feature.ObservedRanges(sorted, base)
	}
	return s
}

// Len 房源数量
func (s *Snapshot) Len() int { return len(s.listings) }

// Listings 按 ID 升序返回全部房源（调用方不得修改）
func (s *Snapshot) Listings() []*core.Listing { return s.listings }

// Vectors 与 Listings 一一对应的特征向量
func (s *Snapshot) Vectors() []*feature.Vector { return s.vectors }

// Ranges 本快照打分使用的归一化跨度
func (s *Snapshot) Ranges() feature.Ranges { return s.ranges }

// LoadedAt 快照从存储读取的时间
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Lookup 按 ID 查找房源及其特征向量
func (s *Snapshot) Lookup(id int64) (*core.Listing, *feature.Vector, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, nil, false
	}
	return s.listings[i], s.vectors[i], true
}

// Get 按 ID 查找房源；不存在时返回 core.ErrListingNotFound
func (s *Snapshot) Get(id int64) (*core.Listing, error) {
	l, _, ok := s.Lookup(id)
	if !ok {
		return nil, core.ErrListingNotFound
	}
	return l, nil
}

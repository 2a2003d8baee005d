// Package search 提供房源的自由文本搜索（名称 / 街区，大小写不敏感的子串匹配）。
package search

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/rushteam/listingrec/catalog"
	"github.com/rushteam/listingrec/core"
)

// SnapshotSource 提供当前目录快照，catalog.Cached 实现此接口
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// 相关度分层：数值越小越靠前
const (
	tierNamePrefix = iota
	tierNameContains
	tierNeighbourhood
)

// Service 是搜索服务
type Service struct {
	source SnapshotSource
}

// NewService 创建搜索服务
func NewService(source SnapshotSource) *Service {
	return &Service{source: source}
}

type hit struct {
	tier    int
	listing *core.Listing
}

// Search 返回名称或街区包含 query 的房源摘要。
//
// 规则：
//   - query 去掉首尾空白后为空：返回空结果，不读取目录
//   - 非空时按原样（仅转小写）做子串匹配，首尾空白也参与匹配
//   - limit < 1：INVALID_INPUT
//   - 排序：名称前缀匹配 > 名称包含 > 仅街区匹配，同层按 ID 升序
func (s *Service) Search(ctx context.Context, query string, limit int) ([]core.Summary, error) {
	if strings.TrimSpace(query) == "" {
		return []core.Summary{}, nil
	}
	if limit < 1 {
		return nil, core.NewInvalidInput(core.ModuleSearch, "search: limit must be >= 1")
	}

	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var hits []hit
	for _, l := range snap.Listings() {
		name := strings.ToLower(l.Name)
		switch {
		case strings.HasPrefix(name, q):
			hits = append(hits, hit{tierNamePrefix, l})
		case strings.Contains(name, q):
			hits = append(hits, hit{tierNameContains, l})
		case strings.Contains(strings.ToLower(l.Neighbourhood), q):
			hits = append(hits, hit{tierNeighbourhood, l})
		}
	}
	// 快照本身按 ID 升序，稳定排序即可保证同层 ID 升序
	slices.SortStableFunc(hits, func(a, b hit) int { return cmp.Compare(a.tier, b.tier) })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]core.Summary, len(hits))
	for i, h := range hits {
		out[i] = h.listing.Summarize()
	}
	return out, nil
}

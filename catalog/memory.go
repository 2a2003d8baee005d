package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/rushteam/listingrec/core"
)

// Memory 是内存实现的 Catalog，用于测试与离线 CLI。
type Memory struct {
	mu       sync.RWMutex
	listings map[int64]*core.Listing
}

// NewMemory 用给定房源创建内存目录，nil 条目被忽略
func NewMemory(listings ...*core.Listing) *Memory {
	m := &Memory{}
	m.Replace(listings...)
	return m
}

// LoadMemoryFile 从 JSON 数组文件加载内存目录（字段同 core.Listing 的 JSON 形式）。
func LoadMemoryFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var listings []*core.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	return NewMemory(listings...), nil
}

// Replace 整体替换内存目录内容（测试中模拟目录变化）
func (m *Memory) Replace(listings ...*core.Listing) {
	next := make(map[int64]*core.Listing, len(listings))
	for _, l := range listings {
		if l == nil {
			continue
		}
		next[l.ID] = l
	}
	m.mu.Lock()
	m.listings = next
	m.mu.Unlock()
}

func (m *Memory) ListAll(ctx context.Context) ([]*core.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id int64) (*core.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.listings[id]
	if !ok {
		return nil, core.ErrListingNotFound
	}
	return l, nil
}

var _ Catalog = (*Memory)(nil)

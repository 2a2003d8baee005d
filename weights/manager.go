package weights

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rushteam/listingrec/core"
)

// Manager 持有进程内生效的权重配置。
//
// 设计原则：
//   - 读路径无锁：Get 通过 atomic.Pointer 取到一份完整快照
//   - 写路径串行：Update 经由互斥锁，校验通过后整体替换
//   - 校验失败时生效配置保持不变
type Manager struct {
	mu      sync.Mutex
	current atomic.Pointer[core.Weights]
	logger  *slog.Logger
	version atomic.Uint64
}

// Option 配置 Manager
type Option func(*Manager)

// WithLogger 设置日志
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager 用初始权重创建 Manager；初始权重同样需要通过校验。
func NewManager(initial core.Weights, opts ...Option) (*Manager, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	w := initial
	m.current.Store(&w)
	return m, nil
}

// NewDefaultManager 使用 core.DefaultWeights
func NewDefaultManager(opts ...Option) *Manager {
	m, err := NewManager(core.DefaultWeights(), opts...)
	if err != nil {
		// 默认权重是常量，不会失败
		panic(err)
	}
	return m
}

// Get 返回当前权重的快照（值拷贝）
func (m *Manager) Get() core.Weights {
	return *m.current.Load()
}

// Version 每次成功更新后递增，初始为 0
func (m *Manager) Version() uint64 {
	return m.version.Load()
}

// Update 解析并校验候选载荷，通过后原子替换，返回新的生效权重。
func (m *Manager) Update(candidate map[string]any) (core.Weights, error) {
	w, err := Parse(candidate)
	if err != nil {
		m.logger.Warn("rejected weights update", slog.String("error", err.Error()))
		return core.Weights{}, err
	}
	m.store(w)
	return w, nil
}

// Set 用强类型权重替换当前配置
func (m *Manager) Set(w core.Weights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	m.store(w)
	return nil
}

func (m *Manager) store(w core.Weights) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Store(&w)
	v := m.version.Add(1)
	m.logger.Info("weights updated", slog.Uint64("version", v), slog.Any("weights", w.Map()))
}

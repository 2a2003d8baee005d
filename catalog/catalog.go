// Package catalog 提供房源目录的只读访问：存储适配（Postgres / 内存）与快照缓存。
package catalog

import (
	"context"

	"github.com/rushteam/listingrec/core"
)

// Catalog 是房源目录的只读访问接口。
//
// 设计原则：
//   - 只读：推荐引擎从不修改目录
//   - Get 在房源不存在时返回 core.ErrListingNotFound
//   - 存储不可达时返回 UNAVAILABLE 错误，实现方内部不重试
//
// 实现：
//   - Postgres：关系库（生产）
//   - Memory：内存（测试 / 离线 CLI）
//   - Cached：在任意 Catalog 之上维护带刷新周期的快照
type Catalog interface {
	ListAll(ctx context.Context) ([]*core.Listing, error)
	Get(ctx context.Context, id int64) (*core.Listing, error)
}

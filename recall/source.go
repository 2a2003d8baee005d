package recall

import (
	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/feature"
)

// Candidates 是召回的候选集合：一份目录快照中的房源及其特征向量（下标一一对应）。
// catalog.Snapshot 实现此接口。
type Candidates interface {
	Listings() []*core.Listing
	Vectors() []*feature.Vector
	Lookup(id int64) (*core.Listing, *feature.Vector, bool)
}

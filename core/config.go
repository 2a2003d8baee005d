package core

import "time"

// RecommendConfig 是推荐相关的配置接口，用于提供默认值。
type RecommendConfig interface {
	// DefaultMaxResults 返回默认的推荐结果数
	DefaultMaxResults() int

	// MaxResultsLimit 返回推荐结果数上限
	MaxResultsLimit() int

	// DefaultThreshold 返回默认的相似度阈值
	DefaultThreshold() float64

	// DefaultSearchLimit 返回默认的搜索结果数
	DefaultSearchLimit() int

	// DefaultRefreshInterval 返回默认的目录快照刷新间隔
	DefaultRefreshInterval() time.Duration
}

// 默认值与原有 HTTP 接口保持一致
const (
	DefaultMaxResults      = 10
	MaxResultsLimit        = 100
	DefaultThreshold       = 0.6
	DefaultSearchLimit     = 20
	DefaultRefreshInterval = 5 * time.Minute
)

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultMaxResults() int {
	return DefaultMaxResults
}

func (c *DefaultRecommendConfig) MaxResultsLimit() int {
	return MaxResultsLimit
}

func (c *DefaultRecommendConfig) DefaultThreshold() float64 {
	return DefaultThreshold
}

func (c *DefaultRecommendConfig) DefaultSearchLimit() int {
	return DefaultSearchLimit
}

func (c *DefaultRecommendConfig) DefaultRefreshInterval() time.Duration {
	return DefaultRefreshInterval
}

var _ RecommendConfig = (*DefaultRecommendConfig)(nil)

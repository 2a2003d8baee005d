// Package metrics 定义服务的 Prometheus 指标（包级单例，由 promauto 注册到默认 Registry）。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rushteam/listingrec/core"
)

const namespace = "listingrec"

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// 推荐 / 搜索
	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "End-to-end duration of similar-listing recommendations",
			Buckets:   prometheus.DefBuckets,
		},
	)

	RecommendResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_results",
			Help:      "Number of results returned per recommendation",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each recommendation pipeline stage",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"stage", "kind"},
	)

	RequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "Errors returned by the engine, by operation and error code",
		},
		[]string{"operation", "code"},
	)

	SearchTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Total number of listing searches",
		},
	)

	// 目录
	CatalogListings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_listings",
			Help:      "Number of listings in the current catalog snapshot",
		},
	)

	CatalogRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_refresh_duration_seconds",
			Help:      "Duration of catalog loads from the backing store",
			Buckets:   prometheus.DefBuckets,
		},
	)

	CatalogRefreshErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_refresh_errors_total",
			Help:      "Total number of failed catalog loads",
		},
	)

	// 权重
	WeightUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weight_updates_total",
			Help:      "Weight configuration updates by result",
		},
		[]string{"result"}, // "accepted", "rejected"
	)

	WeightValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weight_value",
			Help:      "Live similarity weight per feature",
		},
		[]string{"feature"},
	)

	CatalogFeatureMissing = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_feature_missing_ratio",
			Help:      "Share of catalog listings with no value for a similarity feature",
		},
		[]string{"feature"},
	)
)

// RecordAPIRequest 记录一次 HTTP 请求
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRecommend 记录一次推荐
func RecordRecommend(duration time.Duration, results int) {
	RecommendDuration.Observe(duration.Seconds())
	RecommendResults.Observe(float64(results))
}

// RecordStage 记录一个 Pipeline 阶段的耗时
func RecordStage(stage, kind string, duration time.Duration) {
	PipelineStageDuration.WithLabelValues(stage, kind).Observe(duration.Seconds())
}

// RecordError 按错误代码记录引擎错误
func RecordError(operation string, err error) {
	if err == nil {
		return
	}
	code := core.ErrorCodeInternalError
	if de := core.GetDomainError(err); de != nil {
		code = de.Code
	}
	RequestErrors.WithLabelValues(operation, code).Inc()
}

// RecordCatalogRefresh 记录一次目录加载；listings < 0 表示加载失败
func RecordCatalogRefresh(duration time.Duration, listings int) {
	CatalogRefreshDuration.Observe(duration.Seconds())
	if listings < 0 {
		CatalogRefreshErrors.Inc()
		return
	}
	CatalogListings.Set(float64(listings))
}

// RecordWeights 记录一次权重更新；accepted 时同步各特征权重的 gauge
func RecordWeights(w core.Weights, accepted bool) {
	if !accepted {
		WeightUpdates.WithLabelValues("rejected").Inc()
		return
	}
	WeightUpdates.WithLabelValues("accepted").Inc()
	SetWeights(w)
}

// SetWeights 同步各特征权重的 gauge
func SetWeights(w core.Weights) {
	for name, v := range w.Map() {
		WeightValue.WithLabelValues(name).Set(v)
	}
}

// RecordFeatureCoverage 记录某个特征在目录快照中的缺失比例
func RecordFeatureCoverage(feature string, missingRatio float64) {
	CatalogFeatureMissing.WithLabelValues(feature).Set(missingRatio)
}

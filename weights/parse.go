// Package weights 管理相似度权重配置：解析、校验、原子替换。
package weights

import (
	"fmt"
	"math"
	"sort"

	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/pkg/conv"
)

// Parse 把外部载荷（JSON / YAML 解析出的 map）转换为固定特征集上的权重。
//
// 规则：
//   - 未知特征名、非数值、NaN/Inf 直接拒绝
//   - 载荷是整体替换，未出现的特征权重为 0
//   - 返回前执行 core.Weights.Validate（区间与总和）
func Parse(candidate map[string]any) (core.Weights, error) {
	var w core.Weights
	if len(candidate) == 0 {
		return w, core.NewInvalidConfig("empty weights payload")
	}

	// 按名称排序，保证同一份非法载荷总是报告同一个错误
	keys := make([]string, 0, len(candidate))
	for k := range candidate {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		f, ok := core.ParseFeature(name)
		if !ok {
			return core.Weights{}, core.NewInvalidConfig(fmt.Sprintf("unknown feature %q", name))
		}
		v, ok := conv.ToFloat64(candidate[name])
		if !ok {
			return core.Weights{}, core.NewInvalidConfig(fmt.Sprintf("weight %q is not a number", name))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.Weights{}, core.NewInvalidConfig(fmt.Sprintf("weight %q is not a finite number", name))
		}
		w[f] = v
	}
	if err := w.Validate(); err != nil {
		return core.Weights{}, err
	}
	return w, nil
}

// FromMap 是 Parse 的强类型版本
func FromMap(m map[string]float64) (core.Weights, error) {
	candidate := make(map[string]any, len(m))
	for k, v := range m {
		candidate[k] = v
	}
	return Parse(candidate)
}

// Package conv 提供把外部动态载荷（JSON/YAML 解析结果）转换为强类型数值的工具。
package conv

import (
	"encoding/json"
	"strconv"
)

// ToFloat64 将 any 转为 float64。
// 支持各类整型/浮点、json.Number；bool 与字符串不视为数值。
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint64:
		return float64(val), true
	case uint32:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ToInt64 将 any 转为 int64（用于路径参数、CLI 参数等字符串形式的 ID）。
func ToInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		return n, err == nil
	case int:
		return int64(val), true
	case int64:
		return val, true
	case float64:
		if val != float64(int64(val)) {
			return 0, false
		}
		return int64(val), true
	default:
		return 0, false
	}
}

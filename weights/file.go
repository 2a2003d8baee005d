package weights

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/listingrec/core"
)

// LoadFile 从 YAML（或 JSON，YAML 的子集）文件加载权重。
//
// 文件格式：
//
//	price: 0.25
//	location: 0.20
//	room_type: 0.15
//	...
//
// 与运行时 Update 使用同一套校验。
func LoadFile(path string) (core.Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Weights{}, fmt.Errorf("read weights file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return core.Weights{}, core.WrapDomainError(core.ModuleWeights, core.ErrorCodeInvalidConfig,
			"weights: parse "+path, err)
	}
	return Parse(raw)
}

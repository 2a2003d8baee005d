package utils

// Label 是推荐链路上的追踪信息：哪个阶段对候选做了什么。
// Value 与 Source 的语义由各 Node 自定义；这里只提供标准化的合并与展开规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rank / rerank
}

// String 以 "source:value" 形式输出，没有 Source 时只输出 Value
func (l Label) String() string {
	if l.Source == "" {
		return l.Value
	}
	return l.Source + ":" + l.Value
}

// MergeLabel 合并同名 Label，保留历史：
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积，相同来源不重复
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "", incoming.Source == existing.Source:
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

// Flatten 把标签展开为 key -> "source:value"，用于 explain 输出；空 map 返回 nil
func Flatten(labels map[string]Label) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, l := range labels {
		out[k] = l.String()
	}
	return out
}

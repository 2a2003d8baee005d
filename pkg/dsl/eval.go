// Package dsl 提供基于 CEL 的候选过滤表达式。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/listingrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// 编译缓存上限；超过后新表达式仍可编译，只是不再缓存
const maxCachedPrograms = 256

var (
	programCache sync.Map // expr -> *Program
	cachedCount  int
	cacheMu      sync.Mutex
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("listing", cel.DynType),
			cel.Variable("target", cel.DynType),
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.CrossTypeNumericComparisons(true),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的过滤表达式，线程安全，可在多个请求间复用。
//
// 表达式语法（CEL 标准语法）：
//   - 候选房源：listing.price <= 200.0 / listing.room_type == "Entire home/apt"
//   - 查询房源：listing.neighbourhood == target.neighbourhood
//   - 分数：item.score > 0.8
//   - 集合："Wifi" in listing.amenities
//   - 标签：label.recall_source == "weighted"
//
// 缺失字段的值为 null，与数值比较会报错，需先判断：listing.price != null && listing.price < 100
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；结果必须是布尔类型。
func Compile(expr string) (*Program, error) {
	if p, ok := programCache.Load(expr); ok {
		return p.(*Program), nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	if t := ast.OutputType().String(); t != "bool" && t != "dyn" {
		return nil, fmt.Errorf("expression must return boolean, got %s", t)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}

	p := &Program{expr: expr, prg: prg}
	cacheMu.Lock()
	if cachedCount < maxCachedPrograms {
		if _, loaded := programCache.LoadOrStore(expr, p); !loaded {
			cachedCount++
		}
	}
	cacheMu.Unlock()
	return p, nil
}

// String 返回原始表达式
func (p *Program) String() string { return p.expr }

// Eval 对单个候选求值
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Evaluate 编译并求值（一次性调用的便捷形式）
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx)
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	var listing, target map[string]any
	labels := make(map[string]any)
	itemMap := map[string]any{}
	if item != nil {
		listing = ListingMap(item.Listing)
		for k, v := range item.Labels {
			labels[k] = v.Value
		}
		features := make(map[string]any, len(item.Features))
		for k, v := range item.Features {
			features[k] = v
		}
		itemMap = map[string]any{
			"id":       item.ID,
			"score":    item.Score,
			"features": features,
		}
	}
	if rctx != nil {
		target = ListingMap(rctx.Target)
	}
	return map[string]any{
		"listing": listing,
		"target":  target,
		"item":    itemMap,
		"label":   labels,
	}
}

// ListingMap 把房源转换为 CEL 可访问的 map；缺失值为 nil（CEL 中的 null）
func ListingMap(l *core.Listing) map[string]any {
	if l == nil {
		return map[string]any{}
	}
	amenities := make([]any, len(l.Amenities))
	for i, a := range l.Amenities {
		amenities[i] = a
	}
	return map[string]any{
		"id":            l.ID,
		"name":          l.Name,
		"price":         optional(l.Price),
		"room_type":     l.RoomType,
		"accommodates":  optionalInt(l.Accommodates),
		"bedrooms":      optionalInt(l.Bedrooms),
		"beds":          optionalInt(l.Beds),
		"bathrooms":     optional(l.Bathrooms),
		"latitude":      optional(l.Latitude),
		"longitude":     optional(l.Longitude),
		"avg_rating":    optional(l.AvgRating),
		"review_count":  int64(l.ReviewCount),
		"amenities":     amenities,
		"neighbourhood": l.Neighbourhood,
	}
}

func optional(o core.Optional[float64]) any {
	if !o.Valid {
		return nil
	}
	return o.Value
}

func optionalInt(o core.Optional[int]) any {
	if !o.Valid {
		return nil
	}
	return int64(o.Value)
}

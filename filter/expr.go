package filter

import (
	"context"

	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式筛选候选：表达式为 true 的候选保留。
// 求值出错（例如拿缺失字段做数值比较）视为不满足条件，候选被过滤。
type ExprFilter struct {
	program *dsl.Program
}

// NewExprFilter 编译表达式；语法错误返回 INVALID_INPUT
func NewExprFilter(expr string) (*ExprFilter, error) {
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			"recommend: invalid filter expression", err)
	}
	return &ExprFilter{program: p}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	ok, err := f.program.Eval(item, rctx)
	if err != nil {
		return true, nil
	}
	return !ok, nil
}

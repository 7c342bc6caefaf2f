package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pkg/dsl"
)

// RuleFilter 是规则过滤器，用 DSL 表达式描述过滤条件。
// 表达式求值为 true 的物品被过滤掉。例如：
//
//	item.score < 0.1
//	has(label.category) && label.category == "adult"
//	rctx.scene == "homepage" && item.score < 0.5
//
// 表达式在构造时编译一次，之后每个物品只做求值。
// 注意：CEL 访问不存在的 key 会报错，条件里请用 has(label.key) 做存在性检查。
type RuleFilter struct {
	eval *dsl.Eval
}

// NewRuleFilter 创建一个规则过滤器，表达式非法时返回编译错误。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	eval, err := dsl.NewEval(expr)
	if err != nil {
		return nil, fmt.Errorf("rule filter: %w", err)
	}
	return &RuleFilter{eval: eval}, nil
}

var _ Filter = (*RuleFilter)(nil)

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

// Expr 返回过滤规则的表达式文本。
func (f *RuleFilter) Expr() string {
	if f.eval == nil {
		return ""
	}
	return f.eval.Expr()
}

// ShouldFilter 对物品求值过滤表达式。求值出错时错误上抛。
func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return false, nil
	}
	if f.eval == nil {
		return false, fmt.Errorf("rule filter: no expression")
	}
	return f.eval.Evaluate(item, rctx)
}

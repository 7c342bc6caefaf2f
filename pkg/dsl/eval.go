package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/recserve/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	if celEnv == nil && err == nil {
		err = fmt.Errorf("cel env not initialized")
	}
	return celEnv, err
}

// Eval 是规则表达式解释器，使用 CEL (Common Expression Language) 实现。
// 一次编译、多次求值：一个 Eval 持有一条编译好的表达式，Evaluate 对单个
// item/rctx 执行。CEL 程序本身线程安全，可被并发调用。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.score > 0.7 / item.score >= 0.5
//   - 标签：label.recall_source == "recall.vector"
//   - 逻辑：label.recall_source == "recall.static" && item.score > 0.8
//   - 存在性：has(label.category)
//   - 上下文：rctx.scene == "home" / rctx.customer_id != ""
//
// 注意：CEL 访问不存在的 key 会报错，用 has(label.key) 检查存在性。
type Eval struct {
	expr string
	prg  cel.Program
}

// NewEval 编译表达式并返回解释器；语法错误在这里暴露，而不是每次求值时。
func NewEval(expr string) (*Eval, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program error: %v", err)
	}
	return &Eval{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式文本。
func (e *Eval) Expr() string { return e.expr }

// Evaluate 对一个 item/rctx 执行表达式，返回布尔结果。
// 表达式返回非布尔值视为错误，不会被静默当作 false。
func (e *Eval) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := e.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	// 物品级 label map
	labels := make(map[string]interface{})
	// label 顶层访问器：label.recall_source 直接取 value
	labelAccessor := make(map[string]interface{})
	if item != nil {
		for k, v := range item.Labels {
			labels[k] = map[string]interface{}{
				"value":  v.Value,
				"source": v.Source,
			}
			labelAccessor[k] = v.Value
		}
	}

	itemInput := map[string]interface{}{}
	if item != nil {
		itemInput = map[string]interface{}{
			"id":     item.ID,
			"score":  item.Score,
			"meta":   item.Meta,
			"labels": labels,
		}
	}

	rctxInput := map[string]interface{}{}
	if rctx != nil {
		customerLabels := make(map[string]interface{})
		for k, v := range rctx.Labels {
			customerLabels[k] = v.Value
		}
		rctxInput = map[string]interface{}{
			"customer_id": rctx.CustomerID,
			"scene":       rctx.Scene,
			"labels":      customerLabels,
			"params":      rctx.Params,
		}
	}

	return map[string]interface{}{
		"item":  itemInput,
		"label": labelAccessor,
		"rctx":  rctxInput,
	}
}

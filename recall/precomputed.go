package recall

import (
	"context"
	"fmt"

	"github.com/rushteam/recserve/core"
)

// ScoreStore 是预计算评分的读取接口：每个客户一行分数，列号即物品行号。
// dataset.ScoreTable 实现此接口。
type ScoreStore interface {
	// Row 返回客户的分数行；客户不存在时 ok 为 false（冷启动）
	Row(customerID string) ([]float64, bool)

	// ItemAt 返回物品行号对应的规范 ID
	ItemAt(row int) (string, bool)
}

// PrecomputedSource 是预计算评分模式的召回源：
// 打分就是一次查表，再按分数降序、同分按物品行号升序排出候选。
//
// 使用场景：
//   - 离线已算好 customer × item 评分矩阵（如矩阵分解的预测分）
//   - 在线只做查表 + 排序，不做任何模型计算
type PrecomputedSource struct {
	Scores ScoreStore

	// TopK 候选截断数；<= 0 表示返回整个目录
	TopK int
}

func (r *PrecomputedSource) Name() string { return "recall.precomputed" }

// Recall 实现 Source 接口。
// 客户不在评分表中时返回 NOT_FOUND 领域错误（冷启动信号），由服务层转译。
func (r *PrecomputedSource) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Scores == nil {
		return nil, fmt.Errorf("recall: precomputed source has no score store")
	}
	if rctx == nil || rctx.CustomerID == "" {
		return nil, core.NewInvalidInput(core.ModuleRecall, "recall: empty customer id")
	}

	row, ok := r.Scores.Row(rctx.CustomerID)
	if !ok {
		return nil, core.NewCustomerNotFound(rctx.CustomerID)
	}

	list := make([]scored, 0, len(row))
	for i, s := range row {
		id, ok := r.Scores.ItemAt(i)
		if !ok {
			return nil, fmt.Errorf("recall: score column %d has no item id", i)
		}
		list = append(list, scored{row: i, id: id, score: s})
	}
	return buildItems(takeTop(list, r.TopK), r.Name()), nil
}

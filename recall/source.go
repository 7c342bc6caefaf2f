package recall

import (
	"context"

	"github.com/rushteam/recserve/core"
)

// Source 表示一个可复用的召回源（预计算评分/向量内积/静态列表/...）。
// 你可以把它理解为“独立产出候选列表的策略单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

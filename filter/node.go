package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pipeline"
	"github.com/rushteam/recserve/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉。
// 过滤器出错时整个请求报错返回，不会吞掉错误后给出一个看似正常的短列表。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}

		drop := false
		reason := ""

		for _, f := range n.Filters {
			hit, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				return nil, fmt.Errorf("filter %s: %w", f.Name(), err)
			}
			if hit {
				drop = true
				reason = f.Name()
				break
			}
		}

		if drop {
			// 记录过滤原因（用于调试/观测）
			item.PutLabel("filtered", utils.Label{
				Value:  "true",
				Source: reason,
			})
			continue
		}

		out = append(out, item)
	}

	return out, nil
}

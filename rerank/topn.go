package rerank

import (
	"context"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在过滤后截取前 N 个物品。
// 候选列表在召回阶段已经有序，截断不改变相对顺序。
//
// 使用场景：
//   - 过滤后把超采的候选收敛到请求的条数
//   - 控制推荐结果数量
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.SourceNode{Source: src},   // 召回（有序）
//	        &filter.FilterNode{Filters: fs},   // 过滤
//	        &rerank.TopNNode{N: 20},           // 截取 Top 20
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量（Top N）
	// 如果 N <= 0，则返回所有物品（不截断）
	// 如果 N > len(items)，则返回所有物品
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 {
		return items, nil
	}
	if len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}

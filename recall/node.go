package recall

import (
	"context"
	"fmt"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pipeline"
)

// SourceNode 把一个召回源适配成 Pipeline 的 Recall 节点。
// 召回错误原样上抛：冷启动的 NOT_FOUND 由服务层转译成 UnknownCustomer 状态，
// 不在这里吞成一个空的候选列表。
type SourceNode struct {
	Source Source
}

func (n *SourceNode) Name() string {
	if n.Source != nil {
		return n.Source.Name()
	}
	return "recall.source"
}

func (n *SourceNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *SourceNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if n.Source == nil {
		return nil, fmt.Errorf("recall: source node has no source")
	}
	return n.Source.Recall(ctx, rctx)
}

package meta

import (
	"context"
	"fmt"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pipeline"
	"github.com/rushteam/recserve/pkg/utils"
)

// Source 是物品元信息的读取接口。
// dataset.MetadataTable（内存快照）与 StoreMetadata（KV 存储哈希表）都实现此接口。
type Source interface {
	// Lookup 返回物品的描述字段；无记录时 ok 为 false，不是错误
	Lookup(ctx context.Context, itemID string) (map[string]string, bool, error)
}

// AttachNode 是元信息补齐节点，把商品描述字段挂到 item.Meta 上。
// 放在 Pipeline 末端（PostProcess），只服务展示层：
// 打分、过滤、截断都发生在它之前，没有元信息的物品原样保留。
//
// 使用场景：
//   - 返回结果带上标题、品牌、价格等展示字段
//   - 把 category 等字段同时写入 Label，供多样性重排消费
type AttachNode struct {
	Source Source

	// Fields 只拷贝这些字段；为空拷贝全部
	Fields []string

	// LabelKeys 这些字段在拷贝之外同时写入 item.Labels
	LabelKeys []string
}

func (n *AttachNode) Name() string {
	return "meta.attach"
}

func (n *AttachNode) Kind() pipeline.Kind {
	return pipeline.KindPostProcess
}

func (n *AttachNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Source == nil || len(items) == 0 {
		return items, nil
	}

	for _, item := range items {
		if item == nil {
			continue
		}

		fields, ok, err := n.Source.Lookup(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("meta attach %s: %w", item.ID, err)
		}
		if !ok {
			continue
		}

		if item.Meta == nil {
			item.Meta = make(map[string]any, len(fields))
		}

		if len(n.Fields) == 0 {
			for k, v := range fields {
				item.Meta[k] = v
			}
		} else {
			for _, k := range n.Fields {
				if v, exists := fields[k]; exists {
					item.Meta[k] = v
				}
			}
		}

		for _, k := range n.LabelKeys {
			if v, exists := fields[k]; exists {
				item.PutLabel(k, utils.Label{Value: v, Source: n.Name()})
			}
		}
	}

	return items, nil
}

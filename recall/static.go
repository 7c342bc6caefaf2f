package recall

import (
	"context"
	"encoding/json"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pipeline"
	"github.com/rushteam/recserve/pkg/conv"
	"github.com/rushteam/recserve/pkg/utils"
)

// Static 是静态候选源，产出一份固定的有序 ID 列表。
//   - 如果 Store 实现了 core.KeyValueStore，优先使用 ZRange（有序集合，按分数降序）
//   - 否则从普通 key 读取 JSON 数组
//   - Store 不可用或为空时，使用内存中的 IDs 作为 fallback
//
// 列表内的 ID 一律先归一化再输出，无法归一化的条目跳过。
// Static 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
//
// 使用场景：
//   - 测试与示例中的固定候选
//   - 组合管道里的兜底候选行
type Static struct {
	Store core.Store
	Key   string   // 存储 key，例如 "static:candidates"
	IDs   []string // fallback 内存列表

	// Limit 从 Store 读取的最大条数；<= 0 时取 100
	Limit int64
}

func (r *Static) Name() string        { return "recall.static" }
func (r *Static) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Static) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Static) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	var ids []string

	// 优先从 Store 读取（支持 ZRange 或普通 Get）
	if r.Store != nil && r.Key != "" {
		limit := r.Limit
		if limit <= 0 {
			limit = 100
		}
		if kv, ok := r.Store.(core.KeyValueStore); ok {
			members, err := kv.ZRange(ctx, r.Key, 0, limit-1)
			if err == nil && len(members) > 0 {
				ids = members
			}
		} else {
			data, err := r.Store.Get(ctx, r.Key)
			if err == nil {
				var parsed []string
				if json.Unmarshal(data, &parsed) == nil {
					ids = parsed
				}
			}
		}
	}

	// Fallback：使用内存 IDs
	if len(ids) == 0 {
		ids = r.IDs
	}

	out := make([]*core.Item, 0, len(ids))
	for _, raw := range ids {
		id, ok := conv.CanonicalID(raw)
		if !ok {
			continue
		}
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

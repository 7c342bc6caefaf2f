package core

import "github.com/rushteam/recserve/pkg/utils"

// RecommendContext 承载客户/场景信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	// CustomerID 是归一化后的客户 ID（见 conv.CanonicalID）。
	// 入口处归一化一次，链路内不再做任何类型混用的比较。
	CustomerID string

	// Scene 推荐场景（如 home、detail、cart），可驱动策略分流
	Scene string

	// Labels 是客户级标签，可驱动整个 Pipeline 行为
	// 例如：新客户、高复购、价格敏感等
	Labels map[string]utils.Label

	// Params 请求级上下文参数，例如 exclude_ids、渠道、AB 分桶等
	Params map[string]any
}

// PutLabel 写入客户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取客户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

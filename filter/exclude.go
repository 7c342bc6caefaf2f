package filter

import (
	"context"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pkg/conv"
)

// ExcludeFilter 是客户级排除过滤器，过滤掉单个客户不想再看到的物品。
// 排除列表有两个来源，任一命中即过滤：
//   - 请求参数 rctx.Params["exclude_ids"]（单次请求生效）
//   - Store 中的客户排除列表（跨请求生效，key 为 {KeyPrefix}:{customerID}）
type ExcludeFilter struct {
	// Store 用于从存储中读取客户排除列表（可选）
	Store ExcludeStore

	// KeyPrefix 是 Store 中的 key 前缀，默认 "customer:exclude"
	KeyPrefix string
}

// ExcludeStore 是客户排除列表存储接口。
type ExcludeStore interface {
	// GetCustomerExcludes 获取客户排除的物品 ID 列表
	GetCustomerExcludes(ctx context.Context, customerID string, keyPrefix string) ([]string, error)
}

// NewExcludeFilter 创建一个客户级排除过滤器。
func NewExcludeFilter(storeAdapter *StoreAdapter, keyPrefix string) *ExcludeFilter {
	var store ExcludeStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &ExcludeFilter{
		Store:     store,
		KeyPrefix: keyPrefix,
	}
}

var _ Filter = (*ExcludeFilter)(nil)

func (f *ExcludeFilter) Name() string {
	return "filter.exclude"
}

// ShouldFilter 报告物品是否被该客户排除。
// Store 读取失败时错误上抛，不降级为空列表。
func (f *ExcludeFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil {
		return false, nil
	}

	// 请求级排除参数
	for _, id := range requestExcludes(rctx) {
		if item.ID == id {
			return true, nil
		}
	}

	if f.Store == nil || rctx.CustomerID == "" {
		return false, nil
	}

	keyPrefix := f.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "customer:exclude"
	}

	excluded, err := f.Store.GetCustomerExcludes(ctx, rctx.CustomerID, keyPrefix)
	if err != nil {
		return false, err
	}
	for _, id := range excluded {
		if item.ID == id {
			return true, nil
		}
	}

	return false, nil
}

// requestExcludes 读取请求参数中的 exclude_ids，归一化后返回。
// 参数形态兼容 []string 与 []any（JSON 反序列化的产物），无法归一化的条目跳过。
func requestExcludes(rctx *core.RecommendContext) []string {
	if rctx == nil || rctx.Params == nil {
		return nil
	}
	raw, ok := rctx.Params["exclude_ids"]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if id, ok := conv.CanonicalID(s); ok {
				out = append(out, id)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if id, ok := conv.CanonicalID(e); ok {
				out = append(out, id)
			}
		}
		return out
	}
	return nil
}

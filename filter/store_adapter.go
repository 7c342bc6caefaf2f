package filter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pkg/conv"
)

// StorePurchaseStore 把 core.Store 适配成购买历史读取接口（PurchaseStore）。
// 存储中每个客户一条记录，key 为 {KeyPrefix}:{customerID}，值为 JSON：
//   - 纯 ID 数组：["A1", 1024, "A2"]（数字/字符串混用均可，读取时归一化）
//   - 带时间戳数组：[{"item_id": "A1", "timestamp": 1700000000}, ...]
//
// 引擎消费的是“曾经买过”的去重集合，时间戳只存不读。
type StorePurchaseStore struct {
	store core.Store

	// KeyPrefix 是 Store 中的 key 前缀，默认 "purchases"
	KeyPrefix string
}

// NewStorePurchaseStore 创建一个 KV 存储后端的购买历史。
func NewStorePurchaseStore(s core.Store, keyPrefix string) *StorePurchaseStore {
	return &StorePurchaseStore{store: s, KeyPrefix: keyPrefix}
}

var _ PurchaseStore = (*StorePurchaseStore)(nil)

func (a *StorePurchaseStore) key(customerID string) string {
	prefix := a.KeyPrefix
	if prefix == "" {
		prefix = "purchases"
	}
	return prefix + ":" + customerID
}

// Purchased 实现 PurchaseStore。
// key 不存在等于没有购买记录，不是错误；其余存储错误原样上抛。
func (a *StorePurchaseStore) Purchased(ctx context.Context, customerID, itemID string) (bool, error) {
	ids, err := a.Items(ctx, customerID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == itemID {
			return true, nil
		}
	}
	return false, nil
}

// Items 返回客户的已购物品 ID 列表：去重、保持首次出现顺序、全部归一化。
// 无记录的客户返回空列表。
func (a *StorePurchaseStore) Items(ctx context.Context, customerID string) ([]string, error) {
	if a.store == nil {
		return nil, fmt.Errorf("purchase store: nil backend")
	}
	data, err := a.store.Get(ctx, a.key(customerID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	ids, err := decodePurchaseList(data)
	if err != nil {
		return nil, fmt.Errorf("purchase store: customer %s: %w", customerID, err)
	}
	return ids, nil
}

// decodePurchaseList 解析购买记录的两种 JSON 形态，输出去重且归一化的 ID 列表。
func decodePurchaseList(data []byte) ([]string, error) {
	// 先尝试纯 ID 数组（元素可为字符串或数字）
	var raw []any
	if err := json.Unmarshal(data, &raw); err == nil && !hasObjectElement(raw) {
		return dedupeCanonical(raw), nil
	}

	// 再尝试带时间戳的记录数组
	var recs []struct {
		ItemID    any   `json:"item_id"`
		Timestamp int64 `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("undecodable purchase list: %w", err)
	}
	items := make([]any, 0, len(recs))
	for _, r := range recs {
		items = append(items, r.ItemID)
	}
	return dedupeCanonical(items), nil
}

// hasObjectElement 报告 JSON 数组中是否出现对象元素（带时间戳形态）。
func hasObjectElement(raw []any) bool {
	for _, r := range raw {
		if _, ok := r.(map[string]any); ok {
			return true
		}
	}
	return false
}

// dedupeCanonical 归一化并按首次出现去重；无法归一化的条目跳过。
func dedupeCanonical(raw []any) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		id, ok := conv.CanonicalID(r)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// StoreAdapter 把 core.Store 适配成黑名单/排除列表的读取接口。
// 列表均为 JSON 数组，元素可为字符串或数字，读取时归一化。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

var (
	_ BlacklistStore = (*StoreAdapter)(nil)
	_ ExcludeStore   = (*StoreAdapter)(nil)
)

// GetBlacklist 从 Store 读取黑名单 ID 列表。key 不存在返回空列表。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	if a.store == nil {
		return nil, fmt.Errorf("store adapter: nil backend")
	}
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("store adapter: key %s: %w", key, err)
	}
	return dedupeCanonical(raw), nil
}

// GetCustomerExcludes 从 Store 读取客户级排除列表，key 为 {keyPrefix}:{customerID}。
func (a *StoreAdapter) GetCustomerExcludes(ctx context.Context, customerID, keyPrefix string) ([]string, error) {
	if keyPrefix == "" {
		keyPrefix = "customer:exclude"
	}
	return a.GetBlacklist(ctx, keyPrefix+":"+customerID)
}

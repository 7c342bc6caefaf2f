package meta

import (
	"context"
	"fmt"

	"github.com/rushteam/recserve/core"
)

// StoreMetadata 把 KV 存储的 Hash 表适配成元信息读取接口（Source）。
// 每个物品一个 Hash，key 为 {KeyPrefix}:{itemID}，field -> 值。
// 适合元数据量大、不随快照下发的部署。
type StoreMetadata struct {
	store core.KeyValueStore

	// KeyPrefix 是 Store 中的 key 前缀，默认 "product"
	KeyPrefix string
}

// NewStoreMetadata 创建一个 KV 存储后端的元信息源。
func NewStoreMetadata(s core.KeyValueStore, keyPrefix string) *StoreMetadata {
	return &StoreMetadata{store: s, KeyPrefix: keyPrefix}
}

var _ Source = (*StoreMetadata)(nil)

// Lookup 实现 Source。key 不存在或 Hash 为空视作无记录，不是错误。
func (s *StoreMetadata) Lookup(ctx context.Context, itemID string) (map[string]string, bool, error) {
	if s.store == nil {
		return nil, false, fmt.Errorf("store metadata: nil backend")
	}

	prefix := s.KeyPrefix
	if prefix == "" {
		prefix = "product"
	}

	raw, err := s.store.HGetAll(ctx, prefix+":"+itemID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(raw) == 0 {
		return nil, false, nil
	}

	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		fields[k] = string(v)
	}
	return fields, true, nil
}

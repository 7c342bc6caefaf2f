package redis

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/filter"
)

// PurchaseBloom 是购买集的布隆过滤器预检，实现 filter.BloomChecker。
// 每个客户一个过滤器，以序列化字节存于 {KeyPrefix}:bloom:{customerID}，
// 通常由离线任务随购买历史一起产出写入 Redis。
//
// 判定语义：
//   - 返回 false 表示该客户一定没买过该物品，已购过滤可直接放行
//   - 返回 true 表示可能买过（有误判率），需走权威检查
//   - 客户没有过滤器按无购买记录处理，返回 false
//
// 使用方式：
//
//	st, _ := store.NewRedisStore("localhost:6379", 0)
//	pb := redis.NewPurchaseBloom(st, 1000000, 0.01)
//	f := &filter.PurchasedFilter{Store: purchases, Bloom: pb}
type PurchaseBloom struct {
	store core.Store

	// KeyPrefix 是存储 key 前缀，空值用 "purchases"
	KeyPrefix string

	// capacity 是单个过滤器的预期元素数
	capacity uint
	// falsePositiveRate 是期望误判率，如 0.01 表示 1%
	falsePositiveRate float64

	// 反序列化后的过滤器按客户缓存，避免每次判定都读存储
	mu    sync.RWMutex
	cache map[string]*bloom.BloomFilter
}

var _ filter.BloomChecker = (*PurchaseBloom)(nil)

// NewPurchaseBloom 创建购买集预检。
// capacity 与 falsePositiveRate 决定过滤器大小，须与产出侧一致。
func NewPurchaseBloom(st core.Store, capacity uint, falsePositiveRate float64) *PurchaseBloom {
	return &PurchaseBloom{
		store:             st,
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
		cache:             make(map[string]*bloom.BloomFilter),
	}
}

func (b *PurchaseBloom) key(customerID string) string {
	prefix := b.KeyPrefix
	if prefix == "" {
		prefix = "purchases"
	}
	return prefix + ":bloom:" + customerID
}

// MayContain 实现 filter.BloomChecker。
// 存储读取失败时错误上抛，由调用方决定是否退回权威检查。
func (b *PurchaseBloom) MayContain(ctx context.Context, customerID, itemID string) (bool, error) {
	if b.store == nil {
		return false, fmt.Errorf("purchase bloom: no store")
	}

	b.mu.RLock()
	cached := b.cache[customerID]
	b.mu.RUnlock()
	if cached != nil {
		return cached.Test([]byte(itemID)), nil
	}

	bf, err := b.load(ctx, customerID)
	if err != nil {
		return false, err
	}
	if bf == nil {
		return false, nil
	}

	b.mu.Lock()
	b.cache[customerID] = bf
	b.mu.Unlock()

	return bf.Test([]byte(itemID)), nil
}

// load 从存储读取并反序列化客户的过滤器；不存在返回 (nil, nil)。
func (b *PurchaseBloom) load(ctx context.Context, customerID string) (*bloom.BloomFilter, error) {
	data, err := b.store.Get(ctx, b.key(customerID))
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("purchase bloom: read %s: %w", customerID, err)
	}

	bf := bloom.NewWithEstimates(b.capacity, b.falsePositiveRate)
	if _, err := bf.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("purchase bloom: decode %s: %w", customerID, err)
	}
	return bf, nil
}

// Add 把物品加入客户的过滤器并写回存储（产出侧 API）。
// ttl 单位秒，0 表示不过期。
func (b *PurchaseBloom) Add(ctx context.Context, customerID string, ttl int, itemIDs ...string) error {
	if b.store == nil {
		return fmt.Errorf("purchase bloom: no store")
	}
	if len(itemIDs) == 0 {
		return nil
	}

	bf, err := b.load(ctx, customerID)
	if err != nil {
		return err
	}
	if bf == nil {
		bf = bloom.NewWithEstimates(b.capacity, b.falsePositiveRate)
	}

	for _, itemID := range itemIDs {
		bf.Add([]byte(itemID))
	}

	var buf bytes.Buffer
	if _, err := bf.WriteTo(&buf); err != nil {
		return fmt.Errorf("purchase bloom: encode %s: %w", customerID, err)
	}
	if err := b.store.Set(ctx, b.key(customerID), buf.Bytes(), ttl); err != nil {
		return fmt.Errorf("purchase bloom: write %s: %w", customerID, err)
	}

	b.mu.Lock()
	b.cache[customerID] = bf
	b.mu.Unlock()
	return nil
}

// Invalidate 丢弃客户过滤器的本地缓存，下次判定重新从存储读取。
// 离线任务重建过滤器后调用。
func (b *PurchaseBloom) Invalidate(customerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.cache, customerID)
}

// InvalidateAll 丢弃全部本地缓存。
func (b *PurchaseBloom) InvalidateAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache = make(map[string]*bloom.BloomFilter)
}

package filter

import (
	"context"

	"github.com/rushteam/recserve/core"
)

// PurchaseStore 是购买历史的读取接口。
// dataset.HistoryTable（内存快照）与 StorePurchaseStore（KV 存储）都实现此接口。
type PurchaseStore interface {
	// Purchased 判断客户是否购买过该物品
	Purchased(ctx context.Context, customerID, itemID string) (bool, error)
}

// BloomChecker 是购买集的概率预检接口。
// 返回 false 表示一定不在购买集中，可以直接放行；
// 返回 true 表示可能在（存在误判），需要走权威检查。
type BloomChecker interface {
	MayContain(ctx context.Context, customerID, itemID string) (bool, error)
}

// PurchasedFilter 是已购过滤器，过滤掉客户已经买过的物品。
// 两级检查：
//  1. Bloom 预检（可选）：一定未购买的物品直接放行，省掉一次存储读取
//  2. PurchaseStore 权威判断
//
// 权威检查出错时错误上抛，不降级为“视为未购买”。
type PurchasedFilter struct {
	Store PurchaseStore

	// Bloom 是可选的概率预检，无配置时每个物品都走权威检查
	Bloom BloomChecker
}

func (f *PurchasedFilter) Name() string {
	return "filter.purchased"
}

func (f *PurchasedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.CustomerID == "" {
		return false, nil
	}
	if f.Store == nil {
		return false, nil
	}

	if f.Bloom != nil {
		may, err := f.Bloom.MayContain(ctx, rctx.CustomerID, item.ID)
		if err == nil && !may {
			return false, nil
		}
		// 预检出错时退回权威检查
	}

	purchased, err := f.Store.Purchased(ctx, rctx.CustomerID, item.ID)
	if err != nil {
		return false, err
	}
	return purchased, nil
}

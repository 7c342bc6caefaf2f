package redis

import (
	"context"
	"fmt"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/filter"
	"github.com/rushteam/recserve/store"
)

// ExamplePurchaseBloom 展示如何用 Redis 布隆过滤器给已购过滤做预检。
func ExamplePurchaseBloom() {
	ctx := context.Background()

	// 1. 连接 Redis
	st, err := store.NewRedisStore("localhost:6379", 0)
	if err != nil {
		panic(err)
	}
	defer st.Close()

	// 2. 创建购买集预检
	// 参数须与产出侧一致：预期 100 万元素，误判率 1%
	pb := NewPurchaseBloom(st, 1000000, 0.01)

	// 3. 组装已购过滤器：一定未购买的物品跳过权威检查
	purchases := filter.NewStorePurchaseStore(st, "")
	purchased := &filter.PurchasedFilter{
		Store: purchases,
		Bloom: pb,
	}

	// 4. 判定
	rctx := &core.RecommendContext{CustomerID: "1024"}
	item := core.NewItem("A3")
	shouldFilter, _ := purchased.ShouldFilter(ctx, rctx, item)
	fmt.Printf("filter item: %v\n", shouldFilter)
}

// ExamplePurchaseBloomProducer 展示产出侧如何写入购买集过滤器。
func ExamplePurchaseBloomProducer() {
	ctx := context.Background()

	st, err := store.NewRedisStore("localhost:6379", 0)
	if err != nil {
		panic(err)
	}
	defer st.Close()

	pb := NewPurchaseBloom(st, 1000000, 0.01)

	// 购买流水进来时随历史一起写入；ttl=0 表示不过期
	if err := pb.Add(ctx, "1024", 0, "A1", "A2"); err != nil {
		panic(err)
	}

	fmt.Println("purchase bloom updated for customer 1024")
}

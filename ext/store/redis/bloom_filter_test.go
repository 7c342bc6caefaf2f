package redis

import (
	"context"
	"testing"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/filter"
	"github.com/rushteam/recserve/store"
)

func TestPurchaseBloomRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	defer st.Close()

	pb := NewPurchaseBloom(st, 1000, 0.01)
	if err := pb.Add(ctx, "1024", 0, "A1", "A2"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	may, err := pb.MayContain(ctx, "1024", "A1")
	if err != nil || !may {
		t.Errorf("MayContain(1024, A1) = (%v, %v), want true", may, err)
	}

	// false 是确定性的一侧：一定未购买
	may, err = pb.MayContain(ctx, "1024", "Z9")
	if err != nil {
		t.Fatalf("MayContain() error = %v", err)
	}
	if may {
		t.Errorf("MayContain(1024, Z9) = true; Z9 was never added")
	}
}

func TestPurchaseBloomUnknownCustomer(t *testing.T) {
	pb := NewPurchaseBloom(store.NewMemoryStore(), 1000, 0.01)

	may, err := pb.MayContain(context.Background(), "nobody", "A1")
	if err != nil {
		t.Fatalf("MayContain() error = %v", err)
	}
	if may {
		t.Errorf("customer without a filter must read as no purchases")
	}
}

func TestPurchaseBloomPersisted(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	producer := NewPurchaseBloom(st, 1000, 0.01)
	if err := producer.Add(ctx, "1024", 0, "A1"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// 新实例无本地缓存，从存储反序列化同一个过滤器
	reader := NewPurchaseBloom(st, 1000, 0.01)
	may, err := reader.MayContain(ctx, "1024", "A1")
	if err != nil || !may {
		t.Errorf("MayContain() after reload = (%v, %v), want true", may, err)
	}
}

func TestPurchaseBloomInvalidate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	pb := NewPurchaseBloom(st, 1000, 0.01)

	if err := pb.Add(ctx, "1024", 0, "A1"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if may, _ := pb.MayContain(ctx, "1024", "A1"); !may {
		t.Fatalf("MayContain() = false before invalidate")
	}

	// 离线重建：存储里的过滤器被清掉，缓存失效后判定跟随存储
	if err := st.Delete(ctx, "purchases:bloom:1024"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	pb.Invalidate("1024")

	may, err := pb.MayContain(ctx, "1024", "A1")
	if err != nil || may {
		t.Errorf("MayContain() after invalidate = (%v, %v), want false", may, err)
	}
}

func TestPurchaseBloomWithPurchasedFilter(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	// 权威列表与预检都指向同一份购买集
	if err := st.Set(ctx, "purchases:1024", []byte(`["A1", "A2"]`), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	pb := NewPurchaseBloom(st, 1000, 0.01)
	if err := pb.Add(ctx, "1024", 0, "A1", "A2"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	purchased := &filter.PurchasedFilter{
		Store: filter.NewStorePurchaseStore(st, ""),
		Bloom: pb,
	}
	rctx := &core.RecommendContext{CustomerID: "1024"}

	drop, err := purchased.ShouldFilter(ctx, rctx, core.NewItem("A1"))
	if err != nil || !drop {
		t.Errorf("ShouldFilter(A1) = (%v, %v), want true", drop, err)
	}
	keep, err := purchased.ShouldFilter(ctx, rctx, core.NewItem("A9"))
	if err != nil || keep {
		t.Errorf("ShouldFilter(A9) = (%v, %v), want false", keep, err)
	}
}

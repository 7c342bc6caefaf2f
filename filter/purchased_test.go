package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/dataset"
	"github.com/rushteam/recserve/store"
)

type fakeBloom struct {
	may map[string]bool
	err error
}

func (b *fakeBloom) MayContain(_ context.Context, customerID, itemID string) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	return b.may[customerID+":"+itemID], nil
}

// countingStore 包装 PurchaseStore 并统计权威检查次数。
type countingStore struct {
	inner PurchaseStore
	calls int
}

func (s *countingStore) Purchased(ctx context.Context, customerID, itemID string) (bool, error) {
	s.calls++
	return s.inner.Purchased(ctx, customerID, itemID)
}

type brokenPurchases struct{ err error }

func (s *brokenPurchases) Purchased(context.Context, string, string) (bool, error) {
	return false, s.err
}

func buildHistory(t *testing.T) *dataset.HistoryTable {
	t.Helper()
	h := dataset.NewHistoryTable()
	for _, rec := range [][2]any{
		{"1024", "A1"},
		{1024, "A2"},
	} {
		if err := h.Add(rec[0], rec[1]); err != nil {
			t.Fatalf("Add(%v, %v) error = %v", rec[0], rec[1], err)
		}
	}
	return h
}

func TestPurchasedFilterWithHistoryTable(t *testing.T) {
	f := &PurchasedFilter{Store: buildHistory(t)}
	rctx := &core.RecommendContext{CustomerID: "1024"}

	tests := []struct {
		itemID string
		want   bool
	}{
		{"A1", true},
		{"A2", true},
		{"A3", false},
	}
	for _, tt := range tests {
		got, err := f.ShouldFilter(context.Background(), rctx, core.NewItem(tt.itemID))
		if err != nil {
			t.Fatalf("ShouldFilter(%s) error = %v", tt.itemID, err)
		}
		if got != tt.want {
			t.Errorf("ShouldFilter(%s) = %v, want %v", tt.itemID, got, tt.want)
		}
	}
}

func TestPurchasedFilterUnknownCustomer(t *testing.T) {
	f := &PurchasedFilter{Store: buildHistory(t)}
	got, err := f.ShouldFilter(context.Background(), &core.RecommendContext{CustomerID: "9999"}, core.NewItem("A1"))
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if got {
		t.Error("ShouldFilter() = true for customer without history, want false")
	}
}

func TestPurchasedFilterBloomFastPass(t *testing.T) {
	authoritative := &countingStore{inner: buildHistory(t)}
	f := &PurchasedFilter{
		Store: authoritative,
		Bloom: &fakeBloom{may: map[string]bool{}},
	}

	got, err := f.ShouldFilter(context.Background(), &core.RecommendContext{CustomerID: "1024"}, core.NewItem("A9"))
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if got {
		t.Error("ShouldFilter() = true, want false on bloom fast pass")
	}
	if authoritative.calls != 0 {
		t.Errorf("authoritative store consulted %d times, want 0", authoritative.calls)
	}
}

func TestPurchasedFilterBloomFalsePositive(t *testing.T) {
	authoritative := &countingStore{inner: buildHistory(t)}
	f := &PurchasedFilter{
		Store: authoritative,
		Bloom: &fakeBloom{may: map[string]bool{"1024:A3": true}},
	}

	got, err := f.ShouldFilter(context.Background(), &core.RecommendContext{CustomerID: "1024"}, core.NewItem("A3"))
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if got {
		t.Error("ShouldFilter() = true, want false: authoritative store corrects bloom false positive")
	}
	if authoritative.calls != 1 {
		t.Errorf("authoritative store consulted %d times, want 1", authoritative.calls)
	}
}

func TestPurchasedFilterBloomErrorFallsBack(t *testing.T) {
	f := &PurchasedFilter{
		Store: buildHistory(t),
		Bloom: &fakeBloom{err: errors.New("bloom offline")},
	}

	got, err := f.ShouldFilter(context.Background(), &core.RecommendContext{CustomerID: "1024"}, core.NewItem("A1"))
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if !got {
		t.Error("ShouldFilter() = false, want true via authoritative check")
	}
}

func TestPurchasedFilterStoreError(t *testing.T) {
	boom := errors.New("redis timeout")
	f := &PurchasedFilter{Store: &brokenPurchases{err: boom}}

	_, err := f.ShouldFilter(context.Background(), &core.RecommendContext{CustomerID: "1024"}, core.NewItem("A1"))
	if !errors.Is(err, boom) {
		t.Errorf("ShouldFilter() error = %v, want %v", err, boom)
	}
}

func TestStorePurchaseStore(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	if err := mem.Set(ctx, "purchases:1024", []byte(`["A1", 7, "A1", "  A2  "]`), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	ps := NewStorePurchaseStore(mem, "")

	items, err := ps.Items(ctx, "1024")
	if err != nil {
		t.Fatalf("Items() error = %v", err)
	}
	want := []string{"A1", "7", "A2"}
	if len(items) != len(want) {
		t.Fatalf("Items() = %v, want %v", items, want)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("Items() = %v, want %v", items, want)
		}
	}

	purchased, err := ps.Purchased(ctx, "1024", "A2")
	if err != nil || !purchased {
		t.Errorf("Purchased(A2) = %v, %v, want true, nil", purchased, err)
	}
	purchased, err = ps.Purchased(ctx, "1024", "A9")
	if err != nil || purchased {
		t.Errorf("Purchased(A9) = %v, %v, want false, nil", purchased, err)
	}
}

func TestStorePurchaseStoreMissingCustomer(t *testing.T) {
	ps := NewStorePurchaseStore(store.NewMemoryStore(), "purchases")
	items, err := ps.Items(context.Background(), "404")
	if err != nil {
		t.Fatalf("Items() error = %v, want nil for missing customer", err)
	}
	if len(items) != 0 {
		t.Errorf("Items() = %v, want empty", items)
	}
}

func TestStorePurchaseStoreTimestamped(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	payload := `[{"item_id": "A1", "timestamp": 1700000000}, {"item_id": 2048, "timestamp": 1700086400}]`
	if err := mem.Set(ctx, "orders:1024", []byte(payload), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	ps := NewStorePurchaseStore(mem, "orders")
	items, err := ps.Items(ctx, "1024")
	if err != nil {
		t.Fatalf("Items() error = %v", err)
	}
	want := []string{"A1", "2048"}
	if len(items) != len(want) || items[0] != want[0] || items[1] != want[1] {
		t.Errorf("Items() = %v, want %v", items, want)
	}
}

func TestStorePurchaseStoreBadPayload(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	if err := mem.Set(ctx, "purchases:1024", []byte(`{"oops": true}`), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	ps := NewStorePurchaseStore(mem, "")
	if _, err := ps.Items(ctx, "1024"); err == nil {
		t.Error("Items() error = nil, want decode error")
	}
}

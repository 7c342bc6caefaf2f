package recall

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recserve/core"
)

// VectorStore 提供客户向量查询。dataset.VectorTable 实现此接口。
type VectorStore interface {
	// Vector 返回 ID 对应的向量；不存在时 ok 为 false（冷启动）
	Vector(id string) ([]float64, bool)
}

// Catalog 提供物品目录的稠密行视图。dataset.VectorTable 实现此接口。
type Catalog interface {
	// At 返回行号对应的物品向量
	At(row int) []float64

	// IDAt 返回行号对应的规范 ID
	IDAt(row int) (string, bool)

	// Dim 返回物品向量维度
	Dim() int

	// Len 返回目录大小
	Len() int
}

// VectorSource 是向量内积模式的召回源：
// 用客户向量对整个物品目录做一次精确暴力扫描，内积即相关性分数。
// 扫描按行号分段并行，各段先取局部 Top-K 再合并，任意并发度下输出一致。
//
// 使用场景：
//   - 离线训练产出 customer/item 两套嵌入向量
//   - 目录量级适中，精确扫描即可，不需要近似索引
type VectorSource struct {
	Customers VectorStore
	Items     Catalog

	// TopK 候选截断数；<= 0 表示返回整个目录
	TopK int

	// Workers 扫描并发数；<= 0 时取 runtime.GOMAXPROCS(0)
	Workers int
}

func (r *VectorSource) Name() string { return "recall.vector" }

// Recall 实现 Source 接口。
// 客户不在向量表中时返回 NOT_FOUND 领域错误（冷启动信号），由服务层转译；
// 客户向量与物品向量维度不一致时返回 DIMENSION_MISMATCH，指向两份嵌入产出的版本错位。
func (r *VectorSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Customers == nil || r.Items == nil {
		return nil, fmt.Errorf("recall: vector source has no store")
	}
	if rctx == nil || rctx.CustomerID == "" {
		return nil, core.NewInvalidInput(core.ModuleRecall, "recall: empty customer id")
	}

	cvec, ok := r.Customers.Vector(rctx.CustomerID)
	if !ok {
		return nil, core.NewCustomerNotFound(rctx.CustomerID)
	}

	total := r.Items.Len()
	if total == 0 {
		return nil, nil
	}
	if len(cvec) != r.Items.Dim() {
		return nil, core.NewDimensionMismatch(fmt.Sprintf(
			"customer vector dim %d != item vector dim %d", len(cvec), r.Items.Dim()))
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > total {
		workers = total
	}

	parts := make([][]scored, workers)
	eg, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		eg.Go(func() error {
			lo, hi := spanOf(w, workers, total)
			part := make([]scored, 0, hi-lo)
			for row := lo; row < hi; row++ {
				id, ok := r.Items.IDAt(row)
				if !ok {
					return fmt.Errorf("recall: catalog row %d has no item id", row)
				}
				part = append(part, scored{
					row:   row,
					id:    id,
					score: dotProduct(cvec, r.Items.At(row)),
				})
			}
			parts[w] = takeTop(part, r.TopK)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return buildItems(mergeRanked(parts, r.TopK), r.Name()), nil
}

// spanOf 把 total 行按行号切成 workers 个连续段，返回第 w 段的 [lo, hi)。
func spanOf(w, workers, total int) (lo, hi int) {
	size, rem := total/workers, total%workers
	lo = w * size
	if w < rem {
		lo += w
	} else {
		lo += rem
	}
	hi = lo + size
	if w < rem {
		hi++
	}
	return lo, hi
}

// dotProduct 计算两个向量的点积
func dotProduct(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

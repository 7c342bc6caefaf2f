package feast

import (
	"context"
	"fmt"

	"github.com/rushteam/recserve/dataset"
)

// VectorHydrator 从 Feast 在线特征库批量拉取 embedding，装配成 dataset.VectorTable。
//
// 适用于向量打分模式下由特征平台托管 embedding 的部署：
// 快照构建时一次性拉齐全量向量，查询期不再访问特征库。
// 特征库中缺失向量的实体会被跳过，调用方可对比 Len() 与请求条数。
type VectorHydrator struct {
	Client Client

	// Feature 是向量特征的全名，例如 "product_embeddings:vector"
	Feature string

	// EntityKey 是实体键名，例如 "product_id"
	EntityKey string

	// BatchSize 单次请求的实体数，默认 64
	BatchSize int
}

// Hydrate 为一组实体 ID 拉取向量并装配成 VectorTable。
// 向量维度以第一条为准，后续维度不一致在 Put 时报错。
func (h *VectorHydrator) Hydrate(ctx context.Context, ids []string) (*dataset.VectorTable, error) {
	if h.Client == nil {
		return nil, fmt.Errorf("feast: hydrator has no client")
	}
	if h.Feature == "" || h.EntityKey == "" {
		return nil, fmt.Errorf("feast: hydrator needs feature and entity key")
	}

	batchSize := h.BatchSize
	if batchSize <= 0 {
		batchSize = 64
	}

	table := dataset.NewVectorTable()

	for lo := 0; lo < len(ids); lo += batchSize {
		hi := lo + batchSize
		if hi > len(ids) {
			hi = len(ids)
		}
		batch := ids[lo:hi]

		entityRows := make([]map[string]any, len(batch))
		for i, id := range batch {
			entityRows[i] = map[string]any{h.EntityKey: id}
		}

		resp, err := h.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
			Features:   []string{h.Feature},
			EntityRows: entityRows,
		})
		if err != nil {
			return nil, fmt.Errorf("feast: hydrate batch [%d:%d]: %w", lo, hi, err)
		}
		if len(resp.FeatureVectors) != len(batch) {
			return nil, fmt.Errorf("feast: hydrate batch [%d:%d]: got %d vectors for %d entities", lo, hi, len(resp.FeatureVectors), len(batch))
		}

		for i, fv := range resp.FeatureVectors {
			vec, ok := asVector(fv.Values[h.Feature])
			if !ok {
				continue
			}
			if err := table.Put(batch[i], vec); err != nil {
				return nil, fmt.Errorf("feast: hydrate entity %s: %w", batch[i], err)
			}
		}
	}

	return table, nil
}

// asVector 把特征值还原成向量，空值与非列表值视作缺失。
func asVector(v any) ([]float64, bool) {
	vec, ok := v.([]float64)
	if !ok || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

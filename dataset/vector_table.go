package dataset

import (
	"fmt"

	"github.com/rushteam/recserve/artifact"
	"github.com/rushteam/recserve/pkg/conv"
)

// VectorTable 是嵌入向量表：ID 经 IdentityIndex 映射到行号，行号对应一条向量。
// 同一张表内所有向量维度一致；客户表与物品表的维度是否一致由打分侧校验。
type VectorTable struct {
	index   *IdentityIndex
	vectors [][]float64
	dim     int
}

// NewVectorTable 创建空表（构建期使用，构建完成后只读）。
func NewVectorTable() *VectorTable {
	return &VectorTable{index: NewIdentityIndex()}
}

// Put 放入一条向量（构建期 API）。
// raw 为任意表现形式的 ID；重复 ID last-wins 覆盖已有行上的向量。
// 维度以首条向量为准，后续不一致返回错误。
func (t *VectorTable) Put(raw any, vec []float64) error {
	id, ok := conv.CanonicalID(raw)
	if !ok {
		return fmt.Errorf("vector table: cannot canonicalize id %v", raw)
	}
	if len(vec) == 0 {
		return fmt.Errorf("vector table: id %s has empty vector", id)
	}
	if t.dim == 0 {
		t.dim = len(vec)
	} else if len(vec) != t.dim {
		return fmt.Errorf("vector table: id %s has dim %d, table dim %d", id, len(vec), t.dim)
	}

	row := t.index.Add(id)
	if row == len(t.vectors) {
		t.vectors = append(t.vectors, vec)
		return nil
	}
	t.vectors[row] = vec
	return nil
}

// Vector 返回 ID 对应的向量；不存在时 ok 为 false（冷启动）。
// 返回内部切片，调用方只读。
func (t *VectorTable) Vector(id string) ([]float64, bool) {
	row, ok := t.index.IndexOf(id)
	if !ok {
		return nil, false
	}
	return t.vectors[row], true
}

// At 返回行号对应的向量，行号越界返回 nil。返回内部切片，调用方只读。
func (t *VectorTable) At(row int) []float64 {
	if row < 0 || row >= len(t.vectors) {
		return nil
	}
	return t.vectors[row]
}

// IDAt 返回行号对应的规范 ID。
func (t *VectorTable) IDAt(row int) (string, bool) {
	return t.index.IDAt(row)
}

// Index 返回 ID 索引。
func (t *VectorTable) Index() *IdentityIndex { return t.index }

// Dim 返回向量维度，空表为 0。
func (t *VectorTable) Dim() int { return t.dim }

// Len 返回向量条数。
func (t *VectorTable) Len() int { return len(t.vectors) }

// LoadVectorTable 从分片装配向量表。
// 单表内分片间维度不一致按损坏处理（同一份产出不可能出现两种维度）。
func LoadVectorTable(a *artifact.Assembler, spec artifact.Spec) (*VectorTable, error) {
	t := NewVectorTable()

	_, err := a.Assemble(spec, func(meta artifact.ShardMeta, payload []byte) error {
		var sh VectorShard
		if err := artifact.DecodePayload(payload, &sh); err != nil {
			return err
		}
		if len(sh.Rows) != meta.Rows {
			return fmt.Errorf("row count %d != shard header %d", len(sh.Rows), meta.Rows)
		}
		if sh.Dim > 0 && t.dim > 0 && sh.Dim != t.dim {
			return fmt.Errorf("shard dim %d != table dim %d", sh.Dim, t.dim)
		}
		for _, r := range sh.Rows {
			if sh.Dim > 0 && len(r.Vector) != sh.Dim {
				return fmt.Errorf("id %v: vector dim %d != shard dim %d", r.ID, len(r.Vector), sh.Dim)
			}
			if err := t.Put(r.ID, r.Vector); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

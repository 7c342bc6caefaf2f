package dataset

import (
	"fmt"

	"github.com/rushteam/recserve/pkg/conv"
)

// IdentityIndex 是标识符与稠密行号之间的双向映射。
//
// 构建规则：
//   - 每个标识符先经 conv.CanonicalID 归一化，再插入
//   - 同一规范 ID 重复出现时 last-wins：ID 保留首次分配的行号，
//     行上的数据由后到的覆盖（与顺序写 map 的自然语义一致）
//   - 正反向映射同步塌缩，因此对已有 key 集合始终保持双射
type IdentityIndex struct {
	ids  []string
	rows map[string]int
}

// NewIdentityIndex 创建空索引。
func NewIdentityIndex() *IdentityIndex {
	return &IdentityIndex{rows: make(map[string]int)}
}

// BuildIndex 从任意表现形式的标识符序列构建索引。
// 无法归一化的标识符（nil、空串、NaN）返回错误，由调用方决定如何包装。
func BuildIndex(raw []any) (*IdentityIndex, error) {
	idx := &IdentityIndex{rows: make(map[string]int, len(raw))}
	for i, r := range raw {
		id, ok := conv.CanonicalID(r)
		if !ok {
			return nil, fmt.Errorf("identity: cannot canonicalize id at position %d (%v)", i, r)
		}
		idx.Add(id)
	}
	return idx, nil
}

// Add 插入一个已归一化的 ID 并返回其行号。
// 已存在的 ID 返回原行号（last-wins 的数据覆盖由持有数据的表完成）。
func (x *IdentityIndex) Add(id string) int {
	if row, ok := x.rows[id]; ok {
		return row
	}
	row := len(x.ids)
	x.ids = append(x.ids, id)
	x.rows[id] = row
	return row
}

// IndexOf 返回 ID 对应的行号；不存在时 ok 为 false（即冷启动信号）。
func (x *IdentityIndex) IndexOf(id string) (int, bool) {
	row, ok := x.rows[id]
	return row, ok
}

// IDAt 返回行号对应的 ID。
func (x *IdentityIndex) IDAt(row int) (string, bool) {
	if row < 0 || row >= len(x.ids) {
		return "", false
	}
	return x.ids[row], true
}

// Len 返回索引内的 ID 数量。
func (x *IdentityIndex) Len() int {
	return len(x.ids)
}

// IDs 按行号顺序返回全部 ID。返回内部切片，调用方只读。
func (x *IdentityIndex) IDs() []string {
	return x.ids
}

// canonicalIDs 批量归一化，任一失败即错。
func canonicalIDs(raw []any) ([]string, error) {
	out := make([]string, len(raw))
	for i, r := range raw {
		id, ok := conv.CanonicalID(r)
		if !ok {
			return nil, fmt.Errorf("identity: cannot canonicalize id at position %d (%v)", i, r)
		}
		out[i] = id
	}
	return out, nil
}

package dataset

import (
	"context"
	"fmt"

	"github.com/rushteam/recserve/artifact"
	"github.com/rushteam/recserve/pkg/conv"
)

// MetadataTable 是物品元数据表：物品 ID -> 描述字段。
// 核心链路从不读取字段内容，只按 ID 透传给展示层做关联。
type MetadataTable struct {
	fields map[string]map[string]string
}

// NewMetadataTable 创建空表（构建期使用，构建完成后只读）。
func NewMetadataTable() *MetadataTable {
	return &MetadataTable{fields: make(map[string]map[string]string)}
}

// Put 放入一个物品的描述字段（构建期 API），重复物品 last-wins。
func (t *MetadataTable) Put(item any, fields map[string]string) error {
	iid, ok := conv.CanonicalID(item)
	if !ok {
		return fmt.Errorf("metadata table: cannot canonicalize item id %v", item)
	}
	t.fields[iid] = fields
	return nil
}

// Get 返回物品的描述字段。返回内部 map，调用方只读。
func (t *MetadataTable) Get(itemID string) (map[string]string, bool) {
	f, ok := t.fields[itemID]
	return f, ok
}

// Lookup 以带上下文的签名暴露 Get，元信息节点可直接挂接内存表。
// 纯内存查询，永不出错。
func (t *MetadataTable) Lookup(_ context.Context, itemID string) (map[string]string, bool, error) {
	f, ok := t.Get(itemID)
	return f, ok, nil
}

// Len 返回物品数。
func (t *MetadataTable) Len() int { return len(t.fields) }

// LoadMetadataTable 从分片装配元数据表。
// 元数据只服务展示层：布局上通常配 Tolerant 策略，整表缺失得到空表。
func LoadMetadataTable(a *artifact.Assembler, spec artifact.Spec) (*MetadataTable, error) {
	t := NewMetadataTable()

	_, err := a.Assemble(spec, func(meta artifact.ShardMeta, payload []byte) error {
		var sh MetadataShard
		if err := artifact.DecodePayload(payload, &sh); err != nil {
			return err
		}
		if len(sh.Rows) != meta.Rows {
			return fmt.Errorf("row count %d != shard header %d", len(sh.Rows), meta.Rows)
		}
		for _, r := range sh.Rows {
			if err := t.Put(r.Item, r.Fields); err != nil {
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

package dataset

import (
	"context"
	"fmt"

	"github.com/rushteam/recserve/artifact"
	"github.com/rushteam/recserve/pkg/conv"
)

// HistoryTable 存每个客户的已购物品：O(1) 成员判断的集合 + 首次出现顺序。
// 购买流水允许同一 (customer, item) 重复出现，装载时自动去重；
// Items 返回的顺序是该物品在流水中首次出现的顺序。
type HistoryTable struct {
	order map[string][]string
	sets  map[string]map[string]struct{}
	rows  int
}

// NewHistoryTable 创建空表（构建期使用，构建完成后只读）。
func NewHistoryTable() *HistoryTable {
	return &HistoryTable{
		order: make(map[string][]string),
		sets:  make(map[string]map[string]struct{}),
	}
}

// Add 追加一条购买记录（构建期 API），重复记录自动塌缩。
func (t *HistoryTable) Add(customer, item any) error {
	cid, ok := conv.CanonicalID(customer)
	if !ok {
		return fmt.Errorf("history table: cannot canonicalize customer id %v", customer)
	}
	iid, ok := conv.CanonicalID(item)
	if !ok {
		return fmt.Errorf("history table: cannot canonicalize item id %v", item)
	}

	t.rows++
	set := t.sets[cid]
	if set == nil {
		set = make(map[string]struct{})
		t.sets[cid] = set
	}
	if _, dup := set[iid]; dup {
		return nil
	}
	set[iid] = struct{}{}
	t.order[cid] = append(t.order[cid], iid)
	return nil
}

// Items 返回客户已购物品的去重列表，顺序为流水中首次出现的顺序。
// 无购买记录的客户返回空列表，不是错误。返回内部切片，调用方只读。
func (t *HistoryTable) Items(customerID string) []string {
	return t.order[customerID]
}

// Contains 报告客户是否购买过该物品。
func (t *HistoryTable) Contains(customerID, itemID string) bool {
	set, ok := t.sets[customerID]
	if !ok {
		return false
	}
	_, ok = set[itemID]
	return ok
}

// Purchased 以存储接口的签名暴露 Contains，过滤器可直接挂接内存历史表。
// 纯内存查询，永不出错。
func (t *HistoryTable) Purchased(_ context.Context, customerID, itemID string) (bool, error) {
	return t.Contains(customerID, itemID), nil
}

// Customers 返回有购买记录的客户数。
func (t *HistoryTable) Customers() int { return len(t.sets) }

// Rows 返回装配进来的流水行数（含重复），观测用。
func (t *HistoryTable) Rows() int { return t.rows }

// LoadHistoryTable 从分片装配购买历史。
// 历史是辅助输入：布局上通常配 Tolerant 策略，缺失分片只会让推荐
// 少过滤一些已购物品，不会让启动失败；损坏仍然中止。
func LoadHistoryTable(a *artifact.Assembler, spec artifact.Spec) (*HistoryTable, error) {
	t := NewHistoryTable()

	_, err := a.Assemble(spec, func(meta artifact.ShardMeta, payload []byte) error {
		var sh HistoryShard
		if err := artifact.DecodePayload(payload, &sh); err != nil {
			return err
		}
		if len(sh.Rows) != meta.Rows {
			return fmt.Errorf("row count %d != shard header %d", len(sh.Rows), meta.Rows)
		}
		for _, r := range sh.Rows {
			if err := t.Add(r.Customer, r.Item); err != nil {
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

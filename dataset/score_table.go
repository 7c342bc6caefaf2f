package dataset

import (
	"fmt"

	"github.com/rushteam/recserve/artifact"
	"github.com/rushteam/recserve/pkg/conv"
)

// ScoreTable 是预计算评分表：每个客户一行，分数与物品列序对齐。
// 预计算模式下打分就是一次查表，物品行号即列号。
type ScoreTable struct {
	customers *IdentityIndex
	items     *IdentityIndex
	rows      [][]float64
}

// NewScoreTable 创建空表（构建期使用，构建完成后只读）。
func NewScoreTable() *ScoreTable {
	return &ScoreTable{
		customers: NewIdentityIndex(),
		items:     NewIdentityIndex(),
	}
}

// SetItems 定义物品列序（构建期 API，只能调用一次）。
// 列序即物品行号，之后 PutRow 的分数行按此对齐。列不允许重复。
func (t *ScoreTable) SetItems(raw []any) error {
	if t.items.Len() > 0 {
		return fmt.Errorf("score table: item columns already set")
	}
	cols, err := canonicalIDs(raw)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("score table: no item columns")
	}
	for i, c := range cols {
		if t.items.Add(c) != i {
			return fmt.Errorf("score table: duplicate item column %s", c)
		}
	}
	return nil
}

// PutRow 放入一个客户的分数行（构建期 API）。
// 行宽必须等于 SetItems 定义的列数；重复客户 last-wins 覆盖整行。
func (t *ScoreTable) PutRow(customer any, scores []float64) error {
	if t.items.Len() == 0 {
		return fmt.Errorf("score table: item columns not set")
	}
	cid, ok := conv.CanonicalID(customer)
	if !ok {
		return fmt.Errorf("score table: cannot canonicalize customer id %v", customer)
	}
	if len(scores) != t.items.Len() {
		return fmt.Errorf("score table: customer %s: score row width %d != %d columns", cid, len(scores), t.items.Len())
	}
	dense := make([]float64, len(scores))
	copy(dense, scores)
	row := t.customers.Add(cid)
	if row == len(t.rows) {
		t.rows = append(t.rows, dense)
		return nil
	}
	t.rows[row] = dense
	return nil
}

// Row 返回客户的分数行；客户不存在时 ok 为 false（冷启动）。
// 返回内部切片，调用方只读。
func (t *ScoreTable) Row(customerID string) ([]float64, bool) {
	row, ok := t.customers.IndexOf(customerID)
	if !ok {
		return nil, false
	}
	return t.rows[row], true
}

// ItemAt 返回物品行号（即分数列号）对应的规范 ID。
func (t *ScoreTable) ItemAt(row int) (string, bool) {
	return t.items.IDAt(row)
}

// Customers 返回客户索引。
func (t *ScoreTable) Customers() *IdentityIndex { return t.customers }

// Items 返回物品索引（行号即分数列号）。
func (t *ScoreTable) Items() *IdentityIndex { return t.items }

// LoadScoreTable 从分片装配评分表。
// 物品列在所有分片间必须一致：列不一致说明上游产出版本错位，按损坏处理。
func LoadScoreTable(a *artifact.Assembler, spec artifact.Spec) (*ScoreTable, error) {
	t := NewScoreTable()

	var (
		firstCols []string // 首个分片的规范化物品列，用于跨分片一致性校验
		colMap    []int    // 源列号 -> 物品行号（重复列塌缩后可能少于源列数）
	)

	_, err := a.Assemble(spec, func(meta artifact.ShardMeta, payload []byte) error {
		var sh ScoreShard
		if err := artifact.DecodePayload(payload, &sh); err != nil {
			return err
		}
		if len(sh.Rows) != meta.Rows {
			return fmt.Errorf("row count %d != shard header %d", len(sh.Rows), meta.Rows)
		}

		cols, err := canonicalIDs(sh.Items)
		if err != nil {
			return err
		}
		if firstCols == nil {
			firstCols = cols
			colMap = make([]int, len(cols))
			for i, c := range cols {
				colMap[i] = t.items.Add(c)
			}
		} else if !equalStrings(cols, firstCols) {
			return fmt.Errorf("item columns differ from shard 1")
		}

		for _, r := range sh.Rows {
			cid, ok := conv.CanonicalID(r.Customer)
			if !ok {
				return fmt.Errorf("cannot canonicalize customer id %v", r.Customer)
			}
			if len(r.Scores) != len(cols) {
				return fmt.Errorf("customer %s: score row width %d != %d columns", cid, len(r.Scores), len(cols))
			}
			dense := make([]float64, t.items.Len())
			for i, s := range r.Scores {
				dense[colMap[i]] = s
			}
			row := t.customers.Add(cid)
			if row == len(t.rows) {
				t.rows = append(t.rows, dense)
			} else {
				// 重复客户行 last-wins
				t.rows[row] = dense
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

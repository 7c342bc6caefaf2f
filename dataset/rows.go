package dataset

import "encoding/gob"

// 分片载荷结构。ID 字段保留 any：上游产出会混用数值与字符串形式的标识符
// （同一个客户可能写成 1024、1024.0 或 "1024"），装载时统一过
// conv.CanonicalID 归一化，链路内只存在规范字符串形式。
// gob 在 interface 值里传输具体类型需要预注册。
func init() {
	gob.Register("")
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
}

// ScoreShard 是评分/预测表的一个分片。
// Items 是物品列（全表各分片必须一致），Rows 中每行的分数与列序对齐。
type ScoreShard struct {
	Items []any
	Rows  []ScoreRow
}

// ScoreRow 是一个客户的评分行。
type ScoreRow struct {
	Customer any
	Scores   []float64
}

// VectorShard 是嵌入向量表的一个分片。Dim 为 0 时按首行推断。
type VectorShard struct {
	Dim  int
	Rows []VectorRow
}

// VectorRow 是一条 ID 到隐向量的映射。
type VectorRow struct {
	ID     any
	Vector []float64
}

// HistoryShard 是购买流水表的一个分片，行序即时间序，允许重复购买。
type HistoryShard struct {
	Rows []PurchaseRow
}

// PurchaseRow 是一条购买记录。
type PurchaseRow struct {
	Customer any
	Item     any
}

// MetadataShard 是物品元数据表的分片。Fields 对核心链路不透明，
// 只由展示层按物品 ID 关联消费。
type MetadataShard struct {
	Rows []MetadataRow
}

// MetadataRow 是一个物品的描述字段。
type MetadataRow struct {
	Item   any
	Fields map[string]string
}

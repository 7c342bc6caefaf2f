// Package dataset 把装配好的分片组织成可查询的内存表：
// 评分表（预计算模式）、客户/物品向量表（向量模式）、购买历史、物品元数据，
// 以及贯穿所有表的 ID 归一化与双向索引。
//
// 所有表遵循同一个生命周期：启动期一次性构建，构建完成后只读；
// 刷新走“新建快照 + 原子替换”，在途请求继续读旧快照，绝不原地修改。
package dataset

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/recserve/artifact"
	"github.com/rushteam/recserve/core"
)

// Mode 是打分模式：初始化时按可用分片选定一次，查询期不再分支判断。
type Mode string

const (
	// ModeAuto 按分片存在性探测：有评分分片走预计算，否则走向量模式
	ModeAuto Mode = "auto"
	// ModePrecomputed 预计算评分查表
	ModePrecomputed Mode = "precomputed"
	// ModeVector 客户向量 x 物品向量内积
	ModeVector Mode = "vector"
)

// Layout 描述一个部署的分片布局：每个逻辑表的基名、分片数、缺失策略。
type Layout struct {
	Scores          artifact.Spec `yaml:"scores"`
	CustomerVectors artifact.Spec `yaml:"customer_vectors"`
	ItemVectors     artifact.Spec `yaml:"item_vectors"`
	History         artifact.Spec `yaml:"history"`
	Metadata        artifact.Spec `yaml:"metadata"`
}

// DefaultLayout 返回默认布局。
// 评分/向量是主输入（Strict），历史与元数据是辅助输入（Tolerant）。
func DefaultLayout() Layout {
	return Layout{
		Scores:          artifact.Spec{Name: "predictions", MaxShards: 6, Missing: artifact.Strict},
		CustomerVectors: artifact.Spec{Name: "customer_vectors", MaxShards: 4, Missing: artifact.Strict},
		ItemVectors:     artifact.Spec{Name: "item_vectors", MaxShards: 4, Missing: artifact.Strict},
		History:         artifact.Spec{Name: "purchases", MaxShards: 6, Missing: artifact.Tolerant},
		Metadata:        artifact.Spec{Name: "products", MaxShards: 1, Missing: artifact.Tolerant},
	}
}

// Snapshot 是一次装配产出的不可变数据快照，按 Mode 持有对应的表。
// History 与 Metadata 始终存在（可能为空表），不会是 nil。
type Snapshot struct {
	Mode            Mode
	Scores          *ScoreTable  // ModePrecomputed
	CustomerVectors *VectorTable // ModeVector
	ItemVectors     *VectorTable // ModeVector
	History         *HistoryTable
	Metadata        *MetadataTable
	BuiltAt         time.Time
}

// NewPrecomputedSnapshot 直接从表构建预计算快照（测试与特征存储水合路径）。
func NewPrecomputedSnapshot(scores *ScoreTable, history *HistoryTable, metadata *MetadataTable) *Snapshot {
	return &Snapshot{
		Mode:     ModePrecomputed,
		Scores:   scores,
		History:  orHistory(history),
		Metadata: orMetadata(metadata),
		BuiltAt:  time.Now(),
	}
}

// NewVectorSnapshot 直接从表构建向量快照（测试与特征存储水合路径）。
func NewVectorSnapshot(customers, items *VectorTable, history *HistoryTable, metadata *MetadataTable) *Snapshot {
	return &Snapshot{
		Mode:            ModeVector,
		CustomerVectors: customers,
		ItemVectors:     items,
		History:         orHistory(history),
		Metadata:        orMetadata(metadata),
		BuiltAt:         time.Now(),
	}
}

func orHistory(h *HistoryTable) *HistoryTable {
	if h == nil {
		return NewHistoryTable()
	}
	return h
}

func orMetadata(m *MetadataTable) *MetadataTable {
	if m == nil {
		return NewMetadataTable()
	}
	return m
}

// Load 从 dir 按布局装配一个完整快照。
//
// mode 为 ModeAuto（或空）时按分片存在性选定模式；找不到任何主输入
// 返回 ARTIFACT_MISSING。历史与元数据按各自策略装配；布局中基名为空的
// 辅助表直接得到空表（该部署的历史/元数据走存储后端而非分片文件）。
//
// 客户向量与物品向量维度是否一致在此处不校验：两份产出各自合法时
// 装配应当成功，版本错位留给首次查询以 DIMENSION_MISMATCH 暴露。
func Load(dir string, layout Layout, mode Mode, logger zerolog.Logger) (*Snapshot, error) {
	a := artifact.NewAssembler(dir, logger)

	m := mode
	if m == "" || m == ModeAuto {
		switch {
		case a.Exists(layout.Scores):
			m = ModePrecomputed
		case a.Exists(layout.CustomerVectors) || a.Exists(layout.ItemVectors):
			m = ModeVector
		default:
			return nil, core.NewArtifactMissing(
				fmt.Sprintf("dataset: no scores or embedding artifacts under %s", dir))
		}
	}

	snap := &Snapshot{Mode: m, BuiltAt: time.Now()}

	switch m {
	case ModePrecomputed:
		scores, err := LoadScoreTable(a, layout.Scores)
		if err != nil {
			return nil, err
		}
		snap.Scores = scores
		logger.Info().
			Int("customers", scores.Customers().Len()).
			Int("items", scores.Items().Len()).
			Msg("score table loaded")
	case ModeVector:
		customers, err := LoadVectorTable(a, layout.CustomerVectors)
		if err != nil {
			return nil, err
		}
		items, err := LoadVectorTable(a, layout.ItemVectors)
		if err != nil {
			return nil, err
		}
		snap.CustomerVectors = customers
		snap.ItemVectors = items
		logger.Info().
			Int("customers", customers.Len()).
			Int("customer_dim", customers.Dim()).
			Int("items", items.Len()).
			Int("item_dim", items.Dim()).
			Msg("vector tables loaded")
	default:
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			fmt.Sprintf("dataset: unknown mode %q", mode))
	}

	if layout.History.Name != "" {
		history, err := LoadHistoryTable(a, layout.History)
		if err != nil {
			return nil, err
		}
		snap.History = history
		logger.Info().
			Int("customers", history.Customers()).
			Int("rows", history.Rows()).
			Msg("history table loaded")
	} else {
		snap.History = NewHistoryTable()
	}

	if layout.Metadata.Name != "" {
		metadata, err := LoadMetadataTable(a, layout.Metadata)
		if err != nil {
			return nil, err
		}
		snap.Metadata = metadata
	} else {
		snap.Metadata = NewMetadataTable()
	}

	return snap, nil
}

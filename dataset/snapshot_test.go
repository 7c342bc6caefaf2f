package dataset

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/rushteam/recserve/core"
)

func writePrecomputedArtifacts(t *testing.T, dir string, layout Layout) {
	t.Helper()
	writeShard(t, dir, layout.Scores, 1, 1, ScoreShard{
		Items: []any{"A1", "A2"},
		Rows:  []ScoreRow{{Customer: "1024", Scores: []float64{0.9, 0.8}}},
	})
	writeShard(t, dir, layout.History, 1, 1, HistoryShard{
		Rows: []PurchaseRow{{Customer: "1024", Item: "A1"}},
	})
}

func TestLoadAutoSelectsPrecomputed(t *testing.T) {
	dir := t.TempDir()
	layout := DefaultLayout()
	layout.Scores.MaxShards = 1
	layout.History.MaxShards = 1
	writePrecomputedArtifacts(t, dir, layout)

	snap, err := Load(dir, layout, ModeAuto, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Mode != ModePrecomputed {
		t.Errorf("Mode = %s, want %s", snap.Mode, ModePrecomputed)
	}
	if snap.Scores == nil || snap.History == nil || snap.Metadata == nil {
		t.Fatalf("snapshot tables missing: %+v", snap)
	}
	if got := snap.History.Items("1024"); len(got) != 1 || got[0] != "A1" {
		t.Errorf("History.Items(1024) = %v, want [A1]", got)
	}
	// 元数据分片不存在且策略 Tolerant：空表而非错误
	if snap.Metadata.Len() != 0 {
		t.Errorf("Metadata.Len() = %d, want 0", snap.Metadata.Len())
	}
}

func TestLoadAutoSelectsVector(t *testing.T) {
	dir := t.TempDir()
	layout := DefaultLayout()
	layout.CustomerVectors.MaxShards = 1
	layout.ItemVectors.MaxShards = 1
	layout.History.Name = "" // 该部署历史走存储后端

	writeShard(t, dir, layout.CustomerVectors, 1, 1, VectorShard{
		Dim:  2,
		Rows: []VectorRow{{ID: "1024", Vector: []float64{1, 0}}},
	})
	writeShard(t, dir, layout.ItemVectors, 1, 2, VectorShard{
		Dim: 2,
		Rows: []VectorRow{
			{ID: "A1", Vector: []float64{0.5, 0.5}},
			{ID: "A2", Vector: []float64{0.1, 0.9}},
		},
	})

	snap, err := Load(dir, layout, ModeAuto, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Mode != ModeVector {
		t.Errorf("Mode = %s, want %s", snap.Mode, ModeVector)
	}
	if snap.CustomerVectors.Len() != 1 || snap.ItemVectors.Len() != 2 {
		t.Errorf("vectors = %d/%d, want 1/2", snap.CustomerVectors.Len(), snap.ItemVectors.Len())
	}
	if snap.History.Customers() != 0 {
		t.Errorf("History should be empty, got %d customers", snap.History.Customers())
	}
}

// 客户/物品向量维度不一致不在装配期失败，留给首查报 DIMENSION_MISMATCH。
func TestLoadVectorDimsNotCheckedAcrossTables(t *testing.T) {
	dir := t.TempDir()
	layout := DefaultLayout()
	layout.CustomerVectors.MaxShards = 1
	layout.ItemVectors.MaxShards = 1
	layout.History.Name = ""

	writeShard(t, dir, layout.CustomerVectors, 1, 1, VectorShard{
		Dim:  2,
		Rows: []VectorRow{{ID: "1024", Vector: []float64{1, 0}}},
	})
	writeShard(t, dir, layout.ItemVectors, 1, 1, VectorShard{
		Dim:  3,
		Rows: []VectorRow{{ID: "A1", Vector: []float64{1, 0, 0}}},
	})

	snap, err := Load(dir, layout, ModeVector, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load() error = %v, want success (mismatch surfaces at query time)", err)
	}
	if snap.CustomerVectors.Dim() == snap.ItemVectors.Dim() {
		t.Fatalf("test setup broken: dims should differ")
	}
}

func TestLoadNoArtifacts(t *testing.T) {
	_, err := Load(t.TempDir(), DefaultLayout(), ModeAuto, zerolog.Nop())
	if !core.IsArtifactMissing(err) {
		t.Fatalf("Load() error = %v, want ARTIFACT_MISSING", err)
	}
}

func TestLoadMissingScoreShardIsFatal(t *testing.T) {
	dir := t.TempDir()
	layout := DefaultLayout()
	layout.Scores.MaxShards = 2
	// 只写第 1 片，第 2 片缺失；评分是 Strict 输入
	writeShard(t, dir, layout.Scores, 1, 1, ScoreShard{
		Items: []any{"A1"},
		Rows:  []ScoreRow{{Customer: "1", Scores: []float64{0.5}}},
	})

	_, err := Load(dir, layout, ModePrecomputed, zerolog.Nop())
	if !core.IsArtifactMissing(err) {
		t.Fatalf("Load() error = %v, want ARTIFACT_MISSING", err)
	}
}

func TestLoadUnknownMode(t *testing.T) {
	dir := t.TempDir()
	layout := DefaultLayout()
	layout.Scores.MaxShards = 1
	layout.History.MaxShards = 1
	writePrecomputedArtifacts(t, dir, layout)

	_, err := Load(dir, layout, Mode("guess"), zerolog.Nop())
	if !core.IsInvalidInput(err) {
		t.Fatalf("Load() error = %v, want INVALID_INPUT", err)
	}
}

func TestNewSnapshotConstructors(t *testing.T) {
	scores := NewScoreTable()
	snap := NewPrecomputedSnapshot(scores, nil, nil)
	if snap.Mode != ModePrecomputed || snap.History == nil || snap.Metadata == nil {
		t.Errorf("NewPrecomputedSnapshot: nil aux tables should default to empty")
	}

	vs := NewVectorSnapshot(NewVectorTable(), NewVectorTable(), nil, nil)
	if vs.Mode != ModeVector || vs.History == nil || vs.Metadata == nil {
		t.Errorf("NewVectorSnapshot: nil aux tables should default to empty")
	}
	if vs.BuiltAt.IsZero() {
		t.Errorf("BuiltAt should be set")
	}
}

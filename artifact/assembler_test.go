package artifact

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rushteam/recserve/core"
)

type testShard struct {
	IDs []string
}

func writeTestShard(t *testing.T, dir string, spec Spec, seq int, ids []string) {
	t.Helper()
	if err := WriteShard(dir, spec, seq, len(ids), testShard{IDs: ids}); err != nil {
		t.Fatalf("WriteShard(%s, %d) error = %v", spec.Name, seq, err)
	}
}

func collectIDs(t *testing.T, a *Assembler, spec Spec) ([]string, int, error) {
	t.Helper()
	var all []string
	loaded, err := a.Assemble(spec, func(meta ShardMeta, payload []byte) error {
		var sh testShard
		if err := DecodePayload(payload, &sh); err != nil {
			return err
		}
		all = append(all, sh.IDs...)
		return nil
	})
	return all, loaded, err
}

func TestAssembleOrderPreserved(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{Name: "items", MaxShards: 3, Missing: Strict}

	writeTestShard(t, dir, spec, 1, []string{"A", "B"})
	writeTestShard(t, dir, spec, 2, []string{"C"})
	writeTestShard(t, dir, spec, 3, []string{"D", "E"})

	a := NewAssembler(dir, zerolog.Nop())
	got, loaded, err := collectIDs(t, a, spec)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if loaded != 3 {
		t.Errorf("loaded = %d, want 3", loaded)
	}
	// 拼接结果必须与同序未分片表一致：行数相同、行序相同
	want := []string{"A", "B", "C", "D", "E"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("assembled rows = %v, want %v", got, want)
	}
}

func TestAssembleMissingShard(t *testing.T) {
	tests := []struct {
		name       string
		missing    Policy
		wantErr    bool
		wantRows   []string
		wantShards int
	}{
		{"strict fails on missing", Strict, true, nil, 0},
		{"tolerant skips missing", Tolerant, false, []string{"A", "C"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			spec := Spec{Name: "purchases", MaxShards: 3, Missing: tt.missing}
			writeTestShard(t, dir, spec, 1, []string{"A"})
			// 第 2 片缺失
			writeTestShard(t, dir, spec, 3, []string{"C"})

			a := NewAssembler(dir, zerolog.Nop())
			got, loaded, err := collectIDs(t, a, spec)
			if tt.wantErr {
				if !core.IsArtifactMissing(err) {
					t.Fatalf("Assemble() error = %v, want ARTIFACT_MISSING", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Assemble() error = %v", err)
			}
			if loaded != tt.wantShards {
				t.Errorf("loaded = %d, want %d", loaded, tt.wantShards)
			}
			if !reflect.DeepEqual(got, tt.wantRows) {
				t.Errorf("assembled rows = %v, want %v", got, tt.wantRows)
			}
		})
	}
}

// 损坏分片与缺失策略无关，一律中止。
func TestAssembleCorruptShard(t *testing.T) {
	for _, policy := range []Policy{Strict, Tolerant} {
		t.Run(string(policy), func(t *testing.T) {
			dir := t.TempDir()
			spec := Spec{Name: "ratings", MaxShards: 2, Missing: policy}
			writeTestShard(t, dir, spec, 1, []string{"A"})
			if err := os.WriteFile(filepath.Join(dir, spec.ShardFile(2)), []byte("not a shard"), 0o644); err != nil {
				t.Fatal(err)
			}

			a := NewAssembler(dir, zerolog.Nop())
			_, _, err := collectIDs(t, a, spec)
			if !core.IsArtifactCorrupt(err) {
				t.Fatalf("Assemble() error = %v, want ARTIFACT_CORRUPT", err)
			}
		})
	}
}

func TestAssembleChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{Name: "ratings", MaxShards: 1}

	// 手工构造校验和错误的信封
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(testShard{IDs: []string{"A"}}); err != nil {
		t.Fatal(err)
	}
	env := shardEnvelope{
		Meta: ShardMeta{Artifact: "ratings", Seq: 1, Rows: 1, Checksum: "deadbeef"},
		Data: raw.Bytes(), // 未压缩，gzip open 先于校验和失败，同样是损坏
	}
	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(env); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, spec.ShardFile(1)), out.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	a := NewAssembler(dir, zerolog.Nop())
	_, _, err := a.Assemble(spec, func(ShardMeta, []byte) error { return nil })
	if !core.IsArtifactCorrupt(err) {
		t.Fatalf("Assemble() error = %v, want ARTIFACT_CORRUPT", err)
	}
}

// 分片头与文件名不一致（例如搬错目录）按损坏处理。
func TestAssembleHeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{Name: "ratings", MaxShards: 2}
	writeTestShard(t, dir, spec, 1, []string{"A"})
	writeTestShard(t, dir, spec, 2, []string{"B"})
	// 把第 1 片内容放到第 2 片的位置
	if err := os.Rename(filepath.Join(dir, spec.ShardFile(1)), filepath.Join(dir, spec.ShardFile(2))); err != nil {
		t.Fatal(err)
	}
	writeTestShard(t, dir, spec, 1, []string{"A"})

	a := NewAssembler(dir, zerolog.Nop())
	_, _, err := a.Assemble(spec, func(ShardMeta, []byte) error { return nil })
	if !core.IsArtifactCorrupt(err) {
		t.Fatalf("Assemble() error = %v, want ARTIFACT_CORRUPT", err)
	}
}

func TestAssembleInvalidSpec(t *testing.T) {
	a := NewAssembler(t.TempDir(), zerolog.Nop())
	tests := []struct {
		name string
		spec Spec
	}{
		{"empty name", Spec{MaxShards: 1}},
		{"zero shards", Spec{Name: "x"}},
		{"bad policy", Spec{Name: "x", MaxShards: 1, Missing: Policy("maybe")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Assemble(tt.spec, func(ShardMeta, []byte) error { return nil })
			if !core.IsInvalidInput(err) {
				t.Fatalf("Assemble() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{Name: "vectors", MaxShards: 2}
	a := NewAssembler(dir, zerolog.Nop())

	if a.Exists(spec) {
		t.Errorf("Exists() = true before any shard written")
	}
	writeTestShard(t, dir, spec, 1, []string{"A"})
	if !a.Exists(spec) {
		t.Errorf("Exists() = false, want true")
	}
}

// 分片头里的行数与载荷行数由上层校验，装配器透传 Meta。
func TestAssembleMetaRows(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{Name: "items", MaxShards: 1}
	writeTestShard(t, dir, spec, 1, []string{"A", "B", "C"})

	a := NewAssembler(dir, zerolog.Nop())
	_, err := a.Assemble(spec, func(meta ShardMeta, payload []byte) error {
		if meta.Rows != 3 {
			t.Errorf("meta.Rows = %d, want 3", meta.Rows)
		}
		var sh testShard
		if err := DecodePayload(payload, &sh); err != nil {
			return err
		}
		if len(sh.IDs) != meta.Rows {
			t.Errorf("payload rows = %d, meta rows = %d", len(sh.IDs), meta.Rows)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
}

package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/rushteam/recserve/core"
)

// Assembler 按 Spec 把目录下的分片重组为单一逻辑表。
// Assembler 本身不理解载荷结构：它负责分片顺序、缺失策略、完整性校验，
// 把解压后的载荷逐片交给 decode 回调，由上层（dataset 包）做类型化解码。
type Assembler struct {
	dir    string
	logger zerolog.Logger
}

// NewAssembler 创建装配器。不需要日志时传 zerolog.Nop()。
func NewAssembler(dir string, logger zerolog.Logger) *Assembler {
	return &Assembler{dir: dir, logger: logger}
}

// Dir 返回分片所在目录。
func (a *Assembler) Dir() string { return a.dir }

// Assemble 按 1..MaxShards 顺序装配 spec 描述的逻辑表。
// decode 对每个成功读取的分片调用一次，调用顺序即分片号顺序；
// decode 返回错误视为分片损坏，整个装配中止，不返回部分结果。
// 返回成功装配的分片数。
func (a *Assembler) Assemble(spec Spec, decode func(meta ShardMeta, payload []byte) error) (int, error) {
	if err := spec.validate(); err != nil {
		return 0, err
	}

	loaded := 0
	for seq := 1; seq <= spec.MaxShards; seq++ {
		path := filepath.Join(a.dir, spec.ShardFile(seq))

		meta, payload, err := readShard(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				if spec.policy() == Tolerant {
					a.logger.Warn().
						Str("artifact", spec.Name).
						Int("shard", seq).
						Msg("shard missing, skipped")
					continue
				}
				return loaded, core.NewArtifactMissing(
					fmt.Sprintf("artifact %s: shard %d missing (%s)", spec.Name, seq, spec.ShardFile(seq)))
			}
			return loaded, err
		}

		if meta.Artifact != spec.Name || meta.Seq != seq {
			return loaded, core.NewArtifactCorrupt(
				fmt.Sprintf("artifact %s: shard %d header mismatch (got %s/%d)", spec.Name, seq, meta.Artifact, meta.Seq))
		}

		if err := decode(meta, payload); err != nil {
			if core.IsDomainError(err) {
				return loaded, err
			}
			return loaded, core.NewArtifactCorrupt(
				fmt.Sprintf("artifact %s: shard %d decode: %v", spec.Name, seq, err))
		}

		loaded++
		a.logger.Debug().
			Str("artifact", spec.Name).
			Int("shard", seq).
			Int("rows", meta.Rows).
			Msg("shard loaded")
	}

	a.logger.Info().
		Str("artifact", spec.Name).
		Int("shards", loaded).
		Str("policy", string(spec.policy())).
		Msg("artifact assembled")
	return loaded, nil
}

// Exists 报告 spec 的首个分片是否存在，用于启动期的模式探测
// （例如有 predictions 分片走预计算模式，只有 embedding 分片走向量模式）。
func (a *Assembler) Exists(spec Spec) bool {
	if spec.Name == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(a.dir, spec.ShardFile(1)))
	return err == nil && !info.IsDir()
}

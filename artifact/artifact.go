// Package artifact 负责把外部产出的分片文件重组为单一逻辑表。
//
// 一个逻辑表被切成 name_part1..name_partM 的有序分片，装配按分片号顺序拼接，
// 保持每个分片内部的行序（拼接顺序只看分片号，不做任何基于内容的排序）。
// 缺失策略按表配置：Strict 表示缺失即中止（评分/预测等主输入必须完整），
// Tolerant 表示缺失即跳过、继续装配下一片（购买历史等辅助输入允许部分缺失）。
// 分片损坏与策略无关，一律中止，绝不返回部分结果。
package artifact

import (
	"fmt"

	"github.com/rushteam/recserve/core"
)

// Policy 控制分片缺失时的装配行为。
type Policy string

const (
	// Strict 缺失即失败，返回 ARTIFACT_MISSING
	Strict Policy = "strict"
	// Tolerant 缺失即跳过，继续装配下一个分片
	Tolerant Policy = "tolerant"
)

// Spec 描述一个逻辑表的分片布局与装配策略。
type Spec struct {
	// Name 分片文件基名，如 "predictions"、"purchases"
	Name string `yaml:"name" json:"name"`

	// MaxShards 最大分片数 M，装配按 1..M 顺序读取
	MaxShards int `yaml:"max_shards" json:"max_shards"`

	// Missing 缺失策略，空值按 Strict 处理
	Missing Policy `yaml:"missing" json:"missing"`
}

const shardExt = ".gob.gz"

// ShardFile 返回第 seq 片的文件名，如 predictions_part3.gob.gz。
func (s Spec) ShardFile(seq int) string {
	return fmt.Sprintf("%s_part%d%s", s.Name, seq, shardExt)
}

func (s Spec) policy() Policy {
	if s.Missing == "" {
		return Strict
	}
	return s.Missing
}

func (s Spec) validate() error {
	if s.Name == "" {
		return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidInput, "artifact: spec name is empty")
	}
	if s.MaxShards <= 0 {
		return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidInput,
			fmt.Sprintf("artifact %s: max shards must be positive, got %d", s.Name, s.MaxShards))
	}
	switch s.policy() {
	case Strict, Tolerant:
		return nil
	default:
		return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidInput,
			fmt.Sprintf("artifact %s: unknown missing policy %q", s.Name, s.Missing))
	}
}

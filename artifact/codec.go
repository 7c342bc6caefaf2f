package artifact

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rushteam/recserve/core"
)

// ShardMeta 是分片文件头：装配时用于一致性校验，观测时用于日志。
type ShardMeta struct {
	Artifact string // 所属逻辑表基名
	Seq      int    // 分片号（1 起）
	Rows     int    // 载荷行数，装配方用它校验解码结果
	Checksum string // 未压缩载荷字节的 SHA-256（hex）
	SavedAt  time.Time
}

// shardEnvelope 是分片文件的磁盘结构：外层 gob，Data 为 gzip 压缩后的载荷 gob 字节。
type shardEnvelope struct {
	Meta ShardMeta
	Data []byte
}

// WriteShard 将一个分片载荷写入 dir 下的规范文件名。
// payload 为任意可 gob 编码的分片结构，rows 为其行数（写入 Meta 供装配校验）。
// 生产侧（离线训练产出）与测试侧共用同一套编解码。
func WriteShard(dir string, spec Spec, seq int, rows int, payload any) error {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(payload); err != nil {
		return fmt.Errorf("artifact %s: encode shard %d payload: %w", spec.Name, seq, err)
	}
	sum := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return fmt.Errorf("artifact %s: compress shard %d: %w", spec.Name, seq, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("artifact %s: close gzip writer: %w", spec.Name, err)
	}

	env := shardEnvelope{
		Meta: ShardMeta{
			Artifact: spec.Name,
			Seq:      seq,
			Rows:     rows,
			Checksum: hex.EncodeToString(sum[:]),
			SavedAt:  time.Now().UTC(),
		},
		Data: compressed.Bytes(),
	}

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(env); err != nil {
		return fmt.Errorf("artifact %s: encode shard %d envelope: %w", spec.Name, seq, err)
	}
	path := filepath.Join(dir, spec.ShardFile(seq))
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("artifact %s: write shard %d: %w", spec.Name, seq, err)
	}
	return nil
}

// DecodePayload 将分片载荷字节按 gob 解码到 out。
func DecodePayload(data []byte, out any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(out)
}

// readShard 读取并校验一个分片文件，返回分片头与未压缩的载荷字节。
// 文件不存在时原样返回 os.Open 的错误，缺失策略由调用方裁决；
// 其余所有失败（信封、gzip、校验和）都视为分片损坏。
func readShard(path string) (ShardMeta, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return ShardMeta{}, nil, err
	}
	defer f.Close()

	base := filepath.Base(path)

	var env shardEnvelope
	if err := gob.NewDecoder(f).Decode(&env); err != nil {
		return ShardMeta{}, nil, core.NewArtifactCorrupt(fmt.Sprintf("shard %s: envelope decode: %v", base, err))
	}

	zr, err := gzip.NewReader(bytes.NewReader(env.Data))
	if err != nil {
		return ShardMeta{}, nil, core.NewArtifactCorrupt(fmt.Sprintf("shard %s: gzip open: %v", base, err))
	}
	defer zr.Close()

	payload, err := io.ReadAll(zr)
	if err != nil {
		return ShardMeta{}, nil, core.NewArtifactCorrupt(fmt.Sprintf("shard %s: decompress: %v", base, err))
	}

	sum := sha256.Sum256(payload)
	if hex.EncodeToString(sum[:]) != env.Meta.Checksum {
		return ShardMeta{}, nil, core.NewArtifactCorrupt(fmt.Sprintf("shard %s: checksum mismatch", base))
	}
	return env.Meta, payload, nil
}

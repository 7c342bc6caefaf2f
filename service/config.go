package service

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/recserve/dataset"
)

// Config 是推荐引擎的配置。
type Config struct {
	// DataDir 分片工件目录
	DataDir string `yaml:"data_dir"`

	// Mode 打分模式：auto / precomputed / vector，空等于 auto
	Mode string `yaml:"mode"`

	// Layout 分片布局，nil 用 dataset.DefaultLayout()
	Layout *dataset.Layout `yaml:"layout"`

	// DefaultN 请求条数为 0 时使用的默认条数，默认 10
	DefaultN int `yaml:"default_n"`

	// OverfetchSlack 超采余量：召回条数 = 请求条数 + 余量，默认 100。
	// 余量吃掉已购/黑名单导致的过滤损耗，避免二次召回。
	OverfetchSlack int `yaml:"overfetch_slack"`

	// Workers 向量全量扫描的并行度，0 取 GOMAXPROCS
	Workers int `yaml:"workers"`

	// Blacklist 内存黑名单物品 ID
	Blacklist []string `yaml:"blacklist"`

	// Rules DSL 过滤规则，命中即过滤，见 pkg/dsl
	Rules []string `yaml:"rules"`

	// MetaFields 返回结果要补齐的元数据字段；与 MetaLabels 均为空时不挂元数据节点
	MetaFields []string `yaml:"meta_fields"`

	// MetaLabels 要同时写入 Label 的元数据字段（如 category，供多样性/规则消费）
	MetaLabels []string `yaml:"meta_labels"`

	// Diversify 结果按 category 标签做品类去重
	Diversify bool `yaml:"diversify"`
}

// LoadConfig 从 YAML 文件加载引擎配置。
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("service: read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("service: parse config: %w", err)
	}
	return &cfg, nil
}

// withDefaults 补齐零值配置。
func (c Config) withDefaults() Config {
	if c.DefaultN <= 0 {
		c.DefaultN = 10
	}
	if c.OverfetchSlack <= 0 {
		c.OverfetchSlack = 100
	}
	return c
}

func (c Config) layout() dataset.Layout {
	if c.Layout != nil {
		return *c.Layout
	}
	return dataset.DefaultLayout()
}

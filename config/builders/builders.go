// Package builders 注册内置 Node 的配置构建器。
// 入口处 import _ "github.com/rushteam/recserve/config/builders" 即可启用配置驱动的 Pipeline。
//
// 配置只能表达纯数据组件：需要快照或存储实例的节点（已购过滤、元数据挂载）
// 由引擎在请求期组装，不走这里。
package builders

import (
	"fmt"

	"github.com/rushteam/recserve/config"
	"github.com/rushteam/recserve/filter"
	"github.com/rushteam/recserve/pipeline"
	"github.com/rushteam/recserve/pkg/conv"
	"github.com/rushteam/recserve/recall"
	"github.com/rushteam/recserve/rerank"
)

func init() {
	config.Register("recall.static", BuildStaticNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
}

// BuildStaticNode 构建静态候选源。
// 配置项：ids（内存候选列表）、key（存储 key，运行期注入 Store 后生效）、limit。
func BuildStaticNode(cfg map[string]interface{}) (pipeline.Node, error) {
	ids := conv.SliceAnyToString(cfg["ids"])
	if ids == nil {
		ids = []string{}
	}
	return &recall.Static{
		IDs:   ids,
		Key:   conv.ConfigGet(cfg, "key", ""),
		Limit: conv.ConfigGetInt64(cfg, "limit", 0),
	}, nil
}

// BuildFilterNode 构建过滤节点，filters 列表逐项按 type 分派：
//   - blacklist：item_ids 内存黑名单
//   - exclude：读取请求参数 exclude_ids 的客户级排除
//   - rule：expr 为 DSL 过滤表达式，命中即过滤
func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "blacklist":
			ids := conv.SliceAnyToString(filterMap["item_ids"])
			if ids == nil {
				ids = []string{}
			}
			key := conv.ConfigGet(filterMap, "key", "")
			filters = append(filters, filter.NewBlacklistFilter(ids, nil, key))

		case "exclude":
			keyPrefix := conv.ConfigGet(filterMap, "key_prefix", "")
			filters = append(filters, filter.NewExcludeFilter(nil, keyPrefix))

		case "rule":
			expr := conv.ConfigGet(filterMap, "expr", "")
			rf, err := filter.NewRuleFilter(expr)
			if err != nil {
				return nil, err
			}
			filters = append(filters, rf)

		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	return &filter.FilterNode{Filters: filters}, nil
}

// BuildTopNNode 构建截断节点。配置项：n。
func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	return &rerank.TopNNode{N: int(n)}, nil
}

// BuildDiversityNode 构建品类去重节点。配置项：label_key，默认 "category"。
func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	labelKey := conv.ConfigGet(cfg, "label_key", "category")
	if labelKey == "" {
		labelKey = "category"
	}
	return &rerank.Diversity{LabelKey: labelKey}, nil
}

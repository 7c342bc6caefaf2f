package recall

import (
	"math"
	"sort"
	"strconv"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pkg/utils"
)

// scored 是排名中间态：物品原始行号、规范 ID、分数。
type scored struct {
	row   int
	id    string
	score float64
}

// rankLess 定义全链路统一的排名序：
// 分数降序；NaN 视为最小值排在最后；同分按原始行号升序，保证输出确定。
func rankLess(a, b scored) bool {
	an, bn := math.IsNaN(a.score), math.IsNaN(b.score)
	switch {
	case an && bn:
		return a.row < b.row
	case an:
		return false
	case bn:
		return true
	}
	if a.score != b.score {
		return a.score > b.score
	}
	return a.row < b.row
}

// takeTop 按 rankLess 就地排序并截断到 k；k <= 0 表示保留全部。
func takeTop(list []scored, k int) []scored {
	sort.Slice(list, func(i, j int) bool { return rankLess(list[i], list[j]) })
	if k > 0 && len(list) > k {
		list = list[:k]
	}
	return list
}

// mergeRanked 合并各分段的局部 Top-K。
// 拼接后整体重排再截断，结果与单线程全量排序一致，与分段方式无关。
func mergeRanked(parts [][]scored, k int) []scored {
	var total int
	for _, p := range parts {
		total += len(p)
	}
	merged := make([]scored, 0, total)
	for _, p := range parts {
		merged = append(merged, p...)
	}
	return takeTop(merged, k)
}

// buildItems 把排名结果转成 Item 列表，带上召回来源与原始行号标签。
func buildItems(list []scored, source string) []*core.Item {
	out := make([]*core.Item, 0, len(list))
	for _, s := range list {
		it := core.NewItem(s.id)
		it.Score = s.score
		it.PutLabel("recall_source", utils.Label{Value: source, Source: "recall"})
		it.PutLabel("row_index", utils.Label{Value: strconv.Itoa(s.row), Source: "recall"})
		out = append(out, it)
	}
	return out
}

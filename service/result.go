package service

import "github.com/rushteam/recserve/core"

// Status 标记一次推荐请求的结果形态。
// 空列表有两种来源，调用方据此渲染不同文案：
// 冷启动客户（UnknownCustomer）与候选全被过滤的已知客户（OK + 空列表）。
type Status string

const (
	// StatusOK 客户在数据集内，返回过滤后的推荐列表（可能比请求条数少，见退化场景）
	StatusOK Status = "ok"

	// StatusUnknownCustomer 数据集中没有该客户（冷启动），列表恒为空
	StatusUnknownCustomer Status = "unknown_customer"
)

// Result 是一次推荐请求的返回。
type Result struct {
	Status Status
	Items  []*core.Item
}

// IDs 按推荐顺序返回物品 ID 列表。
func (r *Result) IDs() []string {
	if r == nil || len(r.Items) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		if it == nil {
			continue
		}
		out = append(out, it.ID)
	}
	return out
}

// ColdStart 报告这次请求是否命中冷启动客户。
func (r *Result) ColdStart() bool {
	return r != nil && r.Status == StatusUnknownCustomer
}

// Package recserve 是一个商品推荐检索引擎（Recommendation Serving）。
//
// 设计要点：
// - Snapshot-first: 预计算产物装配成不可变快照，请求只读、刷新原子换入
// - Pipeline-first: 检索逻辑通过 Node 串联（Recall → Filter → ReRank → PostProcess）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
package recserve

import "github.com/rushteam/recserve/pipeline"

// 轻量 facade：便于用户直接 import "recserve" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/dataset"
	"github.com/rushteam/recserve/filter"
	"github.com/rushteam/recserve/meta"
	"github.com/rushteam/recserve/pipeline"
	"github.com/rushteam/recserve/pkg/conv"
	"github.com/rushteam/recserve/recall"
	"github.com/rushteam/recserve/rerank"
)

// Engine 是推荐服务引擎：装配数据快照，按请求跑召回-过滤-截断的 Pipeline。
//
// 就绪语义：New 返回即服务就绪，之前不会有任何查询被处理，
// 调用方不需要额外的就绪信号或锁。
// 查询期全程只读快照，可以被任意多个 goroutine 并发调用；
// 刷新走“新建快照 + 原子替换”，在途请求继续读各自拿到的旧快照。
type Engine struct {
	cfg    Config
	logger zerolog.Logger

	snapshot atomic.Pointer[dataset.Snapshot]

	// staticFilters 在构造期编译一次（黑名单、DSL 规则），所有请求共享
	staticFilters []filter.Filter

	// 快照外的协作方（可选）：购买集走 KV 存储、元数据走 KV 存储的部署用
	purchases filter.PurchaseStore
	histories HistoryLister
	bloom     filter.BloomChecker
	metaSrc   meta.Source

	requests   atomic.Int64
	coldStarts atomic.Int64
	degraded   atomic.Int64
	reloads    atomic.Int64
}

// Option 配置引擎的快照外协作方。
type Option func(*Engine)

// HistoryLister 按客户列出已购物品 ID（去重、首见序）。
// filter.StorePurchaseStore 实现此接口。
type HistoryLister interface {
	Items(ctx context.Context, customerID string) ([]string, error)
}

// WithPurchaseStore 让已购过滤读外部购买集（如 Redis 里的购买列表），
// 替代快照内的历史表。历史走存储后端的部署（Layout.History.Name 为空）使用。
// ps 同时实现 HistoryLister 时，GetHistory 也从它读取。
func WithPurchaseStore(ps filter.PurchaseStore) Option {
	return func(e *Engine) {
		e.purchases = ps
		if hl, ok := ps.(HistoryLister); ok {
			e.histories = hl
		}
	}
}

// WithBloom 给已购过滤挂布隆预检，一定未购买的物品省掉权威检查。
func WithBloom(b filter.BloomChecker) Option {
	return func(e *Engine) { e.bloom = b }
}

// WithMetaSource 让元数据挂载读外部存储（如 Redis hash），替代快照内的元数据表。
func WithMetaSource(src meta.Source) Option {
	return func(e *Engine) { e.metaSrc = src }
}

// New 从配置构建引擎：装配快照、编译过滤规则，全部就绪后才返回。
func New(cfg Config, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	snap, err := dataset.Load(cfg.DataDir, cfg.layout(), dataset.Mode(cfg.Mode), logger)
	if err != nil {
		return nil, err
	}
	return NewWithSnapshot(cfg, logger, snap, opts...)
}

// NewWithSnapshot 用现成快照构建引擎。
// 快照不经过分片文件的部署（特征库水合、测试）走这条路径。
func NewWithSnapshot(cfg Config, logger zerolog.Logger, snap *dataset.Snapshot, opts ...Option) (*Engine, error) {
	if snap == nil {
		return nil, core.NewInvalidInput(core.ModuleService, "service: nil snapshot")
	}

	e := &Engine{
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	if len(e.cfg.Blacklist) > 0 {
		e.staticFilters = append(e.staticFilters, filter.NewBlacklistFilter(e.cfg.Blacklist, nil, ""))
	}
	for _, expr := range e.cfg.Rules {
		rf, err := filter.NewRuleFilter(expr)
		if err != nil {
			return nil, err
		}
		e.staticFilters = append(e.staticFilters, rf)
	}

	e.snapshot.Store(snap)
	logger.Info().
		Str("mode", string(snap.Mode)).
		Time("built_at", snap.BuiltAt).
		Msg("engine ready")
	return e, nil
}

// GetRecommendations 返回客户的 Top-N 推荐。
//
// n 为 0 时用配置的默认条数，n 为负报 INVALID_INPUT。
// 客户不在数据集内返回 StatusUnknownCustomer 和空列表，不是错误。
// 过滤损耗超出超采余量时返回不足 n 条（退化场景），不做二次召回。
func (e *Engine) GetRecommendations(ctx context.Context, customerID string, n int) (*Result, error) {
	e.requests.Add(1)

	cid, ok := conv.CanonicalID(customerID)
	if !ok {
		return nil, core.NewInvalidInput(core.ModuleService, "service: invalid customer id")
	}
	if n < 0 {
		return nil, core.NewInvalidInput(core.ModuleService, fmt.Sprintf("service: invalid count %d", n))
	}
	if n == 0 {
		n = e.cfg.DefaultN
	}

	snap := e.snapshot.Load()

	p, err := e.buildPipeline(snap, n)
	if err != nil {
		return nil, err
	}

	rctx := &core.RecommendContext{CustomerID: cid}
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		if core.IsNotFound(err) {
			e.coldStarts.Add(1)
			e.logger.Debug().Str("customer", cid).Msg("cold start customer")
			return &Result{Status: StatusUnknownCustomer, Items: []*core.Item{}}, nil
		}
		return nil, err
	}

	if len(items) < n {
		e.degraded.Add(1)
		e.logger.Debug().
			Str("customer", cid).
			Int("want", n).
			Int("got", len(items)).
			Msg("returned fewer than requested")
	}

	return &Result{Status: StatusOK, Items: items}, nil
}

// GetHistory 返回客户的已购物品 ID：去重，顺序为购买流水中首次出现的顺序。
// 无购买记录的客户返回空列表，不是错误。
func (e *Engine) GetHistory(ctx context.Context, customerID string) ([]string, error) {
	cid, ok := conv.CanonicalID(customerID)
	if !ok {
		return nil, core.NewInvalidInput(core.ModuleService, "service: invalid customer id")
	}

	if e.histories != nil {
		return e.histories.Items(ctx, cid)
	}

	snap := e.snapshot.Load()
	items := snap.History.Items(cid)
	out := make([]string, len(items))
	copy(out, items)
	return out, nil
}

// Reload 重新装配快照并原子替换。
// 装配失败时保留旧快照并返回错误，服务不中断。
func (e *Engine) Reload() error {
	snap, err := dataset.Load(e.cfg.DataDir, e.cfg.layout(), dataset.Mode(e.cfg.Mode), e.logger)
	if err != nil {
		return err
	}
	e.install(snap)
	return nil
}

// Swap 用外部构建好的快照原子替换当前快照（特征库水合等刷新路径）。
func (e *Engine) Swap(snap *dataset.Snapshot) {
	if snap == nil {
		return
	}
	e.install(snap)
}

func (e *Engine) install(snap *dataset.Snapshot) {
	e.snapshot.Store(snap)
	e.reloads.Add(1)
	e.logger.Info().
		Str("mode", string(snap.Mode)).
		Time("built_at", snap.BuiltAt).
		Msg("snapshot swapped")
}

// Snapshot 返回当前快照，观测与测试用。返回值只读。
func (e *Engine) Snapshot() *dataset.Snapshot {
	return e.snapshot.Load()
}

// Stats 是引擎的运行计数与快照信息。
type Stats struct {
	Requests   int64
	ColdStarts int64
	Degraded   int64
	Reloads    int64
	Mode       dataset.Mode
	BuiltAt    time.Time
}

// Stats 返回当前计数的一致视角快照。
func (e *Engine) Stats() Stats {
	snap := e.snapshot.Load()
	return Stats{
		Requests:   e.requests.Load(),
		ColdStarts: e.coldStarts.Load(),
		Degraded:   e.degraded.Load(),
		Reloads:    e.reloads.Load(),
		Mode:       snap.Mode,
		BuiltAt:    snap.BuiltAt,
	}
}

// buildPipeline 按当前快照组装一次请求的 Pipeline。
// 召回条数 = n + 超采余量；过滤后截断回 n。
func (e *Engine) buildPipeline(snap *dataset.Snapshot, n int) (*pipeline.Pipeline, error) {
	source, err := e.sourceFor(snap, n+e.cfg.OverfetchSlack)
	if err != nil {
		return nil, err
	}

	purchases := e.purchases
	if purchases == nil {
		purchases = snap.History
	}
	filters := make([]filter.Filter, 0, len(e.staticFilters)+1)
	filters = append(filters, &filter.PurchasedFilter{Store: purchases, Bloom: e.bloom})
	filters = append(filters, e.staticFilters...)

	nodes := []pipeline.Node{
		&recall.SourceNode{Source: source},
		&filter.FilterNode{Filters: filters},
	}

	attach := e.attachNode(snap)
	if e.cfg.Diversify {
		// 品类去重会丢条目，放在截断前，从超采池里吃损耗
		if attach != nil {
			nodes = append(nodes, attach)
		}
		nodes = append(nodes, &rerank.Diversity{}, &rerank.TopNNode{N: n})
	} else {
		nodes = append(nodes, &rerank.TopNNode{N: n})
		if attach != nil {
			nodes = append(nodes, attach)
		}
	}

	return &pipeline.Pipeline{Nodes: nodes}, nil
}

func (e *Engine) attachNode(snap *dataset.Snapshot) *meta.AttachNode {
	if len(e.cfg.MetaFields) == 0 && len(e.cfg.MetaLabels) == 0 {
		return nil
	}
	src := e.metaSrc
	if src == nil {
		src = snap.Metadata
	}
	return &meta.AttachNode{
		Source:    src,
		Fields:    e.cfg.MetaFields,
		LabelKeys: e.cfg.MetaLabels,
	}
}

// sourceFor 按快照的打分模式取召回源。
// 模式在快照装配时定好，这里只读标签，不做运行期探测。
func (e *Engine) sourceFor(snap *dataset.Snapshot, topK int) (recall.Source, error) {
	switch snap.Mode {
	case dataset.ModePrecomputed:
		return &recall.PrecomputedSource{Scores: snap.Scores, TopK: topK}, nil
	case dataset.ModeVector:
		return &recall.VectorSource{
			Customers: snap.CustomerVectors,
			Items:     snap.ItemVectors,
			TopK:      topK,
			Workers:   e.cfg.Workers,
		}, nil
	default:
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeNotSupported,
			fmt.Sprintf("service: unsupported mode %q", snap.Mode))
	}
}

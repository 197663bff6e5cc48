package search

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
)

// 组合器的内置默认参数，可通过 ComposerOption 覆盖。
const (
	defaultDebounce       = 300 * time.Millisecond
	defaultMaxFilters     = 10
	defaultPageLimit      = 10
	defaultExecuteTimeout = 10 * time.Second
)

// ComposerOption 用于定制 Composer 的行为参数。
type ComposerOption func(*Composer)

// WithDebounce 设置自由文本输入的防抖窗口。
func WithDebounce(d time.Duration) ComposerOption {
	return func(c *Composer) { c.debounce = d }
}

// WithMaxFilters 设置单个查询允许的过滤器数量上限。
func WithMaxFilters(n int) ComposerOption {
	return func(c *Composer) { c.maxFilters = n }
}

// WithPageLimit 设置查询的默认分页大小。
func WithPageLimit(n int) ComposerOption {
	return func(c *Composer) { c.limit = n }
}

// WithExecuteTimeout 设置单次搜索调用的超时时间。
func WithExecuteTimeout(d time.Duration) ComposerOption {
	return func(c *Composer) { c.execTimeout = d }
}

// Composer 维护实时的 SearchQuery 并驱动搜索执行。
// 它是整个搜索核心的入口：文本、过滤器、排序的任何变更都会重新派生查询
// 并自动重新执行——不存在手动“提交”动作。
//
// 行为约定：
//   - 仅自由文本变更经过防抖；过滤器与排序的变更立即触发执行。
//   - 空查询（无文本且无过滤器）短路：清空结果，不调用提供方。
//   - 执行失败时记录错误并清除加载标志，保留此前的结果，不清空界面。
//   - 通过代际计数丢弃过期的乱序响应，后发先至的新结果不会被旧响应覆盖。
type Composer struct {
	mu       sync.Mutex
	catalog  *Catalog
	provider Provider
	logger   *core.ZapLogger

	debounce    time.Duration
	maxFilters  int
	execTimeout time.Duration

	// 实时查询状态，均受 mu 保护。
	text      string
	filters   []SearchFilter
	sortBy    string
	sortOrder string
	page      int
	limit     int

	nextFilterID  uint64      // 单调递增的过滤器 ID 来源
	debounceTimer *time.Timer // 待触发的文本防抖定时器，可能为 nil

	// generation 在每次（包括被短路的）执行时递增；
	// 异步响应返回时若代际已前进，该响应被视为过期并丢弃。
	generation uint64
	loading    bool
	results    *SearchResult
}

// NewComposer 创建查询组合器。
// catalog 与 provider 为必需依赖；logger 为 nil 时 panic，这是与服务内
// 其他构造函数一致的快速失败策略。
func NewComposer(catalog *Catalog, provider Provider, logger *core.ZapLogger, opts ...ComposerOption) *Composer {
	if logger == nil {
		panic("创建 Composer 失败：Logger 实例不能为 nil")
	}
	if catalog == nil {
		logger.Fatal("创建 Composer 失败：字段目录 (catalog) 不能为 nil")
	}
	if provider == nil {
		logger.Fatal("创建 Composer 失败：搜索提供方 (provider) 不能为 nil")
	}

	c := &Composer{
		catalog:     catalog,
		provider:    provider,
		logger:      logger,
		debounce:    defaultDebounce,
		maxFilters:  defaultMaxFilters,
		execTimeout: defaultExecuteTimeout,
		page:        1,
		limit:       defaultPageLimit,
		sortOrder:   SortDesc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetText 更新自由文本。文本在防抖窗口结束后才被并入查询并触发执行，
// 窗口内的连续输入只产生最后一次的执行。
func (c *Composer) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	c.debounceTimer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.text = text
		c.page = 1
		c.executeLocked()
	})
}

// AddFilter 为给定字段追加一条过滤器并返回其 ID。
// 当字段未知、不可过滤或过滤器数量已达上限时为无操作（返回 ok=false），
// 状态不发生任何变化。新过滤器使用类型对应的默认操作符，值为空待编辑。
func (c *Composer) AddFilter(fieldKey string) (id string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	def, found := c.catalog.Field(fieldKey)
	if !found || !def.Filterable {
		c.logger.Debug("忽略对不可过滤字段的添加请求", zap.String("field", fieldKey))
		return "", false
	}
	if len(c.filters) >= c.maxFilters {
		c.logger.Debug("过滤器数量已达上限，忽略添加请求",
			zap.String("field", fieldKey),
			zap.Int("max_filters", c.maxFilters),
		)
		return "", false
	}

	c.nextFilterID++
	f := SearchFilter{
		ID:       "f-" + strconv.FormatUint(c.nextFilterID, 10),
		Field:    def.Key,
		Operator: DefaultOperatorForType(def.Type),
		Type:     def.Type,
	}
	c.filters = append(c.filters, f)
	c.page = 1
	c.executeLocked()
	return f.ID, true
}

// AddFilterForFacet 处理分面点击：为分面对应的字段添加一条过滤器。
// 注意：按现有产品行为，点击的分面值不会被预填进过滤器，用户需自行编辑。
func (c *Composer) AddFilterForFacet(fieldKey string) (string, bool) {
	return c.AddFilter(fieldKey)
}

// UpdateFilter 将部分变更合并进 ID 匹配的过滤器并立即重新执行。
// 不重新校验操作符与类型的匹配——只提供合法操作符是编辑器的职责。
// ID 不存在时为无操作。
func (c *Composer) UpdateFilter(id string, patch FilterPatch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.filters {
		if c.filters[i].ID != id {
			continue
		}
		if patch.Operator != nil {
			c.filters[i].Operator = *patch.Operator
		}
		if patch.Value != nil {
			c.filters[i].Value = *patch.Value
		}
		c.page = 1
		c.executeLocked()
		return true
	}
	return false
}

// RemoveFilter 按 ID 删除过滤器。ID 不存在时为无操作，不报错。
func (c *Composer) RemoveFilter(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.filters {
		if c.filters[i].ID == id {
			c.filters = append(c.filters[:i], c.filters[i+1:]...)
			c.page = 1
			c.executeLocked()
			return
		}
	}
}

// Clear 一步清空自由文本与全部过滤器。清空后查询为空，结果被短路清除。
func (c *Composer) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}
	c.text = ""
	c.filters = nil
	c.page = 1
	c.executeLocked()
}

// SetSort 更新排序字段与顺序并立即重新执行。
// 字段不可排序或顺序非法时为无操作。
func (c *Composer) SetSort(sortBy, sortOrder string) bool {
	if sortOrder != SortAsc && sortOrder != SortDesc {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.catalog.IsSortable(sortBy) {
		c.logger.Debug("忽略对不可排序字段的排序请求", zap.String("field", sortBy))
		return false
	}
	c.sortBy = sortBy
	c.sortOrder = sortOrder
	c.executeLocked()
	return true
}

// SetPage 更新页码并立即重新执行，用于分页跳转。页码最小为 1。
func (c *Composer) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = page
	c.executeLocked()
}

// ApplyFilters 用给定的过滤器列表整体替换当前过滤器，自由文本保持不变。
// 这是应用 FilterTemplate / FilterSet 的入口。
func (c *Composer) ApplyFilters(filters []SearchFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.filters = make([]SearchFilter, len(filters))
	copy(c.filters, filters)
	c.page = 1
	c.executeLocked()
}

// Restore 从已保存的查询恢复文本、过滤器与排序，并立即执行。
// 这是加载 SavedSearch 的入口，不经过防抖。
func (c *Composer) Restore(q SearchQuery) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}
	c.text = q.Text
	c.filters = make([]SearchFilter, len(q.Filters))
	copy(c.filters, q.Filters)
	c.sortBy = q.SortBy
	if q.SortOrder == SortAsc || q.SortOrder == SortDesc {
		c.sortOrder = q.SortOrder
	}
	c.page = 1
	c.executeLocked()
}

// Query 返回当前已并入的查询快照（防抖窗口内的待定文本不包含在内）。
func (c *Composer) Query() SearchQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Results 返回最近一次成功执行的结果；尚无结果或已被清空时为 nil。
func (c *Composer) Results() *SearchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}

// Loading 报告是否有搜索调用在途。
func (c *Composer) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Close 停止待触发的防抖定时器。已在途的搜索调用不会被打断，
// 其响应会因代际前进而被正常丢弃或应用。
func (c *Composer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}
}

// snapshotLocked 从当前状态派生查询。调用方必须持有 c.mu。
func (c *Composer) snapshotLocked() SearchQuery {
	q := SearchQuery{
		Text:      c.text,
		SortBy:    c.sortBy,
		SortOrder: c.sortOrder,
		Page:      c.page,
		Limit:     c.limit,
	}
	if len(c.filters) > 0 {
		q.Filters = make([]SearchFilter, len(c.filters))
		copy(q.Filters, c.filters)
	}
	return q
}

// executeLocked 重新派生查询并异步执行。调用方必须持有 c.mu。
// 每次调用都会使代际前进一格，从而令所有仍在途的旧响应失效。
func (c *Composer) executeLocked() {
	c.generation++
	gen := c.generation

	q := c.snapshotLocked()
	if q.IsEmpty() {
		// 空查询短路：不调用提供方，结果态清空。
		c.results = nil
		c.loading = false
		return
	}

	c.loading = true
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.execTimeout)
		defer cancel()

		res, err := c.provider.Execute(ctx, q)

		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.generation {
			// 过期响应：期间查询已再次变更，丢弃本次结果。
			c.logger.Debug("丢弃过期的搜索响应",
				zap.Uint64("response_generation", gen),
				zap.Uint64("current_generation", c.generation),
			)
			return
		}
		c.loading = false
		if err != nil {
			// 失败时保留此前的结果，界面不清空。
			c.logger.Error("搜索执行失败，保留上一次的结果",
				zap.String("query_text", q.Text),
				zap.Int("filter_count", len(q.Filters)),
				zap.Error(err),
			)
			return
		}
		c.results = res
	}()
}

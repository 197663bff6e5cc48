package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	commonconfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider 是可编程的搜索提供方桩实现，记录每次收到的查询。
type stubProvider struct {
	mu      sync.Mutex
	calls   []SearchQuery
	respond func(q SearchQuery) (*SearchResult, error)
}

func (p *stubProvider) Execute(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, q.Clone())
	fn := p.respond
	p.mu.Unlock()

	if fn != nil {
		return fn(q)
	}
	return &SearchResult{Total: int64(len(q.Filters)), Query: q.Clone()}, nil
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// lastCall 返回最近一次收到的查询，调用方需确保已有调用发生。
func (p *stubProvider) lastCall() SearchQuery {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[len(p.calls)-1]
}

func newTestLogger(t *testing.T) *core.ZapLogger {
	t.Helper()
	logger, err := core.NewZapLogger(commonconfig.ZapConfig{})
	require.NoError(t, err)
	return logger
}

// newTestComposer 构建一个防抖窗口极短的组合器，便于测试等待。
func newTestComposer(t *testing.T, provider Provider, opts ...ComposerOption) *Composer {
	t.Helper()
	base := []ComposerOption{WithDebounce(20 * time.Millisecond)}
	c := NewComposer(newTestCatalog(t), provider, newTestLogger(t), append(base, opts...)...)
	t.Cleanup(c.Close)
	return c
}

// 防抖窗口内的连续文本输入只产生最后一次的执行。
func TestComposer_SetText_Debounced(t *testing.T) {
	provider := &stubProvider{}
	c := newTestComposer(t, provider)

	c.SetText("l")
	c.SetText("lo")
	c.SetText("loodgieter")

	assert.Eventually(t, func() bool { return provider.callCount() == 1 },
		time.Second, 5*time.Millisecond, "防抖后应只执行一次搜索")

	// 窗口结束后再等待一段时间，确认不会出现补发的执行。
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, provider.callCount())
	assert.Equal(t, "loodgieter", provider.lastCall().Text)
}

// 空查询（无文本且无过滤器）被短路：不调用提供方，结果清空。
func TestComposer_EmptyQuery_ShortCircuit(t *testing.T) {
	provider := &stubProvider{}
	c := newTestComposer(t, provider)

	c.SetText("go")
	assert.Eventually(t, func() bool { return provider.callCount() == 1 },
		time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return c.Results() != nil },
		time.Second, 5*time.Millisecond)

	// 清空文本后查询为空，结果被清除且提供方不再被调用。
	c.SetText("   ")
	assert.Eventually(t, func() bool { return c.Results() == nil },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, provider.callCount())
	assert.False(t, c.Loading())
}

// 过滤器编辑不经过防抖，立即触发执行。
func TestComposer_AddFilter_Immediate(t *testing.T) {
	provider := &stubProvider{}
	c := newTestComposer(t, provider, WithDebounce(time.Hour))

	id, ok := c.AddFilter("title")
	require.True(t, ok)
	assert.NotEmpty(t, id)

	assert.Eventually(t, func() bool { return provider.callCount() == 1 },
		time.Second, 5*time.Millisecond, "过滤器变更应立即执行而不等待防抖")

	got := provider.lastCall()
	require.Len(t, got.Filters, 1)
	// text 类型的新过滤器使用默认操作符 contains，值为空待编辑。
	assert.Equal(t, OpContains, got.Filters[0].Operator)
	assert.True(t, got.Filters[0].Value.IsZero())
	assert.Equal(t, FieldTypeText, got.Filters[0].Type)
}

func TestComposer_AddFilter_Rejections(t *testing.T) {
	provider := &stubProvider{}
	c := newTestComposer(t, provider, WithMaxFilters(2))

	t.Run("未知字段", func(t *testing.T) {
		_, ok := c.AddFilter("salary")
		assert.False(t, ok)
	})

	t.Run("不可过滤字段", func(t *testing.T) {
		_, ok := c.AddFilter("description")
		assert.False(t, ok)
	})

	t.Run("数量达到上限", func(t *testing.T) {
		_, ok := c.AddFilter("title")
		require.True(t, ok)
		_, ok = c.AddFilter("remote")
		require.True(t, ok)

		_, ok = c.AddFilter("category")
		assert.False(t, ok)
		assert.Len(t, c.Query().Filters, 2)
	})
}

func TestComposer_UpdateAndRemoveFilter(t *testing.T) {
	provider := &stubProvider{}
	c := newTestComposer(t, provider)

	id, ok := c.AddFilter("hourly_rate")
	require.True(t, ok)

	op := OpBetween
	val := Range(30.0, 60.0)
	require.True(t, c.UpdateFilter(id, FilterPatch{Operator: &op, Value: &val}))

	q := c.Query()
	require.Len(t, q.Filters, 1)
	assert.Equal(t, OpBetween, q.Filters[0].Operator)
	assert.Equal(t, ValueRange, q.Filters[0].Value.Kind)

	// 部分更新：只改值时操作符保持不变。
	val2 := Range(40.0, 80.0)
	require.True(t, c.UpdateFilter(id, FilterPatch{Value: &val2}))
	assert.Equal(t, OpBetween, c.Query().Filters[0].Operator)

	// 未知 ID 为无操作。
	assert.False(t, c.UpdateFilter("f-999", FilterPatch{Operator: &op}))

	c.RemoveFilter(id)
	assert.Empty(t, c.Query().Filters)

	// 重复删除同样是无操作，不 panic。
	c.RemoveFilter(id)
}

// 执行失败时保留此前的结果，加载标志被清除。
func TestComposer_ErrorKeepsPriorResults(t *testing.T) {
	var failing bool
	var mu sync.Mutex
	provider := &stubProvider{}
	provider.respond = func(q SearchQuery) (*SearchResult, error) {
		mu.Lock()
		defer mu.Unlock()
		if failing {
			return nil, errors.New("search backend unavailable")
		}
		return &SearchResult{Total: 7, Query: q.Clone()}, nil
	}
	c := newTestComposer(t, provider)

	_, ok := c.AddFilter("remote")
	require.True(t, ok)
	assert.Eventually(t, func() bool {
		r := c.Results()
		return r != nil && r.Total == 7
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	failing = true
	mu.Unlock()

	c.SetPage(2)
	assert.Eventually(t, func() bool { return provider.callCount() == 2 && !c.Loading() },
		time.Second, 5*time.Millisecond)

	// 上一次的成功结果仍然可见。
	r := c.Results()
	require.NotNil(t, r)
	assert.Equal(t, int64(7), r.Total)
}

// 乱序响应：代际前进后，迟到的旧响应被丢弃，不会覆盖新结果。
func TestComposer_StaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	provider := &stubProvider{}
	provider.respond = func(q SearchQuery) (*SearchResult, error) {
		if q.Page == 1 {
			// 第一次执行被挂起，待新一代执行完成后才返回。
			<-release
			return &SearchResult{Total: 111, Query: q.Clone()}, nil
		}
		return &SearchResult{Total: 222, Query: q.Clone()}, nil
	}
	c := newTestComposer(t, provider)

	_, ok := c.AddFilter("remote")
	require.True(t, ok)

	assert.Eventually(t, func() bool { return provider.callCount() == 1 },
		time.Second, 5*time.Millisecond)

	c.SetPage(2)
	assert.Eventually(t, func() bool {
		r := c.Results()
		return r != nil && r.Total == 222
	}, time.Second, 5*time.Millisecond)

	// 放行旧响应，确认它不会覆盖新结果。
	close(release)
	time.Sleep(50 * time.Millisecond)
	r := c.Results()
	require.NotNil(t, r)
	assert.Equal(t, int64(222), r.Total)
}

// 分面点击添加过滤器，但不预填分面值。
func TestComposer_AddFilterForFacet_NoValuePrefill(t *testing.T) {
	provider := &stubProvider{}
	c := newTestComposer(t, provider)

	id, ok := c.AddFilterForFacet("category")
	require.True(t, ok)

	q := c.Query()
	require.Len(t, q.Filters, 1)
	assert.Equal(t, id, q.Filters[0].ID)
	assert.True(t, q.Filters[0].Value.IsZero(), "分面点击不应预填过滤值")
	assert.Equal(t, OpEquals, q.Filters[0].Operator)
}

func TestComposer_Clear(t *testing.T) {
	provider := &stubProvider{}
	c := newTestComposer(t, provider)

	c.SetText("go")
	_, ok := c.AddFilter("remote")
	require.True(t, ok)

	c.Clear()

	q := c.Query()
	assert.Empty(t, q.Text)
	assert.Empty(t, q.Filters)
	assert.Eventually(t, func() bool { return c.Results() == nil },
		time.Second, 5*time.Millisecond)
}

// Restore 恢复已保存查询的文本、过滤器与排序，并立即执行（不经过防抖）。
func TestComposer_Restore(t *testing.T) {
	provider := &stubProvider{}
	c := newTestComposer(t, provider, WithDebounce(time.Hour))

	saved := SearchQuery{
		Text: "verzorgende",
		Filters: []SearchFilter{
			{ID: "f-8", Field: "category", Operator: OpIn, Value: List("zorg"), Type: FieldTypeSelect},
		},
		SortBy: "posted_at", SortOrder: SortAsc,
	}
	c.Restore(saved)

	assert.Eventually(t, func() bool { return provider.callCount() == 1 },
		time.Second, 5*time.Millisecond, "恢复已保存查询应立即执行")

	got := provider.lastCall()
	assert.Equal(t, "verzorgende", got.Text)
	require.Len(t, got.Filters, 1)
	assert.Equal(t, "category", got.Filters[0].Field)
	assert.Equal(t, "posted_at", got.SortBy)
	assert.Equal(t, SortAsc, got.SortOrder)
	assert.Equal(t, 1, got.Page)
}

// ApplyFilters 整体替换过滤器，自由文本保持不变。
func TestComposer_ApplyFilters_KeepsText(t *testing.T) {
	provider := &stubProvider{}
	c := newTestComposer(t, provider)

	c.SetText("installatie")
	assert.Eventually(t, func() bool { return provider.callCount() == 1 },
		time.Second, 5*time.Millisecond)

	c.ApplyFilters([]SearchFilter{
		{ID: "t-1", Field: "remote", Operator: OpEquals, Value: Scalar(true), Type: FieldTypeBoolean},
		{ID: "t-2", Field: "category", Operator: OpEquals, Value: Scalar("techniek"), Type: FieldTypeSelect},
	})

	assert.Eventually(t, func() bool { return provider.callCount() == 2 },
		time.Second, 5*time.Millisecond)

	got := provider.lastCall()
	assert.Equal(t, "installatie", got.Text)
	assert.Len(t, got.Filters, 2)
}

func TestComposer_SetSort(t *testing.T) {
	provider := &stubProvider{}
	c := newTestComposer(t, provider)

	_, ok := c.AddFilter("remote")
	require.True(t, ok)

	assert.True(t, c.SetSort("hourly_rate", SortAsc))
	q := c.Query()
	assert.Equal(t, "hourly_rate", q.SortBy)
	assert.Equal(t, SortAsc, q.SortOrder)

	// 不可排序字段与非法顺序均为无操作。
	assert.False(t, c.SetSort("category", SortAsc))
	assert.False(t, c.SetSort("hourly_rate", "sideways"))
	assert.Equal(t, "hourly_rate", c.Query().SortBy)
}

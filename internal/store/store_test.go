package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	commonconfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzpwerkplaats/job_search/internal/search"
)

// memRepo 是 CollectionsRepository 的内存桩实现，可注入读写故障。
type memRepo struct {
	mu       sync.Mutex
	data     map[string]string
	readErr  error
	writeErr error
	writes   map[string]int
}

func newMemRepo() *memRepo {
	return &memRepo{data: make(map[string]string), writes: make(map[string]int)}
}

func (r *memRepo) Read(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return "", r.readErr
	}
	payload, ok := r.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return payload, nil
}

func (r *memRepo) Write(ctx context.Context, key string, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	r.data[key] = payload
	r.writes[key]++
	return nil
}

func newTestLogger(t *testing.T) *core.ZapLogger {
	t.Helper()
	logger, err := core.NewZapLogger(commonconfig.ZapConfig{})
	require.NoError(t, err)
	return logger
}

func testFilters() []search.SearchFilter {
	return []search.SearchFilter{
		{ID: "f-1", Field: "remote", Operator: search.OpEquals, Value: search.Scalar(true), Type: search.FieldTypeBoolean},
		{ID: "f-2", Field: "category", Operator: search.OpIn, Value: search.List("bouw", "techniek"), Type: search.FieldTypeSelect},
	}
}

func testQuery() search.SearchQuery {
	return search.SearchQuery{
		Text:    "loodgieter",
		Filters: testFilters(),
		SortBy:  "posted_at", SortOrder: search.SortDesc,
		Page: 1, Limit: 10,
	}
}

// --- 启动加载 ---

// 持久化介质尚无数据时，以三个空集合启动。
func TestNewStore_EmptyRepository(t *testing.T) {
	s := NewStore(context.Background(), newMemRepo(), newTestLogger(t))

	assert.Empty(t, s.SavedSearches())
	assert.Empty(t, s.Templates())
	assert.Empty(t, s.FilterSets())
}

// 启动读取失败不会 panic，也不会让构造失败：以空集合降级继续。
func TestNewStore_ReadFailureDegradesToEmpty(t *testing.T) {
	repo := newMemRepo()
	repo.readErr = errors.New("storage offline")

	s := NewStore(context.Background(), repo, newTestLogger(t))

	assert.Empty(t, s.SavedSearches())
	assert.Empty(t, s.Templates())
	assert.Empty(t, s.FilterSets())
}

// 损坏的持久化内容同样降级为空集合。
func TestNewStore_CorruptPayloadDegradesToEmpty(t *testing.T) {
	repo := newMemRepo()
	repo.data[KeySavedSearches] = "{not json"

	s := NewStore(context.Background(), repo, newTestLogger(t))
	assert.Empty(t, s.SavedSearches())
}

// 重启后从持久化介质恢复完整状态。
func TestStore_ReloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	logger := newTestLogger(t)

	s1 := NewStore(ctx, repo, logger)
	saved, err := s1.SaveSearch(ctx, "mijn zoekopdracht", testQuery())
	require.NoError(t, err)
	_, err = s1.SaveTemplate(ctx, "bouw filters", "standaard bouwfilters", testFilters())
	require.NoError(t, err)
	_, err = s1.SaveFilterSet(ctx, "remote set", testFilters())
	require.NoError(t, err)

	s2 := NewStore(ctx, repo, logger)
	require.Len(t, s2.SavedSearches(), 1)
	require.Len(t, s2.Templates(), 1)
	require.Len(t, s2.FilterSets(), 1)

	got := s2.SavedSearches()[0]
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "mijn zoekopdracht", got.Name)
	assert.Equal(t, "loodgieter", got.Query.Text)
	assert.Len(t, got.Query.Filters, 2)
}

// --- SavedSearch ---

func TestSaveSearch_Validation(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := NewStore(ctx, repo, newTestLogger(t))

	_, err := s.SaveSearch(ctx, "   ", testQuery())
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = s.SaveSearch(ctx, "lege zoekopdracht", search.SearchQuery{})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	// 被阻止的保存不产生任何状态或持久化副作用。
	assert.Empty(t, s.SavedSearches())
	assert.Zero(t, repo.writes[KeySavedSearches])
}

func TestLoadSavedSearch_UpdatesUsage(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := NewStore(ctx, repo, newTestLogger(t))

	saved, err := s.SaveSearch(ctx, "go opdrachten", testQuery())
	require.NoError(t, err)
	assert.Zero(t, saved.UseCount)
	createdLastUsed := saved.LastUsed

	loaded, err := s.LoadSavedSearch(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.UseCount)
	assert.False(t, loaded.LastUsed.Before(createdLastUsed))
	assert.Equal(t, "loodgieter", loaded.Query.Text)

	// 每次加载都递增并持久化。
	loaded, err = s.LoadSavedSearch(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.UseCount)
	assert.GreaterOrEqual(t, repo.writes[KeySavedSearches], 3)

	_, err = s.LoadSavedSearch(ctx, "onbekend")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSavedSearch_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, newMemRepo(), newTestLogger(t))

	saved, err := s.SaveSearch(ctx, "tijdelijk", testQuery())
	require.NoError(t, err)

	s.DeleteSavedSearch(ctx, saved.ID)
	assert.Empty(t, s.SavedSearches())

	// 重复删除与删除不存在的 ID 均为无操作。
	s.DeleteSavedSearch(ctx, saved.ID)
	s.DeleteSavedSearch(ctx, "onbekend")
}

// --- FilterTemplate ---

func TestSaveTemplate_Validation(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, newMemRepo(), newTestLogger(t))

	_, err := s.SaveTemplate(ctx, "", "beschrijving", testFilters())
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = s.SaveTemplate(ctx, "leeg", "beschrijving", nil)
	assert.ErrorIs(t, err, ErrNoFilters)

	assert.Empty(t, s.Templates())
}

// 新模板落在 custom 分类下，应用模板只返回过滤器并递增 UseCount。
func TestApplyTemplate(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, newMemRepo(), newTestLogger(t))

	tpl, err := s.SaveTemplate(ctx, "bouw standaard", "", testFilters())
	require.NoError(t, err)
	assert.Equal(t, CategoryCustom, tpl.Category)
	assert.False(t, tpl.IsPublic)

	filters, err := s.ApplyTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Len(t, filters, 2)

	// 返回的是副本，调用方的修改不影响模板本体。
	filters[0].Field = "gewijzigd"
	again, err := s.ApplyTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "remote", again[0].Field)

	assert.Equal(t, int64(2), s.Templates()[0].UseCount)

	_, err = s.ApplyTemplate(ctx, "onbekend")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTemplatesByCategory(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, newMemRepo(), newTestLogger(t))

	_, err := s.SaveTemplate(ctx, "eerste", "", testFilters())
	require.NoError(t, err)
	_, err = s.SaveTemplate(ctx, "tweede", "", testFilters())
	require.NoError(t, err)

	grouped := s.TemplatesByCategory()
	require.Len(t, grouped[CategoryCustom], 2)
	// 组内保持插入顺序。
	assert.Equal(t, "eerste", grouped[CategoryCustom][0].Name)
	assert.Equal(t, "tweede", grouped[CategoryCustom][1].Name)
}

func TestDeleteTemplate_PublicProtected(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, newMemRepo(), newTestLogger(t))

	tpl, err := s.SaveTemplate(ctx, "gedeeld", "", testFilters())
	require.NoError(t, err)

	// 将模板置为公开后，用户入口的删除被拒绝且状态不变。
	s.Templates()[0].IsPublic = true
	err = s.DeleteTemplate(ctx, tpl.ID)
	assert.ErrorIs(t, err, ErrTemplateProtected)
	assert.Len(t, s.Templates(), 1)

	s.Templates()[0].IsPublic = false
	require.NoError(t, s.DeleteTemplate(ctx, tpl.ID))
	assert.Empty(t, s.Templates())

	// ID 不存在时无操作且不报错。
	assert.NoError(t, s.DeleteTemplate(ctx, "onbekend"))
}

// --- FilterSet ---

func TestFilterSet_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, newMemRepo(), newTestLogger(t))

	_, err := s.SaveFilterSet(ctx, " ", testFilters())
	assert.ErrorIs(t, err, ErrEmptyName)
	_, err = s.SaveFilterSet(ctx, "leeg", nil)
	assert.ErrorIs(t, err, ErrNoFilters)

	set, err := s.SaveFilterSet(ctx, "remote opdrachten", testFilters())
	require.NoError(t, err)
	assert.False(t, set.IsFavorite)
	assert.True(t, set.LastUsed.IsZero())

	filters, err := s.LoadFilterSet(ctx, set.ID)
	require.NoError(t, err)
	assert.Len(t, filters, 2)
	assert.False(t, s.FilterSets()[0].LastUsed.IsZero())

	_, err = s.LoadFilterSet(ctx, "onbekend")
	assert.ErrorIs(t, err, ErrNotFound)

	s.DeleteFilterSet(ctx, set.ID)
	assert.Empty(t, s.FilterSets())
	s.DeleteFilterSet(ctx, set.ID) // 幂等
}

func TestToggleFavorite(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := NewStore(ctx, repo, newTestLogger(t))

	set, err := s.SaveFilterSet(ctx, "favoriet", testFilters())
	require.NoError(t, err)

	require.NoError(t, s.ToggleFavorite(ctx, set.ID))
	assert.True(t, s.FilterSets()[0].IsFavorite)

	require.NoError(t, s.ToggleFavorite(ctx, set.ID))
	assert.False(t, s.FilterSets()[0].IsFavorite)

	assert.ErrorIs(t, s.ToggleFavorite(ctx, "onbekend"), ErrNotFound)

	// 收藏状态随每次翻转持久化：初始保存一次，翻转两次。
	assert.Equal(t, 3, repo.writes[KeyFilterSets])
}

// 写失败不回滚内存状态：下一次变更的整体重写会自然修复持久化内容。
func TestStore_WriteFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := NewStore(ctx, repo, newTestLogger(t))

	repo.writeErr = errors.New("storage offline")
	saved, err := s.SaveSearch(ctx, "offline opgeslagen", testQuery())
	require.NoError(t, err)
	require.Len(t, s.SavedSearches(), 1)

	// 介质恢复后，下一次变更把全量状态写回。
	repo.writeErr = nil
	_, err = s.SaveSearch(ctx, "tweede", testQuery())
	require.NoError(t, err)

	s2 := NewStore(ctx, repo, newTestLogger(t))
	names := []string{s2.SavedSearches()[0].Name, s2.SavedSearches()[1].Name}
	assert.Contains(t, names, "offline opgeslagen")
	assert.Contains(t, names, "tweede")
	_ = saved
}

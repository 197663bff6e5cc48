package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/zzpwerkplaats/job_search/internal/search"
)

// 三个集合在持久化介质中各自占用一个键，每次变更整体重写。
const (
	KeySavedSearches   = "saved_searches"
	KeyFilterTemplates = "filter_templates"
	KeyFilterSets      = "filter_sets"
)

// 包级哨兵错误。校验失败都是“被阻止的动作”：状态不发生任何变化。
var (
	ErrKeyNotFound       = errors.New("持久化介质中不存在该键")
	ErrEmptyName         = errors.New("名称不能为空")
	ErrEmptyQuery        = errors.New("当前查询为空，无法保存")
	ErrNoFilters         = errors.New("当前没有任何过滤器，无法保存")
	ErrNotFound          = errors.New("指定 ID 的条目不存在")
	ErrTemplateProtected = errors.New("公开模板不允许通过此入口删除")
)

// CollectionsRepository 抽象已保存集合的持久化介质。
// Read 在键不存在时返回 ErrKeyNotFound；Write 整体覆盖键下的序列化内容。
// 生产实现基于 Elasticsearch（见 repositories 包），测试注入内存桩。
type CollectionsRepository interface {
	Read(ctx context.Context, key string) (string, error)
	Write(ctx context.Context, key string, payload string) error
}

// Store 管理三个相互独立的已保存集合：SavedSearch、FilterTemplate、FilterSet。
// 集合常驻内存、单写者（调用方负责串行化高层业务），每次变更后将对应
// 集合整体重新序列化写入仓库，不做增量写。
type Store struct {
	mu     sync.Mutex
	repo   CollectionsRepository
	logger *core.ZapLogger

	savedSearches []*SavedSearch
	templates     []*FilterTemplate
	filterSets    []*FilterSet

	nextID uint64 // 进程内的 ID 去重计数，叠加在时间戳之上
}

// NewStore 创建集合存储并从仓库加载三个集合。
// 任何一个集合的读取或解析失败都只记录日志并以空集合继续——
// 启动阶段的持久化故障不会让构造失败，也不做重试。
func NewStore(ctx context.Context, repo CollectionsRepository, logger *core.ZapLogger) *Store {
	if logger == nil {
		panic("创建 Store 失败：Logger 实例不能为 nil")
	}
	if repo == nil {
		logger.Fatal("创建 Store 失败：CollectionsRepository 实例不能为 nil")
	}

	s := &Store{repo: repo, logger: logger}
	loadCollection(ctx, s, KeySavedSearches, &s.savedSearches)
	loadCollection(ctx, s, KeyFilterTemplates, &s.templates)
	loadCollection(ctx, s, KeyFilterSets, &s.filterSets)

	logger.Info("已保存集合加载完成",
		zap.Int("saved_searches", len(s.savedSearches)),
		zap.Int("filter_templates", len(s.templates)),
		zap.Int("filter_sets", len(s.filterSets)),
	)
	return s
}

// loadCollection 读取并反序列化一个集合。失败时记录日志，目标保持为空。
func loadCollection[T any](ctx context.Context, s *Store, key string, dst *[]*T) {
	payload, err := s.repo.Read(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			s.logger.Debug("集合尚无持久化数据，以空集合启动", zap.String("key", key))
		} else {
			s.logger.Error("读取集合失败，以空集合启动", zap.String("key", key), zap.Error(err))
		}
		return
	}
	var items []*T
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		s.logger.Error("解析集合内容失败，以空集合启动", zap.String("key", key), zap.Error(err))
		return
	}
	*dst = items
}

// persistLocked 将一个集合整体序列化并写回仓库。调用方必须持有 s.mu。
// 写失败只记录日志：内存状态已是新状态，下一次变更会再次尝试整体重写。
func (s *Store) persistLocked(ctx context.Context, key string, items interface{}) {
	payload, err := json.Marshal(items)
	if err != nil {
		s.logger.Error("序列化集合失败，本次变更未持久化", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.repo.Write(ctx, key, string(payload)); err != nil {
		s.logger.Error("写入集合失败，本次变更未持久化", zap.String("key", key), zap.Error(err))
	}
}

// newIDLocked 生成时间戳叠加进程内计数的唯一 ID。调用方必须持有 s.mu。
func (s *Store) newIDLocked() string {
	s.nextID++
	return strconv.FormatInt(time.Now().UTC().UnixNano(), 36) + "-" + strconv.FormatUint(s.nextID, 36)
}

// --- SavedSearch ---

// SaveSearch 将当前查询以给定名称保存为 SavedSearch。
// 要求名称非空且查询非平凡（有文本或至少一条过滤器），否则拒绝且无副作用。
func (s *Store) SaveSearch(ctx context.Context, name string, query search.SearchQuery) (*SavedSearch, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if query.IsEmpty() {
		return nil, ErrEmptyQuery
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	saved := &SavedSearch{
		ID:        s.newIDLocked(),
		Name:      strings.TrimSpace(name),
		Query:     query.Clone(),
		CreatedAt: now,
		LastUsed:  now,
	}
	s.savedSearches = append(s.savedSearches, saved)
	s.persistLocked(ctx, KeySavedSearches, s.savedSearches)

	s.logger.Info("已保存搜索", zap.String("id", saved.ID), zap.String("name", saved.Name))
	return saved, nil
}

// LoadSavedSearch 按 ID 取出已保存的查询供调用方恢复（Composer.Restore）。
// 同时令 UseCount 加一、LastUsed 置为当前时间，并持久化这两处变更。
func (s *Store) LoadSavedSearch(ctx context.Context, id string) (*SavedSearch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, saved := range s.savedSearches {
		if saved.ID != id {
			continue
		}
		saved.UseCount++
		saved.LastUsed = time.Now().UTC()
		s.persistLocked(ctx, KeySavedSearches, s.savedSearches)
		out := *saved
		out.Query = saved.Query.Clone()
		return &out, nil
	}
	return nil, fmt.Errorf("SavedSearch '%s': %w", id, ErrNotFound)
}

// SavedSearches 返回全部已保存搜索的快照。
func (s *Store) SavedSearches() []*SavedSearch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*SavedSearch, len(s.savedSearches))
	copy(out, s.savedSearches)
	return out
}

// DeleteSavedSearch 按 ID 删除。ID 不存在时为无操作，不报错。
func (s *Store) DeleteSavedSearch(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, saved := range s.savedSearches {
		if saved.ID == id {
			s.savedSearches = append(s.savedSearches[:i], s.savedSearches[i+1:]...)
			s.persistLocked(ctx, KeySavedSearches, s.savedSearches)
			return
		}
	}
}

// --- FilterTemplate ---

// SaveTemplate 将给定过滤器保存为 custom 分类下的新模板。
// 要求名称非空且至少一条过滤器。新模板 UseCount 为 0、非公开。
func (s *Store) SaveTemplate(ctx context.Context, name, description string, filters []search.SearchFilter) (*FilterTemplate, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if len(filters) == 0 {
		return nil, ErrNoFilters
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tpl := &FilterTemplate{
		ID:          s.newIDLocked(),
		Name:        strings.TrimSpace(name),
		Description: description,
		Category:    CategoryCustom,
		CreatedAt:   time.Now().UTC(),
		Filters:     cloneFilters(filters),
	}
	s.templates = append(s.templates, tpl)
	s.persistLocked(ctx, KeyFilterTemplates, s.templates)

	s.logger.Info("已保存过滤器模板", zap.String("id", tpl.ID), zap.String("name", tpl.Name))
	return tpl, nil
}

// ApplyTemplate 按 ID 取出模板的过滤器列表（仅过滤器，不影响自由文本），
// 并就地递增该模板的 UseCount 后持久化。
func (s *Store) ApplyTemplate(ctx context.Context, id string) ([]search.SearchFilter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tpl := range s.templates {
		if tpl.ID != id {
			continue
		}
		tpl.UseCount++
		s.persistLocked(ctx, KeyFilterTemplates, s.templates)
		return cloneFilters(tpl.Filters), nil
	}
	return nil, fmt.Errorf("FilterTemplate '%s': %w", id, ErrNotFound)
}

// Templates 返回全部模板的快照。
func (s *Store) Templates() []*FilterTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*FilterTemplate, len(s.templates))
	copy(out, s.templates)
	return out
}

// TemplatesByCategory 按分类分组返回模板，组内保持插入顺序。
func (s *Store) TemplatesByCategory() map[string][]*FilterTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]*FilterTemplate)
	for _, tpl := range s.templates {
		out[tpl.Category] = append(out[tpl.Category], tpl)
	}
	return out
}

// DeleteTemplate 按 ID 删除模板。
// 公开模板受保护：返回 ErrTemplateProtected 且状态不变。ID 不存在时无操作。
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, tpl := range s.templates {
		if tpl.ID != id {
			continue
		}
		if tpl.IsPublic {
			return fmt.Errorf("FilterTemplate '%s': %w", id, ErrTemplateProtected)
		}
		s.templates = append(s.templates[:i], s.templates[i+1:]...)
		s.persistLocked(ctx, KeyFilterTemplates, s.templates)
		return nil
	}
	return nil
}

// --- FilterSet ---

// SaveFilterSet 将给定过滤器保存为新的过滤器集合。
// 要求名称非空且至少一条过滤器。新集合默认不收藏。
func (s *Store) SaveFilterSet(ctx context.Context, name string, filters []search.SearchFilter) (*FilterSet, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if len(filters) == 0 {
		return nil, ErrNoFilters
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := &FilterSet{
		ID:        s.newIDLocked(),
		Name:      strings.TrimSpace(name),
		Filters:   cloneFilters(filters),
		CreatedAt: time.Now().UTC(),
	}
	s.filterSets = append(s.filterSets, set)
	s.persistLocked(ctx, KeyFilterSets, s.filterSets)
	return set, nil
}

// LoadFilterSet 按 ID 取出集合的过滤器（仅过滤器），并更新其 LastUsed。
func (s *Store) LoadFilterSet(ctx context.Context, id string) ([]search.SearchFilter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, set := range s.filterSets {
		if set.ID != id {
			continue
		}
		set.LastUsed = time.Now().UTC()
		s.persistLocked(ctx, KeyFilterSets, s.filterSets)
		return cloneFilters(set.Filters), nil
	}
	return nil, fmt.Errorf("FilterSet '%s': %w", id, ErrNotFound)
}

// FilterSets 返回全部过滤器集合的快照。
func (s *Store) FilterSets() []*FilterSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*FilterSet, len(s.filterSets))
	copy(out, s.filterSets)
	return out
}

// ToggleFavorite 翻转集合的收藏标记并持久化。与加载/删除相互独立。
func (s *Store) ToggleFavorite(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, set := range s.filterSets {
		if set.ID == id {
			set.IsFavorite = !set.IsFavorite
			s.persistLocked(ctx, KeyFilterSets, s.filterSets)
			return nil
		}
	}
	return fmt.Errorf("FilterSet '%s': %w", id, ErrNotFound)
}

// DeleteFilterSet 按 ID 删除集合。ID 不存在时为无操作。
func (s *Store) DeleteFilterSet(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, set := range s.filterSets {
		if set.ID == id {
			s.filterSets = append(s.filterSets[:i], s.filterSets[i+1:]...)
			s.persistLocked(ctx, KeyFilterSets, s.filterSets)
			return
		}
	}
}

// cloneFilters 返回过滤器切片的独立副本，避免调用方与存储共享底层数组。
func cloneFilters(filters []search.SearchFilter) []search.SearchFilter {
	out := make([]search.SearchFilter, len(filters))
	copy(out, filters)
	return out
}

package store

import (
	"time"

	"github.com/zzpwerkplaats/job_search/internal/search"
)

// SavedSearch 是一条命名的、冻结的完整查询（文本 + 过滤器 + 排序）。
// 每次被重新加载时 LastUsed 与 UseCount 都会更新并持久化。
type SavedSearch struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Query     search.SearchQuery `json:"query"`
	CreatedAt time.Time          `json:"created_at"`
	LastUsed  time.Time          `json:"last_used"`
	UseCount  int64              `json:"use_count"`
}

// FilterTemplate 是更丰富的、面向复用与共享的过滤器组合单元。
// 与 SavedSearch 的区别：只含过滤器（不含文本/排序）、按分类组织、
// 携带作者/评分/标签等元数据。IsPublic 的模板不允许通过用户入口删除。
type FilterTemplate struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Category    string                `json:"category"`
	IsPublic    bool                  `json:"is_public"`
	CreatedBy   string                `json:"created_by,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UseCount    int64                 `json:"use_count"`
	Rating      float64               `json:"rating,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
	Filters     []search.SearchFilter `json:"filters"`
}

// FilterSet 是轻量的过滤器捆绑（无文本/排序），带独立的收藏标记。
// 收藏的切换与加载/删除互不影响，均以 ID 为键。
type FilterSet struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Filters    []search.SearchFilter `json:"filters"`
	IsFavorite bool                  `json:"is_favorite"`
	CreatedAt  time.Time             `json:"created_at"`
	LastUsed   time.Time             `json:"last_used"`
}

// 用户新建模板时的归属分类。该分类在首次使用时隐式创建。
const CategoryCustom = "custom"

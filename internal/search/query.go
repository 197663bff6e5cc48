package search

import (
	"context"
	"strings"
)

// 排序顺序的合法取值。
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// SearchQuery 是一次搜索的完整请求：自由文本、结构化过滤器、排序与分页。
// 过滤器列表保持插入顺序，但顺序对匹配语义无影响。
// 查询在每次编辑后重新派生，除嵌入 SavedSearch 外不会被直接持久化。
type SearchQuery struct {
	Text      string         `json:"text"`
	Filters   []SearchFilter `json:"filters"`
	SortBy    string         `json:"sort_by,omitempty"`
	SortOrder string         `json:"sort_order,omitempty"`
	Page      int            `json:"page"`
	Limit     int            `json:"limit"`
}

// IsEmpty 判断查询是否为“空查询”：既没有文本也没有任何过滤器。
// 空查询不会被发送给搜索提供方，以避免对全量数据的无意义扫描。
func (q SearchQuery) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == "" && len(q.Filters) == 0
}

// Clone 返回查询的深拷贝（过滤器切片独立），用于向外暴露内部状态快照。
func (q SearchQuery) Clone() SearchQuery {
	out := q
	if q.Filters != nil {
		out.Filters = make([]SearchFilter, len(q.Filters))
		copy(out.Filters, q.Filters)
	}
	return out
}

// Validate 按字段目录校验查询：每条过滤器完整合法，排序字段（若有）可排序。
// 调用方（API 边界）保证传给搜索提供方的查询均已通过此校验。
func (q SearchQuery) Validate(catalog *Catalog) error {
	for _, f := range q.Filters {
		if err := f.Validate(catalog); err != nil {
			return err
		}
	}
	if q.SortBy != "" && !catalog.IsSortable(q.SortBy) {
		return ErrFieldNotSortable
	}
	return nil
}

// Document 表示搜索命中的一条记录。
// 搜索核心不关心记录的具体模式，按原样透传给调用方渲染。
type Document map[string]interface{}

// FacetValue 是分面统计中的一个 值/计数 对，按计数从高到低排列。
type FacetValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// SearchResult 是搜索调用的响应信封。
// 提供方保证 len(Items) <= Query.Limit、Total >= len(Items)，
// 且 Query 为产生本结果的请求的原样回显（用于审计与调试）。
type SearchResult struct {
	Items        []Document              `json:"items"`
	Total        int64                   `json:"total"`
	Facets       map[string][]FacetValue `json:"facets,omitempty"`
	Suggestions  []string                `json:"suggestions,omitempty"`
	SearchTimeMs int64                   `json:"search_time_ms"`
	Query        SearchQuery             `json:"query"`
}

// Provider 是注入给查询组合器的异步搜索执行方。
// 本服务中由 SearchService（背后是 Elasticsearch 职位仓库）实现；
// 测试中注入桩实现。
type Provider interface {
	Execute(ctx context.Context, query SearchQuery) (*SearchResult, error)
}

package repositories

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zzpwerkplaats/job_search/internal/search"
)

// buildSearchQuery 根据组合好的通用搜索查询构建 Elasticsearch 查询的 JSON 体。
// 它封装了分页、排序、主查询（match_all 或基于可检索字段的 multi_match）、
// 由过滤器引擎产出的结构化过滤子句，以及用于分面统计的聚合。
//
// 参数:
//   - q: 已通过字段目录校验的 search.SearchQuery。
//   - catalog: 字段目录，提供可检索字段列表与分面字段列表。
//   - facetSize: 每个分面字段返回的桶数量上限。
//
// 返回值:
//   - []byte: Elasticsearch 查询 DSL（JSON 字节）。
//   - error: 构建或序列化失败时返回。
func buildSearchQuery(q search.SearchQuery, catalog *search.Catalog, facetSize int) ([]byte, error) {
	// --- 1. 分页 ---
	// 'from' 基于 0：第一页 from=0，第二页 from=size，依此类推。
	size := q.Limit
	if size <= 0 {
		size = 10
	}
	from := (q.Page - 1) * size
	if from < 0 {
		from = 0
	}

	// --- 2. 排序 ---
	// 未指定排序字段时按相关性评分排序；指定时附加 id 升序作为辅助排序，
	// 保证主排序字段取值相同时结果顺序仍然稳定。
	var sortClause []map[string]map[string]string
	if q.SortBy == "" {
		sortClause = []map[string]map[string]string{
			{"_score": {"order": "desc"}},
			{"id": {"order": "asc"}},
		}
	} else {
		order := q.SortOrder
		if order != search.SortAsc && order != search.SortDesc {
			order = search.SortDesc
		}
		sortClause = []map[string]map[string]string{
			{sortField(q.SortBy, catalog): {"order": order}},
		}
		if q.SortBy != "id" {
			sortClause = append(sortClause, map[string]map[string]string{"id": {"order": "asc"}})
		}
	}

	// --- 3. 主查询 ---
	// 关键词为空时使用 match_all（通常与过滤器组合使用）；
	// 否则在目录声明的可检索字段上做 multi_match，标题字段加权。
	var mainQueryDSL map[string]interface{}
	if strings.TrimSpace(q.Text) == "" {
		mainQueryDSL = map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	} else {
		mainQueryDSL = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": boostedSearchFields(catalog),
				"type":   "best_fields",
			},
		}
	}

	// --- 4. 过滤 ---
	// 过滤器引擎的每条约束翻译为一个 filter 上下文的子句：
	// 不影响评分，且可被 Elasticsearch 高效缓存。
	filters := make([]map[string]interface{}, 0, len(q.Filters))
	for _, f := range q.Filters {
		clause, err := buildFilterClause(f)
		if err != nil {
			return nil, err
		}
		if clause != nil {
			filters = append(filters, clause)
		}
	}

	// --- 5. 组合主查询与过滤器 ---
	var finalQueryDSL map[string]interface{}
	if len(filters) > 0 {
		finalQueryDSL = map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   mainQueryDSL,
				"filter": filters,
			},
		}
	} else {
		finalQueryDSL = mainQueryDSL
	}

	// --- 6. 聚合（分面） ---
	// 对目录中可过滤的 select/boolean 字段做 terms 聚合，
	// 产出按计数排列的 值/计数 对供结果侧的分面刷选使用。
	aggs := buildFacetAggs(catalog, facetSize)

	// --- 7. 组装最终请求体 ---
	esQueryRequest := map[string]interface{}{
		"from":             from,
		"size":             size,
		"sort":             sortClause,
		"query":            finalQueryDSL,
		"track_total_hits": true, // 返回精确的总命中数，即使超过默认的 10000 条
	}
	if len(aggs) > 0 {
		esQueryRequest["aggs"] = aggs
	}

	queryJSON, err := json.Marshal(esQueryRequest)
	if err != nil {
		return nil, fmt.Errorf("序列化 Elasticsearch 查询对象为 JSON 失败: %w", err)
	}
	return queryJSON, nil
}

// boostedSearchFields 返回参与自由文本检索的字段列表，标题字段加三倍权重。
func boostedSearchFields(catalog *search.Catalog) []string {
	keys := catalog.SearchableKeys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "title" {
			out = append(out, "title^3")
		} else {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		// 目录未声明任何可检索字段时退化为对标题的检索，避免产生非法的空 fields。
		out = append(out, "title")
	}
	return out
}

// exactField 返回用于精确匹配（term/terms/prefix/wildcard）的字段名。
// text 类型字段使用其 keyword 子字段；其余类型直接使用字段本身。
func exactField(f search.SearchFilter) string {
	if f.Type == search.FieldTypeText {
		return f.Field + ".keyword"
	}
	return f.Field
}

// sortField 返回用于排序的字段名，text 类型字段同样落到 keyword 子字段。
func sortField(key string, catalog *search.Catalog) string {
	if def, ok := catalog.Field(key); ok && def.Type == search.FieldTypeText {
		return key + ".keyword"
	}
	return key
}

// buildFilterClause 将一条过滤器翻译为 Elasticsearch 的过滤子句。
// 值尚未编辑（零值或空字符串标量）的过滤器不产生子句。
// 操作符与值形态的组合不合法时返回错误——查询在 API 边界已经校验过，
// 这里的错误意味着调用方绕过了校验。
func buildFilterClause(f search.SearchFilter) (map[string]interface{}, error) {
	v := f.Value
	if v.IsZero() {
		return nil, nil
	}
	if s, ok := v.Scalar.(string); ok && v.Kind == search.ValueScalar && strings.TrimSpace(s) == "" {
		return nil, nil
	}

	switch f.Operator {
	case search.OpEquals:
		return map[string]interface{}{
			"term": map[string]interface{}{exactField(f): v.Scalar},
		}, nil

	case search.OpContains:
		return map[string]interface{}{
			"wildcard": map[string]interface{}{
				exactField(f): map[string]interface{}{
					"value":            fmt.Sprintf("*%v*", v.Scalar),
					"case_insensitive": true,
				},
			},
		}, nil

	case search.OpStartsWith:
		return map[string]interface{}{
			"prefix": map[string]interface{}{
				exactField(f): map[string]interface{}{
					"value":            fmt.Sprintf("%v", v.Scalar),
					"case_insensitive": true,
				},
			},
		}, nil

	case search.OpEndsWith:
		return map[string]interface{}{
			"wildcard": map[string]interface{}{
				exactField(f): map[string]interface{}{
					"value":            fmt.Sprintf("*%v", v.Scalar),
					"case_insensitive": true,
				},
			},
		}, nil

	case search.OpGt, search.OpLt, search.OpGte, search.OpLte:
		return map[string]interface{}{
			"range": map[string]interface{}{
				f.Field: map[string]interface{}{string(f.Operator): v.Scalar},
			},
		}, nil

	case search.OpBetween:
		if v.Kind != search.ValueRange {
			return nil, fmt.Errorf("过滤器 '%s' 的 between 操作符要求区间形态的值", f.ID)
		}
		return map[string]interface{}{
			"range": map[string]interface{}{
				f.Field: map[string]interface{}{"gte": v.Lo, "lte": v.Hi},
			},
		}, nil

	case search.OpIn:
		if v.Kind != search.ValueList {
			return nil, fmt.Errorf("过滤器 '%s' 的 in 操作符要求列表形态的值", f.ID)
		}
		return map[string]interface{}{
			"terms": map[string]interface{}{exactField(f): v.List},
		}, nil

	default:
		return nil, fmt.Errorf("过滤器 '%s' 携带了未知操作符 '%s'", f.ID, f.Operator)
	}
}

// buildFacetAggs 为可过滤的 select/boolean 字段构建 terms 聚合。
func buildFacetAggs(catalog *search.Catalog, facetSize int) map[string]interface{} {
	if facetSize <= 0 {
		facetSize = 10
	}
	aggs := make(map[string]interface{})
	for _, def := range catalog.FilterableFields() {
		if def.Type != search.FieldTypeSelect && def.Type != search.FieldTypeBoolean {
			continue
		}
		aggs[def.Key] = map[string]interface{}{
			"terms": map[string]interface{}{
				"field": def.Key,
				"size":  facetSize,
			},
		}
	}
	return aggs
}

package repositories

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzpwerkplaats/job_search/internal/search"
)

func newTestCatalog(t *testing.T) *search.Catalog {
	t.Helper()
	return search.NewCatalog([]search.FieldDefinition{
		{Key: "title", Label: "标题", Type: search.FieldTypeText, Searchable: true, Filterable: true, Sortable: true},
		{Key: "description", Label: "描述", Type: search.FieldTypeText, Searchable: true},
		{Key: "category", Label: "分类", Type: search.FieldTypeSelect, Filterable: true},
		{Key: "hourly_rate", Label: "时薪", Type: search.FieldTypeNumber, Filterable: true, Sortable: true},
		{Key: "remote", Label: "远程", Type: search.FieldTypeBoolean, Filterable: true},
		{Key: "posted_at", Label: "发布时间", Type: search.FieldTypeDate, Filterable: true, Sortable: true},
	})
}

// buildAndDecode 构建查询并解码回通用 map，便于断言 DSL 结构。
func buildAndDecode(t *testing.T, q search.SearchQuery) map[string]interface{} {
	t.Helper()
	raw, err := buildSearchQuery(q, newTestCatalog(t), 10)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func TestBuildSearchQuery_Pagination(t *testing.T) {
	decoded := buildAndDecode(t, search.SearchQuery{Text: "go", Page: 3, Limit: 20})
	assert.Equal(t, float64(40), decoded["from"])
	assert.Equal(t, float64(20), decoded["size"])

	// 非法的页码与页大小回退到安全默认值。
	decoded = buildAndDecode(t, search.SearchQuery{Text: "go", Page: 0, Limit: 0})
	assert.Equal(t, float64(0), decoded["from"])
	assert.Equal(t, float64(10), decoded["size"])
}

// 无排序字段时按相关性排序；有排序字段时附加 id 升序保证顺序稳定。
func TestBuildSearchQuery_Sort(t *testing.T) {
	decoded := buildAndDecode(t, search.SearchQuery{Text: "go"})
	sort := decoded["sort"].([]interface{})
	require.Len(t, sort, 2)
	first := sort[0].(map[string]interface{})
	assert.Contains(t, first, "_score")

	decoded = buildAndDecode(t, search.SearchQuery{Text: "go", SortBy: "hourly_rate", SortOrder: search.SortAsc})
	sort = decoded["sort"].([]interface{})
	require.Len(t, sort, 2)
	first = sort[0].(map[string]interface{})
	assert.Equal(t, "asc", first["hourly_rate"].(map[string]interface{})["order"])
	second := sort[1].(map[string]interface{})
	assert.Equal(t, "asc", second["id"].(map[string]interface{})["order"])
}

// text 类型的排序字段落到 keyword 子字段。
func TestBuildSearchQuery_SortOnTextFieldUsesKeyword(t *testing.T) {
	decoded := buildAndDecode(t, search.SearchQuery{Text: "go", SortBy: "title", SortOrder: search.SortDesc})
	sort := decoded["sort"].([]interface{})
	first := sort[0].(map[string]interface{})
	assert.Contains(t, first, "title.keyword")
}

// 关键词为空但有过滤器时主查询为 match_all。
func TestBuildSearchQuery_MatchAllWhenNoText(t *testing.T) {
	q := search.SearchQuery{
		Filters: []search.SearchFilter{
			{ID: "f-1", Field: "remote", Operator: search.OpEquals, Value: search.Scalar(true), Type: search.FieldTypeBoolean},
		},
	}
	decoded := buildAndDecode(t, q)
	boolQuery := decoded["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Contains(t, boolQuery["must"].(map[string]interface{}), "match_all")
	assert.Len(t, boolQuery["filter"].([]interface{}), 1)
}

// 有关键词时在可检索字段上做 multi_match，标题字段加权。
func TestBuildSearchQuery_MultiMatchBoostsTitle(t *testing.T) {
	decoded := buildAndDecode(t, search.SearchQuery{Text: "loodgieter"})
	mm := decoded["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "loodgieter", mm["query"])

	fields := mm["fields"].([]interface{})
	assert.Contains(t, fields, "title^3")
	assert.Contains(t, fields, "description")
}

func TestBuildFilterClause_PerOperator(t *testing.T) {
	tests := []struct {
		name   string
		filter search.SearchFilter
		check  func(t *testing.T, clause map[string]interface{})
	}{
		{
			name: "equals 对 text 用 keyword 子字段",
			filter: search.SearchFilter{ID: "f-1", Field: "title", Operator: search.OpEquals,
				Value: search.Scalar("Loodgieter"), Type: search.FieldTypeText},
			check: func(t *testing.T, clause map[string]interface{}) {
				term := clause["term"].(map[string]interface{})
				assert.Equal(t, "Loodgieter", term["title.keyword"])
			},
		},
		{
			name: "equals 对 boolean 直接用字段",
			filter: search.SearchFilter{ID: "f-2", Field: "remote", Operator: search.OpEquals,
				Value: search.Scalar(true), Type: search.FieldTypeBoolean},
			check: func(t *testing.T, clause map[string]interface{}) {
				term := clause["term"].(map[string]interface{})
				assert.Equal(t, true, term["remote"])
			},
		},
		{
			name: "contains 翻译为双侧通配",
			filter: search.SearchFilter{ID: "f-3", Field: "title", Operator: search.OpContains,
				Value: search.Scalar("gieter"), Type: search.FieldTypeText},
			check: func(t *testing.T, clause map[string]interface{}) {
				wc := clause["wildcard"].(map[string]interface{})["title.keyword"].(map[string]interface{})
				assert.Equal(t, "*gieter*", wc["value"])
				assert.Equal(t, true, wc["case_insensitive"])
			},
		},
		{
			name: "starts_with 翻译为 prefix",
			filter: search.SearchFilter{ID: "f-4", Field: "title", Operator: search.OpStartsWith,
				Value: search.Scalar("Lood"), Type: search.FieldTypeText},
			check: func(t *testing.T, clause map[string]interface{}) {
				p := clause["prefix"].(map[string]interface{})["title.keyword"].(map[string]interface{})
				assert.Equal(t, "Lood", p["value"])
			},
		},
		{
			name: "ends_with 翻译为前置通配",
			filter: search.SearchFilter{ID: "f-5", Field: "title", Operator: search.OpEndsWith,
				Value: search.Scalar("gieter"), Type: search.FieldTypeText},
			check: func(t *testing.T, clause map[string]interface{}) {
				wc := clause["wildcard"].(map[string]interface{})["title.keyword"].(map[string]interface{})
				assert.Equal(t, "*gieter", wc["value"])
			},
		},
		{
			name: "gte 翻译为 range",
			filter: search.SearchFilter{ID: "f-6", Field: "hourly_rate", Operator: search.OpGte,
				Value: search.Scalar(40.0), Type: search.FieldTypeNumber},
			check: func(t *testing.T, clause map[string]interface{}) {
				r := clause["range"].(map[string]interface{})["hourly_rate"].(map[string]interface{})
				assert.Equal(t, 40.0, r["gte"])
			},
		},
		{
			name: "between 翻译为闭区间 range",
			filter: search.SearchFilter{ID: "f-7", Field: "hourly_rate", Operator: search.OpBetween,
				Value: search.Range(30.0, 60.0), Type: search.FieldTypeNumber},
			check: func(t *testing.T, clause map[string]interface{}) {
				r := clause["range"].(map[string]interface{})["hourly_rate"].(map[string]interface{})
				assert.Equal(t, 30.0, r["gte"])
				assert.Equal(t, 60.0, r["lte"])
			},
		},
		{
			name: "in 翻译为 terms",
			filter: search.SearchFilter{ID: "f-8", Field: "category", Operator: search.OpIn,
				Value: search.List("bouw", "ict"), Type: search.FieldTypeSelect},
			check: func(t *testing.T, clause map[string]interface{}) {
				values := clause["terms"].(map[string]interface{})["category"].([]interface{})
				assert.Equal(t, []interface{}{"bouw", "ict"}, values)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, err := buildFilterClause(tt.filter)
			require.NoError(t, err)
			require.NotNil(t, clause)

			// 走一次 JSON 往返，与进入 Elasticsearch 前的形态一致。
			raw, err := json.Marshal(clause)
			require.NoError(t, err)
			var decoded map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &decoded))
			tt.check(t, decoded)
		})
	}
}

// 值尚未编辑的过滤器不产生子句，也不报错。
func TestBuildFilterClause_UnsetValueSkipped(t *testing.T) {
	clause, err := buildFilterClause(search.SearchFilter{
		ID: "f-1", Field: "title", Operator: search.OpContains, Type: search.FieldTypeText,
	})
	require.NoError(t, err)
	assert.Nil(t, clause)

	// 空字符串标量同样视为未编辑。
	clause, err = buildFilterClause(search.SearchFilter{
		ID: "f-2", Field: "title", Operator: search.OpEquals,
		Value: search.Scalar("   "), Type: search.FieldTypeText,
	})
	require.NoError(t, err)
	assert.Nil(t, clause)
}

// 形态与操作符不匹配的值意味着调用方绕过了 API 边界的校验，必须报错。
func TestBuildFilterClause_ShapeMismatch(t *testing.T) {
	_, err := buildFilterClause(search.SearchFilter{
		ID: "f-1", Field: "hourly_rate", Operator: search.OpBetween,
		Value: search.Scalar(40.0), Type: search.FieldTypeNumber,
	})
	assert.Error(t, err)

	_, err = buildFilterClause(search.SearchFilter{
		ID: "f-2", Field: "category", Operator: search.OpIn,
		Value: search.Scalar("bouw"), Type: search.FieldTypeSelect,
	})
	assert.Error(t, err)
}

// 分面聚合只覆盖可过滤的 select/boolean 字段。
func TestBuildSearchQuery_FacetAggs(t *testing.T) {
	decoded := buildAndDecode(t, search.SearchQuery{Text: "go"})
	aggs := decoded["aggs"].(map[string]interface{})

	assert.Contains(t, aggs, "category")
	assert.Contains(t, aggs, "remote")
	assert.NotContains(t, aggs, "title")
	assert.NotContains(t, aggs, "hourly_rate")
	assert.NotContains(t, aggs, "posted_at")

	terms := aggs["category"].(map[string]interface{})["terms"].(map[string]interface{})
	assert.Equal(t, "category", terms["field"])
	assert.Equal(t, float64(10), terms["size"])
}

func TestBuildSearchQuery_TrackTotalHits(t *testing.T) {
	decoded := buildAndDecode(t, search.SearchQuery{Text: "go"})
	assert.Equal(t, true, decoded["track_total_hits"])
}

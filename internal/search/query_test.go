package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchQuery_IsEmpty(t *testing.T) {
	assert.True(t, SearchQuery{}.IsEmpty())
	// 纯空白文本等同于没有文本。
	assert.True(t, SearchQuery{Text: "   \t"}.IsEmpty())

	assert.False(t, SearchQuery{Text: "loodgieter"}.IsEmpty())
	assert.False(t, SearchQuery{
		Filters: []SearchFilter{{ID: "f-1", Field: "remote", Operator: OpEquals, Type: FieldTypeBoolean}},
	}.IsEmpty())
}

// Clone 的过滤器切片必须独立，修改副本不影响原查询。
func TestSearchQuery_Clone_Independent(t *testing.T) {
	q := SearchQuery{
		Text: "go developer",
		Filters: []SearchFilter{
			{ID: "f-1", Field: "remote", Operator: OpEquals, Value: Scalar(true), Type: FieldTypeBoolean},
		},
		SortBy: "posted_at", SortOrder: SortDesc, Page: 2, Limit: 10,
	}

	clone := q.Clone()
	clone.Filters[0].Field = "category"
	clone.Text = "other"

	assert.Equal(t, "remote", q.Filters[0].Field)
	assert.Equal(t, "go developer", q.Text)
}

func TestSearchQuery_Validate(t *testing.T) {
	catalog := newTestCatalog(t)

	ok := SearchQuery{
		Text: "renovatie",
		Filters: []SearchFilter{
			{ID: "f-1", Field: "category", Operator: OpIn, Value: List("bouw"), Type: FieldTypeSelect},
		},
		SortBy: "hourly_rate", SortOrder: SortAsc,
	}
	assert.NoError(t, ok.Validate(catalog))

	t.Run("携带非法过滤器", func(t *testing.T) {
		q := ok.Clone()
		q.Filters[0].Operator = OpGt
		assert.ErrorIs(t, q.Validate(catalog), ErrInvalidOperator)
	})

	t.Run("排序字段不可排序", func(t *testing.T) {
		q := ok.Clone()
		q.SortBy = "category"
		assert.ErrorIs(t, q.Validate(catalog), ErrFieldNotSortable)
	})

	t.Run("无排序字段时不校验排序", func(t *testing.T) {
		q := ok.Clone()
		q.SortBy = ""
		assert.NoError(t, q.Validate(catalog))
	})
}

func TestCatalog_Subsets(t *testing.T) {
	catalog := newTestCatalog(t)

	filterable := catalog.FilterableFields()
	keys := make([]string, 0, len(filterable))
	for _, f := range filterable {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"title", "hourly_rate", "posted_at", "category", "remote"}, keys)

	sortable := catalog.SortableFields()
	keys = keys[:0]
	for _, f := range sortable {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"title", "hourly_rate", "posted_at"}, keys)

	assert.Equal(t, []string{"title", "description"}, catalog.SearchableKeys())

	assert.True(t, catalog.IsFilterable("remote"))
	assert.False(t, catalog.IsFilterable("description"))
	assert.False(t, catalog.IsSortable("category"))
	assert.False(t, catalog.IsSortable("nonexistent"))
}

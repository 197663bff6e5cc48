package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCatalog 构建一个覆盖全部五种字段类型的测试用字段目录。
func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	return NewCatalog([]FieldDefinition{
		{Key: "title", Label: "标题", Type: FieldTypeText, Searchable: true, Filterable: true, Sortable: true},
		{Key: "hourly_rate", Label: "时薪", Type: FieldTypeNumber, Filterable: true, Sortable: true},
		{Key: "posted_at", Label: "发布时间", Type: FieldTypeDate, Filterable: true, Sortable: true},
		{Key: "category", Label: "分类", Type: FieldTypeSelect, Filterable: true,
			Options: []Option{{Value: "bouw", Label: "建筑"}, {Value: "ict", Label: "ICT"}}},
		{Key: "remote", Label: "远程", Type: FieldTypeBoolean, Filterable: true},
		// 仅参与全文检索，不可过滤也不可排序。
		{Key: "description", Label: "描述", Type: FieldTypeText, Searchable: true},
	})
}

func TestKindForOperator(t *testing.T) {
	assert.Equal(t, ValueRange, KindForOperator(OpBetween))
	assert.Equal(t, ValueList, KindForOperator(OpIn))
	assert.Equal(t, ValueScalar, KindForOperator(OpEquals))
	assert.Equal(t, ValueScalar, KindForOperator(OpContains))
	assert.Equal(t, ValueScalar, KindForOperator(OpGte))
}

func TestFilterValue_IsZero(t *testing.T) {
	assert.True(t, FilterValue{}.IsZero())
	assert.False(t, Scalar("x").IsZero())
	assert.False(t, Range(1, 2).IsZero())
	assert.False(t, List("a", "b").IsZero())
}

func TestValidateValueForOperator(t *testing.T) {
	// 未设置的值合法：过滤器允许先创建后编辑。
	assert.NoError(t, ValidateValueForOperator(OpBetween, FilterValue{}))

	assert.NoError(t, ValidateValueForOperator(OpEquals, Scalar("go")))
	assert.NoError(t, ValidateValueForOperator(OpBetween, Range(10, 50)))
	assert.NoError(t, ValidateValueForOperator(OpIn, List("bouw", "ict")))

	// 形态与操作符不匹配。
	err := ValidateValueForOperator(OpBetween, Scalar(10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValueShape)

	err = ValidateValueForOperator(OpEquals, List("a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValueShape)
}

func TestSearchFilter_Validate(t *testing.T) {
	catalog := newTestCatalog(t)

	valid := SearchFilter{
		ID: "f-1", Field: "hourly_rate", Operator: OpBetween,
		Value: Range(30.0, 60.0), Type: FieldTypeNumber,
	}
	assert.NoError(t, valid.Validate(catalog))

	t.Run("未知字段", func(t *testing.T) {
		f := valid
		f.Field = "salary"
		assert.ErrorIs(t, f.Validate(catalog), ErrUnknownField)
	})

	t.Run("字段不可过滤", func(t *testing.T) {
		f := SearchFilter{ID: "f-2", Field: "description", Operator: OpContains, Type: FieldTypeText}
		assert.ErrorIs(t, f.Validate(catalog), ErrFieldNotFilterable)
	})

	t.Run("操作符不属于类型的集合", func(t *testing.T) {
		f := SearchFilter{ID: "f-3", Field: "remote", Operator: OpContains, Type: FieldTypeBoolean}
		assert.ErrorIs(t, f.Validate(catalog), ErrInvalidOperator)
	})

	t.Run("值形态与操作符不匹配", func(t *testing.T) {
		f := SearchFilter{ID: "f-4", Field: "category", Operator: OpIn, Value: Scalar("bouw"), Type: FieldTypeSelect}
		assert.ErrorIs(t, f.Validate(catalog), ErrInvalidValueShape)
	})

	t.Run("空值的过滤器合法", func(t *testing.T) {
		f := SearchFilter{ID: "f-5", Field: "title", Operator: OpContains, Type: FieldTypeText}
		assert.NoError(t, f.Validate(catalog))
	})
}

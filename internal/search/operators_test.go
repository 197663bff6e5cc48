package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 每种字段类型允许的操作符集合是封闭的，任何类型都不得出现集合之外的操作符。
func TestOperatorsForType_ClosedSets(t *testing.T) {
	tests := []struct {
		fieldType FieldType
		want      []Operator
	}{
		{FieldTypeText, []Operator{OpEquals, OpContains, OpStartsWith, OpEndsWith}},
		{FieldTypeNumber, []Operator{OpEquals, OpGt, OpLt, OpGte, OpLte, OpBetween}},
		{FieldTypeDate, []Operator{OpEquals, OpGt, OpLt, OpGte, OpLte, OpBetween}},
		{FieldTypeSelect, []Operator{OpEquals, OpIn}},
		{FieldTypeBoolean, []Operator{OpEquals}},
	}

	for _, tt := range tests {
		t.Run(string(tt.fieldType), func(t *testing.T) {
			assert.Equal(t, tt.want, OperatorsForType(tt.fieldType))
		})
	}
}

func TestOperatorsForType_UnknownTypeReturnsNil(t *testing.T) {
	assert.Nil(t, OperatorsForType(FieldType("geo")))
}

// 返回的切片是副本，调用方的修改不得污染内部映射。
func TestOperatorsForType_ReturnsCopy(t *testing.T) {
	ops := OperatorsForType(FieldTypeBoolean)
	ops[0] = OpContains

	assert.Equal(t, []Operator{OpEquals}, OperatorsForType(FieldTypeBoolean))
}

// 默认操作符：text 为 contains，其余类型一律 equals。
func TestDefaultOperatorForType(t *testing.T) {
	assert.Equal(t, OpContains, DefaultOperatorForType(FieldTypeText))
	assert.Equal(t, OpEquals, DefaultOperatorForType(FieldTypeNumber))
	assert.Equal(t, OpEquals, DefaultOperatorForType(FieldTypeDate))
	assert.Equal(t, OpEquals, DefaultOperatorForType(FieldTypeSelect))
	assert.Equal(t, OpEquals, DefaultOperatorForType(FieldTypeBoolean))
}

func TestIsOperatorValidForType(t *testing.T) {
	assert.True(t, IsOperatorValidForType(OpContains, FieldTypeText))
	assert.True(t, IsOperatorValidForType(OpBetween, FieldTypeNumber))
	assert.True(t, IsOperatorValidForType(OpIn, FieldTypeSelect))

	// 跨类型借用操作符必须被拒绝。
	assert.False(t, IsOperatorValidForType(OpContains, FieldTypeNumber))
	assert.False(t, IsOperatorValidForType(OpBetween, FieldTypeSelect))
	assert.False(t, IsOperatorValidForType(OpIn, FieldTypeBoolean))
	assert.False(t, IsOperatorValidForType(OpGt, FieldTypeText))
}

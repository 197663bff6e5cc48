package search

import (
	"errors"
	"fmt"
)

// 包级哨兵错误，供调用方通过 errors.Is 判断具体的校验失败原因。
var (
	ErrUnknownField       = errors.New("字段在目录中不存在")
	ErrFieldNotFilterable = errors.New("字段不允许作为过滤条件")
	ErrFieldNotSortable   = errors.New("字段不允许作为排序目标")
	ErrInvalidOperator    = errors.New("操作符不属于该字段类型的合法集合")
	ErrInvalidValueShape  = errors.New("过滤值的形态与操作符不匹配")
)

// ValueKind 表示过滤值的形态标签。
// 采用带标签的变体而非无类型的任意值，使 “between/in 取区间/列表” 这一
// 不变式可以在校验阶段被静态检查。
type ValueKind string

const (
	ValueScalar ValueKind = "scalar" // 单个标量
	ValueRange  ValueKind = "range"  // 闭区间 [Lo, Hi]
	ValueList   ValueKind = "list"   // 值列表
)

// FilterValue 是过滤器携带的多态值。
// Kind 决定哪些字段有效：scalar 用 Scalar，range 用 Lo/Hi，list 用 List。
// 元素类型依字段类型而定（text/select 为字符串，number 为数值，date 为
// RFC3339 字符串，boolean 为布尔），与 Elasticsearch 文档字段保持一致。
type FilterValue struct {
	Kind   ValueKind     `json:"kind"`
	Scalar interface{}   `json:"scalar,omitempty"`
	Lo     interface{}   `json:"lo,omitempty"`
	Hi     interface{}   `json:"hi,omitempty"`
	List   []interface{} `json:"list,omitempty"`
}

// Scalar 构造一个标量形态的过滤值。
func Scalar(v interface{}) FilterValue {
	return FilterValue{Kind: ValueScalar, Scalar: v}
}

// Range 构造一个闭区间形态的过滤值，供 between 操作符使用。
func Range(lo, hi interface{}) FilterValue {
	return FilterValue{Kind: ValueRange, Lo: lo, Hi: hi}
}

// List 构造一个列表形态的过滤值，供 in 操作符使用。
func List(values ...interface{}) FilterValue {
	return FilterValue{Kind: ValueList, List: values}
}

// IsZero 判断过滤值是否为未设置状态（新建过滤器时值允许为空，直到用户编辑）。
func (v FilterValue) IsZero() bool {
	return v.Kind == "" && v.Scalar == nil && v.Lo == nil && v.Hi == nil && len(v.List) == 0
}

// KindForOperator 返回操作符要求的值形态：between 要求区间，in 要求列表，
// 其余操作符一律要求标量。
func KindForOperator(op Operator) ValueKind {
	switch op {
	case OpBetween:
		return ValueRange
	case OpIn:
		return ValueList
	default:
		return ValueScalar
	}
}

// ValidateValueForOperator 校验过滤值的形态是否满足操作符的要求。
// 未设置的值（IsZero）视为合法：过滤器允许先创建后编辑。
func ValidateValueForOperator(op Operator, v FilterValue) error {
	if v.IsZero() {
		return nil
	}
	want := KindForOperator(op)
	if v.Kind != want {
		return fmt.Errorf("操作符 '%s' 要求 %s 形态的值，实际为 %s: %w", op, want, v.Kind, ErrInvalidValueShape)
	}
	return nil
}

// SearchFilter 表示查询中的一条过滤约束。
// Type 在创建时从字段定义镜像而来并固定不变；不支持修改过滤器的类型，
// 需要换类型时应删除后重建。
// 不变式：Operator 必须始终属于 Type 对应的合法操作符集合。
type SearchFilter struct {
	ID       string      `json:"id"`       // 创建时分配的不透明唯一标识
	Field    string      `json:"field"`    // 字段目录中的键
	Operator Operator    `json:"operator"` // 比较操作符
	Value    FilterValue `json:"value"`    // 多态过滤值
	Type     FieldType   `json:"type"`     // 镜像自字段定义的类型
}

// Validate 对过滤器做完整校验：字段必须存在且可过滤、操作符属于类型的
// 合法集合、值形态与操作符匹配。
func (f SearchFilter) Validate(catalog *Catalog) error {
	def, ok := catalog.Field(f.Field)
	if !ok {
		return fmt.Errorf("字段 '%s': %w", f.Field, ErrUnknownField)
	}
	if !def.Filterable {
		return fmt.Errorf("字段 '%s': %w", f.Field, ErrFieldNotFilterable)
	}
	if !IsOperatorValidForType(f.Operator, f.Type) {
		return fmt.Errorf("字段 '%s' (类型 %s) 不支持操作符 '%s': %w", f.Field, f.Type, f.Operator, ErrInvalidOperator)
	}
	if err := ValidateValueForOperator(f.Operator, f.Value); err != nil {
		return fmt.Errorf("字段 '%s': %w", f.Field, err)
	}
	return nil
}

// FilterPatch 表示对既有过滤器的部分更新。
// nil 字段表示保持原值。按规约，更新不重新校验操作符与类型的匹配关系，
// 只提供合法操作符是值编辑方（按类型特化的编辑器）的职责。
type FilterPatch struct {
	Operator *Operator
	Value    *FilterValue
}

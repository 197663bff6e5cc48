package search

// Operator 表示过滤器的比较操作符。
// 操作符集合是封闭的：每种字段类型只允许使用 OperatorsForType 返回的操作符，
// 过滤器编辑界面不得提供集合之外的选项。
type Operator string

const (
	OpEquals     Operator = "equals"      // 精确相等（所有类型）
	OpContains   Operator = "contains"    // 包含子串（仅 text）
	OpStartsWith Operator = "starts_with" // 前缀匹配（仅 text）
	OpEndsWith   Operator = "ends_with"   // 后缀匹配（仅 text）
	OpGt         Operator = "gt"          // 大于（number/date）
	OpLt         Operator = "lt"          // 小于（number/date）
	OpGte        Operator = "gte"         // 大于等于（number/date）
	OpLte        Operator = "lte"         // 小于等于（number/date）
	OpBetween    Operator = "between"     // 闭区间（number/date），取 Range 形态的值
	OpIn         Operator = "in"          // 属于集合（select），取 List 形态的值
)

// operatorsByType 是字段类型到合法操作符集合的固定映射。
// 注意：切片的顺序即编辑界面中操作符的展示顺序。
var operatorsByType = map[FieldType][]Operator{
	FieldTypeText:    {OpEquals, OpContains, OpStartsWith, OpEndsWith},
	FieldTypeNumber:  {OpEquals, OpGt, OpLt, OpGte, OpLte, OpBetween},
	FieldTypeDate:    {OpEquals, OpGt, OpLt, OpGte, OpLte, OpBetween},
	FieldTypeSelect:  {OpEquals, OpIn},
	FieldTypeBoolean: {OpEquals},
}

// OperatorsForType 返回给定字段类型允许的操作符集合（副本）。
// 未知类型返回空切片，调用方由此自然地无法为其创建过滤器。
func OperatorsForType(t FieldType) []Operator {
	ops, ok := operatorsByType[t]
	if !ok {
		return nil
	}
	out := make([]Operator, len(ops))
	copy(out, ops)
	return out
}

// DefaultOperatorForType 返回新建过滤器时的默认操作符：
// text 类型为 contains，其余类型为 equals。
func DefaultOperatorForType(t FieldType) Operator {
	if t == FieldTypeText {
		return OpContains
	}
	return OpEquals
}

// IsOperatorValidForType 判断操作符是否属于给定字段类型的合法集合。
func IsOperatorValidForType(op Operator, t FieldType) bool {
	for _, candidate := range operatorsByType[t] {
		if candidate == op {
			return true
		}
	}
	return false
}

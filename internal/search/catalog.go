package search

// FieldType 表示字段目录中声明的字段类型。
// 字段类型在过滤器创建时被固化到过滤器上，决定了该过滤器允许的操作符集合
// 以及值编辑控件的形态。
type FieldType string

const (
	FieldTypeText    FieldType = "text"    // 自由文本字段
	FieldTypeNumber  FieldType = "number"  // 数值字段
	FieldTypeDate    FieldType = "date"    // 日期字段
	FieldTypeSelect  FieldType = "select"  // 枚举选择字段，选项由 FieldDefinition.Options 提供
	FieldTypeBoolean FieldType = "boolean" // 布尔字段
)

// Option 表示 select 类型字段的一个可选值。
type Option struct {
	Value string `json:"value"` // 实际参与过滤的值
	Label string `json:"label"` // 展示给用户的文案
}

// FieldDefinition 描述字段目录中的一个字段及其三个相互独立的能力开关。
// 不变式：只有 Filterable 的字段可以被加入过滤器；只有 Sortable 的字段
// 可以作为排序目标；Searchable 字段参与自由文本检索。
type FieldDefinition struct {
	Key        string    `json:"key"`               // 字段的唯一键，同时也是 Elasticsearch 文档中的字段名
	Label      string    `json:"label"`             // 展示名称
	Type       FieldType `json:"type"`              // 字段类型
	Options    []Option  `json:"options,omitempty"` // 仅 select 类型字段使用
	Searchable bool      `json:"searchable"`        // 是否参与自由文本检索
	Filterable bool      `json:"filterable"`        // 是否允许作为过滤条件
	Sortable   bool      `json:"sortable"`          // 是否允许作为排序字段
}

// Catalog 是由宿主方提供的、有序且只读的字段目录。
// 目录在组件的整个生命周期内不会变化，因此内部不需要任何锁。
type Catalog struct {
	fields []FieldDefinition
	byKey  map[string]int // key -> fields 切片下标
}

// NewCatalog 基于字段定义列表构建字段目录。
// 字段顺序被保留；键重复时后出现的定义覆盖先出现的定义。
func NewCatalog(fields []FieldDefinition) *Catalog {
	c := &Catalog{
		fields: make([]FieldDefinition, len(fields)),
		byKey:  make(map[string]int, len(fields)),
	}
	copy(c.fields, fields)
	for i, f := range c.fields {
		c.byKey[f.Key] = i
	}
	return c
}

// Field 根据键查找字段定义。
func (c *Catalog) Field(key string) (FieldDefinition, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return FieldDefinition{}, false
	}
	return c.fields[i], true
}

// Fields 返回目录中全部字段定义的副本，保持声明顺序。
func (c *Catalog) Fields() []FieldDefinition {
	out := make([]FieldDefinition, len(c.fields))
	copy(out, c.fields)
	return out
}

// FilterableFields 返回可作为过滤条件的字段子集，供“添加过滤器”选择器使用。
func (c *Catalog) FilterableFields() []FieldDefinition {
	out := make([]FieldDefinition, 0, len(c.fields))
	for _, f := range c.fields {
		if f.Filterable {
			out = append(out, f)
		}
	}
	return out
}

// SortableFields 返回可作为排序目标的字段子集。
func (c *Catalog) SortableFields() []FieldDefinition {
	out := make([]FieldDefinition, 0, len(c.fields))
	for _, f := range c.fields {
		if f.Sortable {
			out = append(out, f)
		}
	}
	return out
}

// SearchableKeys 返回参与自由文本检索的字段键列表。
// 查询构建方可以在键上追加权重后缀（例如 "title^3"）。
func (c *Catalog) SearchableKeys() []string {
	out := make([]string, 0, len(c.fields))
	for _, f := range c.fields {
		if f.Searchable {
			out = append(out, f.Key)
		}
	}
	return out
}

// IsFilterable 判断给定键的字段是否允许作为过滤条件。未知字段返回 false。
func (c *Catalog) IsFilterable(key string) bool {
	f, ok := c.Field(key)
	return ok && f.Filterable
}

// IsSortable 判断给定键的字段是否允许作为排序目标。未知字段返回 false。
func (c *Catalog) IsSortable(key string) bool {
	f, ok := c.Field(key)
	return ok && f.Sortable
}

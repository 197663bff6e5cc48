package config

// SearchConfig 包含搜索核心（查询组合器与过滤器引擎）的可调参数。
// 这些参数约束的是查询的组合行为，而非 Elasticsearch 本身。
type SearchConfig struct {
	// DebounceMs 是自由文本输入的防抖窗口（毫秒）。0 表示使用内置默认值。
	DebounceMs int `mapstructure:"debounceMs" default:"300"`

	// MaxFilters 是单个查询允许的过滤器数量上限。0 表示使用内置默认值。
	MaxFilters int `mapstructure:"maxFilters" default:"10"`

	// SuggestionLimit 是返回给调用方的搜索建议数量上限。
	SuggestionLimit int `mapstructure:"suggestionLimit" default:"5"`

	// FacetSize 是每个分面字段返回的 值/计数 对数量上限。
	FacetSize int `mapstructure:"facetSize" default:"10"`
}

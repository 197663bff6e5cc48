package models

// SearchJobsRequest 定义职位搜索 API 请求的参数及验证规则。
// 结构化过滤器通过 filters 参数以 JSON 数组传递（元素结构见 search.SearchFilter），
// 由 handler 解析并按字段目录校验后并入查询。
type SearchJobsRequest struct {
	Query     string `form:"q"`                                                          // 搜索关键词，非必需
	Page      int    `form:"page,default=1" binding:"omitempty,min=1"`                   // 页码，可选，默认为1，最小为1
	Size      int    `form:"size,default=10" binding:"omitempty,min=1,max=100"`          // 每页大小，可选，默认10，范围1-100
	SortBy    string `form:"sort_by" binding:"omitempty"`                                // 排序字段，可选；为空时按相关性排序
	SortOrder string `form:"sort_order,default=desc" binding:"omitempty,oneof=asc desc"` // 排序顺序，可选，默认 desc
	Filters   string `form:"filters" binding:"omitempty"`                                // 结构化过滤器，JSON 数组字符串
}

// SaveSearchRequest 定义保存当前查询为 SavedSearch 的请求体。
// Query 字段为完整的 search.SearchQuery JSON。
type SaveSearchRequest struct {
	Name  string `json:"name" binding:"required"`
	Query string `json:"query" binding:"required"`
}

// SaveFiltersRequest 定义保存过滤器模板或过滤器集合的请求体。
// Filters 为 search.SearchFilter 的 JSON 数组。
type SaveFiltersRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`
	Filters     string `json:"filters" binding:"required"`
}

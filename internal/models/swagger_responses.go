package models

// 本文件中的结构体仅用于 Swagger 文档生成：swag 工具无法解析
// response.APIResponse 的泛型形态，这里以具体类型镜像实际的响应信封。
// 实际代码路径仍使用 gateway/pkg/response 的泛型响应。

// SwaggerSearchResultResponse 镜像职位搜索成功时的响应信封。
// Data 的实际类型为 search.SearchResult。
type SwaggerSearchResultResponse struct {
	Code    int         `json:"code"`           // 业务状态码，0 代表成功
	Message string      `json:"message"`        // 操作结果的文字描述
	Data    interface{} `json:"data,omitempty"` // search.SearchResult 负载
}

// SwaggerErrorResponse 镜像错误响应信封。
type SwaggerErrorResponse struct {
	Code    int         `json:"code"`           // 业务错误码
	Message string      `json:"message"`        // 错误描述
	Data    interface{} `json:"data,omitempty"` // 错误响应中通常为 null
}

// SwaggerHotSearchTermsResponse 镜像热门搜索词列表的响应信封。
type SwaggerHotSearchTermsResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    []HotSearchTerm `json:"data,omitempty"`
}

// SwaggerFieldCatalogResponse 镜像字段目录的响应信封。
// Data 的实际类型为 []search.FieldDefinition。
type SwaggerFieldCatalogResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

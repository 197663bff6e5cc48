package constants

// 服务的基础标识信息，用于日志、链路追踪和 Swagger 文档。
const (
	// ServiceName 是本服务在注册中心、链路追踪和日志系统中的统一名称。
	ServiceName = "job-search-service"

	// ServiceVersion 是当前服务的版本号，随发布更新。
	ServiceVersion = "1.0.0"
)

// 搜索核心的默认参数。
const (
	// DefaultDebounceMs 是自由文本输入触发搜索前的防抖窗口（毫秒）。
	// 仅对文本输入生效，过滤器的增删改会立即触发重新执行。
	DefaultDebounceMs = 300

	// DefaultMaxFilters 是单个查询允许携带的过滤器数量上限。
	// 达到上限后，新增过滤器的请求将被静默忽略。
	DefaultMaxFilters = 10

	// DefaultPageSize 是搜索结果的默认分页大小。
	DefaultPageSize = 10
)

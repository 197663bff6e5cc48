package models

import "time"

// JobStatus 表示职位在市场中的生命周期状态。
// 在 Elasticsearch 中存储为整数，便于精确过滤与聚合。
type JobStatus uint8

const (
	JobStatusOpen   JobStatus = 0 // 开放中，可接单
	JobStatusFilled JobStatus = 1 // 已有人接单
	JobStatusClosed JobStatus = 2 // 已关闭（过期或雇主撤下）
)

// EsJobDocument 表示存储在 Elasticsearch 职位索引中的文档结构。
// 字段键与搜索核心的字段目录保持一致（见 service.JobFieldCatalog）。
type EsJobDocument struct {
	ID           uint64    `json:"id"`                                                 // 职位唯一标识符
	Title        string    `json:"title"`                                              // 职位标题
	Description  string    `json:"description"`                                        // 职位描述
	Category     string    `json:"category"`                                           // 行业分类（如 construction、it、care）
	Location     string    `json:"location"`                                           // 工作地点（城市）
	EmployerID   string    `json:"employer_id"`                                        // 雇主的用户 ID
	EmployerName string    `json:"employer_name"`                                      // 雇主的展示名称
	HourlyRate   float64   `json:"hourly_rate"`                                        // 时薪（欧元）
	Remote       bool      `json:"remote"`                                             // 是否支持远程
	Status       JobStatus `json:"status" swaggertype:"primitive,integer" example:"0"` // 职位状态
	PostedAt     time.Time `json:"posted_at"`                                          // 职位发布时间
	UpdatedAt    time.Time `json:"updated_at"`                                         // 文档在 Elasticsearch 中最后更新的时间戳
}

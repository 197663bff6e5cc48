package models

// KafkaJobUpsertEvent 镜像了职位服务在职位发布或更新通过审核后发送的事件结构。
// 消费侧据此创建或更新 Elasticsearch 中的职位文档。
type KafkaJobUpsertEvent struct {
	EventID      string    `json:"event_id"`      // 事件唯一标识，用于日志关联
	ID           uint64    `json:"id"`            // 职位唯一标识符
	Title        string    `json:"title"`         // 职位标题
	Description  string    `json:"description"`   // 职位描述
	Category     string    `json:"category"`      // 行业分类
	Location     string    `json:"location"`      // 工作地点
	EmployerID   string    `json:"employer_id"`   // 雇主的用户 ID
	EmployerName string    `json:"employer_name"` // 雇主的展示名称
	HourlyRate   float64   `json:"hourly_rate"`   // 时薪
	Remote       bool      `json:"remote"`        // 是否支持远程
	Status       JobStatus `json:"status"`        // 职位状态
	PostedAt     int64     `json:"posted_at"`     // 发布时间，Unix 秒
}

// KafkaJobDeleteEvent 镜像了职位服务发送的职位删除事件的结构。
type KafkaJobDeleteEvent struct {
	EventID   string `json:"event_id"`  // 事件唯一标识
	Operation string `json:"operation"` // 操作类型，期望值为 "delete"
	JobID     uint64 `json:"job_id"`    // 需要删除的职位的唯一标识符
}

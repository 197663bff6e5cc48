package models

import "time"

// HotSearchTerm 定义 API 返回的热门搜索词的结构。
type HotSearchTerm struct {
	Term  string `json:"term"`            // 搜索词本身
	Count int64  `json:"count,omitempty"` // 搜索词的累计频次，为 0 时不输出
}

// HotSearchTermES 定义在 Elasticsearch 中存储搜索词统计数据的结构。
// 搜索词经规范化（小写、去首尾空白）后以词本身作为文档 ID，通过脚本化
// upsert 累加计数。该索引同时是搜索建议（前缀匹配）的数据来源。
type HotSearchTermES struct {
	Term           string    `json:"term"`             // 规范化后的搜索词
	Count          int64     `json:"count"`            // 累计被搜索的次数
	LastSearchedAt time.Time `json:"last_searched_at"` // 最后一次被搜索的时间，UTC
}
